// Package postgres implements the internal/store interfaces on PostgreSQL
// through the pgx stdlib driver. The schema lives in embedded goose
// migrations (see Migrate).
package postgres
