// Package store defines interfaces for task and user persistence.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic; the postgres and mongo packages under
// internal/platform provide the implementations.
package store
