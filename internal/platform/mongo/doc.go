// Package mongo implements the internal/store interfaces on MongoDB, selected
// with database.driver=mongo. Documents are keyed by the string form of the
// domain UUIDs so ids stay identical across backends.
package mongo
