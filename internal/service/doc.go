// Package service contains the application use cases: task management,
// account signup and login (password and OAuth), and the profile page with
// its analytics, account deletion, and avatar handling.
//
// Services receive their stores, token service, and event emitter through
// constructor injection and never depend on a concrete storage backend.
// Expected failures are reported with sentinel errors (from this package,
// store, domain, and auth) that the API layer maps onto HTTP status codes;
// unexpected failures are wrapped in *ServiceError.
package service
