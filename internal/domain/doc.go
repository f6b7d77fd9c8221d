// Package domain contains the core business entities, value objects, and
// domain logic of the application: tasks, users, and the profile analytics
// computed from them. It is independent of any storage or transport.
package domain
