// Package events lets services announce domain changes without knowing who
// reacts to them. Handlers run synchronously in registration order; avatar
// file cleanup after account deletion is the main consumer.
package events
