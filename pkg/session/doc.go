// Package session provides cookie-based session management for the member
// HTTP surface. Sessions are issued on login, carry the user ID, and are
// persisted in a pluggable Store (in-memory for development and tests,
// Redis in production).
package session
