// Package queue provides the async task boundary: a storage-backed task
// queue with best-effort enqueueing and a polling worker pool.
//
// Lifecycle handlers enqueue side effects (community membership changes,
// notification emails) and never wait on their execution; retry policy lives
// here, not in the enqueuing code. Storage implementations: in-memory for
// tests and Postgres for production.
package queue
