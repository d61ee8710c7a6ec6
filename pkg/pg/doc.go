// Package pg owns the PostgreSQL connection pool and schema migrations.
// Connect retries with backoff so the service tolerates a database that
// comes up after it; Migrate applies goose SQL migrations through the same
// pgx pool.
package pg
