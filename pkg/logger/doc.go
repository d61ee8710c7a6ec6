// Package logger builds the application's slog.Logger. Production gets JSON
// output for log aggregation, development gets text output at debug level.
// Context extractors inject request-scoped attributes (request ID, user ID)
// into every record without threading them through call sites.
package logger
