// Package requestid attaches a correlation ID to every HTTP request.
//
// The middleware reuses a valid client-supplied X-Request-ID header or
// generates a UUID, stores the ID in the request context, and echoes it in
// the response. LoggerExtractor plugs the ID into the logger's context
// extractors so every log line of a request carries it.
package requestid
