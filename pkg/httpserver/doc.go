// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts and health-check handlers. Run blocks until the context is
// cancelled or an interrupt/TERM signal arrives, then drains in-flight
// requests within the shutdown deadline.
package httpserver
