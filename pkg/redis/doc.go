// Package redis connects the application to Redis, used for session
// storage. Connect retries with a fixed interval so the service survives a
// slow-starting Redis during deploys.
package redis
