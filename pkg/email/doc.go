// Package email sends transactional membership emails through Postmark.
// A DevSender writes emails to disk instead, for local development where
// no Postmark tokens are configured.
package email
