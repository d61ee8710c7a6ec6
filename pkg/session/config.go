package session

import "time"

// Config holds session settings loaded from the environment.
type Config struct {
	CookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"sid"`
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SecureCookies bool          `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

// DefaultConfig returns the defaults used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		CookieName:    "sid",
		TTL:           30 * 24 * time.Hour,
		SecureCookies: false,
	}
}
