package session

import "time"

// Config holds session configuration. The 30-day lifetime matches how
// long a visitor's guest likes and login are expected to survive.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// TTL is the session lifetime for both guests and logged-in users.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// CleanupInterval for expired sessions in the memory store (0 disables).
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`

	// SecureCookies enables the Secure flag on session cookies.
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	// Store selects the backend: "memory" or "redis".
	Store string `env:"SESSION_STORE" envDefault:"memory"`

	// RedisURL is required when Store is "redis".
	RedisURL string `env:"SESSION_REDIS_URL" envDefault:""`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:      "sid",
		TTL:             30 * 24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
		Store:           "memory",
	}
}
