// Package slug converts titles and display names into URL-safe
// identifiers for share links.
package slug

import (
	"crypto/rand"
	"strings"
	"unicode"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Option configures slug generation.
type Option func(*config)

type config struct {
	maxLength    int
	suffixLength int
}

// MaxLength truncates the slug to at most n characters. The random
// suffix, when present, is appended after truncation.
func MaxLength(n int) Option {
	return func(c *config) { c.maxLength = n }
}

// WithSuffix appends a random alphanumeric suffix of the given length
// to reduce collisions between identical titles.
func WithSuffix(n int) Option {
	return func(c *config) { c.suffixLength = n }
}

// Make converts a string into a lowercase hyphen-separated slug.
// Diacritics are dropped, runs of non-alphanumeric characters collapse
// into single hyphens.
func Make(s string, opts ...Option) string {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsLetter(r):
			// Non-ASCII letters are dropped rather than transliterated.
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	out := strings.Trim(b.String(), "-")
	if cfg.maxLength > 0 && len(out) > cfg.maxLength {
		out = strings.Trim(out[:cfg.maxLength], "-")
	}

	if cfg.suffixLength > 0 {
		suffix := randomSuffix(cfg.suffixLength)
		if out == "" {
			return suffix
		}
		return out + "-" + suffix
	}
	if out == "" {
		return randomSuffix(8)
	}
	return out
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failures are not recoverable here.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf)
}
