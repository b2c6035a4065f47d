// Package sanitizer normalizes untrusted input before it reaches the
// identity store or ends up in a redirect.
package sanitizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	dotRegex   = regexp.MustCompile(`\.{2,}`)
	spaceRegex = regexp.MustCompile(`\s+`)
)

// NormalizeEmail lowercases and trims an email address and collapses
// consecutive dots in the local part. Invalid shapes are returned
// trimmed and lowercased so duplicate checks still compare
// consistently.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	local := dotRegex.ReplaceAllString(parts[0], ".")
	local = strings.Trim(local, ".")

	return local + "@" + parts[1]
}

// NormalizeDisplayName applies Unicode NFC normalization and collapses
// runs of whitespace. OAuth providers disagree on both, which would
// otherwise produce visually identical but byte-different names.
func NormalizeDisplayName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	return spaceRegex.ReplaceAllString(name, " ")
}

// RedirectPath restricts a post-login redirect target to a same-origin
// relative path. Scheme-qualified and protocol-relative values are
// rejected to prevent open redirects; anything unusable falls back to
// fallback.
func RedirectPath(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" {
		return fallback
	}
	// "//evil.com" and "/\evil.com" are treated as protocol-relative by
	// browsers.
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if strings.ContainsAny(next, "\r\n") {
		return fallback
	}
	return next
}
