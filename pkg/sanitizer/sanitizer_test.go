package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundrift/soundrift/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and trims", "  Bob@Example.COM ", "bob@example.com"},
		{"collapses consecutive dots", "b..ob@example.com", "b.ob@example.com"},
		{"strips leading and trailing dots", ".bob.@example.com", "bob@example.com"},
		{"leaves invalid shape trimmed", "  NOT-AN-EMAIL ", "not-an-email"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.NormalizeEmail(tt.input))
		})
	}
}

func TestNormalizeDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Bob Marley", sanitizer.NormalizeDisplayName("  Bob \t Marley "))
	// NFC composes the combining acute accent into a single rune.
	assert.Equal(t, "Beyoncé", sanitizer.NormalizeDisplayName("Beyoncé"))
	assert.Equal(t, "", sanitizer.NormalizeDisplayName("   "))
}

func TestRedirectPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		next string
		want string
	}{
		{"relative path allowed", "/tracks/t1", "/tracks/t1"},
		{"empty falls back", "", "/"},
		{"absolute url rejected", "https://evil.com/", "/"},
		{"protocol-relative rejected", "//evil.com/", "/"},
		{"backslash variant rejected", "/\\evil.com", "/"},
		{"header injection rejected", "/ok\r\nSet-Cookie: x", "/"},
		{"bare word rejected", "tracks", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.RedirectPath(tt.next, "/"))
		})
	}
}
