package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrift/soundrift/pkg/cookie"
)

const (
	secretA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	secretB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty secrets", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.New(nil)
		assert.ErrorIs(t, err, cookie.ErrNoSecret)

		_, err = cookie.New([]string{""})
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("rejects short secret", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.New([]string{"too-short"})
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})
}

func roundTrip(t *testing.T, m *cookie.Manager, name, value string) *http.Request {
	t.Helper()

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetEncrypted(rec, name, value))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestEncryptedRoundTrip(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	req := roundTrip(t, m, "sid", "token-123")

	got, err := m.GetEncrypted(req, "sid")
	require.NoError(t, err)
	assert.Equal(t, "token-123", got)

	// The on-wire value must not contain the plaintext.
	c, err := req.Cookie("sid")
	require.NoError(t, err)
	assert.NotContains(t, c.Value, "token-123")
}

func TestKeyRotation(t *testing.T) {
	t.Parallel()

	old, err := cookie.New([]string{secretB})
	require.NoError(t, err)
	req := roundTrip(t, old, "sid", "survives-rotation")

	// New manager encrypts with secretA but still accepts secretB cookies.
	rotated, err := cookie.New([]string{secretA, secretB})
	require.NoError(t, err)

	got, err := rotated.GetEncrypted(req, "sid")
	require.NoError(t, err)
	assert.Equal(t, "survives-rotation", got)
}

func TestDecryptFailures(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = m.GetEncrypted(req, "missing")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)

	req.AddCookie(&http.Cookie{Name: "sid", Value: "not-base64!!!"})
	_, err = m.GetEncrypted(req, "sid")
	assert.ErrorIs(t, err, cookie.ErrInvalidFormat)

	wrongKey, err := cookie.New([]string{secretB})
	require.NoError(t, err)
	tampered := roundTrip(t, m, "sid2", "value")
	_, err = wrongKey.GetEncrypted(tampered, "sid2")
	assert.ErrorIs(t, err, cookie.ErrDecryptionFailed)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Delete(rec, "sid")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}
