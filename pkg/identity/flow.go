package identity

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/soundrift/soundrift/pkg/sanitizer"
	"github.com/soundrift/soundrift/pkg/session"
)

// Session data keys used by the OAuth flow, suffixed with the provider
// so parallel flows against different providers cannot clobber each
// other's state.
const (
	stateKeyPrefix = "oauthState:"
	nextKeyPrefix  = "oauthNext:"
)

// Flow orchestrates the OAuth begin/callback round trip across the
// registered provider adapters. State tokens and the post-login
// redirect target live in the caller's session and are single-use.
type Flow struct {
	identity *Service
	adapters map[string]ProviderAdapter
}

// NewFlow creates a Flow over the given adapters.
func NewFlow(identity *Service, adapters ...ProviderAdapter) *Flow {
	m := make(map[string]ProviderAdapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider()] = a
	}
	return &Flow{identity: identity, adapters: m}
}

// Providers lists the registered provider identifiers.
func (f *Flow) Providers() []string {
	out := make([]string, 0, len(f.adapters))
	for p := range f.adapters {
		out = append(out, p)
	}
	return out
}

// Begin records a fresh state token and the sanitized next target in
// the session and returns the provider authorization URL to redirect
// to. The caller must persist the session before redirecting.
func (f *Flow) Begin(sess *session.Session, provider, next string) (string, error) {
	adapter, ok := f.adapters[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	sess.Set(stateKeyPrefix+provider, state)
	sess.Set(nextKeyPrefix+provider, sanitizer.RedirectPath(next, "/"))

	return adapter.AuthCodeURL(state), nil
}

// Callback verifies the returned state against the one recorded for
// the provider, resolves the provider profile and upserts the account.
// On a state mismatch nothing is consumed, so a legitimate concurrent
// callback can still complete. On success both session keys are
// cleared and the recorded next target is returned alongside the user.
func (f *Flow) Callback(ctx context.Context, sess *session.Session, provider, code, state string) (*User, string, error) {
	adapter, ok := f.adapters[provider]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	want, _ := sess.GetString(stateKeyPrefix + provider)
	if want == "" || state == "" ||
		subtle.ConstantTimeCompare([]byte(want), []byte(state)) != 1 {
		return nil, "", ErrStateMismatch
	}

	recorded, _ := sess.GetString(nextKeyPrefix + provider)
	next := sanitizer.RedirectPath(recorded, "/")
	sess.Delete(stateKeyPrefix + provider)
	sess.Delete(nextKeyPrefix + provider)

	ext, err := adapter.ResolveIdentity(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s identity: %w", provider, err)
	}

	user, err := f.identity.UpsertOAuthUser(ctx, ext)
	if err != nil {
		return nil, "", err
	}
	return user, next, nil
}

func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
