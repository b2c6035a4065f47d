package identity

import "context"

// ProviderAdapter hides provider-specific OAuth details behind a
// uniform contract. Adapters exchange the authorization code, fetch
// the profile endpoint and normalize the result; nothing downstream
// branches on the provider.
type ProviderAdapter interface {
	// Provider returns the provider identifier ("google", "github", ...).
	Provider() string

	// AuthCodeURL builds the provider authorization URL carrying the
	// anti-forgery state token.
	AuthCodeURL(state string) string

	// ResolveIdentity exchanges the authorization code and returns the
	// normalized profile.
	ResolveIdentity(ctx context.Context, code string) (ExternalIdentity, error)
}
