package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
)

// Manager handles session lifecycle against a Store and a Transport.
type Manager struct {
	store     Store
	transport Transport
	config    Config
}

// Option configures a Manager during construction.
type Option func(*Manager)

// WithStore sets the session store.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithTransport sets the token transport.
func WithTransport(transport Transport) Option {
	return func(m *Manager) { m.transport = transport }
}

// WithConfig sets the session configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.config = cfg }
}

// NewManager creates a session manager. The transport is required; the
// store defaults to an in-memory one.
func NewManager(opts ...Option) *Manager {
	m := &Manager{config: DefaultConfig()}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}
	if m.transport == nil {
		// Fail fast: running without a transport silently loses sessions.
		panic("session: transport is required")
	}
	return m
}

// Ensure returns the request's session, creating a new guest session
// (and setting its cookie) when none exists or the stored one is stale.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) {
		return nil, err
	}
	_ = m.transport.ClearToken(w)

	session, err = m.create(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, session.Token, m.config.TTL); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}
	return session, nil
}

// Get retrieves the existing session for the request, if any.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}
	return m.store.Get(ctx, token)
}

// Save persists mutations made to the session data bag.
func (m *Manager) Save(ctx context.Context, session *Session) error {
	return m.store.Update(ctx, session)
}

// Authenticate binds the session to a user and rotates the token to
// prevent session fixation. The session data bag is preserved so guest
// likes survive into the authenticated session for merging.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err != nil {
		session, err = m.create(ctx)
		if err != nil {
			return nil, err
		}
	}

	newToken, err := generateToken()
	if err != nil {
		return nil, err
	}

	_ = m.store.Delete(ctx, session.Token)

	session.Token = newToken
	session.UserID = userID
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, session.Token, m.config.TTL); err != nil {
		return nil, err
	}
	return session, nil
}

// Destroy deletes the session and clears its cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token, err := m.transport.GetToken(r)
	if err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}
	return m.transport.ClearToken(w)
}

func (m *Manager) create(ctx context.Context) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	session := New(token, m.config.TTL)
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// generateToken creates a cryptographically secure opaque token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
