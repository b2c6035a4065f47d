package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/soundrift/soundrift/pkg/logger"
	"github.com/soundrift/soundrift/pkg/sanitizer"
)

// minPasswordLen is the minimum accepted password length for local
// registration.
const minPasswordLen = 6

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service implements account resolution and local authentication over
// a Storage backend.
type Service struct {
	storage Storage
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Service during construction.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the identity service.
func NewService(storage Storage, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertOAuthUser resolves a provider profile to an account. Resolution
// order:
//
//  1. direct match on (provider, providerID), as primary identity or
//     through an existing OAuthLinks entry;
//  2. normalized email match against any existing account, attaching a
//     new provider link to it;
//  3. a brand-new account with role "user".
//
// On a direct match the top-level profile fields are overwritten with
// the provider's values; on the email-link path they are filled only
// if previously empty. The asymmetry is deliberate. Link metadata is
// refreshed on every login.
func (s *Service) UpsertOAuthUser(ctx context.Context, ext ExternalIdentity) (*User, error) {
	if ext.ProviderID == "" {
		return nil, ErrNoProviderID
	}
	ext.Email = sanitizer.NormalizeEmail(ext.Email)
	ext.DisplayName = sanitizer.NormalizeDisplayName(ext.DisplayName)
	now := s.now()

	// (1) direct provider identity match
	user, err := s.storage.GetByProviderID(ctx, ext.Provider, ext.ProviderID)
	if err == nil {
		user.Email = ext.Email
		user.DisplayName = ext.DisplayName
		user.Avatar = ext.Avatar
		s.refreshLink(user, ext, now, false)
		if err := s.storage.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("refresh oauth user: %w", err)
		}
		s.log.InfoContext(ctx, "oauth login",
			logger.UserID(user.ID), logger.Provider(ext.Provider), logger.Event("login"))
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup by provider identity: %w", err)
	}

	// (2) email match against any provider
	if ext.Email != "" {
		user, err = s.storage.GetByEmail(ctx, ext.Email)
		if err == nil {
			if user.Email == "" {
				user.Email = ext.Email
			}
			if user.DisplayName == "" {
				user.DisplayName = ext.DisplayName
			}
			if user.Avatar == "" {
				user.Avatar = ext.Avatar
			}
			s.refreshLink(user, ext, now, true)
			if err := s.storage.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("link oauth provider: %w", err)
			}
			s.log.InfoContext(ctx, "oauth provider linked",
				logger.UserID(user.ID), logger.Provider(ext.Provider), logger.Event("link"))
			return user, nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("lookup by email: %w", err)
		}
	}

	// (3) new account
	user = &User{
		ID:          uuid.NewString(),
		Provider:    ext.Provider,
		ProviderID:  ext.ProviderID,
		Email:       ext.Email,
		DisplayName: ext.DisplayName,
		Role:        RoleUser,
		Avatar:      ext.Avatar,
		CreatedAt:   now,
	}
	if err := s.storage.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	s.log.InfoContext(ctx, "oauth user created",
		logger.UserID(user.ID), logger.Provider(ext.Provider), logger.Event("register"))
	return user, nil
}

// refreshLink updates the OAuthLinks entry for the profile's provider.
// A new entry is created when linking; on a direct match an entry is
// only touched if it already exists, since the primary provider pair
// lives on the top-level fields.
func (s *Service) refreshLink(user *User, ext ExternalIdentity, now time.Time, createIfMissing bool) {
	link, exists := user.OAuthLinks[ext.Provider]
	if !exists && !createIfMissing {
		if user.Provider == ext.Provider && user.ProviderID == ext.ProviderID {
			return
		}
	}
	if !exists {
		link = OAuthLink{LinkedAt: now}
	}
	link.ProviderID = ext.ProviderID
	link.Email = ext.Email
	link.Avatar = ext.Avatar
	link.LastLoginAt = now

	if user.OAuthLinks == nil {
		user.OAuthLinks = make(map[string]OAuthLink)
	}
	user.OAuthLinks[ext.Provider] = link
}

// RegisterLocal creates a local-provider account. Fails on a malformed
// email, a short password, or when any existing account already uses
// the email.
func (s *Service) RegisterLocal(ctx context.Context, email, password, displayName string) (*User, error) {
	email = sanitizer.NormalizeEmail(email)
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.storage.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check duplicate email: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Provider:     ProviderLocal,
		Email:        email,
		DisplayName:  sanitizer.NormalizeDisplayName(displayName),
		Role:         RoleUser,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.storage.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create local user: %w", err)
	}
	s.log.InfoContext(ctx, "local user registered",
		logger.UserID(user.ID), logger.Event("register"))
	return user, nil
}

// AuthenticateLocal checks an email/password pair. It fails with
// ErrInvalidCredentials for unknown emails, wrong passwords, and
// accounts without a local password, never distinguishing between
// those cases.
func (s *Service) AuthenticateLocal(ctx context.Context, email, password string) (*User, error) {
	user, err := s.storage.GetByEmail(ctx, sanitizer.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	s.log.InfoContext(ctx, "local login",
		logger.UserID(user.ID), logger.Event("login"))
	return user, nil
}

// GetByID fetches one user record.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.storage.GetByID(ctx, id)
}
