package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/jsonstore"
)

func newService(t *testing.T) (*identity.Service, *identity.Repository) {
	t.Helper()
	col, err := jsonstore.NewCollection[identity.User](t.TempDir(), "users.json")
	require.NoError(t, err)
	repo := identity.NewRepository(col)
	return identity.NewService(repo), repo
}

func TestRegisterLocal(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.RegisterLocal(ctx, "Bob@X.com", "secret1", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", user.Email)
	assert.Equal(t, identity.ProviderLocal, user.Provider)
	assert.Equal(t, identity.RoleUser, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, user.PasswordHash)

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.RegisterLocal(ctx, "bob@x.com", "another1", "Bob 2")
		assert.ErrorIs(t, err, identity.ErrEmailAlreadyExists)
	})

	t.Run("malformed email rejected", func(t *testing.T) {
		_, err := svc.RegisterLocal(ctx, "not-an-email", "secret1", "X")
		assert.ErrorIs(t, err, identity.ErrInvalidEmail)
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, err := svc.RegisterLocal(ctx, "short@x.com", "12345", "X")
		assert.ErrorIs(t, err, identity.ErrPasswordTooShort)
	})
}

func TestAuthenticateLocal(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	registered, err := svc.RegisterLocal(ctx, "bob@x.com", "secret1", "Bob")
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		user, err := svc.AuthenticateLocal(ctx, "BOB@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.AuthenticateLocal(ctx, "bob@x.com", "wrong")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.AuthenticateLocal(ctx, "nobody@x.com", "secret1")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("oauth-only account has no local login", func(t *testing.T) {
		_, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
			Provider:   identity.ProviderGoogle,
			ProviderID: "g-1",
			Email:      "oauth-only@x.com",
		})
		require.NoError(t, err)

		_, err = svc.AuthenticateLocal(ctx, "oauth-only@x.com", "anything")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})
}

func TestUpsertOAuthUserCreates(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
		Provider:    identity.ProviderGoogle,
		ProviderID:  "g-123",
		Email:       "Ann@Example.com",
		DisplayName: "Ann",
		Avatar:      "https://example.com/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, identity.ProviderGoogle, user.Provider)
	assert.Equal(t, "g-123", user.ProviderID)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, identity.RoleUser, user.Role)

	t.Run("second login resolves same account", func(t *testing.T) {
		again, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
			Provider:   identity.ProviderGoogle,
			ProviderID: "g-123",
			Email:      "ann@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
	})

	t.Run("missing provider id rejected", func(t *testing.T) {
		_, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
			Provider: identity.ProviderGoogle,
		})
		assert.ErrorIs(t, err, identity.ErrNoProviderID)
	})
}

func TestUpsertOAuthUserDirectMatchOverwritesProfile(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
		Provider:    identity.ProviderGoogle,
		ProviderID:  "g-1",
		Email:       "old@example.com",
		DisplayName: "Old Name",
		Avatar:      "old.png",
	})
	require.NoError(t, err)

	updated, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
		Provider:    identity.ProviderGoogle,
		ProviderID:  "g-1",
		Email:       "new@example.com",
		DisplayName: "New Name",
		Avatar:      "new.png",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "New Name", updated.DisplayName)
	assert.Equal(t, "new.png", updated.Avatar)
}

func TestUpsertOAuthUserLinksByEmail(t *testing.T) {
	t.Parallel()

	svc, repo := newService(t)
	ctx := context.Background()

	local, err := svc.RegisterLocal(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	linked, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
		Provider:    identity.ProviderGitHub,
		ProviderID:  "gh-7",
		Email:       "ann@example.com",
		DisplayName: "ann-on-github",
		Avatar:      "gh.png",
	})
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)

	// Link path fills only empty fields: the existing display name
	// survives, the missing avatar is filled in.
	assert.Equal(t, "Ann", linked.DisplayName)
	assert.Equal(t, "gh.png", linked.Avatar)

	link, ok := linked.OAuthLinks[identity.ProviderGitHub]
	require.True(t, ok)
	assert.Equal(t, "gh-7", link.ProviderID)
	assert.False(t, link.LinkedAt.IsZero())
	assert.False(t, link.LastLoginAt.IsZero())

	t.Run("future logins via the link hit the same account", func(t *testing.T) {
		again, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
			Provider:   identity.ProviderGitHub,
			ProviderID: "gh-7",
			Email:      "ann@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, local.ID, again.ID)
	})

	t.Run("one record per provider identity", func(t *testing.T) {
		_, err := repo.GetByProviderID(ctx, identity.ProviderGitHub, "gh-7")
		assert.NoError(t, err)
	})
}

func TestUpsertOAuthUserWithoutEmailCreatesSeparateAccount(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
		Provider:   identity.ProviderDiscord,
		ProviderID: "d-1",
	})
	require.NoError(t, err)

	b, err := svc.UpsertOAuthUser(ctx, identity.ExternalIdentity{
		Provider:   identity.ProviderDiscord,
		ProviderID: "d-2",
	})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
