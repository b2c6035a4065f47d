package likes_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrift/soundrift/pkg/catalog"
	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/jsonstore"
	"github.com/soundrift/soundrift/pkg/likes"
	"github.com/soundrift/soundrift/pkg/session"
)

// stubChecker marks a fixed set of tracks as existing/visible.
type stubChecker struct {
	missing   map[string]bool
	forbidden map[string]bool
}

func (c *stubChecker) CheckVisible(ctx context.Context, trackID string, req catalog.Requester) error {
	if c.missing[trackID] {
		return catalog.ErrTrackNotFound
	}
	if c.forbidden[trackID] && !req.IsAdmin() {
		return catalog.ErrForbidden
	}
	return nil
}

func newLikes(t *testing.T, checker likes.VisibilityChecker) *likes.Service {
	t.Helper()
	store, err := jsonstore.NewMapCollection[[]string](t.TempDir(), "likes.json")
	require.NoError(t, err)
	if checker == nil {
		checker = &stubChecker{}
	}
	return likes.NewService(store, checker)
}

func guestSession() *session.Session {
	return session.New("guest-token", time.Hour)
}

func TestToggleGuest(t *testing.T) {
	t.Parallel()

	svc := newLikes(t, nil)
	sess := guestSession()
	ctx := context.Background()

	liked, set, err := svc.Toggle(ctx, "t1", sess, nil)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{"t1"}, set)

	// Same call again unlikes: the idempotent pair.
	liked, set, err = svc.Toggle(ctx, "t1", sess, nil)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, set)
}

func TestToggleUserPersists(t *testing.T) {
	t.Parallel()

	svc := newLikes(t, nil)
	sess := guestSession()
	user := &identity.User{ID: "u1", Role: identity.RoleUser}
	ctx := context.Background()

	liked, set, err := svc.Toggle(ctx, "t1", sess, user)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{"t1"}, set)

	got, err := svc.EffectiveLikes(ctx, sess, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, got)

	// The guest set stays untouched.
	guest, err := svc.EffectiveLikes(ctx, sess, nil)
	require.NoError(t, err)
	assert.Empty(t, guest)
}

func TestToggleChecksBeforeMutation(t *testing.T) {
	t.Parallel()

	svc := newLikes(t, &stubChecker{
		missing:   map[string]bool{"gone": true},
		forbidden: map[string]bool{"hidden": true},
	})
	sess := guestSession()
	ctx := context.Background()

	_, _, err := svc.Toggle(ctx, "gone", sess, nil)
	assert.ErrorIs(t, err, catalog.ErrTrackNotFound)

	_, _, err = svc.Toggle(ctx, "hidden", sess, nil)
	assert.ErrorIs(t, err, catalog.ErrForbidden)

	// Neither failure left a like behind.
	set, err := svc.EffectiveLikes(ctx, sess, nil)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestMergeGuestIntoUser(t *testing.T) {
	t.Parallel()

	svc := newLikes(t, nil)
	sess := guestSession()
	user := &identity.User{ID: "u1", Role: identity.RoleUser}
	ctx := context.Background()

	// User already likes {B, C}; guest likes {A, B}.
	_, _, err := svc.Toggle(ctx, "B", sess, user)
	require.NoError(t, err)
	_, _, err = svc.Toggle(ctx, "C", sess, user)
	require.NoError(t, err)
	sess.Set(likes.GuestLikesKey, []string{"A", "B"})

	require.NoError(t, svc.MergeGuestIntoUser(ctx, sess, user.ID))

	set, err := svc.EffectiveLikes(ctx, sess, user)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, set)

	// Guest set is cleared, so the merge cannot replay.
	_, hasGuest := sess.Get(likes.GuestLikesKey)
	assert.False(t, hasGuest)

	t.Run("second merge is a no-op", func(t *testing.T) {
		require.NoError(t, svc.MergeGuestIntoUser(ctx, sess, user.ID))
		again, err := svc.EffectiveLikes(ctx, sess, user)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"A", "B", "C"}, again)
	})
}

func TestEffectiveLikesNeverNil(t *testing.T) {
	t.Parallel()

	svc := newLikes(t, nil)
	sess := guestSession()
	ctx := context.Background()

	set, err := svc.EffectiveLikes(ctx, sess, nil)
	require.NoError(t, err)
	assert.NotNil(t, set)
	assert.Empty(t, set)

	set, err = svc.EffectiveLikes(ctx, sess, &identity.User{ID: "fresh"})
	require.NoError(t, err)
	assert.NotNil(t, set)
	assert.Empty(t, set)
}
