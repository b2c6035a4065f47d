// Package likes tracks which tracks a visitor has liked. Authenticated
// users get a persisted set in likes.json; guests get an ephemeral set
// in the session data bag that is folded into their account on login.
package likes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/soundrift/soundrift/pkg/catalog"
	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/jsonstore"
	"github.com/soundrift/soundrift/pkg/logger"
	"github.com/soundrift/soundrift/pkg/session"
)

// GuestLikesKey is the session data key holding a guest's liked track
// ids.
const GuestLikesKey = "guestLikes"

// VisibilityChecker verifies a track exists and is visible before a
// like mutation, so a hidden track's existence never leaks through the
// like endpoint.
type VisibilityChecker interface {
	CheckVisible(ctx context.Context, trackID string, req catalog.Requester) error
}

// Service implements the like store over likes.json plus the session
// guest set.
type Service struct {
	store   *jsonstore.MapCollection[[]string]
	checker VisibilityChecker
	log     *slog.Logger
}

// Option configures a Service during construction.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates the like service.
func NewService(store *jsonstore.MapCollection[[]string], checker VisibilityChecker, opts ...Option) *Service {
	s := &Service{
		store:   store,
		checker: checker,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EffectiveLikes returns the like set that applies to the caller: the
// persisted set for an authenticated user, the session guest set
// otherwise. Never nil.
func (s *Service) EffectiveLikes(ctx context.Context, sess *session.Session, user *identity.User) ([]string, error) {
	if user == nil {
		guest, _ := sess.GetStringSlice(GuestLikesKey)
		if guest == nil {
			guest = []string{}
		}
		return guest, nil
	}

	m, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load likes: %w", err)
	}
	liked := m[user.ID]
	if liked == nil {
		liked = []string{}
	}
	return liked, nil
}

// Toggle flips the like state of a track for the caller and returns
// the new state plus the caller's full like set. The track must exist
// (ErrTrackNotFound) and be visible to the caller (ErrForbidden);
// both are checked before any mutation.
func (s *Service) Toggle(ctx context.Context, trackID string, sess *session.Session, user *identity.User) (bool, []string, error) {
	if err := s.checker.CheckVisible(ctx, trackID, catalog.RequesterFor(user)); err != nil {
		return false, nil, err
	}

	if user == nil {
		guest, _ := sess.GetStringSlice(GuestLikesKey)
		liked, set := toggle(guest, trackID)
		sess.Set(GuestLikesKey, set)
		return liked, set, nil
	}

	var liked bool
	var set []string
	err := s.store.Mutate(func(m map[string][]string) error {
		liked, set = toggle(m[user.ID], trackID)
		m[user.ID] = set
		return nil
	})
	if err != nil {
		return false, nil, fmt.Errorf("toggle like: %w", err)
	}
	return liked, set, nil
}

// MergeGuestIntoUser folds the session's guest likes into the user's
// persisted set as a union and clears the guest set. Idempotent: a
// second call finds an empty guest set and changes nothing.
func (s *Service) MergeGuestIntoUser(ctx context.Context, sess *session.Session, userID string) error {
	guest, _ := sess.GetStringSlice(GuestLikesKey)
	if len(guest) == 0 {
		sess.Delete(GuestLikesKey)
		return nil
	}

	err := s.store.Mutate(func(m map[string][]string) error {
		set := m[userID]
		for _, id := range guest {
			if !slices.Contains(set, id) {
				set = append(set, id)
			}
		}
		m[userID] = set
		return nil
	})
	if err != nil {
		return fmt.Errorf("merge guest likes: %w", err)
	}

	sess.Delete(GuestLikesKey)
	s.log.InfoContext(ctx, "guest likes merged",
		logger.UserID(userID), logger.Event("merge_likes"))
	return nil
}

// toggle returns the new like state and set with trackID added or
// removed.
func toggle(set []string, trackID string) (bool, []string) {
	if i := slices.Index(set, trackID); i >= 0 {
		return false, append(slices.Clone(set[:i]), set[i+1:]...)
	}
	return true, append(slices.Clone(set), trackID)
}
