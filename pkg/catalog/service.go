package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soundrift/soundrift/pkg/logger"
	"github.com/soundrift/soundrift/pkg/slug"
)

// Shared placeholder media used when an upload supplies no file.
const (
	PlaceholderCover = "static/placeholder-cover.png"
	PlaceholderAudio = "static/placeholder-audio.mp3"
)

// Service implements catalog reads and the moderation transitions.
type Service struct {
	tracks    TrackStorage
	playlists PlaylistStorage
	authors   AuthorStorage
	log       *slog.Logger
	now       func() time.Time
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

// NewService creates the catalog service.
func NewService(tracks TrackStorage, playlists PlaylistStorage, authors AuthorStorage, opts ...Option) *Service {
	s := &Service{
		tracks:    tracks,
		playlists: playlists,
		authors:   authors,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTracks returns the tracks visible to the requester.
func (s *Service) ListTracks(ctx context.Context, req Requester) ([]Track, error) {
	tracks, err := s.tracks.All(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if IsVisible(t, req) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// GetTrack fetches one track. Missing tracks fail with ErrTrackNotFound
// before the visibility check, hidden tracks with ErrForbidden.
func (s *Service) GetTrack(ctx context.Context, id string, req Requester) (*Track, error) {
	t, err := s.tracks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsVisible(*t, req) {
		return nil, ErrForbidden
	}
	return t, nil
}

// CheckVisible verifies the track exists and is visible to the
// requester, in that order. Used by the like store before mutating.
func (s *Service) CheckVisible(ctx context.Context, trackID string, req Requester) error {
	_, err := s.GetTrack(ctx, trackID, req)
	return err
}

// ListPlaylists returns all playlists. Track references are resolved
// lazily; use PlaylistTracks for the visible contents.
func (s *Service) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	return s.playlists.All(ctx)
}

// GetPlaylist fetches one playlist.
func (s *Service) GetPlaylist(ctx context.Context, id string) (*Playlist, error) {
	return s.playlists.GetByID(ctx, id)
}

// PlaylistTracks resolves a playlist's track ids in order, dropping
// missing and hidden tracks.
func (s *Service) PlaylistTracks(ctx context.Context, playlistID string, req Requester) ([]Track, error) {
	p, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	all, err := s.tracks.All(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Track, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	tracks := make([]Track, 0, len(p.TrackIDs))
	for _, id := range p.TrackIDs {
		t, ok := byID[id]
		if ok && IsVisible(t, req) {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

// ListAuthors returns all author profiles.
func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	return s.authors.All(ctx)
}

// GetAuthor fetches one author profile.
func (s *Service) GetAuthor(ctx context.Context, id string) (*Author, error) {
	return s.authors.GetByID(ctx, id)
}

// UploadInput describes a new artist submission. Empty media paths
// fall back to the shared placeholders.
type UploadInput struct {
	Title       string
	Genre       string
	Duration    int
	ArtistID    string
	SubmittedBy string
	Audio       string
	Cover       string
}

// Upload creates a pending track with zero plays and likes, owned by
// the submitting artist.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Track, error) {
	audio := in.Audio
	if audio == "" {
		audio = PlaceholderAudio
	}
	cover := in.Cover
	if cover == "" {
		cover = PlaceholderCover
	}

	t := &Track{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Slug:        slug.Make(in.Title, slug.WithSuffix(6)),
		ArtistID:    in.ArtistID,
		Genre:       in.Genre,
		Duration:    in.Duration,
		Cover:       cover,
		Audio:       audio,
		Status:      StatusPending,
		CreatedAt:   s.now(),
		SubmittedBy: in.SubmittedBy,
	}
	if err := s.tracks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("store uploaded track: %w", err)
	}
	s.log.InfoContext(ctx, "track uploaded",
		logger.TrackID(t.ID), logger.Event("upload"))
	return t, nil
}

// Approve moves the track to published and stamps PublishedAt. The
// transition is an unconditional overwrite: re-approving a rejected
// track re-targets it.
func (s *Service) Approve(ctx context.Context, trackID string, req Requester) (*Track, error) {
	return s.moderate(ctx, trackID, req, func(t *Track) {
		now := s.now()
		t.Status = StatusPublished
		t.PublishedAt = &now
	}, "approve")
}

// Reject moves the track to rejected and stamps RejectedAt.
// Unconditional, like Approve.
func (s *Service) Reject(ctx context.Context, trackID string, req Requester) (*Track, error) {
	return s.moderate(ctx, trackID, req, func(t *Track) {
		now := s.now()
		t.Status = StatusRejected
		t.RejectedAt = &now
	}, "reject")
}

func (s *Service) moderate(ctx context.Context, trackID string, req Requester, apply func(*Track), event string) (*Track, error) {
	t, err := s.tracks.GetByID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if !CanModerate(req, *t) {
		// A hidden track must look absent to requesters who cannot see
		// it, matching the like endpoint.
		if !IsVisible(*t, req) {
			return nil, ErrTrackNotFound
		}
		return nil, ErrForbidden
	}

	apply(t)
	if err := s.tracks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("%s track: %w", event, err)
	}
	s.log.InfoContext(ctx, "track moderated",
		logger.TrackID(t.ID), logger.Event(event))
	return t, nil
}

// Delete removes the track and prunes its id from every playlist.
// Admin only.
func (s *Service) Delete(ctx context.Context, trackID string, req Requester) error {
	t, err := s.tracks.GetByID(ctx, trackID)
	if err != nil {
		return err
	}
	if !req.IsAdmin() {
		if !IsVisible(*t, req) {
			return ErrTrackNotFound
		}
		return ErrForbidden
	}

	if err := s.tracks.Delete(ctx, trackID); err != nil {
		return err
	}
	if err := s.playlists.PruneTrack(ctx, trackID); err != nil {
		return fmt.Errorf("prune deleted track from playlists: %w", err)
	}
	s.log.InfoContext(ctx, "track deleted",
		logger.TrackID(trackID), logger.Event("delete"))
	return nil
}

// RegisterPlay increments the play counter for a track the requester
// can see and returns the new count.
func (s *Service) RegisterPlay(ctx context.Context, trackID string, req Requester) (int, error) {
	t, err := s.tracks.GetByID(ctx, trackID)
	if err != nil {
		return 0, err
	}
	if !IsVisible(*t, req) {
		return 0, ErrForbidden
	}

	t.Plays++
	if err := s.tracks.Update(ctx, t); err != nil {
		return 0, fmt.Errorf("register play: %w", err)
	}
	return t.Plays, nil
}
