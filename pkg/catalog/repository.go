package catalog

import (
	"context"

	"github.com/soundrift/soundrift/pkg/jsonstore"
)

// TrackStorage is the persistence contract for tracks.
type TrackStorage interface {
	All(ctx context.Context) ([]Track, error)
	GetByID(ctx context.Context, id string) (*Track, error)
	Create(ctx context.Context, t *Track) error
	Update(ctx context.Context, t *Track) error
	Delete(ctx context.Context, id string) error
}

// PlaylistStorage is the persistence contract for playlists.
type PlaylistStorage interface {
	All(ctx context.Context) ([]Playlist, error)
	GetByID(ctx context.Context, id string) (*Playlist, error)
	// PruneTrack removes the track id from every playlist referencing it.
	PruneTrack(ctx context.Context, trackID string) error
}

// AuthorStorage is the persistence contract for author profiles.
type AuthorStorage interface {
	All(ctx context.Context) ([]Author, error)
	GetByID(ctx context.Context, id string) (*Author, error)
}

// TrackRepository stores tracks in tracks.json.
type TrackRepository struct {
	col *jsonstore.Collection[Track]
}

func NewTrackRepository(col *jsonstore.Collection[Track]) *TrackRepository {
	return &TrackRepository{col: col}
}

func (r *TrackRepository) All(ctx context.Context) ([]Track, error) {
	return r.col.Load()
}

func (r *TrackRepository) GetByID(ctx context.Context, id string) (*Track, error) {
	tracks, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	for i := range tracks {
		if tracks[i].ID == id {
			t := tracks[i]
			return &t, nil
		}
	}
	return nil, ErrTrackNotFound
}

func (r *TrackRepository) Create(ctx context.Context, t *Track) error {
	return r.col.Mutate(func(tracks []Track) ([]Track, error) {
		return append(tracks, *t), nil
	})
}

func (r *TrackRepository) Update(ctx context.Context, t *Track) error {
	return r.col.Mutate(func(tracks []Track) ([]Track, error) {
		for i := range tracks {
			if tracks[i].ID == t.ID {
				tracks[i] = *t
				return tracks, nil
			}
		}
		return nil, ErrTrackNotFound
	})
}

func (r *TrackRepository) Delete(ctx context.Context, id string) error {
	return r.col.Mutate(func(tracks []Track) ([]Track, error) {
		for i := range tracks {
			if tracks[i].ID == id {
				return append(tracks[:i], tracks[i+1:]...), nil
			}
		}
		return nil, ErrTrackNotFound
	})
}

// PlaylistRepository stores playlists in playlists.json.
type PlaylistRepository struct {
	col *jsonstore.Collection[Playlist]
}

func NewPlaylistRepository(col *jsonstore.Collection[Playlist]) *PlaylistRepository {
	return &PlaylistRepository{col: col}
}

func (r *PlaylistRepository) All(ctx context.Context) ([]Playlist, error) {
	return r.col.Load()
}

func (r *PlaylistRepository) GetByID(ctx context.Context, id string) (*Playlist, error) {
	playlists, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		if playlists[i].ID == id {
			p := playlists[i]
			return &p, nil
		}
	}
	return nil, ErrPlaylistNotFound
}

func (r *PlaylistRepository) PruneTrack(ctx context.Context, trackID string) error {
	return r.col.Mutate(func(playlists []Playlist) ([]Playlist, error) {
		for i := range playlists {
			kept := playlists[i].TrackIDs[:0]
			for _, id := range playlists[i].TrackIDs {
				if id != trackID {
					kept = append(kept, id)
				}
			}
			playlists[i].TrackIDs = kept
		}
		return playlists, nil
	})
}

// AuthorRepository stores author profiles in authors.json.
type AuthorRepository struct {
	col *jsonstore.Collection[Author]
}

func NewAuthorRepository(col *jsonstore.Collection[Author]) *AuthorRepository {
	return &AuthorRepository{col: col}
}

func (r *AuthorRepository) All(ctx context.Context) ([]Author, error) {
	return r.col.Load()
}

func (r *AuthorRepository) GetByID(ctx context.Context, id string) (*Author, error) {
	authors, err := r.col.Load()
	if err != nil {
		return nil, err
	}
	for i := range authors {
		if authors[i].ID == id {
			a := authors[i]
			return &a, nil
		}
	}
	return nil, ErrAuthorNotFound
}

var (
	_ TrackStorage    = (*TrackRepository)(nil)
	_ PlaylistStorage = (*PlaylistRepository)(nil)
	_ AuthorStorage   = (*AuthorRepository)(nil)
)
