// Package seed bootstraps an empty data directory from a YAML fixture
// file: demo accounts (admin, artist, listener), the initial authors,
// tracks and playlists. Seeding runs once; a non-empty users.json
// means the instance already has data.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/soundrift/soundrift/pkg/catalog"
	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/jsonstore"
	"github.com/soundrift/soundrift/pkg/slug"
)

// Fixtures is the parsed seed file.
type Fixtures struct {
	Users     []UserFixture     `yaml:"users"`
	Authors   []AuthorFixture   `yaml:"authors"`
	Tracks    []TrackFixture    `yaml:"tracks"`
	Playlists []PlaylistFixture `yaml:"playlists"`
}

// UserFixture is a demo account. The plain-text password is hashed at
// seed time; roles are fixed here and never change afterwards.
type UserFixture struct {
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"displayName"`
	Role        string `yaml:"role"`
	ArtistID    string `yaml:"artistId"`
	Avatar      string `yaml:"avatar"`
}

type AuthorFixture struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Bio    string `yaml:"bio"`
	Avatar string `yaml:"avatar"`
}

type TrackFixture struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	ArtistID string `yaml:"artistId"`
	Genre    string `yaml:"genre"`
	Duration int    `yaml:"duration"`
	Cover    string `yaml:"cover"`
	Audio    string `yaml:"audio"`
	Plays    int    `yaml:"plays"`
	Likes    int    `yaml:"likes"`
	Status   string `yaml:"status"`
}

type PlaylistFixture struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	TrackIDs []string `yaml:"trackIds"`
}

// Collections bundles the stores the seeder writes to.
type Collections struct {
	Users     *jsonstore.Collection[identity.User]
	Authors   *jsonstore.Collection[catalog.Author]
	Tracks    *jsonstore.Collection[catalog.Track]
	Playlists *jsonstore.Collection[catalog.Playlist]
}

// Load parses a fixture file.
func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Apply writes the fixtures into the collections unless users already
// exist. Returns true when seeding ran.
func Apply(ctx context.Context, f *Fixtures, cols Collections) (bool, error) {
	existing, err := cols.Users.Load()
	if err != nil {
		return false, fmt.Errorf("check existing users: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	now := time.Now()

	users := make([]identity.User, 0, len(f.Users))
	for _, u := range f.Users {
		role := identity.Role(u.Role)
		if role != identity.RoleAdmin && role != identity.RoleArtist {
			role = identity.RoleUser
		}
		var hash string
		if u.Password != "" {
			hash, err = identity.HashPassword(u.Password)
			if err != nil {
				return false, fmt.Errorf("hash seed password: %w", err)
			}
		}
		users = append(users, identity.User{
			ID:           uuid.NewString(),
			Provider:     identity.ProviderLocal,
			Email:        u.Email,
			DisplayName:  u.DisplayName,
			Role:         role,
			ArtistID:     u.ArtistID,
			PasswordHash: hash,
			Avatar:       u.Avatar,
			CreatedAt:    now,
		})
	}

	authors := make([]catalog.Author, 0, len(f.Authors))
	for _, a := range f.Authors {
		authors = append(authors, catalog.Author{
			ID:     a.ID,
			Name:   a.Name,
			Bio:    a.Bio,
			Avatar: a.Avatar,
		})
	}

	tracks := make([]catalog.Track, 0, len(f.Tracks))
	for _, t := range f.Tracks {
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		status := catalog.TrackStatus(t.Status)
		if status != catalog.StatusPending && status != catalog.StatusRejected {
			status = catalog.StatusPublished
		}
		track := catalog.Track{
			ID:        id,
			Title:     t.Title,
			Slug:      slug.Make(t.Title),
			ArtistID:  t.ArtistID,
			Genre:     t.Genre,
			Duration:  t.Duration,
			Cover:     orPlaceholder(t.Cover, catalog.PlaceholderCover),
			Audio:     orPlaceholder(t.Audio, catalog.PlaceholderAudio),
			Plays:     t.Plays,
			Likes:     t.Likes,
			Status:    status,
			CreatedAt: now,
		}
		if status == catalog.StatusPublished {
			track.PublishedAt = &now
		}
		tracks = append(tracks, track)
	}

	playlists := make([]catalog.Playlist, 0, len(f.Playlists))
	for _, p := range f.Playlists {
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		playlists = append(playlists, catalog.Playlist{
			ID:       id,
			Title:    p.Title,
			Slug:     slug.Make(p.Title),
			TrackIDs: p.TrackIDs,
		})
	}

	if err := cols.Users.Save(users); err != nil {
		return false, fmt.Errorf("seed users: %w", err)
	}
	if err := cols.Authors.Save(authors); err != nil {
		return false, fmt.Errorf("seed authors: %w", err)
	}
	if err := cols.Tracks.Save(tracks); err != nil {
		return false, fmt.Errorf("seed tracks: %w", err)
	}
	if err := cols.Playlists.Save(playlists); err != nil {
		return false, fmt.Errorf("seed playlists: %w", err)
	}
	return true, nil
}

func orPlaceholder(path, placeholder string) string {
	if path == "" {
		return placeholder
	}
	return path
}
