// Package catalog owns the track/playlist/author records and the
// moderation state machine: artist uploads land as pending tracks,
// admins publish or reject them, and visibility is derived from the
// requester's role and ownership.
package catalog

import "time"

// TrackStatus is the moderation state of a track. The only forward
// transitions are pending → published and pending → rejected; deletion
// is an orthogonal destructive operation.
type TrackStatus string

const (
	StatusPending   TrackStatus = "pending"
	StatusPublished TrackStatus = "published"
	StatusRejected  TrackStatus = "rejected"
)

// Track is one record in tracks.json. Cover and Audio hold relative
// media paths stored verbatim from the upload layer.
type Track struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	ArtistID    string      `json:"artistId"`
	Genre       string      `json:"genre,omitempty"`
	Duration    int         `json:"duration,omitempty"` // seconds
	Cover       string      `json:"cover"`
	Audio       string      `json:"audio"`
	Plays       int         `json:"plays"`
	Likes       int         `json:"likes"`
	Status      TrackStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	SubmittedBy string      `json:"submittedBy,omitempty"`
	PublishedAt *time.Time  `json:"publishedAt,omitempty"`
	RejectedAt  *time.Time  `json:"rejectedAt,omitempty"`
}

// Playlist is an ordered sequence of track ids. It may reference
// missing or hidden tracks; those are filtered at read time, not
// eagerly pruned except on track delete.
type Playlist struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	TrackIDs []string `json:"trackIds"`
}

// Author is a displayed artist profile.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Bio    string `json:"bio,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}
