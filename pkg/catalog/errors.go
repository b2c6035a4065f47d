package catalog

import "errors"

var (
	ErrTrackNotFound    = errors.New("track not found")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrAuthorNotFound   = errors.New("author not found")
	ErrForbidden        = errors.New("forbidden")
)
