// Package player exposes the listening surface: browse data for
// tracks, playlists and authors, the like and play endpoints, the
// current-user endpoint and share QR codes. Everything answers JSON
// except the QR image.
package player

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/soundrift/soundrift/pkg/catalog"
	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/likes"
	"github.com/soundrift/soundrift/pkg/logger"
	"github.com/soundrift/soundrift/pkg/qrcode"
	"github.com/soundrift/soundrift/pkg/session"
)

// Service wires catalog and likes to the HTTP layer.
type Service struct {
	catalog  *catalog.Service
	likes    *likes.Service
	identity *identity.Service
	sessions *session.Manager
	baseURL  string
	log      *slog.Logger
}

// Option configures the player service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates the player HTTP service. baseURL is the public
// origin used to build share links.
func NewService(cat *catalog.Service, lk *likes.Service, id *identity.Service, sessions *session.Manager, baseURL string, opts ...Option) *Service {
	s := &Service{
		catalog:  cat,
		likes:    lk,
		identity: id,
		sessions: sessions,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the module routes to the given router.
func (s *Service) Register(r chi.Router) {
	r.Get("/api/me", s.me)
	r.Post("/api/like/{trackID}", s.toggleLike)
	r.Post("/api/play/{trackID}", s.registerPlay)

	r.Get("/api/tracks", s.listTracks)
	r.Get("/api/tracks/{id}", s.getTrack)
	r.Get("/api/playlists", s.listPlaylists)
	r.Get("/api/playlists/{id}", s.getPlaylist)
	r.Get("/api/authors", s.listAuthors)
	r.Get("/api/authors/{id}", s.getAuthor)

	r.Get("/share/track/{id}/qr", s.shareQR)
}

// userPayload is the public shape of an account, with credentials and
// provider internals stripped.
type userPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	ArtistID    string `json:"artistId,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

func toUserPayload(u *identity.User) *userPayload {
	if u == nil {
		return nil
	}
	return &userPayload{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        string(u.Role),
		ArtistID:    u.ArtistID,
		Avatar:      u.Avatar,
	}
}

// currentUser resolves the session's user record. A stale user id (the
// account was removed under a live session) degrades to guest.
func (s *Service) currentUser(r *http.Request) (*session.Session, *identity.User) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return nil, nil
	}
	if !sess.IsAuthenticated() {
		return sess, nil
	}
	user, err := s.identity.GetByID(r.Context(), sess.UserID)
	if err != nil {
		return sess, nil
	}
	return sess, user
}

func (s *Service) me(w http.ResponseWriter, r *http.Request) {
	sess, user := s.currentUser(r)

	liked, err := s.likes.EffectiveLikes(r.Context(), sess, user)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"user":  toUserPayload(user),
		"likes": liked,
	})
}

func (s *Service) toggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, user := s.currentUser(r)
	trackID := chi.URLParam(r, "trackID")

	liked, set, err := s.likes.Toggle(ctx, trackID, sess, user)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// Guest likes live in the session bag and must be persisted.
	if user == nil {
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	resp := map[string]any{
		"ok":    true,
		"liked": liked,
		"likes": set,
	}
	if user == nil {
		resp["guest"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) registerPlay(w http.ResponseWriter, r *http.Request) {
	_, user := s.currentUser(r)

	plays, err := s.catalog.RegisterPlay(r.Context(), chi.URLParam(r, "trackID"), catalog.RequesterFor(user))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "plays": plays})
}

func (s *Service) listTracks(w http.ResponseWriter, r *http.Request) {
	_, user := s.currentUser(r)

	tracks, err := s.catalog.ListTracks(r.Context(), catalog.RequesterFor(user))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "tracks": tracks})
}

func (s *Service) getTrack(w http.ResponseWriter, r *http.Request) {
	_, user := s.currentUser(r)

	track, err := s.catalog.GetTrack(r.Context(), chi.URLParam(r, "id"), catalog.RequesterFor(user))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "track": track})
}

func (s *Service) listPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.catalog.ListPlaylists(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "playlists": playlists})
}

func (s *Service) getPlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, user := s.currentUser(r)
	id := chi.URLParam(r, "id")

	playlist, err := s.catalog.GetPlaylist(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tracks, err := s.catalog.PlaylistTracks(ctx, id, catalog.RequesterFor(user))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"playlist": playlist,
		"tracks":   tracks,
	})
}

func (s *Service) listAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := s.catalog.ListAuthors(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "authors": authors})
}

func (s *Service) getAuthor(w http.ResponseWriter, r *http.Request) {
	author, err := s.catalog.GetAuthor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "author": author})
}

// shareQR renders a QR code pointing at the track's share URL. Only
// tracks visible to the caller can be shared.
func (s *Service) shareQR(w http.ResponseWriter, r *http.Request) {
	_, user := s.currentUser(r)

	track, err := s.catalog.GetTrack(r.Context(), chi.URLParam(r, "id"), catalog.RequesterFor(user))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	png, err := qrcode.Generate(s.baseURL+"/tracks/"+track.ID, 256)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// fail maps domain sentinels to HTTP statuses.
func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrTrackNotFound),
		errors.Is(err, catalog.ErrPlaylistNotFound),
		errors.Is(err, catalog.ErrAuthorNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "not found"})
	case errors.Is(err, catalog.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "forbidden"})
	default:
		s.log.ErrorContext(r.Context(), "player request failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
