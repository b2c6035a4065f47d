// Package studio exposes the contribution surface: artist uploads and
// the admin moderation actions. Moderation decisions notify the
// submitting artist by email, fire-and-forget.
package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/soundrift/soundrift/pkg/catalog"
	"github.com/soundrift/soundrift/pkg/email"
	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/logger"
	"github.com/soundrift/soundrift/pkg/session"
	"github.com/soundrift/soundrift/pkg/upload"
)

// maxUploadMemory bounds the multipart parse buffer; larger parts
// spill to disk.
const maxUploadMemory = 32 << 20

// Service wires uploads and moderation to the HTTP layer.
type Service struct {
	catalog  *catalog.Service
	identity *identity.Service
	uploads  *upload.Saver
	emails   email.EmailSender
	log      *slog.Logger
}

// Option configures the studio service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithEmailSender enables moderation decision emails.
func WithEmailSender(sender email.EmailSender) Option {
	return func(s *Service) { s.emails = sender }
}

// NewService creates the studio HTTP service.
func NewService(cat *catalog.Service, id *identity.Service, uploads *upload.Saver, opts ...Option) *Service {
	s := &Service{
		catalog:  cat,
		identity: id,
		uploads:  uploads,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the module routes to the given router.
func (s *Service) Register(r chi.Router) {
	r.Post("/studio/upload", s.upload)

	r.Post("/admin/tracks/{id}/approve", s.approve)
	r.Post("/admin/tracks/{id}/reject", s.reject)
	r.Delete("/admin/tracks/{id}", s.delete)
}

// currentUser resolves the session's account, nil for guests.
func (s *Service) currentUser(r *http.Request) *identity.User {
	sess, ok := session.FromContext(r.Context())
	if !ok || !sess.IsAuthenticated() {
		return nil
	}
	user, err := s.identity.GetByID(r.Context(), sess.UserID)
	if err != nil {
		return nil
	}
	return user
}

func (s *Service) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := s.currentUser(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "authentication required"})
		return
	}
	if !user.IsArtist() || user.ArtistID == "" {
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "artist account required"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid multipart form"})
		return
	}

	title := r.FormValue("title")
	if title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "title is required"})
		return
	}
	duration, _ := strconv.Atoi(r.FormValue("duration"))

	// Both files are optional; missing ones fall back to placeholders.
	audioPath, err := s.saveOptional(ctx, r, "audio", upload.KindAudio)
	if err != nil {
		s.uploadFail(w, r, err)
		return
	}
	coverPath, err := s.saveOptional(ctx, r, "cover", upload.KindCover)
	if err != nil {
		s.uploadFail(w, r, err)
		return
	}

	track, err := s.catalog.Upload(ctx, catalog.UploadInput{
		Title:       title,
		Genre:       r.FormValue("genre"),
		Duration:    duration,
		ArtistID:    user.ArtistID,
		SubmittedBy: user.ID,
		Audio:       audioPath,
		Cover:       coverPath,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "upload failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "upload failed"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "track": track})
}

// saveOptional stores one multipart file if present. Absent files are
// not an error.
func (s *Service) saveOptional(ctx context.Context, r *http.Request, field string, kind upload.Kind) (string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return "", nil
	}
	return s.uploads.Save(ctx, r.MultipartForm.File[field][0], kind)
}

func (s *Service) uploadFail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"ok": false, "error": "file too large"})
	case errors.Is(err, upload.ErrExtensionNotAllowed):
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "file type not allowed"})
	default:
		s.log.ErrorContext(r.Context(), "media store failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "upload failed"})
	}
}

func (s *Service) approve(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, s.catalog.Approve, "approved")
}

func (s *Service) reject(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, s.catalog.Reject, "rejected")
}

func (s *Service) moderate(w http.ResponseWriter, r *http.Request, transition func(context.Context, string, catalog.Requester) (*catalog.Track, error), decision string) {
	ctx := r.Context()

	user := s.currentUser(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "authentication required"})
		return
	}

	track, err := transition(ctx, chi.URLParam(r, "id"), catalog.RequesterFor(user))
	if err != nil {
		s.moderationFail(w, r, err)
		return
	}

	s.notifySubmitter(track, decision)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "track": track})
}

func (s *Service) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := s.currentUser(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "authentication required"})
		return
	}

	if err := s.catalog.Delete(ctx, chi.URLParam(r, "id"), catalog.RequesterFor(user)); err != nil {
		s.moderationFail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Service) moderationFail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrTrackNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "not found"})
	case errors.Is(err, catalog.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "forbidden"})
	default:
		s.log.ErrorContext(r.Context(), "moderation failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal error"})
	}
}

// notifySubmitter emails the decision to the submitting artist. Runs
// in the background; a mail failure never blocks moderation.
func (s *Service) notifySubmitter(track *catalog.Track, decision string) {
	if s.emails == nil || track.SubmittedBy == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		submitter, err := s.identity.GetByID(ctx, track.SubmittedBy)
		if err != nil || submitter.Email == "" {
			return
		}

		err = s.emails.SendEmail(ctx, email.SendEmailParams{
			SendTo:   submitter.Email,
			Subject:  fmt.Sprintf("Your track %q was %s", track.Title, decision),
			BodyHTML: moderationBody(submitter, track, decision),
			Tag:      "track-" + decision,
		})
		if err != nil {
			s.log.Error("moderation email failed",
				logger.TrackID(track.ID), logger.Error(err))
		}
	}()
}

func moderationBody(submitter *identity.User, track *catalog.Track, decision string) string {
	name := submitter.DisplayName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>Your track <strong>%s</strong> was %s.</p>",
		name, track.Title, decision,
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
