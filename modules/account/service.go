// Package account exposes the authentication HTTP surface: local
// registration and login, logout, and the OAuth begin/callback round
// trip. Handlers answer with redirects (form posts) carrying a
// human-readable ?error= on failure.
package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/soundrift/soundrift/pkg/email"
	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/likes"
	"github.com/soundrift/soundrift/pkg/logger"
	"github.com/soundrift/soundrift/pkg/sanitizer"
	"github.com/soundrift/soundrift/pkg/session"
)

// Service wires the identity core to the HTTP layer.
type Service struct {
	identity *identity.Service
	flow     *identity.Flow
	likes    *likes.Service
	sessions *session.Manager
	emails   email.EmailSender
	log      *slog.Logger
}

// Option configures the account service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithEmailSender enables the welcome email on registration.
func WithEmailSender(sender email.EmailSender) Option {
	return func(s *Service) { s.emails = sender }
}

// NewService creates the account HTTP service.
func NewService(id *identity.Service, flow *identity.Flow, lk *likes.Service, sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		identity: id,
		flow:     flow,
		likes:    lk,
		sessions: sessions,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the module routes to the given router.
func (s *Service) Register(r chi.Router) {
	r.Post("/register", s.register)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)

	r.Get("/auth/{provider}", s.oauthBegin)
	r.Get("/auth/{provider}/callback", s.oauthCallback)
}

func (s *Service) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectError(w, r, "/register", "invalid form", r.FormValue("next"))
		return
	}
	email := r.FormValue("email")
	password := r.FormValue("password")
	confirm := r.FormValue("passwordConfirm")
	next := sanitizer.RedirectPath(r.FormValue("next"), "/")

	if confirm != "" && confirm != password {
		redirectError(w, r, "/register", "passwords do not match", next)
		return
	}

	user, err := s.identity.RegisterLocal(r.Context(), email, password, r.FormValue("displayName"))
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailAlreadyExists):
			redirectError(w, r, "/register", "email already registered", next)
		case errors.Is(err, identity.ErrInvalidEmail):
			redirectError(w, r, "/register", "invalid email address", next)
		case errors.Is(err, identity.ErrPasswordTooShort):
			redirectError(w, r, "/register", "password must be at least 6 characters", next)
		default:
			s.log.ErrorContext(r.Context(), "registration failed", logger.Error(err))
			http.Error(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}

	s.sendWelcome(user)
	s.establishSession(w, r, user.ID, next)
}

// sendWelcome emails new local accounts in the background; a mail
// failure never blocks registration.
func (s *Service) sendWelcome(user *identity.User) {
	if s.emails == nil || user.Email == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		name := user.DisplayName
		if name == "" {
			name = "there"
		}
		err := s.emails.SendEmail(ctx, email.SendEmailParams{
			SendTo:   user.Email,
			Subject:  "Welcome to Soundrift",
			BodyHTML: fmt.Sprintf("<p>Hi %s,</p><p>Your account is ready. Happy listening!</p>", name),
			Tag:      "welcome",
		})
		if err != nil {
			s.log.Error("welcome email failed", logger.UserID(user.ID), logger.Error(err))
		}
	}()
}

func (s *Service) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectError(w, r, "/login", "invalid form", r.FormValue("next"))
		return
	}
	next := sanitizer.RedirectPath(r.FormValue("next"), "/")

	user, err := s.identity.AuthenticateLocal(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			redirectError(w, r, "/login", "invalid email or password", next)
			return
		}
		s.log.ErrorContext(r.Context(), "login failed", logger.Error(err))
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	s.establishSession(w, r, user.ID, next)
}

func (s *Service) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context(), w, r); err != nil {
		s.log.ErrorContext(r.Context(), "logout failed", logger.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Service) oauthBegin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")

	sess, ok := session.FromContext(ctx)
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	authURL, err := s.flow.Begin(sess, provider, r.URL.Query().Get("next"))
	if err != nil {
		if errors.Is(err, identity.ErrUnknownProvider) {
			http.NotFound(w, r)
			return
		}
		s.log.ErrorContext(ctx, "oauth begin failed", logger.Provider(provider), logger.Error(err))
		http.Error(w, "authentication unavailable", http.StatusInternalServerError)
		return
	}

	// The state must be durable before the provider redirects back.
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.ErrorContext(ctx, "session save failed", logger.Error(err))
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Service) oauthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")

	sess, ok := session.FromContext(ctx)
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	user, next, err := s.flow.Callback(ctx, sess, provider, q.Get("code"), q.Get("state"))
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUnknownProvider):
			http.NotFound(w, r)
		case errors.Is(err, identity.ErrStateMismatch):
			http.Error(w, "bad state", http.StatusBadRequest)
		default:
			s.log.ErrorContext(ctx, "oauth callback failed", logger.Provider(provider), logger.Error(err))
			http.Error(w, "authentication failed", http.StatusBadGateway)
		}
		return
	}

	// Persist the consumed state before switching identity.
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.ErrorContext(ctx, "session save failed", logger.Error(err))
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	s.establishSession(w, r, user.ID, next)
}

// establishSession authenticates the session (rotating its token),
// merges any guest likes into the account and redirects to next.
func (s *Service) establishSession(w http.ResponseWriter, r *http.Request, userID, next string) {
	ctx := r.Context()

	sess, err := s.sessions.Authenticate(ctx, w, r, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "session authentication failed",
			logger.UserID(userID), logger.Error(err))
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	if err := s.likes.MergeGuestIntoUser(ctx, sess, userID); err != nil {
		// The login itself succeeded; losing guest likes is logged, not fatal.
		s.log.ErrorContext(ctx, "guest like merge failed",
			logger.UserID(userID), logger.Error(err))
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.ErrorContext(ctx, "session save failed", logger.Error(err))
	}

	http.Redirect(w, r, sanitizer.RedirectPath(next, "/"), http.StatusSeeOther)
}

func redirectError(w http.ResponseWriter, r *http.Request, page, message, next string) {
	v := url.Values{}
	v.Set("error", message)
	if next != "" && next != "/" {
		v.Set("next", next)
	}
	http.Redirect(w, r, page+"?"+v.Encode(), http.StatusSeeOther)
}
