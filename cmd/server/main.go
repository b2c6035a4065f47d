// Command server runs the soundrift demo music-sharing service: a
// JSON API over flat-file storage with local and OAuth authentication,
// artist uploads and admin moderation.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soundrift/soundrift/modules/account"
	"github.com/soundrift/soundrift/modules/player"
	"github.com/soundrift/soundrift/modules/studio"
	"github.com/soundrift/soundrift/pkg/catalog"
	"github.com/soundrift/soundrift/pkg/config"
	"github.com/soundrift/soundrift/pkg/cookie"
	"github.com/soundrift/soundrift/pkg/email"
	"github.com/soundrift/soundrift/pkg/file"
	"github.com/soundrift/soundrift/pkg/httpserver"
	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/jsonstore"
	"github.com/soundrift/soundrift/pkg/likes"
	"github.com/soundrift/soundrift/pkg/logger"
	"github.com/soundrift/soundrift/pkg/seed"
	"github.com/soundrift/soundrift/pkg/session"
	"github.com/soundrift/soundrift/pkg/upload"
)

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// CookieSecret encrypts session cookies; at least 32 characters.
	CookieSecret string `env:"COOKIE_SECRET" envDefault:"insecure-dev-secret-change-me-please!"`

	// SeedFile bootstraps an empty data dir on first start.
	SeedFile string `env:"SEED_FILE" envDefault:"./seed.yaml"`

	// MediaBackend selects "local" or "s3" storage for uploads.
	MediaBackend string `env:"MEDIA_BACKEND" envDefault:"local"`
	MediaDir     string `env:"MEDIA_DIR" envDefault:"./data/media"`

	HTTP    httpserver.Config
	Session session.Config
	Storage jsonstore.Config
	Google  identity.GoogleOAuthConfig
	GitHub  identity.GitHubOAuthConfig
	Discord identity.DiscordOAuthConfig
	Email   email.Config
	S3      file.S3Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "soundrift"),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	// Persistence: one JSON file per collection.
	userCol, err := jsonstore.NewCollection[identity.User](cfg.Storage.DataDir, "users.json")
	if err != nil {
		return err
	}
	trackCol, err := jsonstore.NewCollection[catalog.Track](cfg.Storage.DataDir, "tracks.json")
	if err != nil {
		return err
	}
	playlistCol, err := jsonstore.NewCollection[catalog.Playlist](cfg.Storage.DataDir, "playlists.json")
	if err != nil {
		return err
	}
	authorCol, err := jsonstore.NewCollection[catalog.Author](cfg.Storage.DataDir, "authors.json")
	if err != nil {
		return err
	}
	likeCol, err := jsonstore.NewMapCollection[[]string](cfg.Storage.DataDir, "likes.json")
	if err != nil {
		return err
	}

	if fixtures, err := seed.Load(cfg.SeedFile); err == nil {
		ran, err := seed.Apply(ctx, fixtures, seed.Collections{
			Users:     userCol,
			Authors:   authorCol,
			Tracks:    trackCol,
			Playlists: playlistCol,
		})
		if err != nil {
			return err
		}
		if ran {
			log.Info("seeded initial data", slog.String("file", cfg.SeedFile))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Warn("seed file unreadable", logger.Error(err))
	}

	// Sessions: encrypted cookie transport, memory or redis store.
	cookieMgr, err := cookie.New([]string{cfg.CookieSecret})
	if err != nil {
		return err
	}
	var store session.Store
	if cfg.Session.Store == "redis" {
		redisStore, err := session.NewRedisStore(cfg.Session.RedisURL)
		if err != nil {
			return err
		}
		store = redisStore
	} else {
		memStore := session.NewMemoryStore(cfg.Session.CleanupInterval)
		defer func() { _ = memStore.Close() }()
		store = memStore
	}
	sessions := session.NewManager(
		session.WithConfig(cfg.Session),
		session.WithStore(store),
		session.WithTransport(session.NewCookieTransport(cookieMgr, cfg.Session.CookieName, cfg.Session.SecureCookies)),
	)

	// Media storage for uploads.
	var media file.Storage
	if cfg.MediaBackend == "s3" {
		media, err = file.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return err
		}
	} else {
		media, err = file.NewLocalStorage(cfg.MediaDir, "/files/")
		if err != nil {
			return err
		}
	}

	// Domain services.
	identitySvc := identity.NewService(
		identity.NewRepository(userCol),
		identity.WithLogger(log.With(logger.Component("identity"))),
	)
	catalogSvc := catalog.NewService(
		catalog.NewTrackRepository(trackCol),
		catalog.NewPlaylistRepository(playlistCol),
		catalog.NewAuthorRepository(authorCol),
		catalog.WithLogger(log.With(logger.Component("catalog"))),
	)
	likeSvc := likes.NewService(likeCol, catalogSvc,
		likes.WithLogger(log.With(logger.Component("likes"))),
	)

	var adapters []identity.ProviderAdapter
	if cfg.Google.Enabled() {
		adapters = append(adapters, identity.NewGoogleAdapter(cfg.Google))
	}
	if cfg.GitHub.Enabled() {
		adapters = append(adapters, identity.NewGitHubAdapter(cfg.GitHub))
	}
	if cfg.Discord.Enabled() {
		adapters = append(adapters, identity.NewDiscordAdapter(cfg.Discord))
	}
	flow := identity.NewFlow(identitySvc, adapters...)

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return err
	}

	// HTTP modules.
	accountSvc := account.NewService(identitySvc, flow, likeSvc, sessions,
		account.WithLogger(log.With(logger.Component("account"))),
		account.WithEmailSender(sender),
	)
	playerSvc := player.NewService(catalogSvc, likeSvc, identitySvc, sessions, cfg.BaseURL,
		player.WithLogger(log.With(logger.Component("player"))),
	)
	studioSvc := studio.NewService(catalogSvc, identitySvc, upload.NewSaver(media),
		studio.WithLogger(log.With(logger.Component("studio"))),
		studio.WithEmailSender(sender),
	)

	mediaDir := cfg.MediaDir
	if cfg.MediaBackend == "s3" {
		mediaDir = ""
	}
	r, err := newRouter(ctx, log, routerDeps{
		sessions: sessions,
		account:  accountSvc,
		player:   playerSvc,
		studio:   studioSvc,
		mediaDir: mediaDir,
	})
	if err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("server listening", slog.String("addr", cfg.HTTP.Addr))
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("server stopped")
		}),
	)
	return srv.Run(ctx, r)
}

// routerDeps bundles everything the route table needs. mediaDir is
// empty when media is served remotely.
type routerDeps struct {
	sessions *session.Manager
	account  *account.Service
	player   *player.Service
	studio   *studio.Service
	mediaDir string
}

// newRouter assembles the full route table: the three feature modules
// register their routes directly on one shared mux behind the session
// middleware.
func newRouter(ctx context.Context, log *slog.Logger, deps routerDeps) (chi.Router, error) {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(session.Middleware(deps.sessions))

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	deps.account.Register(r)
	deps.player.Register(r)
	deps.studio.Register(r)

	if deps.mediaDir != "" {
		dir, err := filepath.Abs(deps.mediaDir)
		if err != nil {
			return nil, err
		}
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(dir))))
	}
	return r, nil
}
