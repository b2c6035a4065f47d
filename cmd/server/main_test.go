package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrift/soundrift/modules/account"
	"github.com/soundrift/soundrift/modules/player"
	"github.com/soundrift/soundrift/modules/studio"
	"github.com/soundrift/soundrift/pkg/catalog"
	"github.com/soundrift/soundrift/pkg/cookie"
	"github.com/soundrift/soundrift/pkg/file"
	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/jsonstore"
	"github.com/soundrift/soundrift/pkg/likes"
	"github.com/soundrift/soundrift/pkg/session"
	"github.com/soundrift/soundrift/pkg/upload"
)

// newTestRouter builds the complete route table the way run() does,
// with all three modules on one mux.
func newTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	mediaDir := t.TempDir()

	users, err := jsonstore.NewCollection[identity.User](dir, "users.json")
	require.NoError(t, err)
	tracks, err := jsonstore.NewCollection[catalog.Track](dir, "tracks.json")
	require.NoError(t, err)
	playlists, err := jsonstore.NewCollection[catalog.Playlist](dir, "playlists.json")
	require.NoError(t, err)
	authors, err := jsonstore.NewCollection[catalog.Author](dir, "authors.json")
	require.NoError(t, err)
	likeCol, err := jsonstore.NewMapCollection[[]string](dir, "likes.json")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, tracks.Save([]catalog.Track{
		{ID: "t1", Title: "Midnight Drive", ArtistID: "a1", Status: catalog.StatusPublished, PublishedAt: &now},
	}))

	identitySvc := identity.NewService(identity.NewRepository(users))
	catalogSvc := catalog.NewService(
		catalog.NewTrackRepository(tracks),
		catalog.NewPlaylistRepository(playlists),
		catalog.NewAuthorRepository(authors),
	)
	likeSvc := likes.NewService(likeCol, catalogSvc)
	flow := identity.NewFlow(identitySvc)

	cookieMgr, err := cookie.New([]string{"test-secret-test-secret-test-secret!"})
	require.NoError(t, err)
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	sessions := session.NewManager(
		session.WithStore(store),
		session.WithTransport(session.NewCookieTransport(cookieMgr, "sid", false)),
	)

	storage, err := file.NewLocalStorage(mediaDir, "/files/")
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := newRouter(context.Background(), log, routerDeps{
		sessions: sessions,
		account:  account.NewService(identitySvc, flow, likeSvc, sessions),
		player:   player.NewService(catalogSvc, likeSvc, identitySvc, sessions, "http://localhost:8080"),
		studio:   studio.NewService(catalogSvc, identitySvc, upload.NewSaver(storage)),
		mediaDir: mediaDir,
	})
	require.NoError(t, err)
	return r, mediaDir
}

// One route per module, plus health and static media, all served from
// the single composed mux.
func TestRouterServesAllModules(t *testing.T) {
	t.Parallel()
	r, mediaDir := newTestRouter(t)

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("healthz", func(t *testing.T) {
		rec := do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("player route", func(t *testing.T) {
		rec := do(httptest.NewRequest(http.MethodGet, "/api/tracks", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Midnight Drive")
	})

	t.Run("account route", func(t *testing.T) {
		form := url.Values{"email": {"bob@example.com"}, "password": {"secret1"}}
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := do(req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("studio route", func(t *testing.T) {
		rec := do(httptest.NewRequest(http.MethodPost, "/studio/upload", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("static media", func(t *testing.T) {
		path := filepath.Join(mediaDir, "cover.png")
		require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

		rec := do(httptest.NewRequest(http.MethodGet, "/files/cover.png", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "png-bytes", rec.Body.String())
	})
}
