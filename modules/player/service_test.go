package player_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrift/soundrift/modules/player"
	"github.com/soundrift/soundrift/pkg/catalog"
	"github.com/soundrift/soundrift/pkg/cookie"
	"github.com/soundrift/soundrift/pkg/identity"
	"github.com/soundrift/soundrift/pkg/jsonstore"
	"github.com/soundrift/soundrift/pkg/likes"
	"github.com/soundrift/soundrift/pkg/session"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

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
		{ID: "t2", Title: "Daybreak", ArtistID: "a1", Status: catalog.StatusPublished, PublishedAt: &now},
		{ID: "t3", Title: "Unreleased", ArtistID: "a1", Status: catalog.StatusPending},
	}))
	require.NoError(t, playlists.Save([]catalog.Playlist{
		{ID: "p1", Title: "Night Mix", TrackIDs: []string{"t1", "t3", "ghost", "t2"}},
	}))
	require.NoError(t, authors.Save([]catalog.Author{
		{ID: "a1", Name: "Nova"},
	}))

	identitySvc := identity.NewService(identity.NewRepository(users))
	catalogSvc := catalog.NewService(
		catalog.NewTrackRepository(tracks),
		catalog.NewPlaylistRepository(playlists),
		catalog.NewAuthorRepository(authors),
	)
	likeSvc := likes.NewService(likeCol, catalogSvc)

	cookieMgr, err := cookie.New([]string{"test-secret-test-secret-test-secret!"})
	require.NoError(t, err)
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	sessions := session.NewManager(
		session.WithStore(store),
		session.WithTransport(session.NewCookieTransport(cookieMgr, "sid", false)),
	)

	svc := player.NewService(catalogSvc, likeSvc, identitySvc, sessions, "https://soundrift.example")

	r := chi.NewRouter()
	r.Use(session.Middleware(sessions))
	svc.Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func getJSON(t *testing.T, c *http.Client, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func postJSON(t *testing.T, c *http.Client, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := c.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestMeAsGuest(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	body := getJSON(t, newClient(t), srv.URL+"/api/me", http.StatusOK)
	assert.Equal(t, true, body["ok"])
	assert.Nil(t, body["user"])
	assert.Equal(t, []any{}, body["likes"])
}

func TestGuestLikeToggle(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := newClient(t)

	body := postJSON(t, c, srv.URL+"/api/like/t1", http.StatusOK)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["liked"])
	assert.Equal(t, []any{"t1"}, body["likes"])
	assert.Equal(t, true, body["guest"])

	// The set survives across requests via the session cookie.
	body = getJSON(t, c, srv.URL+"/api/me", http.StatusOK)
	assert.Equal(t, []any{"t1"}, body["likes"])

	// Second toggle removes the like.
	body = postJSON(t, c, srv.URL+"/api/like/t1", http.StatusOK)
	assert.Equal(t, false, body["liked"])
	assert.Equal(t, []any{}, body["likes"])
}

func TestLikeHiddenTrack(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := newClient(t)

	resp, err := c.Post(srv.URL+"/api/like/t3", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = c.Post(srv.URL+"/api/like/nope", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListTracksGuestSeesPublishedOnly(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	body := getJSON(t, newClient(t), srv.URL+"/api/tracks", http.StatusOK)
	tracks, ok := body["tracks"].([]any)
	require.True(t, ok)
	assert.Len(t, tracks, 2)
}

func TestGetTrack(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := newClient(t)

	body := getJSON(t, c, srv.URL+"/api/tracks/t1", http.StatusOK)
	track, ok := body["track"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Midnight Drive", track["title"])

	getJSON(t, c, srv.URL+"/api/tracks/missing", http.StatusNotFound)
	getJSON(t, c, srv.URL+"/api/tracks/t3", http.StatusForbidden)
}

func TestRegisterPlay(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := newClient(t)

	body := postJSON(t, c, srv.URL+"/api/play/t1", http.StatusOK)
	assert.Equal(t, float64(1), body["plays"])

	body = postJSON(t, c, srv.URL+"/api/play/t1", http.StatusOK)
	assert.Equal(t, float64(2), body["plays"])
}

func TestGetPlaylistResolvesVisibleTracks(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	body := getJSON(t, newClient(t), srv.URL+"/api/playlists/p1", http.StatusOK)
	tracks, ok := body["tracks"].([]any)
	require.True(t, ok)

	// Pending and missing references are dropped, order is preserved.
	require.Len(t, tracks, 2)
	first, _ := tracks[0].(map[string]any)
	second, _ := tracks[1].(map[string]any)
	assert.Equal(t, "t1", first["id"])
	assert.Equal(t, "t2", second["id"])
}

func TestGetAuthor(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := newClient(t)

	body := getJSON(t, c, srv.URL+"/api/authors/a1", http.StatusOK)
	author, ok := body["author"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Nova", author["name"])

	getJSON(t, c, srv.URL+"/api/authors/missing", http.StatusNotFound)
}

func TestShareQR(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/share/track/t1/qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	magic := make([]byte, 8)
	_, err = io.ReadFull(resp.Body, magic)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, magic)

	// Hidden tracks cannot be shared.
	resp, err = c.Get(srv.URL + "/share/track/t3/qr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
