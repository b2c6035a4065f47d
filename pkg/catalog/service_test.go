package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrift/soundrift/pkg/catalog"
	"github.com/soundrift/soundrift/pkg/jsonstore"
)

func newCatalog(t *testing.T) (*catalog.Service, *catalog.TrackRepository, *jsonstore.Collection[catalog.Playlist]) {
	t.Helper()
	dir := t.TempDir()

	trackCol, err := jsonstore.NewCollection[catalog.Track](dir, "tracks.json")
	require.NoError(t, err)
	playlistCol, err := jsonstore.NewCollection[catalog.Playlist](dir, "playlists.json")
	require.NoError(t, err)
	authorCol, err := jsonstore.NewCollection[catalog.Author](dir, "authors.json")
	require.NoError(t, err)

	tracks := catalog.NewTrackRepository(trackCol)
	svc := catalog.NewService(
		tracks,
		catalog.NewPlaylistRepository(playlistCol),
		catalog.NewAuthorRepository(authorCol),
	)
	return svc, tracks, playlistCol
}

func upload(t *testing.T, svc *catalog.Service, title, artistID string) *catalog.Track {
	t.Helper()
	track, err := svc.Upload(context.Background(), catalog.UploadInput{
		Title:    title,
		ArtistID: artistID,
		Audio:    "audio/" + title + ".mp3",
		Cover:    "cover/" + title + ".png",
	})
	require.NoError(t, err)
	return track
}

func TestUploadCreatesPendingTrack(t *testing.T) {
	t.Parallel()

	svc, _, _ := newCatalog(t)
	track, err := svc.Upload(context.Background(), catalog.UploadInput{
		Title:       "Midnight Drive",
		Genre:       "synthwave",
		ArtistID:    "a1",
		SubmittedBy: "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, catalog.StatusPending, track.Status)
	assert.Zero(t, track.Plays)
	assert.Zero(t, track.Likes)
	assert.Equal(t, "a1", track.ArtistID)
	assert.Equal(t, "u1", track.SubmittedBy)
	assert.NotEmpty(t, track.Slug)

	// No files supplied: shared placeholders.
	assert.Equal(t, catalog.PlaceholderAudio, track.Audio)
	assert.Equal(t, catalog.PlaceholderCover, track.Cover)
}

func TestListTracksFiltersByVisibility(t *testing.T) {
	t.Parallel()

	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	pending := upload(t, svc, "pending-song", "a1")
	published := upload(t, svc, "published-song", "a1")
	_, err := svc.Approve(ctx, published.ID, catalog.AsAdmin())
	require.NoError(t, err)

	guestTracks, err := svc.ListTracks(ctx, catalog.Guest())
	require.NoError(t, err)
	require.Len(t, guestTracks, 1)
	assert.Equal(t, published.ID, guestTracks[0].ID)

	adminTracks, err := svc.ListTracks(ctx, catalog.AsAdmin())
	require.NoError(t, err)
	assert.Len(t, adminTracks, 2)

	ownerTracks, err := svc.ListTracks(ctx, catalog.AsArtist("a1"))
	require.NoError(t, err)
	assert.Len(t, ownerTracks, 2)

	t.Run("hidden track fetch is forbidden, missing is not found", func(t *testing.T) {
		_, err := svc.GetTrack(ctx, pending.ID, catalog.Guest())
		assert.ErrorIs(t, err, catalog.ErrForbidden)

		_, err = svc.GetTrack(ctx, "no-such-track", catalog.Guest())
		assert.ErrorIs(t, err, catalog.ErrTrackNotFound)
	})
}

func TestApproveAndReject(t *testing.T) {
	t.Parallel()

	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	track := upload(t, svc, "song", "a1")

	approved, err := svc.Approve(ctx, track.ID, catalog.AsAdmin())
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusPublished, approved.Status)
	require.NotNil(t, approved.PublishedAt)

	t.Run("transition is unconditional re-target", func(t *testing.T) {
		rejected, err := svc.Reject(ctx, track.ID, catalog.AsAdmin())
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusRejected, rejected.Status)
		require.NotNil(t, rejected.RejectedAt)
		// The earlier published stamp survives.
		assert.NotNil(t, rejected.PublishedAt)
	})

	t.Run("non-moderators cannot see hidden tracks", func(t *testing.T) {
		// The track is rejected at this point; to outsiders it must be
		// indistinguishable from a missing one.
		_, err := svc.Approve(ctx, track.ID, catalog.AsUser())
		assert.ErrorIs(t, err, catalog.ErrTrackNotFound)
		_, err = svc.Reject(ctx, track.ID, catalog.AsArtist("someone-else"))
		assert.ErrorIs(t, err, catalog.ErrTrackNotFound)
	})

	t.Run("non-moderators on visible tracks are forbidden", func(t *testing.T) {
		published, err := svc.Approve(ctx, track.ID, catalog.AsAdmin())
		require.NoError(t, err)
		_, err = svc.Reject(ctx, published.ID, catalog.AsUser())
		assert.ErrorIs(t, err, catalog.ErrForbidden)
	})

	t.Run("missing track", func(t *testing.T) {
		_, err := svc.Approve(ctx, "nope", catalog.AsAdmin())
		assert.ErrorIs(t, err, catalog.ErrTrackNotFound)
	})
}

func TestDeleteCascadesToPlaylists(t *testing.T) {
	t.Parallel()

	svc, tracks, playlistCol := newCatalog(t)
	ctx := context.Background()

	track := upload(t, svc, "doomed", "a1")
	keeper := upload(t, svc, "keeper", "a1")

	require.NoError(t, playlistCol.Save([]catalog.Playlist{
		{ID: "p1", Title: "Mix", TrackIDs: []string{track.ID, keeper.ID}},
		{ID: "p2", Title: "Other", TrackIDs: []string{track.ID}},
	}))

	require.NoError(t, svc.Delete(ctx, track.ID, catalog.AsAdmin()))

	_, err := tracks.GetByID(ctx, track.ID)
	assert.ErrorIs(t, err, catalog.ErrTrackNotFound)

	playlists, err := svc.ListPlaylists(ctx)
	require.NoError(t, err)
	require.Len(t, playlists, 2)
	assert.Equal(t, []string{keeper.ID}, playlists[0].TrackIDs)
	assert.Empty(t, playlists[1].TrackIDs)

	t.Run("delete is admin only", func(t *testing.T) {
		err := svc.Delete(ctx, keeper.ID, catalog.AsArtist("a1"))
		assert.ErrorIs(t, err, catalog.ErrForbidden)
	})

	t.Run("hidden track looks absent to non-admins", func(t *testing.T) {
		err := svc.Delete(ctx, keeper.ID, catalog.AsUser())
		assert.ErrorIs(t, err, catalog.ErrTrackNotFound)
	})
}

func TestPlaylistTracksDropMissingAndHidden(t *testing.T) {
	t.Parallel()

	svc, _, playlistCol := newCatalog(t)
	ctx := context.Background()

	pending := upload(t, svc, "pending", "a1")
	published := upload(t, svc, "published", "a1")
	_, err := svc.Approve(ctx, published.ID, catalog.AsAdmin())
	require.NoError(t, err)

	require.NoError(t, playlistCol.Save([]catalog.Playlist{
		{ID: "p1", Title: "Mix", TrackIDs: []string{"ghost", pending.ID, published.ID}},
	}))

	guestView, err := svc.PlaylistTracks(ctx, "p1", catalog.Guest())
	require.NoError(t, err)
	require.Len(t, guestView, 1)
	assert.Equal(t, published.ID, guestView[0].ID)

	adminView, err := svc.PlaylistTracks(ctx, "p1", catalog.AsAdmin())
	require.NoError(t, err)
	assert.Len(t, adminView, 2)
}

func TestRegisterPlay(t *testing.T) {
	t.Parallel()

	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	track := upload(t, svc, "song", "a1")
	_, err := svc.Approve(ctx, track.ID, catalog.AsAdmin())
	require.NoError(t, err)

	plays, err := svc.RegisterPlay(ctx, track.ID, catalog.Guest())
	require.NoError(t, err)
	assert.Equal(t, 1, plays)

	plays, err = svc.RegisterPlay(ctx, track.ID, catalog.Guest())
	require.NoError(t, err)
	assert.Equal(t, 2, plays)

	t.Run("hidden track cannot be played by guests", func(t *testing.T) {
		hidden := upload(t, svc, "hidden", "a1")
		_, err := svc.RegisterPlay(ctx, hidden.ID, catalog.Guest())
		assert.ErrorIs(t, err, catalog.ErrForbidden)
	})
}
