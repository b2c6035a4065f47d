package catalog

import "github.com/soundrift/soundrift/pkg/identity"

type requesterKind int

const (
	kindGuest requesterKind = iota
	kindUser
	kindArtist
	kindAdmin
)

// Requester is a closed variant of who is asking: Guest, User,
// Artist(artistID) or Admin. All visibility and moderation decisions
// go through this value instead of re-deriving role logic per route.
type Requester struct {
	kind     requesterKind
	artistID string
}

// Guest is an anonymous requester.
func Guest() Requester { return Requester{kind: kindGuest} }

// AsUser is an authenticated requester without artist or admin rights.
func AsUser() Requester { return Requester{kind: kindUser} }

// AsArtist is an authenticated artist requester owning artistID.
func AsArtist(artistID string) Requester {
	return Requester{kind: kindArtist, artistID: artistID}
}

// AsAdmin is an administrator requester.
func AsAdmin() Requester { return Requester{kind: kindAdmin} }

// RequesterFor derives the requester variant from a user record. A nil
// user is a guest.
func RequesterFor(u *identity.User) Requester {
	switch {
	case u == nil:
		return Guest()
	case u.Role == identity.RoleAdmin:
		return AsAdmin()
	case u.Role == identity.RoleArtist:
		return AsArtist(u.ArtistID)
	default:
		return AsUser()
	}
}

// IsAdmin reports whether the requester is an administrator.
func (r Requester) IsAdmin() bool { return r.kind == kindAdmin }

// OwnsArtist reports whether the requester is the artist with the
// given id.
func (r Requester) OwnsArtist(artistID string) bool {
	return r.kind == kindArtist && artistID != "" && r.artistID == artistID
}

// ArtistID returns the owning artist id for artist requesters, empty
// otherwise.
func (r Requester) ArtistID() string {
	if r.kind != kindArtist {
		return ""
	}
	return r.artistID
}

// IsVisible reports whether the requester may see the track. Published
// tracks are visible to everyone; pending and rejected tracks only to
// an admin or the owning artist.
func IsVisible(t Track, r Requester) bool {
	if t.Status == StatusPublished {
		return true
	}
	return CanModerate(r, t)
}

// CanModerate reports whether the requester may approve, reject or
// delete the track: an admin, or the artist owning it. Owning artists
// share the predicate but the mutating routes are admin-facing only.
func CanModerate(r Requester, t Track) bool {
	return r.IsAdmin() || r.OwnsArtist(t.ArtistID)
}
