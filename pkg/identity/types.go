// Package identity owns user accounts: local email/password
// registration, OAuth sign-in with account linking across providers,
// and the upsert logic that decides whether a provider profile maps to
// an existing account or creates a new one.
package identity

import "time"

// Provider identifiers. "local" marks accounts created through the
// registration form.
const (
	ProviderLocal   = "local"
	ProviderGoogle  = "google"
	ProviderGitHub  = "github"
	ProviderDiscord = "discord"
)

// Role determines what a user can see and do. Fixed at creation:
// registered accounts are always RoleUser, admin and artist accounts
// come from seed data.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleArtist Role = "artist"
	RoleUser   Role = "user"
)

// OAuthLink records one provider identity attached to a user account.
// A single account can be reachable through several providers plus an
// optional local password.
type OAuthLink struct {
	ProviderID  string    `json:"providerId"`
	Email       string    `json:"email,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	LinkedAt    time.Time `json:"linkedAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// User is one account record in users.json.
type User struct {
	ID           string               `json:"id"`
	Provider     string               `json:"provider"`
	ProviderID   string               `json:"providerId,omitempty"`
	Email        string               `json:"email,omitempty"`
	DisplayName  string               `json:"displayName,omitempty"`
	Role         Role                 `json:"role"`
	ArtistID     string               `json:"artistId,omitempty"`
	PasswordHash string               `json:"passwordHash,omitempty"`
	OAuthLinks   map[string]OAuthLink `json:"oauthLinks,omitempty"`
	Avatar       string               `json:"avatar,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// IsArtist reports whether the user holds the artist role.
func (u *User) IsArtist() bool { return u != nil && u.Role == RoleArtist }

// ExternalIdentity is the normalized profile shape every provider
// adapter produces. The upsert logic never branches on provider after
// this point.
type ExternalIdentity struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
	Avatar      string
}
