package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// DiscordOAuthConfig holds configuration for the Discord OAuth provider.
type DiscordOAuthConfig struct {
	ClientID     string   `env:"DISCORD_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"DISCORD_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"DISCORD_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"DISCORD_OAUTH_SCOPES" envSeparator:"," envDefault:"identify,email"`
}

// Enabled reports whether the provider is configured.
func (c DiscordOAuthConfig) Enabled() bool { return c.ClientID != "" && c.ClientSecret != "" }

type discordAdapter struct {
	conf       *oauth2.Config
	httpClient *http.Client
}

// NewDiscordAdapter creates a Discord OAuth provider adapter.
func NewDiscordAdapter(cfg DiscordOAuthConfig) ProviderAdapter {
	return &discordAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoints.Discord,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *discordAdapter) Provider() string { return ProviderDiscord }

func (a *discordAdapter) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

func (a *discordAdapter) ResolveIdentity(ctx context.Context, code string) (ExternalIdentity, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return ExternalIdentity{}, ErrInvalidCode
	}

	u, err := a.fetchDiscordUser(ctx, tok.AccessToken)
	if err != nil {
		return ExternalIdentity{}, fmt.Errorf("fetch discord user: %w", err)
	}

	name := u.GlobalName
	if name == "" {
		name = u.Username
	}

	var avatar string
	if u.Avatar != "" {
		avatar = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", u.ID, u.Avatar)
	}

	// Discord reports email verification explicitly; an unverified
	// address is dropped rather than trusted for account linking.
	email := u.Email
	if !u.Verified {
		email = ""
	}

	return ExternalIdentity{
		Provider:    ProviderDiscord,
		ProviderID:  u.ID,
		Email:       email,
		DisplayName: name,
		Avatar:      avatar,
	}, nil
}

func (a *discordAdapter) fetchDiscordUser(ctx context.Context, accessToken string) (*dUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://discord.com/api/users/@me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord api returned status %d", resp.StatusCode)
	}

	var user dUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

type dUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
	Verified   bool   `json:"verified"`
	Avatar     string `json:"avatar"`
}

var _ ProviderAdapter = (*discordAdapter)(nil)
