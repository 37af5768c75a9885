package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// YouTubeAuth runs the Google authorization code flow for YouTube write access.
type YouTubeAuth struct {
	config *oauth2.Config
}

// NewYouTubeAuth builds the OAuth client from the YouTube credentials.
//
// Returns [shared.ErrMissingCredentials] when the client ID, secret or redirect URI is unset.
func NewYouTubeAuth(cfg shared.YouTubeConfig) (*YouTubeAuth, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: youtube client_id, client_secret and redirect_uri are required", shared.ErrMissingCredentials)
	}
	return &YouTubeAuth{config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{youtube.YoutubeScope},
		Endpoint:     google.Endpoint,
	}}, nil
}

// Config returns the underlying OAuth2 configuration.
func (a *YouTubeAuth) Config() *oauth2.Config {
	return a.config
}

// AuthURL returns the consent page URL. Offline access with forced consent yields a refresh token.
func (a *YouTubeAuth) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for target credentials.
func (a *YouTubeAuth) Exchange(ctx context.Context, code string) (models.Credentials, error) {
	if strings.TrimSpace(code) == "" {
		return models.Credentials{}, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}
	if token.AccessToken == "" {
		return models.Credentials{}, fmt.Errorf("%w: empty access token", shared.ErrAuthFailed)
	}
	return models.NewCredentials(token.AccessToken), nil
}
