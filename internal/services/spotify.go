// Spotify Web API source client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/get-playlist
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifyMarket   = "se"

	// maxPlaylistTracks is the largest playlist Spotify allows; it bounds preallocation.
	maxPlaylistTracks = 10000
)

// SpotifyArtist is the simplified artist object embedded in tracks.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack is the subset of the track object needed to build a search line.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
}

// SpotifyPlaylistItem is one entry of a playlist's track page.
//
// Track is nil for tracks that were removed or are unavailable in the market.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyTrackPage is a paging object of playlist items.
type SpotifyTrackPage struct {
	Items []SpotifyPlaylistItem `json:"items"`
	Total int                   `json:"total"`
	Next  *string               `json:"next"`
}

// SpotifyPlaylist represents a Spotify playlist with its first page of tracks.
type SpotifyPlaylist struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Tracks SpotifyTrackPage `json:"tracks"`
}

// SpotifySource fetches playlist track lists from the Spotify Web API.
//
// It holds no per-user state and is safe for concurrent use.
type SpotifySource struct {
	baseURL    string
	market     string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     *log.Logger
}

// NewSpotifySource creates a source client from config. A nil client uses [NewHTTPClient].
func NewSpotifySource(cfg shared.SpotifyConfig, client *http.Client, logger *log.Logger) *SpotifySource {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &SpotifySource{
		baseURL:    strings.TrimRight(orDefault(cfg.BaseURL, spotifyBaseURL), "/"),
		market:     orDefault(cfg.Market, spotifyMarket),
		httpClient: client,
		logger:     shared.WithLogger(logger, "service", "spotify"),
	}

	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     orDefault(cfg.TokenURL, spotifyTokenURL),
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		s.tokens = oauth2.ReuseTokenSource(nil, cc.TokenSource(ctx))
	}
	return s
}

func (s *SpotifySource) Name() string {
	return "Spotify"
}

// Token returns application credentials from the client-credentials grant.
//
// Tokens are reused until they expire.
func (s *SpotifySource) Token(ctx context.Context) (models.Credentials, error) {
	if s.tokens == nil {
		return models.Credentials{}, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	if err := ctx.Err(); err != nil {
		return models.Credentials{}, err
	}

	token, err := s.tokens.Token()
	if err != nil {
		return models.Credentials{}, fmt.Errorf("%w: spotify client credentials: %v", shared.ErrAuthFailed, err)
	}
	return models.Credentials{AccessToken: token.AccessToken}, nil
}

// FetchTracks returns the playlist name and its tracks in playlist order.
//
// playlistID may be a raw ID, a spotify: URI or an open.spotify.com URL.
func (s *SpotifySource) FetchTracks(ctx context.Context, playlistID string, creds models.Credentials) (*models.TrackList, error) {
	id, err := shared.ExtractPlaylistID(playlistID)
	if err != nil {
		return nil, err
	}

	if creds.Empty() {
		return nil, fmt.Errorf("%w: spotify access token is empty", shared.ErrUnauthorized)
	}

	endpoint := fmt.Sprintf("%s/playlists/%s?market=%s", s.baseURL, url.PathEscape(id), url.QueryEscape(s.market))

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, endpoint, creds, &playlist); err != nil {
		return nil, err
	}

	list := &models.TrackList{Name: playlist.Name, Tracks: make([]models.Track, 0, trackCapacity(playlist.Tracks))}
	list.Tracks = appendTracks(list.Tracks, playlist.Tracks.Items)

	next := playlist.Tracks.Next
	for next != nil && *next != "" {
		if err := s.checkNext(*next); err != nil {
			return nil, err
		}
		var page SpotifyTrackPage
		if err := s.doRequest(ctx, *next, creds, &page); err != nil {
			return nil, err
		}
		list.Tracks = appendTracks(list.Tracks, page.Items)
		next = page.Next
	}

	s.logger.Debug("fetched playlist", "playlist_id", id, "name", list.Name, "tracks", len(list.Tracks))
	return list, nil
}

// trackCapacity sizes the track slice from the reported total, which is upstream data
// and may be negative or absurd.
func trackCapacity(page SpotifyTrackPage) int {
	if page.Total <= 0 {
		return len(page.Items)
	}
	return max(min(page.Total, maxPlaylistTracks), len(page.Items))
}

// checkNext rejects pagination links outside the API origin. Requests to next carry the bearer token.
func (s *SpotifySource) checkNext(next string) error {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid spotify base URL: %v", shared.ErrUpstream, err)
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != base.Scheme || u.Host != base.Host {
		s.logger.Warn("refusing pagination link outside the API origin", "next", next)
		return fmt.Errorf("%w: pagination link %q is outside %s://%s", shared.ErrUpstream, next, base.Scheme, base.Host)
	}
	return nil
}

// appendTracks converts playlist items to search lines using the first artist, skipping empty slots.
func appendTracks(tracks []models.Track, items []SpotifyPlaylistItem) []models.Track {
	for _, item := range items {
		if item.Track == nil || item.Track.Name == "" {
			continue
		}
		artist := ""
		if len(item.Track.Artists) > 0 {
			artist = item.Track.Artists[0].Name
		}
		tracks = append(tracks, models.NewTrack(artist, item.Track.Name))
	}
	return tracks
}

// doRequest performs an authenticated GET against the Spotify API and decodes the JSON body into result.
func (s *SpotifySource) doRequest(ctx context.Context, endpoint string, creds models.Credentials, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrUpstream, err)
	}

	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: spotify request failed: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := errorDetail(resp)
		s.logger.Warn("spotify request failed", "status", resp.StatusCode, "detail", detail)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: spotify API status 404", shared.ErrPlaylistNotFound)
		}
		return shared.StatusError("spotify", resp.StatusCode, detail)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode spotify response: %v", shared.ErrUpstream, err)
	}
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
