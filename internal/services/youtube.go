// YouTube Data API v3 target client
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	videoKind           = "youtube#video"
	playlistDescription = "Playlist created from Spotify data."
)

// YouTubeTarget creates playlists, searches videos and appends them via the YouTube Data API.
//
// Safe for concurrent use: credentials are bound to a fresh API service on every call.
type YouTubeTarget struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewYouTubeTarget creates a target client. requestsPerSecond <= 0 disables client-side rate limiting.
func NewYouTubeTarget(cfg shared.YouTubeConfig, requestsPerSecond float64, client *http.Client, logger *log.Logger) *YouTubeTarget {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	y := &YouTubeTarget{
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		httpClient: client,
		logger:     shared.WithLogger(logger, "service", "youtube"),
	}
	if requestsPerSecond > 0 {
		y.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return y
}

func (y *YouTubeTarget) Name() string {
	return "YouTube"
}

// CreatePlaylist creates a playlist owned by the token holder and returns its ID.
func (y *YouTubeTarget) CreatePlaylist(ctx context.Context, title string, vis models.Visibility, creds models.Credentials) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: playlist title is required", shared.ErrInvalidArgument)
	}
	if !vis.Valid() {
		return "", fmt.Errorf("%w: invalid privacy status %q", shared.ErrInvalidArgument, vis)
	}
	if creds.Empty() {
		return "", fmt.Errorf("%w: youtube access token is empty", shared.ErrUnauthorized)
	}

	svc, err := y.service(ctx, y.bearer(creds))
	if err != nil {
		return "", err
	}

	playlist := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       title,
			Description: playlistDescription,
		},
		Status: &youtube.PlaylistStatus{
			PrivacyStatus: vis.String(),
		},
	}

	if err := y.wait(ctx); err != nil {
		return "", err
	}
	created, err := svc.Playlists.Insert([]string{"snippet", "status"}, playlist).Context(ctx).Do()
	if err != nil {
		return "", y.mapError(ctx, "create playlist", err, nil)
	}

	y.logger.Info("created playlist", "playlist_id", created.Id, "title", title, "privacy", vis)
	return created.Id, nil
}

// SearchItem returns the ID of the first video matching query.
//
// No match is reported as found == false with a nil error.
func (y *YouTubeTarget) SearchItem(ctx context.Context, query string) (string, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false, fmt.Errorf("%w: search query is empty", shared.ErrInvalidArgument)
	}
	if y.apiKey == "" {
		return "", false, fmt.Errorf("%w: youtube api_key", shared.ErrMissingCredentials)
	}

	svc, err := y.service(ctx, &transport.APIKey{Key: y.apiKey, Transport: y.baseTransport()})
	if err != nil {
		return "", false, err
	}

	if err := y.wait(ctx); err != nil {
		return "", false, err
	}
	resp, err := svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", false, fmt.Errorf("%w: youtube search: %v", shared.ErrUpstream, googleMessage(err))
	}

	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			return item.Id.VideoId, true, nil
		}
	}
	return "", false, nil
}

// AppendItem appends a video to the end of a playlist. Repeated calls add duplicates.
func (y *YouTubeTarget) AppendItem(ctx context.Context, itemID, playlistID string, creds models.Credentials) error {
	if itemID == "" || playlistID == "" {
		return fmt.Errorf("%w: video and playlist IDs are required", shared.ErrInvalidArgument)
	}
	if creds.Empty() {
		return fmt.Errorf("%w: youtube access token is empty", shared.ErrUnauthorized)
	}

	svc, err := y.service(ctx, y.bearer(creds))
	if err != nil {
		return err
	}

	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    videoKind,
				VideoId: itemID,
			},
		},
	}

	if err := y.wait(ctx); err != nil {
		return err
	}
	if _, err := svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return y.mapError(ctx, "append item", err, shared.ErrPlaylistNotFound)
	}
	return nil
}

func (y *YouTubeTarget) baseTransport() http.RoundTripper {
	if y.httpClient.Transport != nil {
		return y.httpClient.Transport
	}
	return http.DefaultTransport
}

// bearer attaches the caller's access token to requests without touching shared client state.
func (y *YouTubeTarget) bearer(creds models.Credentials) http.RoundTripper {
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken, TokenType: "Bearer"}),
		Base:   y.baseTransport(),
	}
}

func (y *YouTubeTarget) service(ctx context.Context, rt http.RoundTripper) (*youtube.Service, error) {
	opts := []option.ClientOption{
		option.WithHTTPClient(&http.Client{Transport: rt, Timeout: y.httpClient.Timeout}),
	}
	if y.endpoint != "" {
		opts = append(opts, option.WithEndpoint(y.endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create youtube client: %v", shared.ErrServiceUnavailable, err)
	}
	return svc, nil
}

func (y *YouTubeTarget) wait(ctx context.Context) error {
	if y.limiter == nil {
		return nil
	}
	return y.limiter.Wait(ctx)
}

// mapError maps a Google API error code onto the shared taxonomy. notFound, when set, replaces the 404 mapping.
func (y *YouTubeTarget) mapError(ctx context.Context, op string, err error, notFound error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: youtube %s: %v", shared.ErrUpstream, op, err)
	}

	y.logger.Warn("youtube request failed", "op", op, "status", gerr.Code, "message", gerr.Message)
	if gerr.Code == http.StatusNotFound && notFound != nil {
		return fmt.Errorf("%w: youtube %s: %s", notFound, op, gerr.Message)
	}
	return shared.StatusError("youtube "+op, gerr.Code, gerr.Message)
}

func googleMessage(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Sprintf("status %d: %s", gerr.Code, gerr.Message)
	}
	return err.Error()
}
