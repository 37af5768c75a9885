package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	"github.com/desertthunder/plconv/internal/tasks"
)

const (
	maxBodyBytes  = 1 << 20
	redirectState = "redirect:"
)

// TokenSource issues application-level source credentials.
type TokenSource interface {
	Token(ctx context.Context) (models.Credentials, error)
}

// Authorizer runs the target OAuth authorization code flow.
type Authorizer interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (models.Credentials, error)
}

// API serves the playlist conversion endpoints.
//
// Auth may be nil, in which case the YouTube OAuth endpoints answer 503.
// OAuth redirects are only issued to AllowedOrigin; when it is empty they are refused.
type API struct {
	Engine        tasks.SyncEngine
	Source        tasks.SourceCatalog
	Target        tasks.TargetCatalog
	Tokens        TokenSource
	Auth          Authorizer
	Delay         time.Duration
	AllowedOrigin string
	Logger        *log.Logger
}

type syncRequest struct {
	SourcePlaylistID  string `json:"sourcePlaylistId"`
	TargetPlaylistID  string `json:"targetPlaylistId"`
	TargetAccessToken string `json:"targetAccessToken"`
}

type convertRequest struct {
	SourcePlaylistID  string `json:"sourcePlaylistId"`
	Title             string `json:"title"`
	PrivacyStatus     string `json:"privacyStatus"`
	TargetAccessToken string `json:"targetAccessToken"`
}

type createPlaylistRequest struct {
	Title         string `json:"title"`
	PrivacyStatus string `json:"privacyStatus"`
	AccessToken   string `json:"accessToken"`
}

type createPlaylistResponse struct {
	PlaylistID string `json:"playlistId"`
}

type authURLResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Register mounts the API routes on router.
func (a *API) Register(router Router) {
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(a.Health))
	router.Handle(http.MethodPost, "/api/sync", http.HandlerFunc(a.Sync))
	router.Handle(http.MethodPost, "/api/convert", http.HandlerFunc(a.Convert))
	router.Handle(http.MethodPost, "/api/playlists", http.HandlerFunc(a.CreatePlaylist))
	router.Handle(http.MethodGet, "/api/spotify/playlist", http.HandlerFunc(a.SpotifyPlaylist))
	router.Handle(http.MethodGet, "/api/youtube/auth-url", http.HandlerFunc(a.YouTubeAuthURL))
	router.Handle(http.MethodGet, "/api/youtube/login", http.HandlerFunc(a.YouTubeLogin))
	router.Handle(http.MethodGet, "/api/youtube/callback", http.HandlerFunc(a.YouTubeCallback))
}

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Sync appends a Spotify playlist's tracks to an existing YouTube playlist and returns the report.
func (a *API) Sync(w http.ResponseWriter, r *http.Request) {
	var body syncRequest
	if err := decodeBody(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}

	targetCreds := targetCredentials(r, body.TargetAccessToken)
	if body.SourcePlaylistID == "" || body.TargetPlaylistID == "" || targetCreds.Empty() {
		a.fail(w, r, fmt.Errorf("%w: sourcePlaylistId, targetPlaylistId and targetAccessToken are required", shared.ErrMissingArgument))
		return
	}

	sourceCreds, err := a.Tokens.Token(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	report, err := a.Engine.Synchronize(r.Context(), tasks.SyncRequest{
		SourcePlaylistID:  body.SourcePlaylistID,
		SourceCredentials: sourceCreds,
		TargetPlaylistID:  body.TargetPlaylistID,
		TargetCredentials: targetCreds,
		InterCallDelay:    a.Delay,
	}, nil)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Convert creates a YouTube playlist from a Spotify playlist and returns the report.
func (a *API) Convert(w http.ResponseWriter, r *http.Request) {
	var body convertRequest
	if err := decodeBody(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}

	targetCreds := targetCredentials(r, body.TargetAccessToken)
	if body.SourcePlaylistID == "" || targetCreds.Empty() {
		a.fail(w, r, fmt.Errorf("%w: sourcePlaylistId and targetAccessToken are required", shared.ErrMissingArgument))
		return
	}

	vis, err := models.ParseVisibility(body.PrivacyStatus)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	sourceCreds, err := a.Tokens.Token(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	report, err := a.Engine.CreateAndSynchronize(r.Context(), tasks.ConvertRequest{
		SourcePlaylistID:  body.SourcePlaylistID,
		SourceCredentials: sourceCreds,
		Title:             body.Title,
		Visibility:        vis,
		TargetCredentials: targetCreds,
		InterCallDelay:    a.Delay,
	}, nil)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CreatePlaylist creates an empty YouTube playlist.
func (a *API) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body createPlaylistRequest
	if err := decodeBody(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}

	creds := targetCredentials(r, body.AccessToken)
	if strings.TrimSpace(body.Title) == "" || creds.Empty() {
		a.fail(w, r, fmt.Errorf("%w: title and accessToken are required", shared.ErrMissingArgument))
		return
	}

	vis, err := models.ParseVisibility(body.PrivacyStatus)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	id, err := a.Target.CreatePlaylist(r.Context(), body.Title, vis, creds)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createPlaylistResponse{PlaylistID: id})
}

// SpotifyPlaylist returns the name and tracks of the playlist given by the url query parameter.
func (a *API) SpotifyPlaylist(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("url")
	if ref == "" {
		ref = r.URL.Query().Get("id")
	}
	if ref == "" {
		a.fail(w, r, fmt.Errorf("%w: url", shared.ErrMissingArgument))
		return
	}

	creds, err := a.Tokens.Token(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	list, err := a.Source.FetchTracks(r.Context(), ref, creds)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list.Tracks == nil {
		list = &models.TrackList{Name: list.Name, Tracks: []models.Track{}}
	}
	writeJSON(w, http.StatusOK, list)
}

// YouTubeAuthURL returns the Google consent URL. A redirect query parameter is carried in the state.
func (a *API) YouTubeAuthURL(w http.ResponseWriter, r *http.Request) {
	if a.Auth == nil {
		a.fail(w, r, fmt.Errorf("%w: youtube oauth is not configured", shared.ErrServiceUnavailable))
		return
	}

	state := ""
	if redirect := r.URL.Query().Get("redirect"); redirect != "" {
		if _, err := a.redirectTarget(redirect); err != nil {
			a.fail(w, r, err)
			return
		}
		state = redirectState + redirect
	}
	writeJSON(w, http.StatusOK, authURLResponse{AuthorizationURL: a.Auth.AuthURL(state)})
}

// YouTubeLogin redirects the browser to the Google consent page.
func (a *API) YouTubeLogin(w http.ResponseWriter, r *http.Request) {
	if a.Auth == nil {
		a.fail(w, r, fmt.Errorf("%w: youtube oauth is not configured", shared.ErrServiceUnavailable))
		return
	}
	http.Redirect(w, r, a.Auth.AuthURL(""), http.StatusFound)
}

// YouTubeCallback exchanges the authorization code.
//
// With a redirect state the token is handed to the client in the URL fragment,
// otherwise it is returned as JSON.
func (a *API) YouTubeCallback(w http.ResponseWriter, r *http.Request) {
	if a.Auth == nil {
		a.fail(w, r, fmt.Errorf("%w: youtube oauth is not configured", shared.ErrServiceUnavailable))
		return
	}

	q := r.URL.Query()
	if oauthErr := q.Get("error"); oauthErr != "" {
		a.fail(w, r, fmt.Errorf("%w: oauth error: %s", shared.ErrInvalidArgument, oauthErr))
		return
	}
	code := q.Get("code")
	if code == "" {
		a.fail(w, r, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument))
		return
	}

	var target *url.URL
	if redirect, ok := strings.CutPrefix(q.Get("state"), redirectState); ok && redirect != "" {
		var err error
		if target, err = a.redirectTarget(redirect); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	creds, err := a.Auth.Exchange(r.Context(), code)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if target != nil {
		target.Fragment = "access_token=" + url.QueryEscape(creds.AccessToken)
		http.Redirect(w, r, target.String(), http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: creds.AccessToken})
}

// redirectTarget parses raw and checks that it shares the scheme and host of AllowedOrigin.
func (a *API) redirectTarget(raw string) (*url.URL, error) {
	target, err := url.Parse(raw)
	if err != nil || !target.IsAbs() || target.Host == "" {
		return nil, fmt.Errorf("%w: redirect must be an absolute URL", shared.ErrInvalidArgument)
	}

	origin, err := url.Parse(a.AllowedOrigin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("%w: redirects are disabled without an allowed origin", shared.ErrInvalidArgument)
	}
	if !strings.EqualFold(target.Scheme, origin.Scheme) || !strings.EqualFold(target.Host, origin.Host) {
		a.Logger.Warn("refusing oauth redirect outside the allowed origin", "redirect", raw, "allowed_origin", a.AllowedOrigin)
		return nil, fmt.Errorf("%w: redirect must be on %s", shared.ErrInvalidArgument, a.AllowedOrigin)
	}
	return target, nil
}

// fail writes err as a JSON error with the status chosen by [shared.Classify].
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := shared.Classify(err)
	if tasks.IsCancelled(err) {
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		a.Logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		a.Logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// targetCredentials prefers the body token and falls back to the Authorization header.
func targetCredentials(r *http.Request, token string) models.Credentials {
	if token == "" {
		token = r.Header.Get("Authorization")
	}
	return models.NewCredentials(token)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", shared.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidArgument, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	w.Write([]byte("\n"))
}
