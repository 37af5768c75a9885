package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Credentials models.Credentials
	err         error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles a single OAuth2 callback for the CLI authorization code flow.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	auth        Authorizer
	state       string
	path        string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler serving path with the given state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(auth Authorizer, state, path string) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		auth:       auth,
		state:      state,
		path:       path,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates state parameter, exchanges authorization code for tokens, and sends the result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		h.Send(OAuthResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		renderCallbackPage(w, http.StatusBadRequest, "Authorization failed", "The state parameter did not match. Start again from the terminal.")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		h.Send(OAuthResult{err: fmt.Errorf("%w: %s", shared.ErrAuthFailed, errParam)})
		renderCallbackPage(w, http.StatusBadRequest, "Authorization failed", "Google did not return an authorization code: "+errParam)
		return
	}

	creds, err := h.auth.Exchange(context.WithoutCancel(r.Context()), code)
	if err != nil {
		h.Send(OAuthResult{err: err})
		renderCallbackPage(w, http.StatusBadGateway, "Authorization failed", "The authorization code could not be exchanged for a token.")
		return
	}

	h.Send(OAuthResult{Credentials: creds})
	renderCallbackPage(w, http.StatusOK, "YouTube authorized", "You can close this window and return to the terminal.")
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>plconv: {{.Title}}</title></head>
<body style="font-family: system-ui, sans-serif; text-align: center; margin-top: 20vh;">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

func renderCallbackPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	callbackPage.Execute(w, struct{ Title, Message string }{title, message})
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
