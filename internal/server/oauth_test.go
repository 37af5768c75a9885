package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/plconv/internal/shared"
)

func TestOAuthHandler(t *testing.T) {
	callback := func(h *OAuthHandler, query string) *httptest.ResponseRecorder {
		router := NewBasicRouter()
		router.Handler(h)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/youtube/callback?"+query, nil))
		return rec
	}

	t.Run("delivers credentials", func(t *testing.T) {
		h := NewOAuthHandler(fakeAuth{}, "state-1", "/api/youtube/callback")

		rec := callback(h, "state=state-1&code=good")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "YouTube authorized") {
			t.Errorf("unexpected page: %s", rec.Body.String())
		}

		result := <-h.Result()
		if result.Error() != nil || result.Credentials.AccessToken != "ya29 token" {
			t.Errorf("unexpected result: %v %v", result.Credentials, result.Error())
		}
	})

	t.Run("state mismatch", func(t *testing.T) {
		h := NewOAuthHandler(fakeAuth{}, "state-1", "/api/youtube/callback")

		if rec := callback(h, "state=forged&code=good"); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("denied consent", func(t *testing.T) {
		h := NewOAuthHandler(fakeAuth{}, "s", "/api/youtube/callback")

		rec := callback(h, "state=s&error=access_denied")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "access_denied") {
			t.Errorf("expected the error in the page, got %s", rec.Body.String())
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := NewOAuthHandler(fakeAuth{}, "s", "/api/youtube/callback")

		if rec := callback(h, "state=s&code=bad"); rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("second callback is rejected", func(t *testing.T) {
		h := NewOAuthHandler(fakeAuth{}, "s", "/api/youtube/callback")
		router := NewBasicRouter()
		router.Handler(h)

		for i, want := range []int{http.StatusOK, http.StatusBadRequest} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/youtube/callback?state=s&code=good", nil))
			if rec.Code != want {
				t.Errorf("call %d: expected %d, got %d", i+1, want, rec.Code)
			}
		}
	})

	t.Run("default path", func(t *testing.T) {
		h := NewOAuthHandler(fakeAuth{}, "s", "")
		if routes := h.Routes(); len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("unexpected routes: %v", routes)
		}
	})
}
