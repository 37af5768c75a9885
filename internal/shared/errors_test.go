package shared

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"invalid argument", ErrInvalidArgument, http.StatusBadRequest},
		{"missing argument", ErrMissingArgument, http.StatusBadRequest},
		{"unauthorized", fmt.Errorf("fetch: %w", ErrUnauthorized), http.StatusUnauthorized},
		{"token expired", ErrTokenExpired, http.StatusUnauthorized},
		{"playlist not found", ErrPlaylistNotFound, http.StatusNotFound},
		{"upstream", fmt.Errorf("search: %w", ErrUpstream), http.StatusBadGateway},
		{"missing credentials", ErrMissingCredentials, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	t.Run("maps auth statuses to ErrUnauthorized", func(t *testing.T) {
		for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			if err := StatusError("Spotify", code, ""); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("status %d: expected ErrUnauthorized, got %v", code, err)
			}
		}
	})

	t.Run("maps 404 to ErrNotFound", func(t *testing.T) {
		if err := StatusError("YouTube", http.StatusNotFound, ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("maps everything else to ErrUpstream", func(t *testing.T) {
		for _, code := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError} {
			if err := StatusError("YouTube", code, ""); !errors.Is(err, ErrUpstream) {
				t.Errorf("status %d: expected ErrUpstream, got %v", code, err)
			}
		}
	})

	t.Run("keeps detail", func(t *testing.T) {
		err := StatusError("Spotify", http.StatusBadGateway, "bad gateway")
		if !strings.Contains(err.Error(), "Spotify API status 502: bad gateway") {
			t.Errorf("unexpected message: %v", err)
		}
	})
}
