package services

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns the client shared by both catalog clients.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// errorDetail reads a bounded, single-line excerpt of an error response body.
func errorDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(string(body)), " ")
}
