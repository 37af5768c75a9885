// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
)

// MockSource is a test double for the source catalog.
//
// Lists maps playlist IDs to track lists; unknown IDs return [shared.ErrPlaylistNotFound].
type MockSource struct {
	mu    sync.Mutex
	Lists map[string]*models.TrackList
	Err   error
	calls int
}

func (m *MockSource) FetchTracks(ctx context.Context, playlistID string, creds models.Credentials) (*models.TrackList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.Err != nil {
		return nil, m.Err
	}
	if creds.Empty() {
		return nil, shared.ErrUnauthorized
	}
	list, ok := m.Lists[playlistID]
	if !ok {
		return nil, shared.ErrPlaylistNotFound
	}
	return list, nil
}

// Calls returns how many times FetchTracks was called.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Append records one AppendItem call.
type Append struct {
	ItemID     string
	PlaylistID string
}

// MockTarget is a test double for the target catalog.
//
// Matches maps queries to item IDs; missing queries are not found. SearchErrs and
// AppendErrs fail specific queries or item IDs.
type MockTarget struct {
	mu         sync.Mutex
	Matches    map[string]string
	SearchErrs map[string]error
	AppendErrs map[string]error
	CreateErr  error
	CreatedID  string

	// OnSearch, when set, runs before each search. Tests use it to cancel mid-run.
	OnSearch func(query string)

	Searches []string
	Appends  []Append
	Created  []string
}

func (m *MockTarget) CreatePlaylist(ctx context.Context, title string, vis models.Visibility, creds models.Credentials) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Created = append(m.Created, title)
	if m.CreatedID == "" {
		return "PLmock", nil
	}
	return m.CreatedID, nil
}

func (m *MockTarget) SearchItem(ctx context.Context, query string) (string, bool, error) {
	if m.OnSearch != nil {
		m.OnSearch(query)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches = append(m.Searches, query)

	if err, ok := m.SearchErrs[query]; ok {
		return "", false, err
	}
	id, ok := m.Matches[query]
	return id, ok, nil
}

func (m *MockTarget) AppendItem(ctx context.Context, itemID, playlistID string, creds models.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Appends = append(m.Appends, Append{ItemID: itemID, PlaylistID: playlistID})

	if err, ok := m.AppendErrs[itemID]; ok {
		return err
	}
	return nil
}

// AppendCalls returns the number of AppendItem calls for itemID.
func (m *MockTarget) AppendCalls(itemID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, a := range m.Appends {
		if a.ItemID == itemID {
			n++
		}
	}
	return n
}

// Calls returns the total number of search and append calls.
func (m *MockTarget) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Searches) + len(m.Appends) + len(m.Created)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
