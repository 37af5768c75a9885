package repositories

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	th "github.com/desertthunder/plconv/internal/testing"
)

const cachedID = "37i9dQZF1DXcBWIGoYBM5M"

var creds = models.Credentials{AccessToken: "token"}

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDSN)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newSource() *th.MockSource {
	return &th.MockSource{Lists: map[string]*models.TrackList{
		cachedID: {Name: "Today's Top Hits", Tracks: []models.Track{"Artist A - Song 1", "Artist B - Song 2"}},
	}}
}

// fakeClock lets tests move time forward.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestCache(t *testing.T, source Fetcher, ttl time.Duration) (*TrackListCache, *fakeClock, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	cache := NewTrackListCache(setupTestDB(t), source, ttl, shared.NewLogger(&buf))
	cache.now = clock.Now
	return cache, clock, &buf
}

func TestTrackListCache(t *testing.T) {
	ctx := context.Background()

	t.Run("hit skips upstream", func(t *testing.T) {
		source := newSource()
		cache, _, _ := newTestCache(t, source, time.Minute)

		first, err := cache.FetchTracks(ctx, cachedID, creds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := cache.FetchTracks(ctx, cachedID, creds)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if source.Calls() != 1 {
			t.Errorf("expected 1 upstream call, got %d", source.Calls())
		}
		if second.Name != first.Name || !slices.Equal(second.Tracks, first.Tracks) {
			t.Errorf("cached list differs: got %+v, want %+v", second, first)
		}
		if len(second.Tracks) != 2 || second.Tracks[1] != "Artist B - Song 2" {
			t.Errorf("unexpected tracks: %v", second.Tracks)
		}
	})

	t.Run("URL and ID share an entry", func(t *testing.T) {
		source := &th.MockSource{Lists: map[string]*models.TrackList{
			"https://open.spotify.com/playlist/" + cachedID + "?si=abc": {Name: "From URL"},
		}}
		cache, _, _ := newTestCache(t, source, time.Minute)

		if _, err := cache.FetchTracks(ctx, "https://open.spotify.com/playlist/"+cachedID+"?si=abc", creds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		list, err := cache.FetchTracks(ctx, "spotify:playlist:"+cachedID, creds)
		if err != nil {
			t.Fatalf("expected cache hit, got %v", err)
		}
		if list.Name != "From URL" || source.Calls() != 1 {
			t.Errorf("expected shared entry, got %+v after %d calls", list, source.Calls())
		}
	})

	t.Run("expired entries are refetched", func(t *testing.T) {
		source := newSource()
		cache, clock, _ := newTestCache(t, source, time.Minute)

		if _, err := cache.FetchTracks(ctx, cachedID, creds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		clock.t = clock.t.Add(2 * time.Minute)

		if _, err := cache.Get(ctx, cachedID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected expired entry to be not found, got %v", err)
		}
		if _, err := cache.FetchTracks(ctx, cachedID, creds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if source.Calls() != 2 {
			t.Errorf("expected 2 upstream calls, got %d", source.Calls())
		}
	})

	t.Run("errors are not cached", func(t *testing.T) {
		source := &th.MockSource{Err: shared.ErrUpstream}
		cache, _, _ := newTestCache(t, source, time.Minute)

		for range 2 {
			if _, err := cache.FetchTracks(ctx, cachedID, creds); !errors.Is(err, shared.ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		}
		if source.Calls() != 2 {
			t.Errorf("expected every call to reach upstream, got %d", source.Calls())
		}
		if n, _ := cache.Len(); n != 0 {
			t.Errorf("expected empty cache, got %d entries", n)
		}
	})

	t.Run("invalid IDs go straight upstream", func(t *testing.T) {
		source := newSource()
		cache, _, _ := newTestCache(t, source, time.Minute)

		if _, err := cache.FetchTracks(ctx, "not a valid id!", creds); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected upstream not found, got %v", err)
		}
		if source.Calls() != 1 {
			t.Errorf("expected 1 upstream call, got %d", source.Calls())
		}
	})

	t.Run("read failure falls through", func(t *testing.T) {
		source := newSource()
		cache, _, logs := newTestCache(t, source, time.Minute)
		cache.db.Close()

		list, err := cache.FetchTracks(ctx, cachedID, creds)
		if err != nil {
			t.Fatalf("expected upstream result, got %v", err)
		}
		if list.Name != "Today's Top Hits" {
			t.Errorf("unexpected list: %+v", list)
		}
		if !strings.Contains(logs.String(), "cache read failed") {
			t.Errorf("expected read failure to be logged, got %q", logs.String())
		}
	})

	t.Run("empty playlist round trip", func(t *testing.T) {
		cache, _, _ := newTestCache(t, newSource(), time.Minute)

		if err := cache.Put(ctx, "empty", &models.TrackList{Name: "Nothing"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		list, err := cache.Get(ctx, "empty")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if list.Name != "Nothing" || list.Len() != 0 {
			t.Errorf("unexpected list: %+v", list)
		}
	})

	t.Run("purge and clear", func(t *testing.T) {
		cache, clock, _ := newTestCache(t, newSource(), time.Minute)

		if err := cache.Put(ctx, "old", &models.TrackList{Name: "Old"}); err != nil {
			t.Fatal(err)
		}
		clock.t = clock.t.Add(90 * time.Second)
		if err := cache.Put(ctx, "new", &models.TrackList{Name: "New"}); err != nil {
			t.Fatal(err)
		}

		purged, err := cache.Purge(ctx)
		if err != nil || purged != 1 {
			t.Fatalf("expected 1 purged, got %d (%v)", purged, err)
		}
		if n, _ := cache.Len(); n != 1 {
			t.Errorf("expected 1 entry left, got %d", n)
		}

		if err := cache.Invalidate(ctx, "new"); err != nil {
			t.Fatal(err)
		}
		if _, err := cache.Get(ctx, "new"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected invalidated entry to be gone, got %v", err)
		}

		if err := cache.Put(ctx, "again", &models.TrackList{Name: "Again"}); err != nil {
			t.Fatal(err)
		}
		cleared, err := cache.Clear(ctx)
		if err != nil || cleared != 1 {
			t.Errorf("expected 1 cleared, got %d (%v)", cleared, err)
		}
	})

	t.Run("default ttl", func(t *testing.T) {
		cache := NewTrackListCache(setupTestDB(t), newSource(), 0, nil)
		if cache.TTL() != DefaultCacheTTL {
			t.Errorf("expected default ttl, got %v", cache.TTL())
		}
	})
}
