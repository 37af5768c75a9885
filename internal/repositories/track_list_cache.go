package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
)

// DefaultCacheTTL is how long a fetched track list stays fresh.
const DefaultCacheTTL = 30 * time.Minute

const playlistCacheTable = "playlist_cache"

// Fetcher fetches an ordered track list for a playlist.
type Fetcher interface {
	FetchTracks(ctx context.Context, playlistID string, creds models.Credentials) (*models.TrackList, error)
}

// TrackListCache decorates a [Fetcher] with a SQLite-backed TTL cache.
//
// Entries are keyed by the normalized playlist ID, so a URL and a bare ID share one row.
// Cache read and write failures are logged and never returned; the upstream result wins.
type TrackListCache struct {
	db       *sql.DB
	upstream Fetcher
	ttl      time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// NewTrackListCache creates a cache in front of upstream. A non-positive ttl uses [DefaultCacheTTL].
func NewTrackListCache(db *sql.DB, upstream Fetcher, ttl time.Duration, logger *log.Logger) *TrackListCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TrackListCache{
		db:       db,
		upstream: upstream,
		ttl:      ttl,
		logger:   shared.WithLogger(logger, "component", "track_cache"),
		now:      time.Now,
	}
}

// FetchTracks returns a fresh cached list or fetches from upstream and stores the result.
func (c *TrackListCache) FetchTracks(ctx context.Context, playlistID string, creds models.Credentials) (*models.TrackList, error) {
	key, err := shared.ExtractPlaylistID(playlistID)
	if err != nil {
		return c.upstream.FetchTracks(ctx, playlistID, creds)
	}

	list, err := c.Get(ctx, key)
	switch {
	case err == nil:
		c.logger.Debug("cache hit", "playlist_id", key, "tracks", list.Len())
		return list, nil
	case errors.Is(err, shared.ErrNotFound):
		c.logger.Debug("cache miss", "playlist_id", key)
	default:
		c.logger.Warn("cache read failed", "playlist_id", key, "error", err)
	}

	list, err = c.upstream.FetchTracks(ctx, playlistID, creds)
	if err != nil {
		return nil, err
	}

	if err := c.Put(ctx, key, list); err != nil {
		c.logger.Warn("cache write failed", "playlist_id", key, "error", err)
	}
	return list, nil
}

// Get retrieves an unexpired track list by normalized playlist ID.
//
// Missing and expired entries return [shared.ErrNotFound].
func (c *TrackListCache) Get(ctx context.Context, playlistID string) (*models.TrackList, error) {
	query := `
		SELECT name, tracks, expires_at
		FROM playlist_cache
		WHERE playlist_id = ?
	`

	var (
		name      string
		raw       string
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx, query, playlistID).Scan(&name, &raw, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: cached playlist %s", shared.ErrNotFound, playlistID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached playlist: %w", err)
	}

	if c.now().UnixMilli() >= expiresAt {
		return nil, fmt.Errorf("%w: cached playlist %s expired", shared.ErrNotFound, playlistID)
	}

	var tracks []models.Track
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode cached tracks: %w", err)
	}
	return &models.TrackList{Name: name, Tracks: tracks}, nil
}

// Put stores list under playlistID, replacing any previous entry.
func (c *TrackListCache) Put(ctx context.Context, playlistID string, list *models.TrackList) error {
	tracks := list.Tracks
	if tracks == nil {
		tracks = []models.Track{}
	}
	data, err := shared.MarshalJSON(tracks, false)
	if err != nil {
		return fmt.Errorf("failed to encode tracks: %w", err)
	}

	now := c.now()
	query := `
		INSERT INTO playlist_cache (playlist_id, name, tracks, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(playlist_id) DO UPDATE SET
			name = excluded.name,
			tracks = excluded.tracks,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at
	`

	_, err = c.db.ExecContext(ctx, query, playlistID, list.Name, string(data), now.UnixMilli(), now.Add(c.ttl).UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to cache playlist: %w", err)
	}
	return nil
}

// Invalidate removes the entry for playlistID, if any.
func (c *TrackListCache) Invalidate(ctx context.Context, playlistID string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM playlist_cache WHERE playlist_id = ?", playlistID); err != nil {
		return fmt.Errorf("failed to invalidate cached playlist: %w", err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (c *TrackListCache) Purge(ctx context.Context) (int, error) {
	result, err := c.db.ExecContext(ctx, "DELETE FROM playlist_cache WHERE expires_at <= ?", c.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

// Clear deletes every entry and returns how many were removed.
func (c *TrackListCache) Clear(ctx context.Context) (int, error) {
	result, err := c.db.ExecContext(ctx, "DELETE FROM playlist_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

// Len returns the number of stored entries, expired ones included.
func (c *TrackListCache) Len() (int, error) {
	return CountRows(c.db, playlistCacheTable)
}

// TTL returns the configured entry lifetime.
func (c *TrackListCache) TTL() time.Duration {
	return c.ttl
}
