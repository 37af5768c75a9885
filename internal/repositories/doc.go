// Package repositories implements SQLite persistence for cached source data.
//
// Key Implementations:
//   - [TrackListCache] : TTL cache for source track lists, usable anywhere a source catalog is expected
//
// Rows live in the playlist_cache table created by the embedded migrations in package shared.
// Only successful fetches are stored; errors always reach the caller uncached.
package repositories
