package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plconv/internal/repositories"
	"github.com/desertthunder/plconv/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) trackCache() (*repositories.TrackListCache, error) {
	if r.cache == nil {
		return nil, fmt.Errorf("%w: cache is disabled (set cache.enabled in %s)", shared.ErrServiceUnavailable, r.configPath)
	}
	return r.cache, nil
}

// CacheStats prints the number of cached playlists.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.trackCache()
	if err != nil {
		return err
	}

	n, err := cache.Len()
	if err != nil {
		return err
	}

	r.writePlainHeader("Track list cache")
	r.writePlain("Database: %s\n", r.config.Database.Path)
	r.writePlain("TTL:      %v\n", cache.TTL())
	return r.writePlain("Entries:  %d\n", n)
}

// CachePurge removes expired entries.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.trackCache()
	if err != nil {
		return err
	}

	n, err := cache.Purge(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("purged expired cache entries", "count", n)
	return r.writePlain("✓ Purged %d expired entries\n", n)
}

// CacheClear removes every entry.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.trackCache()
	if err != nil {
		return err
	}

	n, err := cache.Clear(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("cleared cache", "count", n)
	return r.writePlain("✓ Cleared %d entries\n", n)
}

// CacheInvalidate removes the entry for a single playlist.
func (r *Runner) CacheInvalidate(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.trackCache()
	if err != nil {
		return err
	}

	ref := cmd.Args().First()
	if ref == "" {
		return fmt.Errorf("%w: playlist ID, URI or URL", shared.ErrMissingArgument)
	}
	id, err := shared.ExtractPlaylistID(ref)
	if err != nil {
		return err
	}

	if err := cache.Invalidate(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Invalidated %s\n", id)
}
