package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plconv/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpotifyTracks lists the normalized tracks of a Spotify playlist.
func (r *Runner) SpotifyTracks(ctx context.Context, cmd *cli.Command) error {
	if r.catalog == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	creds, err := r.sourceCredentials(ctx)
	if err != nil {
		return err
	}

	source := cmd.String("source")
	r.logger.Infof("fetching spotify playlist %v", source)

	list, err := r.catalog.FetchTracks(ctx, source, creds)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}

	r.writePlain("Playlist: %s\n", list.Name)
	r.writePlain("Tracks: %d\n\n", list.Len())
	for i, track := range list.Tracks {
		if err := r.writePlain("%d. %s\n", i+1, track); err != nil {
			return err
		}
	}
	return nil
}
