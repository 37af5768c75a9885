// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/plconv/internal/formatter"
	"github.com/urfave/cli/v3"
)

// reportFlags are shared by the commands that produce a [models.SyncReport].
func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "YouTube OAuth access token (defaults to credentials.youtube.access_token)",
			Sources: cli.EnvVars("YOUTUBE_ACCESS_TOKEN"),
		},
		&cli.DurationFlag{
			Name:  "delay",
			Usage: "Pause between tracks (negative disables pacing; defaults to sync.delay)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Report format: text, json, csv or markdown",
			Value:   string(formatter.FormatText),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the report to a file (directory for batch conversions)",
		},
	}
}

// setupCommand writes a starter config and prepares the cache database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the cache database",
		Action: r.Setup,
	}
}

// authCommand handles YouTube authorization
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorization commands",
		Commands: []*cli.Command{
			{
				Name:  "youtube",
				Usage: "Authorize with YouTube using OAuth2 and save the access token",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: authTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-save",
						Usage: "Print the token instead of saving it to the config file",
					},
				},
				Action: r.AuthYouTube,
			},
		},
	}
}

// syncCommand appends a Spotify playlist to an existing YouTube playlist
func syncCommand(r *Runner) *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Spotify playlist ID, URI or URL",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "target",
			Usage:    "YouTube playlist ID",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show an interactive preview and live progress",
		},
	}, reportFlags()...)

	return &cli.Command{
		Name:   "sync",
		Usage:  "Synchronize a Spotify playlist into an existing YouTube playlist",
		Flags:  flags,
		Action: r.Sync,
	}
}

// convertCommand creates YouTube playlists from Spotify playlists
func convertCommand(r *Runner) *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringSliceFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Spotify playlist ID, URI or URL (repeat to convert several)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "Title of the new playlist (defaults to the Spotify name)",
		},
		&cli.StringFlag{
			Name:  "privacy",
			Usage: "Visibility of the new playlist: private, unlisted or public",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent conversions when several sources are given (max: 5)",
			Value: 2,
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show an interactive preview and live progress",
		},
	}, reportFlags()...)

	return &cli.Command{
		Name:   "convert",
		Usage:  "Create YouTube playlists from Spotify playlists",
		Flags:  flags,
		Action: r.Convert,
	}
}

// playlistCommand handles YouTube playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "YouTube playlist operations",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create an empty YouTube playlist",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "privacy",
						Usage: "Visibility: private, unlisted or public",
					},
					&cli.StringFlag{
						Name:    "token",
						Aliases: []string{"t"},
						Usage:   "YouTube OAuth access token",
						Sources: cli.EnvVars("YOUTUBE_ACCESS_TOKEN"),
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistCreate,
			},
		},
	}
}

// searchCommand resolves a query to a YouTube video
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search YouTube for a track",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "List the tracks of a Spotify playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Spotify playlist ID, URI or URL",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyTracks,
			},
		},
	}
}

// cacheCommand manages the track list cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the Spotify track list cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show the number of cached playlists",
				Action: r.CacheStats,
			},
			{
				Name:   "purge",
				Usage:  "Remove expired entries",
				Action: r.CachePurge,
			},
			{
				Name:   "clear",
				Usage:  "Remove every entry",
				Action: r.CacheClear,
			},
			{
				Name:      "invalidate",
				Usage:     "Remove the entry for one playlist",
				ArgsUsage: "<playlist>",
				Action:    r.CacheInvalidate,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the conversion HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (defaults to server.port)",
			},
		},
		Action: r.Serve,
	}
}
