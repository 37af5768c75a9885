package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plconv/internal/metrics"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/repositories"
	"github.com/desertthunder/plconv/internal/server"
	"github.com/desertthunder/plconv/internal/services"
	"github.com/desertthunder/plconv/internal/shared"
	"github.com/desertthunder/plconv/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators left nil in [RunnerOpts] are built from the loaded configuration in [Runner.Before].
type Runner struct {
	config     *shared.Config
	configPath string
	source     tasks.SourceCatalog
	catalog    tasks.SourceCatalog
	target     tasks.TargetCatalog
	tokens     server.TokenSource
	cache      *repositories.TrackListCache
	db         *sql.DB
	metrics    *metrics.Recorder
	engine     *tasks.PlaylistEngine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     tasks.SourceCatalog
	Target     tasks.TargetCatalog
	Tokens     server.TokenSource
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = services.NewHTTPClient(services.DefaultTimeout)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		target:     opts.Target,
		tokens:     opts.Tokens,
		metrics:    metrics.New(),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "plconv",
		Usage:   "Convert Spotify playlists into YouTube playlists",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
				Sources: cli.EnvVars("PLCONV_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, convertCommand, playlistCommand, searchCommand, spotifyCommand, cacheCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration and wires the services shared by every command.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	if r.config == nil {
		config, err := r.loadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}
	r.config.ApplyEnv()

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	return ctx, r.wire()
}

// After releases the database handle.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// loadConfig reads path, falling back to defaults when the file does not exist.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return shared.DefaultConfig(), nil
	}
	return shared.LoadConfig(path)
}

// wire builds the source (optionally cached), target and engine.
func (r *Runner) wire() error {
	cfg := r.config

	if r.source == nil {
		spotify := services.NewSpotifySource(cfg.Credentials.Spotify, r.httpClient, r.logger)
		r.source = spotify
		if r.tokens == nil {
			r.tokens = spotify
		}
	}
	if r.target == nil {
		r.target = services.NewYouTubeTarget(cfg.Credentials.YouTube, cfg.Sync.RequestsPerSecond, r.httpClient, r.logger)
	}

	r.catalog = r.source
	if cfg.Cache.Enabled && r.cache == nil {
		db, err := shared.OpenDatabase(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open cache database: %w", err)
		}
		r.db = db
		r.cache = repositories.NewTrackListCache(db, r.source, cfg.Cache.TTL.Duration, r.logger)
	}
	if r.cache != nil {
		r.catalog = r.cache
	}

	r.engine = tasks.NewPlaylistEngine(r.catalog, r.target, r.logger, r.metrics)
	return nil
}

// SetLogger replaces the logger, e.g. while the TUI owns the terminal.
//
// The engine is rebuilt so sync logs follow.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	if r.catalog != nil && r.target != nil {
		r.engine = tasks.NewPlaylistEngine(r.catalog, r.target, logger, r.metrics)
	}
}

// sourceCredentials returns application credentials for the source catalog.
func (r *Runner) sourceCredentials(ctx context.Context) (models.Credentials, error) {
	if r.tokens == nil {
		return models.Credentials{}, fmt.Errorf("%w: no source token provider", shared.ErrServiceUnavailable)
	}
	return r.tokens.Token(ctx)
}

// targetCredentials prefers the --token flag and falls back to the configured access token.
func (r *Runner) targetCredentials(cmd *cli.Command) (models.Credentials, error) {
	token := cmd.String("token")
	if token == "" && r.config != nil {
		token = r.config.Credentials.YouTube.AccessToken
	}
	creds := models.NewCredentials(token)
	if creds.Empty() {
		return creds, fmt.Errorf("%w: YouTube access token required (--token, YOUTUBE_ACCESS_TOKEN or run 'plconv auth youtube')", shared.ErrMissingCredentials)
	}
	return creds, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
