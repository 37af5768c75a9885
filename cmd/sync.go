package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/plconv/internal/formatter"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	"github.com/desertthunder/plconv/internal/tasks"
	"github.com/desertthunder/plconv/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sync appends the tracks of a Spotify playlist to an existing YouTube playlist.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	targetCreds, err := r.targetCredentials(cmd)
	if err != nil {
		return err
	}
	sourceCreds, err := r.sourceCredentials(ctx)
	if err != nil {
		return err
	}

	req := tasks.SyncRequest{
		SourcePlaylistID:  cmd.String("source"),
		SourceCredentials: sourceCreds,
		TargetPlaylistID:  cmd.String("target"),
		TargetCredentials: targetCreds,
		InterCallDelay:    r.delay(cmd),
	}

	r.logger.Info("synchronizing playlist", "source", req.SourcePlaylistID, "target", req.TargetPlaylistID)

	var report *models.SyncReport
	if cmd.Bool("tui") {
		report, err = r.runTUI(ctx, ui.Job{
			Title:   req.TargetPlaylistID,
			Preview: r.preview(req.SourcePlaylistID, sourceCreds),
			Run: func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.SyncReport, error) {
				return r.engine.Synchronize(ctx, req, progress)
			},
		})
	} else {
		report, err = r.withProgress(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.SyncReport, error) {
			return r.engine.Synchronize(ctx, req, progress)
		})
	}

	return r.finish(report, err, format, cmd.String("output"))
}

// Convert creates a YouTube playlist per source and synchronizes into it.
//
// A single source runs in the foreground; several are converted by a worker pool.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	privacy := cmd.String("privacy")
	if privacy == "" {
		privacy = r.config.Sync.Visibility
	}
	vis, err := models.ParseVisibility(privacy)
	if err != nil {
		return err
	}

	sources := cmd.StringSlice("source")
	if len(sources) == 0 {
		return fmt.Errorf("%w: --source", shared.ErrMissingArgument)
	}

	targetCreds, err := r.targetCredentials(cmd)
	if err != nil {
		return err
	}
	sourceCreds, err := r.sourceCredentials(ctx)
	if err != nil {
		return err
	}

	reqs := make([]tasks.ConvertRequest, len(sources))
	for i, source := range sources {
		reqs[i] = tasks.ConvertRequest{
			SourcePlaylistID:  source,
			SourceCredentials: sourceCreds,
			Title:             cmd.String("title"),
			Visibility:        vis,
			TargetCredentials: targetCreds,
			InterCallDelay:    r.delay(cmd),
		}
	}

	if len(reqs) > 1 {
		return r.convertBatch(ctx, reqs, format, cmd)
	}

	req := reqs[0]
	r.logger.Info("converting playlist", "source", req.SourcePlaylistID, "visibility", vis)

	var report *models.SyncReport
	if cmd.Bool("tui") {
		title := req.Title
		if title == "" {
			title = "a new YouTube playlist"
		}
		report, err = r.runTUI(ctx, ui.Job{
			Title:   title,
			Preview: r.preview(req.SourcePlaylistID, sourceCreds),
			Run: func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.SyncReport, error) {
				return r.engine.CreateAndSynchronize(ctx, req, progress)
			},
		})
	} else {
		report, err = r.withProgress(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.SyncReport, error) {
			return r.engine.CreateAndSynchronize(ctx, req, progress)
		})
	}

	return r.finish(report, err, format, cmd.String("output"))
}

func (r *Runner) convertBatch(ctx context.Context, reqs []tasks.ConvertRequest, format formatter.Format, cmd *cli.Command) error {
	opts := tasks.BatchOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	}

	r.logger.Info("converting playlists", "count", len(reqs), "workers", opts.NumWorkers)

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.logProgress(progress)
	result, err := r.engine.ConvertAll(ctx, reqs, opts, progress)
	close(progress)
	<-done

	if result == nil {
		return err
	}

	if format == formatter.FormatJSON {
		if werr := r.writeJSON(result, true); werr != nil {
			return werr
		}
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Converted %d of %d playlists", result.Succeeded, result.Total))
	for _, res := range result.Results {
		switch {
		case res.Err != nil:
			r.writePlain("✗ %s: %s\n", res.SourcePlaylistID, res.Error)
		case res.Report != nil:
			r.writePlain("✓ %s → %s: added %d of %d tracks\n",
				res.SourcePlaylistID, res.Report.TargetPlaylistID, res.Report.SuccessfullyAdded, res.Report.TotalTracks)
		}
		if res.ReportFile != "" {
			r.writePlain("  Report: %s\n", res.ReportFile)
		}
	}
	if result.ManifestPath != "" {
		r.writePlainln("Manifest written to %s", result.ManifestPath)
	}
	return err
}

// PlaylistCreate creates an empty YouTube playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	if r.target == nil {
		return fmt.Errorf("%w: YouTube service not initialized", shared.ErrServiceUnavailable)
	}

	title := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if title == "" {
		return fmt.Errorf("%w: playlist title", shared.ErrMissingArgument)
	}

	privacy := cmd.String("privacy")
	if privacy == "" {
		privacy = r.config.Sync.Visibility
	}
	vis, err := models.ParseVisibility(privacy)
	if err != nil {
		return err
	}

	creds, err := r.targetCredentials(cmd)
	if err != nil {
		return err
	}

	id, err := r.target.CreatePlaylist(ctx, title, vis, creds)
	if err != nil {
		return err
	}
	r.logger.Info("created playlist", "id", id, "title", title)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{"playlistId": id, "title": title, "privacyStatus": string(vis)}, false)
	}
	return r.writePlain("✓ Created playlist %q (%s)\n", title, id)
}

type searchResult struct {
	Query  string `json:"query"`
	Found  bool   `json:"found"`
	ItemID string `json:"itemId,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Search resolves a free-text query to the top YouTube video.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if r.target == nil {
		return fmt.Errorf("%w: YouTube service not initialized", shared.ErrServiceUnavailable)
	}

	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	id, found, err := r.target.SearchItem(ctx, query)
	if err != nil {
		return err
	}

	result := searchResult{Query: query, Found: found, ItemID: id}
	if found {
		result.URL = "https://www.youtube.com/watch?v=" + id
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, false)
	}
	if !found {
		return r.writePlain("No match for %q\n", query)
	}
	return r.writePlain("%s\n%s\n", id, result.URL)
}

func (r *Runner) ready() error {
	if r.engine == nil {
		return fmt.Errorf("%w: sync engine not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// delay prefers --delay and falls back to sync.delay.
func (r *Runner) delay(cmd *cli.Command) time.Duration {
	if cmd.IsSet("delay") {
		return cmd.Duration("delay")
	}
	return r.config.Sync.Delay.Duration
}

// preview fetches the source list for the TUI's confirmation screen.
//
// The cached catalog makes the engine's own fetch a hit.
func (r *Runner) preview(playlistID string, creds models.Credentials) func(context.Context) (*models.TrackList, error) {
	return func(ctx context.Context) (*models.TrackList, error) {
		return r.catalog.FetchTracks(ctx, playlistID, creds)
	}
}

// withProgress runs fn while logging its progress updates.
func (r *Runner) withProgress(ctx context.Context, fn func(context.Context, chan<- tasks.ProgressUpdate) (*models.SyncReport, error)) (*models.SyncReport, error) {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.logProgress(progress)
	report, err := fn(ctx, progress)
	close(progress)
	<-done
	return report, err
}

func (r *Runner) logProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Total > 0 {
				r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
			} else {
				r.logger.Info(update.Message, "phase", update.Phase)
			}
		}
	}()
	return done
}

// finish writes report (partial reports included) and returns the run error.
func (r *Runner) finish(report *models.SyncReport, runErr error, format formatter.Format, output string) error {
	if report == nil {
		return runErr
	}
	if report.Cancelled {
		r.logger.Warn("sync cancelled, writing partial report", "processed", len(report.Results), "total", report.TotalTracks)
	}

	if output != "" {
		path, err := formatter.WriteReport(report, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", path)
		if err := r.writePlain("✓ Added %d of %d tracks to %s\n", report.SuccessfullyAdded, report.TotalTracks, report.TargetPlaylistID); err != nil {
			return err
		}
		if err := r.writePlain("  Report: %s\n", path); err != nil {
			return err
		}
		return runErr
	}

	data, err := formatter.Render(report, format)
	if err != nil {
		return err
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return runErr
}
