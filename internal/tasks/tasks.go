// package tasks implements playlist synchronization between the source and target catalogs.
//
// The core abstraction is SyncEngine, which resolves every source track on the target and
// appends the matches, isolating per-track failures into the returned report.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
)

// DefaultInterCallDelay spaces consecutive tracks to stay under target rate limits.
const DefaultInterCallDelay = 200 * time.Millisecond

// Sync results reported to the [Observer].
const (
	resultCompleted = "completed"
	resultCancelled = "cancelled"
	resultFailed    = "failed"
)

// SourceCatalog fetches an ordered track list for a playlist.
type SourceCatalog interface {
	FetchTracks(ctx context.Context, playlistID string, creds models.Credentials) (*models.TrackList, error)
}

// TargetCatalog creates playlists, resolves tracks and appends them on the target service.
type TargetCatalog interface {
	CreatePlaylist(ctx context.Context, title string, vis models.Visibility, creds models.Credentials) (string, error)
	SearchItem(ctx context.Context, query string) (itemID string, found bool, err error)
	AppendItem(ctx context.Context, itemID, playlistID string, creds models.Credentials) error
}

// Observer receives outcome counts, typically a metrics recorder.
type Observer interface {
	TrackOutcome(status models.MatchStatus)
	SyncFinished(result string, elapsed time.Duration)
}

// SyncRequest identifies the playlists and credentials for one synchronization.
//
// InterCallDelay of zero means [DefaultInterCallDelay]; a negative value disables pacing.
type SyncRequest struct {
	SourcePlaylistID  string
	SourceCredentials models.Credentials
	TargetPlaylistID  string
	TargetCredentials models.Credentials
	InterCallDelay    time.Duration
}

// ConvertRequest syncs a source playlist into a newly created target playlist.
//
// Title defaults to the source playlist name and Visibility to private.
type ConvertRequest struct {
	SourcePlaylistID  string
	SourceCredentials models.Credentials
	Title             string
	Visibility        models.Visibility
	TargetCredentials models.Credentials
	InterCallDelay    time.Duration
}

// SyncEngine defines operations for syncing playlists between services.
type SyncEngine interface {
	// Synchronize appends every resolvable source track to an existing target playlist.
	Synchronize(ctx context.Context, req SyncRequest, progress chan<- ProgressUpdate) (*models.SyncReport, error)

	// CreateAndSynchronize creates the target playlist first, then synchronizes into it.
	CreateAndSynchronize(ctx context.Context, req ConvertRequest, progress chan<- ProgressUpdate) (*models.SyncReport, error)
}

// PlaylistEngine implements SyncEngine.
//
// It holds no per-sync state, so one engine may serve concurrent synchronizations as long as
// its collaborators are safe for concurrent use.
type PlaylistEngine struct {
	source   SourceCatalog
	target   TargetCatalog
	logger   *log.Logger
	observer Observer
}

// NewPlaylistEngine creates a new PlaylistEngine. observer may be nil.
func NewPlaylistEngine(source SourceCatalog, target TargetCatalog, logger *log.Logger, observer Observer) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistEngine{
		source:   source,
		target:   target,
		logger:   shared.WithLogger(logger, "component", "engine"),
		observer: observer,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *PlaylistEngine) ready() error {
	if e.source == nil {
		return fmt.Errorf("%w: source catalog not initialized", shared.ErrServiceUnavailable)
	}
	if e.target == nil {
		return fmt.Errorf("%w: target catalog not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// Synchronize fetches the source tracks and appends each match to req.TargetPlaylistID.
//
// A failure to fetch the source is returned as an error and no target calls are made.
// Per-track failures are recorded in the report and never returned. If ctx is cancelled
// between tracks, the partial report is returned together with ctx.Err(). A track already
// in flight runs to completion and is recorded.
func (e *PlaylistEngine) Synchronize(ctx context.Context, req SyncRequest, progress chan<- ProgressUpdate) (*models.SyncReport, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SourcePlaylistID) == "" {
		return nil, fmt.Errorf("%w: source playlist ID", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(req.TargetPlaylistID) == "" {
		return nil, fmt.Errorf("%w: target playlist ID", shared.ErrMissingArgument)
	}

	start := time.Now()
	list, err := e.fetch(ctx, req.SourcePlaylistID, req.SourceCredentials, progress)
	if err != nil {
		e.finished(resultFailed, start)
		return nil, err
	}

	return e.run(ctx, list, req.TargetPlaylistID, req.TargetCredentials, resolveDelay(req.InterCallDelay), start, progress)
}

// CreateAndSynchronize fetches the source tracks, creates the target playlist and synchronizes into it.
//
// Failing to create the playlist is fatal, as is failing to fetch the source.
func (e *PlaylistEngine) CreateAndSynchronize(ctx context.Context, req ConvertRequest, progress chan<- ProgressUpdate) (*models.SyncReport, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SourcePlaylistID) == "" {
		return nil, fmt.Errorf("%w: source playlist ID", shared.ErrMissingArgument)
	}

	vis := req.Visibility
	if vis == "" {
		vis = models.VisibilityPrivate
	}
	if !vis.Valid() {
		return nil, fmt.Errorf("%w: invalid privacy status %q", shared.ErrInvalidArgument, vis)
	}

	start := time.Now()
	list, err := e.fetch(ctx, req.SourcePlaylistID, req.SourceCredentials, progress)
	if err != nil {
		e.finished(resultFailed, start)
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = list.Name
	}

	e.sendProgress(progress, creatingPlaylistUpdate(title))
	playlistID, err := e.target.CreatePlaylist(ctx, title, vis, req.TargetCredentials)
	if err != nil {
		e.finished(resultFailed, start)
		return nil, fmt.Errorf("failed to create target playlist: %w", err)
	}
	e.sendProgress(progress, createdPlaylistUpdate(title, playlistID))

	return e.run(ctx, list, playlistID, req.TargetCredentials, resolveDelay(req.InterCallDelay), start, progress)
}

func (e *PlaylistEngine) fetch(ctx context.Context, playlistID string, creds models.Credentials, progress chan<- ProgressUpdate) (*models.TrackList, error) {
	e.sendProgress(progress, fetchingSourceUpdate(playlistID))

	list, err := e.source.FetchTracks(ctx, playlistID, creds)
	if err != nil {
		e.logger.Error("failed to fetch source playlist", "playlist_id", playlistID, "error", err)
		return nil, fmt.Errorf("failed to fetch source playlist: %w", err)
	}
	if list == nil {
		list = &models.TrackList{}
	}

	e.sendProgress(progress, foundPlaylistUpdate(list))
	return list, nil
}

// run resolves and appends every track of list in order, one at a time.
func (e *PlaylistEngine) run(
	ctx context.Context,
	list *models.TrackList,
	targetID string,
	creds models.Credentials,
	delay time.Duration,
	start time.Time,
	progress chan<- ProgressUpdate,
) (*models.SyncReport, error) {
	total := list.Len()
	report := models.NewSyncReport(shared.GenerateID(), list.Name, targetID, total)
	logger := shared.WithLogger(e.logger, "sync_id", report.ID, "target_playlist", targetID)

	for i, track := range list.Tracks {
		var err error
		if i == 0 {
			err = ctx.Err()
		} else {
			err = pause(ctx, delay)
		}
		if err != nil {
			report.Cancelled = true
			logger.Warn("sync cancelled", "processed", len(report.Results), "total", total)
			e.sendProgress(progress, completeUpdate(report))
			e.finished(resultCancelled, start)
			return report, err
		}

		e.sendProgress(progress, searchTrackUpdate(i+1, total, track))
		// In-flight calls finish; cancellation is observed between tracks.
		result := e.resolve(context.WithoutCancel(ctx), track, targetID, creds)
		report.Record(track, result)

		switch result.Status {
		case models.StatusError:
			logger.Warn("track failed", "track", track, "error", result.Err)
		default:
			logger.Debug("track processed", "track", track, "status", result.Status, "item_id", result.ItemID)
		}
		if e.observer != nil {
			e.observer.TrackOutcome(result.Status)
		}
		e.sendProgress(progress, trackResultUpdate(i+1, total, report.Results[i]))
	}

	counts := report.Counts()
	logger.Info("sync complete",
		"source", list.Name,
		"total", report.TotalTracks,
		"added", report.SuccessfullyAdded,
		"not_found", counts[models.StatusNotFound],
		"errors", counts[models.StatusError],
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	e.sendProgress(progress, completeUpdate(report))
	e.finished(resultCompleted, start)
	return report, nil
}

// resolve searches for track and appends the first hit. AppendItem is never called without a hit.
func (e *PlaylistEngine) resolve(ctx context.Context, track models.Track, targetID string, creds models.Credentials) models.MatchResult {
	itemID, found, err := e.target.SearchItem(ctx, track.String())
	if err != nil {
		return models.Failed(fmt.Errorf("search: %w", err))
	}
	if !found {
		return models.NotFound()
	}

	if err := e.target.AppendItem(ctx, itemID, targetID, creds); err != nil {
		return models.Failed(fmt.Errorf("append %s: %w", itemID, err))
	}
	return models.Matched(itemID)
}

func (e *PlaylistEngine) finished(result string, start time.Time) {
	if e.observer != nil {
		e.observer.SyncFinished(result, time.Since(start))
	}
}

func resolveDelay(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultInterCallDelay
	case d < 0:
		return 0
	default:
		return d
	}
}

// pause waits for d or until ctx is done, whichever comes first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsCancelled reports whether err came from a cancelled or timed out synchronization.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
