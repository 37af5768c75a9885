package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/plconv/internal/formatter"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchWorkers = 2
	maxBatchWorkers     = 5
)

// BatchOpts contains configuration for converting several playlists.
type BatchOpts struct {
	Format     formatter.Format // Report format written per playlist
	OutputDir  string           // Directory for reports and manifest; empty skips writing
	NumWorkers int              // Concurrent conversions (default: 2, max: 5)
}

// BatchItemResult is the outcome of converting one source playlist.
type BatchItemResult struct {
	SourcePlaylistID string             `json:"sourcePlaylistId"`
	Report           *models.SyncReport `json:"report,omitempty"`
	ReportFile       string             `json:"reportFile,omitempty"`
	Err              error              `json:"-"`
	Error            string             `json:"error,omitempty"`
}

// BatchResult summarizes a batch conversion. Results follow request order.
type BatchResult struct {
	Total        int               `json:"total"`
	Succeeded    int               `json:"succeeded"`
	Failed       int               `json:"failed"`
	OutputDir    string            `json:"outputDir,omitempty"`
	ManifestPath string            `json:"-"`
	Results      []BatchItemResult `json:"results"`
}

// ConvertAll runs [PlaylistEngine.CreateAndSynchronize] for each request with a bounded worker pool.
//
// A failed conversion is recorded in its result and does not stop the others. Each conversion
// still processes its tracks sequentially with its own inter-call delay.
func (e *PlaylistEngine) ConvertAll(ctx context.Context, reqs []ConvertRequest, opts BatchOpts, progress chan<- ProgressUpdate) (*BatchResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: no source playlists", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultBatchWorkers
	}
	if opts.NumWorkers > maxBatchWorkers {
		opts.NumWorkers = maxBatchWorkers
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	result := &BatchResult{
		Total:     len(reqs),
		OutputDir: opts.OutputDir,
		Results:   make([]BatchItemResult, len(reqs)),
	}

	for i, req := range reqs {
		result.Results[i] = BatchItemResult{SourcePlaylistID: req.SourcePlaylistID}
	}

	var (
		mu        sync.Mutex
		completed int
		started   int
	)

	g := new(errgroup.Group)
	g.SetLimit(opts.NumWorkers)

	for i, req := range reqs {
		if ctx.Err() != nil {
			break
		}
		started++

		e.sendProgress(progress, batchStartedUpdate(i+1, len(reqs), req.SourcePlaylistID))
		g.Go(func() error {
			res := e.convertOne(ctx, req, opts)

			mu.Lock()
			result.Results[i] = res
			completed++
			step := completed
			mu.Unlock()

			e.sendProgress(progress, batchCompletedUpdate(step, len(reqs), res))
			return nil
		})
	}
	_ = g.Wait()

	for i := started; i < len(reqs); i++ {
		result.Results[i].Err = ctx.Err()
		result.Results[i].Error = ctx.Err().Error()
	}

	for _, res := range result.Results {
		if res.Err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}

	if opts.OutputDir != "" {
		manifestPath := filepath.Join(opts.OutputDir, "batch_manifest.json")
		data, err := shared.MarshalJSON(result, true)
		if err == nil {
			err = os.WriteFile(manifestPath, data, 0644)
		}
		if err != nil {
			return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
		}
		result.ManifestPath = manifestPath
	}

	return result, ctx.Err()
}

// convertOne converts a single playlist and writes its report when an output directory is set.
func (e *PlaylistEngine) convertOne(ctx context.Context, req ConvertRequest, opts BatchOpts) BatchItemResult {
	res := BatchItemResult{SourcePlaylistID: req.SourcePlaylistID}

	report, err := e.CreateAndSynchronize(ctx, req, nil)
	res.Report = report
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		return res
	}

	if opts.OutputDir != "" {
		name := fmt.Sprintf("%s_%d%s", report.TargetPlaylistID, time.Now().Unix(), opts.Format.Ext())
		path, err := formatter.WriteReport(report, opts.Format, filepath.Join(opts.OutputDir, name))
		if err != nil {
			res.Err = err
			res.Error = err.Error()
			return res
		}
		res.ReportFile = path
	}
	return res
}
