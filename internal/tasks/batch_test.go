package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/plconv/internal/formatter"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	th "github.com/desertthunder/plconv/internal/testing"
)

func batchRequests(ids ...string) []ConvertRequest {
	reqs := make([]ConvertRequest, len(ids))
	for i, id := range ids {
		reqs[i] = ConvertRequest{
			SourcePlaylistID:  id,
			SourceCredentials: sourceCreds,
			TargetCredentials: targetCreds,
			InterCallDelay:    -1,
		}
	}
	return reqs
}

func TestConvertAll(t *testing.T) {
	ctx := context.Background()

	t.Run("records failures without stopping the batch", func(t *testing.T) {
		dir := t.TempDir()
		source := sourceWith("good", "Good Mix", "A - 1", "B - 2")
		target := &th.MockTarget{Matches: map[string]string{"A - 1": "v1"}, CreatedID: "PLgood"}

		result, err := newEngine(source, target, nil).ConvertAll(ctx, batchRequests("missing", "good"), BatchOpts{
			Format:    formatter.FormatJSON,
			OutputDir: dir,
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Total != 2 || result.Succeeded != 1 || result.Failed != 1 {
			t.Fatalf("unexpected totals: %+v", result)
		}

		failed := result.Results[0]
		if failed.SourcePlaylistID != "missing" || !errors.Is(failed.Err, shared.ErrNotFound) || failed.Error == "" {
			t.Errorf("unexpected failed result: %+v", failed)
		}

		ok := result.Results[1]
		if ok.SourcePlaylistID != "good" || ok.Err != nil || ok.Report == nil {
			t.Fatalf("unexpected successful result: %+v", ok)
		}
		if ok.Report.SuccessfullyAdded != 1 || ok.Report.TargetPlaylistID != "PLgood" {
			t.Errorf("unexpected report: %+v", ok.Report)
		}
		if !strings.HasPrefix(filepath.Base(ok.ReportFile), "PLgood_") || filepath.Ext(ok.ReportFile) != ".json" {
			t.Errorf("unexpected report file name: %s", ok.ReportFile)
		}
		th.AssertFileExists(t, ok.ReportFile)

		if result.ManifestPath != filepath.Join(dir, "batch_manifest.json") {
			t.Errorf("unexpected manifest path: %s", result.ManifestPath)
		}

		var manifest BatchResult
		if err := json.Unmarshal([]byte(th.MustReadFile(t, result.ManifestPath)), &manifest); err != nil {
			t.Fatalf("manifest is not valid JSON: %v", err)
		}
		if manifest.Total != 2 || manifest.Failed != 1 || manifest.Results[0].Error == "" {
			t.Errorf("unexpected manifest: %+v", manifest)
		}
	})

	t.Run("skips writing without output dir", func(t *testing.T) {
		source := sourceWith("good", "Good Mix", "A - 1")
		target := &th.MockTarget{}

		result, err := newEngine(source, target, nil).ConvertAll(ctx, batchRequests("good"), BatchOpts{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ManifestPath != "" || result.Results[0].ReportFile != "" {
			t.Errorf("expected nothing written, got %+v", result)
		}
		if result.Results[0].Report.Results[0].Result.Status != models.StatusNotFound {
			t.Errorf("unexpected track result: %+v", result.Results[0].Report.Results[0])
		}
	})

	t.Run("requires at least one request", func(t *testing.T) {
		_, err := newEngine(&th.MockSource{}, &th.MockTarget{}, nil).ConvertAll(ctx, nil, BatchOpts{}, nil)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("cancelled context marks every playlist", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		source := sourceWith("a", "A", "A - 1")
		result, err := newEngine(source, &th.MockTarget{}, nil).ConvertAll(ctx, batchRequests("a", "b", "c"), BatchOpts{}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result.Failed != 3 || result.Succeeded != 0 {
			t.Errorf("expected all failed, got %+v", result)
		}
		for i, res := range result.Results {
			if !errors.Is(res.Err, context.Canceled) {
				t.Errorf("result %d: expected context.Canceled, got %v", i, res.Err)
			}
		}
		if source.Calls() != 0 {
			t.Errorf("expected no fetches, got %d", source.Calls())
		}
	})

	t.Run("reports progress per playlist", func(t *testing.T) {
		source := sourceWith("a", "A", "A - 1")
		progress := make(chan ProgressUpdate, 16)

		if _, err := newEngine(source, &th.MockTarget{}, nil).ConvertAll(ctx, batchRequests("a", "b"), BatchOpts{NumWorkers: 10}, progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		n := 0
		for update := range progress {
			if update.Phase != BatchConvert {
				t.Errorf("unexpected phase %v", update.Phase)
			}
			n++
		}
		if n != 4 {
			t.Errorf("expected 4 batch updates, got %d", n)
		}
	})
}
