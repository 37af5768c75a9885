package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	th "github.com/desertthunder/plconv/internal/testing"
)

var (
	sourceCreds = models.Credentials{AccessToken: "spotify-token"}
	targetCreds = models.Credentials{AccessToken: "youtube-token"}
)

// fakeObserver counts outcomes reported by the engine.
type fakeObserver struct {
	mu      sync.Mutex
	tracks  map[models.MatchStatus]int
	results []string
}

func (o *fakeObserver) TrackOutcome(status models.MatchStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.tracks == nil {
		o.tracks = map[models.MatchStatus]int{}
	}
	o.tracks[status]++
}

func (o *fakeObserver) SyncFinished(result string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func newEngine(source SourceCatalog, target TargetCatalog, observer Observer) *PlaylistEngine {
	return NewPlaylistEngine(source, target, shared.NewLogger(io.Discard), observer)
}

func syncRequest(source string) SyncRequest {
	return SyncRequest{
		SourcePlaylistID:  source,
		SourceCredentials: sourceCreds,
		TargetPlaylistID:  "PL1",
		TargetCredentials: targetCreds,
		InterCallDelay:    -1,
	}
}

func sourceWith(id, name string, tracks ...models.Track) *th.MockSource {
	return &th.MockSource{Lists: map[string]*models.TrackList{id: {Name: name, Tracks: tracks}}}
}

func TestSynchronize(t *testing.T) {
	ctx := context.Background()

	t.Run("all tracks matched", func(t *testing.T) {
		source := sourceWith("src", "Road Trip", "Artist A - Song 1", "Artist B - Song 2")
		target := &th.MockTarget{Matches: map[string]string{
			"Artist A - Song 1": "vid1",
			"Artist B - Song 2": "vid2",
		}}

		report, err := newEngine(source, target, nil).Synchronize(ctx, syncRequest("src"), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if report.TotalTracks != 2 || report.SuccessfullyAdded != 2 || len(report.Results) != 2 {
			t.Fatalf("unexpected report: %+v", report)
		}
		for i, want := range []string{"vid1", "vid2"} {
			res := report.Results[i]
			if res.Result.Status != models.StatusAdded || res.Result.ItemID != want {
				t.Errorf("result %d: expected Added %s, got %+v", i, want, res.Result)
			}
		}
		if len(target.Appends) != 2 || target.Appends[0] != (th.Append{ItemID: "vid1", PlaylistID: "PL1"}) {
			t.Errorf("unexpected appends: %+v", target.Appends)
		}
		if report.SourcePlaylist != "Road Trip" || report.TargetPlaylistID != "PL1" || report.ID == "" {
			t.Errorf("unexpected report metadata: %+v", report)
		}
	})

	t.Run("not found makes no append", func(t *testing.T) {
		source := sourceWith("src", "Mix", "Artist A - Song 1", "Artist X - Unknown")
		target := &th.MockTarget{Matches: map[string]string{"Artist A - Song 1": "vid1"}}

		report, err := newEngine(source, target, nil).Synchronize(ctx, syncRequest("src"), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if report.TotalTracks != 2 || report.SuccessfullyAdded != 1 {
			t.Fatalf("unexpected totals: %+v", report)
		}
		missing := report.Results[1]
		if missing.Track != "Artist X - Unknown" || missing.Result.Status != models.StatusNotFound || missing.Result.ItemID != "" {
			t.Errorf("unexpected not found result: %+v", missing)
		}
		if len(target.Appends) != 1 {
			t.Errorf("expected exactly 1 append, got %d", len(target.Appends))
		}
		if len(target.Searches) != 2 {
			t.Errorf("expected 2 searches, got %d", len(target.Searches))
		}
	})

	t.Run("append failure is isolated", func(t *testing.T) {
		source := sourceWith("src", "Mix", "A - 1", "B - 2", "C - 3")
		target := &th.MockTarget{
			Matches:    map[string]string{"A - 1": "v1", "B - 2": "v2", "C - 3": "v3"},
			AppendErrs: map[string]error{"v2": fmt.Errorf("%w: quota", shared.ErrUpstream)},
		}

		report, err := newEngine(source, target, nil).Synchronize(ctx, syncRequest("src"), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if report.TotalTracks != 3 || report.SuccessfullyAdded != 2 {
			t.Fatalf("unexpected totals: %+v", report)
		}
		statuses := []models.MatchStatus{models.StatusAdded, models.StatusError, models.StatusAdded}
		for i, want := range statuses {
			if got := report.Results[i].Result.Status; got != want {
				t.Errorf("result %d: expected %v, got %v", i, want, got)
			}
		}
		if failed := report.Results[1].Result; failed.Err == nil || !errors.Is(failed.Err, shared.ErrUpstream) {
			t.Errorf("expected upstream error detail, got %v", failed.Err)
		}
		if target.AppendCalls("v3") != 1 {
			t.Errorf("expected track after the failure to be appended once")
		}
	})

	t.Run("search failure is isolated", func(t *testing.T) {
		source := sourceWith("src", "Mix", "A - 1", "B - 2")
		target := &th.MockTarget{
			Matches:    map[string]string{"B - 2": "v2"},
			SearchErrs: map[string]error{"A - 1": shared.ErrUpstream},
		}

		report, err := newEngine(source, target, nil).Synchronize(ctx, syncRequest("src"), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if report.Results[0].Result.Status != models.StatusError || report.Results[1].Result.Status != models.StatusAdded {
			t.Errorf("unexpected results: %+v", report.Results)
		}
		if len(target.Appends) != 1 {
			t.Errorf("failed search must not append, got %d appends", len(target.Appends))
		}
	})

	t.Run("source failure makes no target calls", func(t *testing.T) {
		tests := []struct {
			name   string
			source *th.MockSource
			req    SyncRequest
			want   error
		}{
			{"unauthorized", &th.MockSource{Err: shared.ErrUnauthorized}, syncRequest("src"), shared.ErrUnauthorized},
			{"not found", sourceWith("other", "x"), syncRequest("src"), shared.ErrNotFound},
			{"upstream", &th.MockSource{Err: shared.ErrUpstream}, syncRequest("src"), shared.ErrUpstream},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				target := &th.MockTarget{}
				report, err := newEngine(tt.source, target, nil).Synchronize(ctx, tt.req, nil)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if report != nil {
					t.Errorf("expected no report, got %+v", report)
				}
				if target.Calls() != 0 {
					t.Errorf("expected no target calls, got %d", target.Calls())
				}
			})
		}
	})

	t.Run("header only playlist", func(t *testing.T) {
		source := sourceWith("src", "Empty")
		target := &th.MockTarget{}

		report, err := newEngine(source, target, nil).Synchronize(ctx, syncRequest("src"), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if report.TotalTracks != 0 || report.SuccessfullyAdded != 0 || len(report.Results) != 0 {
			t.Errorf("expected empty report, got %+v", report)
		}
		if target.Calls() != 0 {
			t.Errorf("expected no target calls, got %d", target.Calls())
		}
	})

	t.Run("validates input before any I/O", func(t *testing.T) {
		source := sourceWith("src", "Mix", "A - 1")
		target := &th.MockTarget{}
		engine := newEngine(source, target, nil)

		req := syncRequest("")
		if _, err := engine.Synchronize(ctx, req, nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for missing source, got %v", err)
		}

		req = syncRequest("src")
		req.TargetPlaylistID = " "
		if _, err := engine.Synchronize(ctx, req, nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for missing target, got %v", err)
		}

		if source.Calls() != 0 || target.Calls() != 0 {
			t.Errorf("expected no calls, got source=%d target=%d", source.Calls(), target.Calls())
		}
	})

	t.Run("missing collaborators", func(t *testing.T) {
		if _, err := newEngine(nil, &th.MockTarget{}, nil).Synchronize(ctx, syncRequest("src"), nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if _, err := newEngine(&th.MockSource{}, nil, nil).Synchronize(ctx, syncRequest("src"), nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("order and totals hold for any mix", func(t *testing.T) {
		for n := 0; n <= 12; n++ {
			tracks := make([]models.Track, n)
			target := &th.MockTarget{
				Matches:    map[string]string{},
				AppendErrs: map[string]error{},
			}
			for i := range tracks {
				tracks[i] = models.Track(fmt.Sprintf("Artist %d - Song %d", i, i))
				switch i % 3 {
				case 0:
					target.Matches[string(tracks[i])] = fmt.Sprintf("v%d", i)
				case 1:
					target.Matches[string(tracks[i])] = fmt.Sprintf("v%d", i)
					target.AppendErrs[fmt.Sprintf("v%d", i)] = shared.ErrUpstream
				}
			}

			report, err := newEngine(sourceWith("src", "Mix", tracks...), target, nil).Synchronize(ctx, syncRequest("src"), nil)
			if err != nil {
				t.Fatalf("n=%d: unexpected error: %v", n, err)
			}
			if len(report.Results) != n || report.TotalTracks != n {
				t.Fatalf("n=%d: expected %d results, got %d", n, n, len(report.Results))
			}

			added := 0
			for i, res := range report.Results {
				if res.Track != tracks[i] {
					t.Errorf("n=%d: result %d out of order: %q", n, i, res.Track)
				}
				if res.Result.Status == models.StatusAdded {
					added++
				}
			}
			if report.SuccessfullyAdded != added {
				t.Errorf("n=%d: successfullyAdded %d != Added count %d", n, report.SuccessfullyAdded, added)
			}
		}
	})

	t.Run("waits between tracks but not after the last", func(t *testing.T) {
		source := sourceWith("src", "Mix", "A - 1", "B - 2", "C - 3")
		target := &th.MockTarget{}

		req := syncRequest("src")
		req.InterCallDelay = 30 * time.Millisecond

		start := time.Now()
		if _, err := newEngine(source, target, nil).Synchronize(ctx, req, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		elapsed := time.Since(start)

		if elapsed < 60*time.Millisecond {
			t.Errorf("expected at least two delays, took %v", elapsed)
		}
		if elapsed >= 90*time.Millisecond+500*time.Millisecond {
			t.Errorf("sync took unexpectedly long: %v", elapsed)
		}
	})

	t.Run("cancellation returns partial report", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		source := sourceWith("src", "Mix", "A - 1", "B - 2", "C - 3", "D - 4")
		target := &th.MockTarget{Matches: map[string]string{"A - 1": "v1", "B - 2": "v2", "C - 3": "v3", "D - 4": "v4"}}
		target.OnSearch = func(query string) {
			if query == "B - 2" {
				cancel()
			}
		}
		observer := &fakeObserver{}

		report, err := newEngine(source, target, observer).Synchronize(ctx, syncRequest("src"), nil)
		if !errors.Is(err, context.Canceled) || !IsCancelled(err) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if report == nil || !report.Cancelled {
			t.Fatalf("expected cancelled partial report, got %+v", report)
		}
		if len(report.Results) != 2 {
			t.Errorf("expected 2 processed tracks, got %d", len(report.Results))
		}
		if report.TotalTracks != 4 {
			t.Errorf("expected total to reflect the source, got %d", report.TotalTracks)
		}
		if len(target.Searches) != 2 {
			t.Errorf("expected no searches after cancellation, got %d", len(target.Searches))
		}
		if len(observer.results) != 1 || observer.results[0] != resultCancelled {
			t.Errorf("expected cancelled sync result, got %v", observer.results)
		}
	})

	t.Run("cancellation interrupts the delay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		source := sourceWith("src", "Mix", "A - 1", "B - 2")
		target := &th.MockTarget{OnSearch: func(string) { cancel() }}

		req := syncRequest("src")
		req.InterCallDelay = time.Hour

		done := make(chan error, 1)
		go func() {
			_, err := newEngine(source, target, nil).Synchronize(ctx, req, nil)
			done <- err
		}()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("sync did not stop waiting after cancellation")
		}
	})

	t.Run("observer counts outcomes", func(t *testing.T) {
		source := sourceWith("src", "Mix", "A - 1", "B - 2", "C - 3")
		target := &th.MockTarget{
			Matches:    map[string]string{"A - 1": "v1", "C - 3": "v3"},
			AppendErrs: map[string]error{"v3": shared.ErrUnauthorized},
		}
		observer := &fakeObserver{}

		if _, err := newEngine(source, target, observer).Synchronize(ctx, syncRequest("src"), nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if observer.tracks[models.StatusAdded] != 1 || observer.tracks[models.StatusNotFound] != 1 || observer.tracks[models.StatusError] != 1 {
			t.Errorf("unexpected outcome counts: %v", observer.tracks)
		}
		if len(observer.results) != 1 || observer.results[0] != resultCompleted {
			t.Errorf("expected completed sync, got %v", observer.results)
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		source := sourceWith("src", "Mix", "A - 1", "B - 2")
		target := &th.MockTarget{Matches: map[string]string{"A - 1": "v1"}}
		progress := make(chan ProgressUpdate, 32)

		if _, err := newEngine(source, target, nil).Synchronize(ctx, syncRequest("src"), progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		phases := map[Phase]int{}
		var last ProgressUpdate
		for update := range progress {
			phases[update.Phase]++
			last = update
		}

		if phases[FetchSource] != 2 || phases[SearchTracks] != 2 || phases[AppendTrack] != 2 || phases[Complete] != 1 {
			t.Errorf("unexpected phase counts: %v", phases)
		}
		if last.Phase != Complete {
			t.Errorf("expected last update to be complete, got %v", last.Phase)
		}
		if _, ok := last.Data.(*models.SyncReport); !ok {
			t.Errorf("expected report in complete update, got %T", last.Data)
		}
	})

	t.Run("progress never blocks", func(t *testing.T) {
		source := sourceWith("src", "Mix", "A - 1", "B - 2", "C - 3")
		target := &th.MockTarget{}
		progress := make(chan ProgressUpdate)

		done := make(chan struct{})
		go func() {
			defer close(done)
			newEngine(source, target, nil).Synchronize(ctx, syncRequest("src"), progress)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("sync blocked on an unread progress channel")
		}
	})
}

func TestCreateAndSynchronize(t *testing.T) {
	ctx := context.Background()

	convertRequest := func(source string) ConvertRequest {
		return ConvertRequest{
			SourcePlaylistID:  source,
			SourceCredentials: sourceCreds,
			TargetCredentials: targetCreds,
			InterCallDelay:    -1,
		}
	}

	t.Run("creates playlist named after the source", func(t *testing.T) {
		source := sourceWith("src", "Road Trip", "A - 1")
		target := &th.MockTarget{Matches: map[string]string{"A - 1": "v1"}, CreatedID: "PLnew"}

		report, err := newEngine(source, target, nil).CreateAndSynchronize(ctx, convertRequest("src"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(target.Created) != 1 || target.Created[0] != "Road Trip" {
			t.Errorf("expected playlist titled Road Trip, got %v", target.Created)
		}
		if report.TargetPlaylistID != "PLnew" || report.SuccessfullyAdded != 1 {
			t.Errorf("unexpected report: %+v", report)
		}
		if target.Appends[0].PlaylistID != "PLnew" {
			t.Errorf("expected append into new playlist, got %+v", target.Appends)
		}
	})

	t.Run("explicit title wins", func(t *testing.T) {
		source := sourceWith("src", "Road Trip")
		target := &th.MockTarget{}

		req := convertRequest("src")
		req.Title = "Summer"
		if _, err := newEngine(source, target, nil).CreateAndSynchronize(ctx, req, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target.Created[0] != "Summer" {
			t.Errorf("expected title Summer, got %v", target.Created)
		}
	})

	t.Run("create failure is fatal", func(t *testing.T) {
		source := sourceWith("src", "Road Trip", "A - 1")
		target := &th.MockTarget{CreateErr: shared.ErrUnauthorized}

		report, err := newEngine(source, target, nil).CreateAndSynchronize(ctx, convertRequest("src"), nil)
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if report != nil {
			t.Errorf("expected no report, got %+v", report)
		}
		if len(target.Searches) != 0 {
			t.Errorf("expected no searches, got %d", len(target.Searches))
		}
	})

	t.Run("rejects unknown visibility", func(t *testing.T) {
		source := sourceWith("src", "Road Trip")
		req := convertRequest("src")
		req.Visibility = "friends"

		if _, err := newEngine(source, &th.MockTarget{}, nil).CreateAndSynchronize(ctx, req, nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if source.Calls() != 0 {
			t.Errorf("expected no source calls, got %d", source.Calls())
		}
	})
}

func TestResolveDelay(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, DefaultInterCallDelay},
		{-1, 0},
		{time.Second, time.Second},
	}
	for _, tt := range tests {
		if got := resolveDelay(tt.in); got != tt.want {
			t.Errorf("resolveDelay(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
