package tasks

import (
	"fmt"

	"github.com/desertthunder/plconv/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	CreatePlaylist
	SearchTracks
	AppendTrack
	Complete
	BatchConvert
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case AppendTrack:
		return "append_track"
	case Complete:
		return "complete"
	case BatchConvert:
		return "batch_convert"
	default:
		return ""
	}
}

func fetchingSourceUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching source playlist %s from Spotify...", id),
	}
}

func foundPlaylistUpdate(list *models.TrackList) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", list.Name, list.Len()),
		Data:    list,
	}
}

func creatingPlaylistUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q on YouTube...", title),
	}
}

func createdPlaylistUpdate(title, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", title, id),
		Data:    id,
	}
}

func searchTrackUpdate(step, total int, track models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s", step, total, track),
	}
}

// trackResultUpdate carries the finished [models.TrackResult] so UIs can render it as it lands.
func trackResultUpdate(step, total int, res models.TrackResult) ProgressUpdate {
	var msg string
	switch res.Result.Status {
	case models.StatusAdded:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Track)
	case models.StatusNotFound:
		msg = fmt.Sprintf("[%d/%d] - %s (not found)", step, total, res.Track)
	default:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Track, res.Result.Err)
	}
	return ProgressUpdate{
		Phase:   AppendTrack,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func completeUpdate(report *models.SyncReport) ProgressUpdate {
	msg := fmt.Sprintf("Added %d of %d tracks", report.SuccessfullyAdded, report.TotalTracks)
	if report.Cancelled {
		msg = fmt.Sprintf("Cancelled after %d of %d tracks (%d added)", len(report.Results), report.TotalTracks, report.SuccessfullyAdded)
	}
	return ProgressUpdate{
		Phase:   Complete,
		Step:    len(report.Results),
		Total:   report.TotalTracks,
		Message: msg,
		Data:    report,
	}
}

func batchStartedUpdate(step, total int, source string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchConvert,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Converting: %s...", step, total, source),
	}
}

func batchCompletedUpdate(step, total int, res BatchItemResult) ProgressUpdate {
	if res.Err != nil {
		return ProgressUpdate{
			Phase:   BatchConvert,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.SourcePlaylistID, res.Err),
		}
	}
	return ProgressUpdate{
		Phase:   BatchConvert,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d/%d added)", step, total, res.Report.SourcePlaylist, res.Report.SuccessfullyAdded, res.Report.TotalTracks),
	}
}
