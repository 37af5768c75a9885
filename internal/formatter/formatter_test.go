package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	th "github.com/desertthunder/plconv/internal/testing"
)

func sampleReport() *models.SyncReport {
	report := models.NewSyncReport("report-1", "Road Trip", "PL123", 3)
	report.Record("Artist A - Song 1", models.Matched("vid1"))
	report.Record("Artist B - Song | 2", models.NotFound())
	report.Record("Artist C - Song 3", models.Failed(errors.New("quota exceeded")))
	return report
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"txt", FormatText},
		{"JSON", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for xml, got %v", err)
	}
}

func TestRenderers(t *testing.T) {
	report := sampleReport()

	t.Run("ReportToCSV", func(t *testing.T) {
		data, err := ReportToCSV(report)
		if err != nil {
			t.Fatalf("ReportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
		}
		if lines[0] != "Position,Track,Status,Video ID,Error" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "1,Artist A - Song 1,Added,vid1," {
			t.Errorf("unexpected added row: %s", lines[1])
		}
		if lines[2] != "2,Artist B - Song | 2,NotFound,," {
			t.Errorf("unexpected not found row: %s", lines[2])
		}
		if !strings.Contains(lines[3], "Error") || !strings.Contains(lines[3], "quota exceeded") {
			t.Errorf("unexpected error row: %s", lines[3])
		}
	})

	t.Run("ReportToMarkdown", func(t *testing.T) {
		data, err := ReportToMarkdown(report)
		if err != nil {
			t.Fatalf("ReportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Road Trip",
			"**Tracks**: 3",
			"**Added**: 1",
			"https://www.youtube.com/playlist?list=PL123",
			"| 1 | Artist A - Song 1 | Added | [vid1](https://www.youtube.com/watch?v=vid1) |  |",
			`Artist B - Song \| 2`,
			"| 3 | Artist C - Song 3 | Error |  | quota exceeded |",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ReportToText", func(t *testing.T) {
		data, err := ReportToText(report)
		if err != nil {
			t.Fatalf("ReportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Playlist: Road Trip",
			"Tracks: 3, added: 1, not found: 1, errors: 1",
			"Artist A - Song 1 (vid1)",
			"Artist B - Song | 2 (not found)",
			"Artist C - Song 3: quota exceeded",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ReportToText cancelled", func(t *testing.T) {
		cancelled := models.NewSyncReport("r", "Mix", "PL", 5)
		cancelled.Record("A - 1", models.NotFound())
		cancelled.Cancelled = true

		data, _ := ReportToText(cancelled)
		if !strings.Contains(string(data), "Cancelled after 1 tracks") {
			t.Errorf("expected cancellation note, got:\n%s", data)
		}
	})

	t.Run("Render JSON", func(t *testing.T) {
		data, err := Render(report, FormatJSON)
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["totalTracks"] != float64(3) || decoded["successfullyAdded"] != float64(1) {
			t.Errorf("unexpected summary: %v", decoded)
		}
	})

	t.Run("Render unknown", func(t *testing.T) {
		if _, err := Render(report, Format("xml")); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestWriteReport(t *testing.T) {
	report := sampleReport()

	t.Run("writes into nested directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reports", "road-trip.md")

		written, err := WriteReport(report, FormatMarkdown, path)
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "# Road Trip") {
			t.Errorf("unexpected content:\n%s", content)
		}
	})

	t.Run("defaults filename to report ID", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		written, err := WriteReport(report, FormatCSV, "")
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if written != "report-1.csv" {
			t.Errorf("expected report-1.csv, got %s", written)
		}
		th.AssertFileExists(t, filepath.Join(dir, "report-1.csv"))
	})
}
