// package formatter renders sync reports to various formats (text, JSON, CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
)

// Format selects a report rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat parses s case-insensitively. "md" and "txt" are accepted aliases; empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json, csv or markdown)", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension used when writing f.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// Render renders report in format f.
func Render(report *models.SyncReport, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return shared.MarshalJSON(report, true)
	case FormatCSV:
		return ReportToCSV(report)
	case FormatMarkdown:
		return ReportToMarkdown(report)
	case FormatText, "":
		return ReportToText(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ReportToCSV converts a report to CSV format with columns: Position, Track, Status, Video ID, Error
func ReportToCSV(report *models.SyncReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Track", "Status", "Video ID", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, res := range report.Results {
		record := []string{
			strconv.Itoa(i + 1),
			res.Track.String(),
			res.Result.Status.String(),
			res.Result.ItemID,
			errorText(res.Result.Err),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a report to a Markdown summary and results table
func ReportToMarkdown(report *models.SyncReport) ([]byte, error) {
	var buf bytes.Buffer

	title := report.SourcePlaylist
	if title == "" {
		title = "Sync report"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	if report.TargetPlaylistID != "" {
		buf.WriteString(fmt.Sprintf("**Target playlist**: [%s](https://www.youtube.com/playlist?list=%s)\n", report.TargetPlaylistID, report.TargetPlaylistID))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", report.TotalTracks))
	buf.WriteString(fmt.Sprintf("**Added**: %d\n", report.SuccessfullyAdded))
	if report.Cancelled {
		buf.WriteString(fmt.Sprintf("**Cancelled** after %d tracks\n", len(report.Results)))
	}

	buf.WriteString("\n## Results\n\n")
	buf.WriteString("| # | Track | Status | Video | Error |\n")
	buf.WriteString("|---|-------|--------|-------|-------|\n")
	for i, res := range report.Results {
		video := ""
		if res.Result.ItemID != "" {
			video = fmt.Sprintf("[%s](https://www.youtube.com/watch?v=%s)", res.Result.ItemID, res.Result.ItemID)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1,
			escapeCell(res.Track.String()),
			res.Result.Status,
			video,
			escapeCell(errorText(res.Result.Err)),
		))
	}

	return buf.Bytes(), nil
}

var (
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	notFoundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// ReportToText converts a report to plain text. Status markers are styled when the terminal supports color.
func ReportToText(report *models.SyncReport) ([]byte, error) {
	var buf bytes.Buffer

	if report.SourcePlaylist != "" {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", report.SourcePlaylist))
	}
	if report.TargetPlaylistID != "" {
		buf.WriteString(fmt.Sprintf("Target: %s\n", report.TargetPlaylistID))
	}
	counts := report.Counts()
	buf.WriteString(fmt.Sprintf("Tracks: %d, added: %d, not found: %d, errors: %d\n",
		report.TotalTracks, report.SuccessfullyAdded, counts[models.StatusNotFound], counts[models.StatusError]))
	if report.Cancelled {
		buf.WriteString(fmt.Sprintf("Cancelled after %d tracks\n", len(report.Results)))
	}
	buf.WriteString("\n")

	for i, res := range report.Results {
		switch res.Result.Status {
		case models.StatusAdded:
			buf.WriteString(fmt.Sprintf("%3d. %s %s (%s)\n", i+1, addedStyle.Render("✓"), res.Track, res.Result.ItemID))
		case models.StatusNotFound:
			buf.WriteString(fmt.Sprintf("%3d. %s %s (not found)\n", i+1, notFoundStyle.Render("-"), res.Track))
		default:
			buf.WriteString(fmt.Sprintf("%3d. %s %s: %s\n", i+1, errorStyle.Render("✗"), res.Track, errorText(res.Result.Err)))
		}
	}

	return buf.Bytes(), nil
}

// WriteReport renders report in format f and writes it to path, creating parent directories as needed.
//
// Defaults to {report.ID}{ext} as the filename.
func WriteReport(report *models.SyncReport, f Format, path string) (string, error) {
	if path == "" {
		path = report.ID + f.Ext()
	}

	data, err := Render(report, f)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
