package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/tasks"
)

const (
	recentResults  = 8
	maxListedIssue = 10
	barWidth       = 40
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	TrackListView
	ConfirmView
	SyncView
	ResultView
)

// Job describes the synchronization the TUI drives.
//
// Preview is optional; without it the sync starts immediately.
type Job struct {
	Title   string
	Preview func(ctx context.Context) (*models.TrackList, error)
	Run     func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.SyncReport, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	job          Job
	view         ViewState
	width        int
	height       int
	trackList    list.Model
	preview      *models.TrackList
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	recent       []models.TrackResult
	cancelling   bool
	report       *models.SyncReport
	err          error
	spinner      spinner.Model
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model for job. Quitting mid-sync cancels the derived context.
func NewModel(ctx context.Context, job Job) *Model {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.bar

	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		job:     job,
		view:    LoadingView,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init fetches the preview, or starts syncing when there is none.
func (m *Model) Init() tea.Cmd {
	if m.job.Preview == nil {
		m.view = SyncView
		return m.startSync()
	}
	return tea.Batch(m.spinner.Tick, m.fetchTracks())
}

// Report returns the final report once the sync has finished, and its error.
func (m *Model) Report() (*models.SyncReport, error) {
	return m.report, m.err
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.preview != nil {
			m.trackList.SetSize(listSize(msg.Width, msg.Height))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				m.cancel()
				return m, tea.Quit
			}
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SyncView:
			return m.handleSyncKeys(msg)
		case ResultView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != LoadingView && m.view != SyncView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == TrackListView {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTracksFetched:
		data := msg.data.(tracksFetched)
		if data.err != nil {
			m.err = data.err
			m.view = ResultView
			return m, nil
		}
		m.preview = data.list
		m.trackList = list.New(trackItems(data.list.Tracks), list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("%s (%d tracks)", data.list.Name, data.list.Len())
		m.trackList.SetSize(listSize(m.width, m.height))
		m.view = TrackListView
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		if res, ok := update.Data.(models.TrackResult); ok {
			m.recent = append(m.recent, res)
			if len(m.recent) > recentResults {
				m.recent = m.recent[len(m.recent)-recentResults:]
			}
		}
		return m, m.waitForProgress()

	case MsgSyncComplete:
		data := msg.data.(syncComplete)
		m.report = data.report
		m.err = data.err
		m.view = ResultView
		m.progressChan = nil
		m.done = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			m.view = ConfirmView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = SyncView
		return m, m.startSync()
	case key.Matches(msg, m.keys.no):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

// handleSyncKeys cancels the running sync; the engine returns the partial report.
func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) && !m.cancelling {
		m.cancelling = true
		m.cancel()
	}
	return m, nil
}

func (m *Model) fetchTracks() tea.Cmd {
	ctx, preview := m.ctx, m.job.Preview
	return func() tea.Msg {
		list, err := preview(ctx)
		return tracksFetchedMsg(list, err)
	}
}

func (m *Model) startSync() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.done = done

	ctx, run := m.ctx, m.job.Run
	go func() {
		report, err := run(ctx, progress)
		close(progress)
		done <- syncCompleteMsg(report, err)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// waitForProgress reads the next update, then the completion once the channel closes.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Fetching source playlist...\n", m.spinner.View())
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderTrackList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync '%s' to YouTube?", m.preview.Name))
	info := fmt.Sprintf("\nTarget: %s\nTracks: %d\n", m.job.Title, m.preview.Len())
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Syncing " + m.job.Title))
	b.WriteString("\n")

	status := m.progress.Message
	if status == "" {
		status = "Starting..."
	}
	if m.cancelling {
		status = styles.warn.Render("Cancelling after the current track...")
	}
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), status)

	if m.progress.Total > 0 {
		fmt.Fprintf(&b, "%s %d/%d\n\n", renderBar(m.progress.Step, m.progress.Total, barWidth), m.progress.Step, m.progress.Total)
	}

	for _, res := range m.recent {
		fmt.Fprintf(&b, "  %s %s\n", styles.status(res.Result.Status), res.Track)
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.cancel}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.report == nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v", m.err)) + "\n\n" + helpView
	}

	var b strings.Builder
	if m.report.Cancelled {
		b.WriteString(styles.warn.Render(fmt.Sprintf("Sync cancelled after %d of %d tracks", len(m.report.Results), m.report.TotalTracks)))
	} else {
		b.WriteString(styles.ok.Render("✓ Sync Complete!"))
	}

	counts := m.report.Counts()
	fmt.Fprintf(&b, "\n\nSource: %s\nTarget: %s\nAdded %d of %d tracks (%d not found, %d errors)\n",
		m.report.SourcePlaylist,
		m.report.TargetPlaylistID,
		m.report.SuccessfullyAdded,
		m.report.TotalTracks,
		counts[models.StatusNotFound],
		counts[models.StatusError],
	)

	listed := 0
	for _, res := range m.report.Results {
		if res.Result.Status == models.StatusAdded {
			continue
		}
		if listed == 0 {
			b.WriteString("\n" + styles.warn.Render("Not added:") + "\n")
		}
		if listed == maxListedIssue {
			fmt.Fprintf(&b, "  …and %d more\n", counts[models.StatusNotFound]+counts[models.StatusError]-listed)
			break
		}
		line := fmt.Sprintf("  %s %s", styles.status(res.Result.Status), res.Track)
		if res.Result.Err != nil {
			line += styles.help.Render(fmt.Sprintf(" (%v)", res.Result.Err))
		}
		b.WriteString(line + "\n")
		listed++
	}

	b.WriteString("\n" + helpView)
	return b.String()
}

// renderBar draws a fixed-width completion bar.
func renderBar(step, total, width int) string {
	if total <= 0 {
		return ""
	}
	filled := min(width*step/total, width)
	return styles.bar.Render(strings.Repeat("█", filled)) + styles.help.Render(strings.Repeat("░", width-filled))
}

func listSize(width, height int) (int, int) {
	return max(width-4, 0), max(height-8, 0)
}
