// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI drives one synchronization:
//  1. [LoadingView] : Fetch the source track list
//  2. [TrackListView] : Preview tracks before syncing
//  3. [ConfirmView] : Confirm the sync
//  4. [SyncView] : Monitor per-track progress with a completion bar
//  5. [ResultView] : Display the report summary and the tracks that were not added
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking status reporting during syncs.
// Quitting during a sync cancels it; the engine stops between tracks and the partial report is shown.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
