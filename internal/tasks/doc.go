// Package tasks orchestrates playlist synchronization with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines two operations:
//
//  1. [SyncEngine.Synchronize] : Spotify → existing YouTube playlist
//     - Fetches the source track list (fatal on failure, no target calls made)
//     - Searches each track on YouTube, first hit wins
//     - Appends each hit to the target playlist
//     - Waits the inter-call delay between tracks
//     - Returns an ordered [models.SyncReport]; per-track failures never become errors
//
//  2. [SyncEngine.CreateAndSynchronize] : Spotify → new YouTube playlist
//     - Same as Synchronize, after creating the target playlist from the source name
//
// [PlaylistEngine.ConvertAll] runs several conversions through a bounded worker pool and
// writes one report per playlist plus a manifest.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Cancellation
//
// The context is checked between tracks. A cancelled sync returns the report built so far,
// marked Cancelled, together with the context error.
//
// # Implementation
//
// [PlaylistEngine] implements [SyncEngine] with dependencies on:
//   - [SourceCatalog] : services.SpotifySource, optionally behind repositories.TrackListCache
//   - [TargetCatalog] : services.YouTubeTarget
//   - [Observer] : optional outcome counters (metrics.Recorder)
package tasks
