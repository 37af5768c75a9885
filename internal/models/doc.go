// Package models defines the domain types shared by the plconv playlist converter.
//
// The package contains three groups of types:
//
// 1. Catalog data: what the source catalog yields
//   - [Track] : "<artist> - <title>" line used as the target search query
//   - [TrackList] : playlist display name plus its ordered tracks
//
// 2. Sync outcomes: what the orchestrator produces
//   - [MatchResult] : tagged per-track outcome (Added, NotFound, Error)
//   - [TrackResult] : a track paired with its outcome
//   - [SyncReport] : ordered results with totals
//
// 3. Request inputs
//   - [Credentials] : opaque bearer token, redacted when formatted
//   - [Visibility] : target playlist privacy
//
// Nothing in this package is persisted across runs.
package models
