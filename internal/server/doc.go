// Package server provides HTTP routing, middleware, and the conversion API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # API
//
// [API] exposes synchronization over JSON:
//
//	GET  /health                → liveness
//	POST /api/sync              → Spotify playlist into an existing YouTube playlist
//	POST /api/convert           → Spotify playlist into a new YouTube playlist
//	POST /api/playlists         → create an empty YouTube playlist
//	GET  /api/spotify/playlist  → source track list (?url=)
//	GET  /api/youtube/auth-url  → Google consent URL (?redirect=)
//	GET  /api/youtube/login     → redirect to the consent page
//	GET  /api/youtube/callback  → code exchange; token as JSON or in the redirect fragment
//	GET  /metrics               → prometheus exposition
//
// Errors are JSON objects with an "error" field; the status comes from [shared.Classify].
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the one-shot local callback used by `plconv auth youtube`.
// It validates the state parameter (CSRF protection), exchanges the authorization code,
// and sends the result through a channel. Only the first callback is processed.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
