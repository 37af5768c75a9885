// Package services implements the catalog clients used by the playlist converter.
//
// # Spotify
//
// [SpotifySource] reads playlists from the Spotify Web API. Source credentials are
// application-level tokens from the client-credentials grant ([SpotifySource.Token]),
// passed explicitly on every [SpotifySource.FetchTracks] call.
//
// # YouTube
//
// [YouTubeTarget] wraps the YouTube Data API v3 client. Searches use the configured API
// key; playlist writes use the caller's OAuth access token, attached per call so
// concurrent syncs for different users never share credentials.
//
// # Error Handling
//
// Upstream failures are mapped onto the shared taxonomy:
//   - [shared.ErrUnauthorized] : 401/403 or missing credentials
//   - [shared.ErrPlaylistNotFound] : 404 on a playlist
//   - [shared.ErrUpstream] : any other non-2xx response or transport failure
//   - [shared.ErrInvalidArgument] : caller input rejected before any request is made
package services
