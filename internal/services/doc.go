// Package services defines the remote-source interfaces consumed by the review
// engine and implements them for the Spotify Web API.
//
// # Interfaces
//
// [TrackSource] is the paginated read + removal contract the queue engine
// depends on. [CollectionSource] lists reviewable collections. [OAuthService]
// is the authentication extension used by the CLI's login flow.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token
// refresh via the [oauth2.Config] client, and shares a [rate.Limiter] across
// every request so listing, removal, and player calls respect the same budget.
//
// The liked-songs library is addressed through the reserved
// [models.LikedSongsID] sentinel: listing routes to /me/tracks instead of
// /playlists/{id}/tracks, and removal sends a bare identifier list instead of
// URI-wrapped entries. Callers never branch on these details.
//
// # Error Classification
//
// Failed calls are normalized into a [ClassifiedError] taxonomy:
//   - [KindRateLimit] : 429, carries the Retry-After duration
//   - [KindAuthentication] : 401, routes callers toward re-login
//   - [KindPermission] : 403
//   - [KindNetwork] : 5xx and transport-level failures
//   - [KindUnknown] : anything else, with best-effort message text
//
// The classifier only produces structured results; retry policy belongs to
// the caller. [ClassifiedError.Unwrap] maps kinds onto shared sentinels so
// existing errors.Is checks (e.g. [shared.ErrTokenExpired]) keep working.
package services
