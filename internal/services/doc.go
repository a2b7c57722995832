// Package services defines the [Remote] capability and implements it for Spotify.
//
// # Remote
//
// [Remote] is everything the client asks of a streaming account: player state and
// controls, library listings, saved-status checks and toggles, and credential refresh.
// Each method performs exactly one HTTP request. The worker is the only caller in the
// interactive client; the CLI one-shots reuse it through the same worker.
//
// # Spotify Implementation
//
// [SpotifyService] speaks the Spotify Web API with an [oauth2.Config] for the
// authorization code flow. The bearer token is attached per request, so an expired token
// surfaces as [shared.ErrAuthExpired] and is refreshed explicitly with
// [SpotifyService.RefreshToken]. Requests are throttled client-side by a
// [rate.Limiter] when requests_per_second is set.
//
// # Error Handling
//
// Failures are returned as [*APIError], which carries the operation, the HTTP status,
// any Retry-After delay, and wraps one of the taxonomy sentinels:
//   - [shared.ErrAuthExpired] : 401, refresh and retry
//   - [shared.ErrRateLimited] : 429
//   - [shared.ErrPremiumRequired] : 403
//   - [shared.ErrNotFound] : 404, including no active device
//   - [shared.ErrTransientNetwork] : 5xx and transport errors
//   - [shared.ErrUnknown] : anything else
//
// [shared.Classify] maps any of these back to a [shared.ErrorKind].
//
// # API Mappings
//
// Wire types in spotify_types.go are converted to [models] values at the boundary; local
// files and podcast episodes without an ID are skipped.
package services
