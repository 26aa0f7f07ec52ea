// Package services implements the two upstream capabilities a conversion needs.
//
// # Track lookup
//
// [SpotifyResolver] turns a Spotify track ID into a [TrackInfo] (title and first-listed artist)
// with GET /v1/tracks/{id}. Tokens come from a [TokenProvider], normally *auth.Manager.
//
// The resolver's only recovery path is a stale token: a 401 triggers exactly one renewal and
// exactly one repeated lookup. Every other outcome is returned to the caller as a wrapped
// sentinel from the shared package:
//   - [shared.ErrAuthUnavailable] : no token and the initial renewal failed (no lookup made)
//   - [shared.ErrLookupTransport] : network failure or unreadable body
//   - [shared.ErrLookupHTTP] : non-401 error status, with a [shared.StatusError]
//   - [shared.ErrAuthRefreshFailed] : 401 and the renewal failed
//   - [shared.ErrLookupFailedAfterRefresh] : the repeated lookup failed for any reason
//   - [shared.ErrMalformedTrackResponse] : 2xx body without name or artists[0].name
//
// # Video search
//
// [VideoSearcher] is first-match-or-none: the first result is authoritative, zero results
// yield "" and a nil error, and failures are never retried.
//   - [YouTubeSearcher] : YouTube Data API v3 search.list
//   - [ProxySearcher] : ytmusicapi proxy /api/search (songs filter)
package services
