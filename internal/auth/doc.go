// Package auth owns the streaming-service bearer token.
//
// A [Manager] exchanges client credentials for an access token using the OAuth2
// client-credentials grant and caches the result. It never retries on its own:
// callers decide when a token is stale (see services.SpotifyResolver) and call
// [Manager.Renew] exactly when they need a fresh one.
//
// The cached token is an owned field of the Manager rather than process-wide state,
// so independent managers never share tokens. Access is serialized with a mutex.
package auth
