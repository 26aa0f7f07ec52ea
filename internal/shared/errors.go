package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Credential exchange errors
	ErrAuthExchange           = fmt.Errorf("token exchange failed")
	ErrMalformedTokenResponse = fmt.Errorf("malformed token response")

	// Track lookup errors
	ErrAuthUnavailable          = fmt.Errorf("no access token available")
	ErrLookupTransport          = fmt.Errorf("track lookup transport error")
	ErrLookupHTTP               = fmt.Errorf("track lookup failed")
	ErrAuthRefreshFailed        = fmt.Errorf("token refresh failed")
	ErrLookupFailedAfterRefresh = fmt.Errorf("track lookup failed after token refresh")
	ErrMalformedTrackResponse   = fmt.Errorf("malformed track response")

	// Search errors
	ErrSearchFailed = fmt.Errorf("video search failed")
	ErrNoVideoFound = fmt.Errorf("no video found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrUnsupportedFile = fmt.Errorf("unsupported file type")

	ErrServiceUnavailable = fmt.Errorf("service unavailable")
)

// StatusError carries the HTTP status of a failed upstream call.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode returns the status carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// kinds is ordered so that the most specific sentinel wins.
var kinds = []struct {
	err  error
	name string
}{
	{context.Canceled, "cancelled"},
	{context.DeadlineExceeded, "cancelled"},
	{ErrAuthUnavailable, "auth_unavailable"},
	{ErrAuthRefreshFailed, "auth_refresh_failed"},
	{ErrLookupFailedAfterRefresh, "lookup_failed_after_refresh"},
	{ErrLookupTransport, "lookup_transport_error"},
	{ErrLookupHTTP, "lookup_http_error"},
	{ErrMalformedTrackResponse, "malformed_track_response"},
	{ErrAuthExchange, "auth_exchange_error"},
	{ErrMalformedTokenResponse, "malformed_token_response"},
	{ErrNoVideoFound, "no_video_found"},
	{ErrSearchFailed, "search_failed"},
	{ErrInvalidInput, "invalid_input"},
}

// FailureKind returns a stable snake_case name for err, for reports and log fields.
func FailureKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}
