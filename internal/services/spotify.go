// Spotify Web API track lookup
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/get-track
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/shared"
	"golang.org/x/oauth2"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents the fields of a Spotify track object we read.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
}

// SpotifyResolverOpts contains optional collaborators for a [SpotifyResolver].
type SpotifyResolverOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// SpotifyResolver looks up tracks on the Spotify Web API.
//
// A 401 is treated as a stale token: the token is renewed once and the lookup repeated once.
// No other status triggers a renewal, and there is never a second retry.
type SpotifyResolver struct {
	tokens     TokenProvider
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

var _ TrackResolver = (*SpotifyResolver)(nil)

// NewSpotifyResolver creates a resolver that authenticates with tokens.
func NewSpotifyResolver(tokens TokenProvider, opts SpotifyResolverOpts) *SpotifyResolver {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SpotifyResolver{
		tokens:     tokens,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "component", "spotify"),
	}
}

// Name returns the service name.
func (s *SpotifyResolver) Name() string {
	return "Spotify"
}

// Resolve performs the authenticated lookup of trackID.
func (s *SpotifyResolver) Resolve(ctx context.Context, trackID string) (*TrackInfo, error) {
	token := s.tokens.Cached()
	if token == nil {
		var err error
		if token, err = s.tokens.Renew(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthUnavailable, err)
		}
	}

	status, body, err := s.fetchTrack(ctx, trackID, token)
	switch {
	case err != nil:
		return nil, fmt.Errorf("%w: %w", shared.ErrLookupTransport, err)
	case status == http.StatusUnauthorized:
		return s.retryAfterRenew(ctx, trackID)
	case status < 200 || status >= 300:
		return nil, fmt.Errorf("%w: %w", shared.ErrLookupHTTP, &shared.StatusError{StatusCode: status})
	}

	return decodeTrack(trackID, body)
}

// retryAfterRenew renews the token once and repeats the lookup once.
func (s *SpotifyResolver) retryAfterRenew(ctx context.Context, trackID string) (*TrackInfo, error) {
	s.logger.Warn("spotify token rejected, refreshing", "track", trackID)

	token, err := s.tokens.Renew(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthRefreshFailed, err)
	}

	status, body, err := s.fetchTrack(ctx, trackID, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrLookupFailedAfterRefresh, err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: %w", shared.ErrLookupFailedAfterRefresh, &shared.StatusError{StatusCode: status})
	}

	info, err := decodeTrack(trackID, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrLookupFailedAfterRefresh, err)
	}
	return info, nil
}

// fetchTrack performs one GET /tracks/{id}. A non-nil error means no usable response was received.
func (s *SpotifyResolver) fetchTrack(ctx context.Context, trackID string, token *oauth2.Token) (int, []byte, error) {
	endpoint := fmt.Sprintf("%s/tracks/%s", s.baseURL, url.PathEscape(trackID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	s.logger.Debug("spotify lookup", "track", trackID, "status", resp.StatusCode)
	return resp.StatusCode, body, nil
}

func decodeTrack(trackID string, body []byte) (*TrackInfo, error) {
	var track SpotifyTrack
	if err := json.Unmarshal(body, &track); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedTrackResponse, err)
	}
	if track.Name == "" {
		return nil, fmt.Errorf("%w: missing name", shared.ErrMalformedTrackResponse)
	}
	if len(track.Artists) == 0 || track.Artists[0].Name == "" {
		return nil, fmt.Errorf("%w: missing artists[0].name", shared.ErrMalformedTrackResponse)
	}

	id := track.ID
	if id == "" {
		id = trackID
	}

	return &TrackInfo{
		ID:     id,
		Title:  track.Name,
		Artist: track.Artists[0].Name,
		Album:  track.Album.Name,
	}, nil
}
