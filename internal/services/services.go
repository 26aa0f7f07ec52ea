// package services defines the track lookup and video search capabilities
//
// Spotify (track metadata), YouTube (Data API or ytmusicapi proxy)
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// TrackInfo is the song/artist pair a track link resolves to.
type TrackInfo struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"` // first-listed artist
	Album  string `json:"album,omitempty"`
}

// SearchQuery is the free-text video search query: title and artist joined by one space.
// Whitespace inside either field is passed through as-is.
func (t TrackInfo) SearchQuery() string {
	return t.Title + " " + t.Artist
}

// TokenProvider is the part of auth.Manager the resolver depends on.
type TokenProvider interface {
	// Cached returns the current token or nil when none has been obtained.
	Cached() *oauth2.Token

	// Renew replaces the current token with a new one.
	Renew(ctx context.Context) (*oauth2.Token, error)
}

// TrackResolver resolves a streaming-service track ID to its [TrackInfo].
type TrackResolver interface {
	Resolve(ctx context.Context, trackID string) (*TrackInfo, error)
}

// VideoSearcher finds a video for a free-text query.
//
// Search returns the first result's link, or "" with a nil error when there are no results.
type VideoSearcher interface {
	Search(ctx context.Context, query string) (string, error)

	// Name returns the name of the backend (e.g., "YouTube", "YouTube Music")
	Name() string
}
