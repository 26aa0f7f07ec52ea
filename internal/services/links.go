package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/ytlinks/internal/shared"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v="

// TrackIDFromLink extracts the track identifier from a streaming-service link.
//
// The identifier is the last path segment with any query string or fragment stripped,
// so "https://open.spotify.com/track/abc?si=x" yields "abc". URIs ("spotify:track:abc")
// and bare identifiers are accepted too.
func TrackIDFromLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("%w: empty track link", shared.ErrInvalidInput)
	}

	if before, _, ok := strings.Cut(link, "?"); ok {
		link = before
	}
	if before, _, ok := strings.Cut(link, "#"); ok {
		link = before
	}
	link = strings.TrimRight(link, "/")

	var id string
	if strings.HasPrefix(link, "spotify:") {
		id = link[strings.LastIndex(link, ":")+1:]
	} else {
		id = link[strings.LastIndex(link, "/")+1:]
	}

	if id == "" {
		return "", fmt.Errorf("%w: no track id in %q", shared.ErrInvalidInput, link)
	}
	return id, nil
}

// VideoURL returns the watch URL for a video ID.
func VideoURL(videoID string) string {
	return youtubeWatchURL + url.QueryEscape(videoID)
}
