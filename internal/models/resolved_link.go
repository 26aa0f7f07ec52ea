package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/ytlinks/internal/shared"
)

// ResolvedLink caches the outcome of resolving one streaming-service track.
type ResolvedLink struct {
	id        string
	trackID   string
	title     string
	artist    string
	album     string
	videoURL  string
	createdAt time.Time
	updatedAt time.Time
}

var _ Model = (*ResolvedLink)(nil)

// NewResolvedLink creates an unsaved ResolvedLink with fresh timestamps.
func NewResolvedLink(trackID, title, artist, album, videoURL string) *ResolvedLink {
	now := time.Now().UTC()
	return &ResolvedLink{
		trackID:   trackID,
		title:     title,
		artist:    artist,
		album:     album,
		videoURL:  videoURL,
		createdAt: now,
		updatedAt: now,
	}
}

// LoadResolvedLink rebuilds a ResolvedLink from stored columns.
func LoadResolvedLink(id, trackID, title, artist, album, videoURL string, createdAt, updatedAt time.Time) *ResolvedLink {
	return &ResolvedLink{
		id:        id,
		trackID:   trackID,
		title:     title,
		artist:    artist,
		album:     album,
		videoURL:  videoURL,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (l *ResolvedLink) ID() string           { return l.id }
func (l *ResolvedLink) TrackID() string      { return l.trackID }
func (l *ResolvedLink) Title() string        { return l.title }
func (l *ResolvedLink) Artist() string       { return l.artist }
func (l *ResolvedLink) Album() string        { return l.album }
func (l *ResolvedLink) VideoURL() string     { return l.videoURL }
func (l *ResolvedLink) CreatedAt() time.Time { return l.createdAt }
func (l *ResolvedLink) UpdatedAt() time.Time { return l.updatedAt }

func (l *ResolvedLink) SetID(id string)             { l.id = id }
func (l *ResolvedLink) SetUpdatedAt(t time.Time)    { l.updatedAt = t }
func (l *ResolvedLink) SetVideoURL(videoURL string) { l.videoURL = videoURL }

// SetTrack replaces the title, artist and album.
func (l *ResolvedLink) SetTrack(title, artist, album string) {
	l.title, l.artist, l.album = title, artist, album
}

// Validate checks that the link identifies a track and carries its title and artist.
func (l *ResolvedLink) Validate() error {
	switch {
	case l.trackID == "":
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	case l.title == "":
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	case l.artist == "":
		return fmt.Errorf("%w: artist is required", shared.ErrInvalidInput)
	}
	return nil
}

// MarshalMap returns the exported view used for JSON output.
func (l *ResolvedLink) MarshalMap() map[string]any {
	return map[string]any{
		"id":         l.id,
		"track_id":   l.trackID,
		"title":      l.title,
		"artist":     l.artist,
		"album":      l.album,
		"video_url":  l.videoURL,
		"created_at": l.createdAt,
		"updated_at": l.updatedAt,
	}
}
