package repositories

import (
	"errors"
	"fmt"

	"github.com/desertthunder/ytlinks/internal/models"
)

// LinkCacheAdapter implements tasks.LinkCache using LinkRepository.
//
// Entries are keyed by track ID. Saving an existing track updates it in place.
type LinkCacheAdapter struct {
	repo *LinkRepository
}

// NewLinkCacheAdapter creates a new LinkCacheAdapter with the given repository
func NewLinkCacheAdapter(repo *LinkRepository) *LinkCacheAdapter {
	return &LinkCacheAdapter{repo: repo}
}

// Lookup returns the cached link for trackID, or nil on a miss.
func (a *LinkCacheAdapter) Lookup(trackID string) (*models.ResolvedLink, error) {
	link, err := a.repo.GetByTrackID(trackID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up cached link: %w", err)
	}
	return link, nil
}

// Save inserts or updates the cached link for trackID.
func (a *LinkCacheAdapter) Save(trackID, title, artist, album, videoURL string) error {
	existing, err := a.Lookup(trackID)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.SetTrack(title, artist, album)
		existing.SetVideoURL(videoURL)
		return a.repo.Update(existing)
	}

	err = a.repo.Create(models.NewResolvedLink(trackID, title, artist, album, videoURL))
	if isUniqueViolation(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cache link: %w", err)
	}
	return nil
}
