package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/shared"
)

const linkColumns = "id, track_id, title, artist, album, video_url, created_at, updated_at"

// LinkRepository implements models.Repository[*models.ResolvedLink] on the resolved_links table.
type LinkRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.ResolvedLink] = (*LinkRepository)(nil)

// NewLinkRepository creates a new LinkRepository with the given database connection
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts link with a generated ID.
func (r *LinkRepository) Create(link *models.ResolvedLink) error {
	if err := link.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	link.SetID(shared.GenerateID())

	_, err := r.db.Exec(
		`INSERT INTO resolved_links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID(), link.TrackID(), link.Title(), link.Artist(), link.Album(), link.VideoURL(),
		link.CreatedAt(), link.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolved link: %w", err)
	}
	return nil
}

// Get retrieves a link by ID.
func (r *LinkRepository) Get(id string) (*models.ResolvedLink, error) {
	row := r.db.QueryRow(`SELECT `+linkColumns+` FROM resolved_links WHERE id = ?`, id)
	return scanLink(row)
}

// GetByTrackID retrieves the link cached for a streaming-service track ID.
func (r *LinkRepository) GetByTrackID(trackID string) (*models.ResolvedLink, error) {
	row := r.db.QueryRow(`SELECT `+linkColumns+` FROM resolved_links WHERE track_id = ?`, trackID)
	return scanLink(row)
}

// Update stores the title, artist, album and video URL of an existing link.
func (r *LinkRepository) Update(link *models.ResolvedLink) error {
	if err := link.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(
		`UPDATE resolved_links SET title = ?, artist = ?, album = ?, video_url = ?, updated_at = ? WHERE id = ?`,
		link.Title(), link.Artist(), link.Album(), link.VideoURL(), now, link.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update resolved link: %w", err)
	}

	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("resolved link %s: %w", link.ID(), ErrNotFound)
	}

	link.SetUpdatedAt(now)
	return nil
}

// Delete removes a link by ID.
func (r *LinkRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM resolved_links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resolved link: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("resolved link %s: %w", id, ErrNotFound)
	}
	return nil
}

// List returns links newest first.
//
// Supported criteria: "artist" (string, exact match), "has_video" (bool), "limit" (int).
func (r *LinkRepository) List(criteria map[string]any) ([]*models.ResolvedLink, error) {
	var where []string
	var args []any

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		where = append(where, "artist = ?")
		args = append(args, artist)
	}
	if hasVideo, ok := criteria["has_video"].(bool); ok {
		if hasVideo {
			where = append(where, "video_url != ''")
		} else {
			where = append(where, "video_url = ''")
		}
	}

	query := `SELECT ` + linkColumns + ` FROM resolved_links`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolved links: %w", err)
	}
	defer rows.Close()

	var links []*models.ResolvedLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resolved links: %w", err)
	}
	return links, nil
}

// Clear deletes every cached link and returns how many were removed.
func (r *LinkRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM resolved_links`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear resolved links: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(s scanner) (*models.ResolvedLink, error) {
	var (
		id, trackID, title, artist, album, videoURL string
		createdAt, updatedAt                        time.Time
	)
	if err := s.Scan(&id, &trackID, &title, &artist, &album, &videoURL, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err)
	}
	return models.LoadResolvedLink(id, trackID, title, artist, album, videoURL, createdAt, updatedAt), nil
}
