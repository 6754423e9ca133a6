package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// CustomSongRepository implements models.Repository[*models.CustomSong].
//
// Handles custom song CRUD operations with soft delete support and per-group listing.
type CustomSongRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.CustomSong] = (*CustomSongRepository)(nil)

// NewCustomSongRepository creates a new CustomSongRepository with the given database connection
func NewCustomSongRepository(db *sql.DB) *CustomSongRepository {
	return &CustomSongRepository{db: db}
}

// Create inserts a new custom song into the database with generated ID and sequence
func (r *CustomSongRepository) Create(song *models.CustomSong) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "custom_songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	song.SetID(id)
	song.SetSequence(sequence)

	s := song.Song()
	query := `
		INSERT INTO custom_songs (id, sequence, group_id, number, title, lyrics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, song.GroupID(), s.Number, s.Title, s.Lyrics, song.CreatedAt(), song.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert custom song: %w", err)
	}

	return nil
}

// Get retrieves a custom song by ID, excluding soft-deleted songs
func (r *CustomSongRepository) Get(id string) (*models.CustomSong, error) {
	query := `
		SELECT id, sequence, group_id, number, title, lyrics, created_at, updated_at, deleted_at
		FROM custom_songs
		WHERE id = ? AND deleted_at IS NULL
	`

	song, err := scanCustomSong(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: custom song %s", ErrNotFound, id)
	}
	return song, err
}

// Update modifies an existing custom song in the database
func (r *CustomSongRepository) Update(song *models.CustomSong) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	song.SetUpdatedAt(now)

	s := song.Song()
	query := `
		UPDATE custom_songs
		SET number = ?, title = ?, lyrics = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, s.Number, s.Title, s.Lyrics, now, song.ID())
	if err != nil {
		return fmt.Errorf("failed to update custom song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: custom song %s", ErrNotFound, song.ID())
	}

	return nil
}

// Delete soft-deletes a custom song by ID
func (r *CustomSongRepository) Delete(id string) error {
	query := `
		UPDATE custom_songs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete custom song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: custom song %s", ErrNotFound, id)
	}

	return nil
}

// List retrieves all custom songs matching the given criteria ("group_id"), excluding soft-deleted songs
func (r *CustomSongRepository) List(criteria map[string]any) ([]*models.CustomSong, error) {
	query := `
		SELECT id, sequence, group_id, number, title, lyrics, created_at, updated_at, deleted_at
		FROM custom_songs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if groupID, ok := criteria["group_id"].(string); ok && groupID != "" {
		query += " AND group_id = ?"
		args = append(args, groupID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.CustomSong
	for rows.Next() {
		song, err := scanCustomSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// Songs returns the group's custom songs as catalog songs, ready to merge into the catalog.
func (r *CustomSongRepository) Songs(groupID string) ([]models.Song, error) {
	custom, err := r.List(map[string]any{"group_id": groupID})
	if err != nil {
		return nil, err
	}

	songs := make([]models.Song, 0, len(custom))
	for _, c := range custom {
		songs = append(songs, c.Song())
	}
	return songs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanCustomSong scans a [sql.Row] or the current [sql.Rows] row into a [models.CustomSong]
func scanCustomSong(row scanner) (*models.CustomSong, error) {
	var (
		id                           string
		sequence                     int
		groupID, number, title, text string
		createdAt, updatedAt         time.Time
		deletedAt                    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &groupID, &number, &title, &text, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan custom song: %w", err)
	}

	song := models.NewCustomSong(groupID, number, title, text)
	song.SetID(id)
	song.SetSequence(sequence)
	song.SetCreatedAt(createdAt)
	song.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		song.SetDeletedAt(&deletedAt.Time)
	}

	return song, nil
}
