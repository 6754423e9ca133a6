package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// HistoryRepository stores saved lists in SQLite. It implements tasks.HistoryStore.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// Save inserts a new entry with a copy of items and returns its generated ID.
func (r *HistoryRepository) Save(ctx context.Context, groupID string, date time.Time, items []models.Song) (string, error) {
	if groupID == "" {
		return "", fmt.Errorf("%w: group is required", shared.ErrSaveFailed)
	}

	id := shared.GenerateID()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to begin transaction: %w", shared.ErrSaveFailed, err)
	}
	defer tx.Rollback()

	sequence, err := nextSequenceTx(tx, "history_entries")
	if err != nil {
		return "", fmt.Errorf("%w: failed to generate sequence: %w", shared.ErrSaveFailed, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history_entries (id, sequence, group_id, service_date, saved_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, sequence, groupID, models.FormatDate(date), r.now().UTC())
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert entry: %w", shared.ErrSaveFailed, err)
	}

	for i, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO history_items (entry_id, position, origin, number, title, lyrics)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, string(item.Origin), item.Number, item.Title, item.Lyrics)
		if err != nil {
			return "", fmt.Errorf("%w: failed to insert item %d: %w", shared.ErrSaveFailed, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: failed to commit: %w", shared.ErrSaveFailed, err)
	}

	return id, nil
}

const historyQuery = `
	SELECT e.id, e.group_id, e.service_date, e.saved_at,
	       i.origin, i.number, i.title, i.lyrics
	FROM history_entries e
	LEFT JOIN history_items i ON i.entry_id = e.id
	WHERE e.deleted_at IS NULL
`

// FetchHistory returns every live entry of groupID in save order, items in performance order.
func (r *HistoryRepository) FetchHistory(ctx context.Context, groupID string) ([]models.HistoryEntry, error) {
	entries, err := r.query(ctx, historyQuery+" AND e.group_id = ? ORDER BY e.sequence ASC, i.position ASC", groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrFetchFailed, err)
	}
	return entries, nil
}

// Get retrieves a live entry by ID.
func (r *HistoryRepository) Get(ctx context.Context, id string) (models.HistoryEntry, error) {
	entries, err := r.query(ctx, historyQuery+" AND e.id = ? ORDER BY i.position ASC", id)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("%w: %w", shared.ErrFetchFailed, err)
	}
	if len(entries) == 0 {
		return models.HistoryEntry{}, fmt.Errorf("%w: history entry %s", ErrNotFound, id)
	}
	return entries[0], nil
}

// Delete soft-deletes an entry by ID.
func (r *HistoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE history_entries
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete entry: %w", shared.ErrDeleteFailed, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %w", shared.ErrDeleteFailed, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %w: history entry %s", shared.ErrDeleteFailed, ErrNotFound, id)
	}

	return nil
}

// query runs a history join and folds item rows into their entries, keeping row order.
func (r *HistoryRepository) query(ctx context.Context, query string, args ...any) ([]models.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	index := map[string]int{}

	for rows.Next() {
		var (
			id, groupID, serviceDate      string
			savedAt                       time.Time
			origin, number, title, lyrics sql.NullString
		)

		if err := rows.Scan(&id, &groupID, &serviceDate, &savedAt, &origin, &number, &title, &lyrics); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		i, ok := index[id]
		if !ok {
			date, err := models.ParseDate(serviceDate)
			if err != nil {
				return nil, err
			}
			entries = append(entries, models.HistoryEntry{
				ID:      id,
				GroupID: groupID,
				Date:    date,
				Items:   []models.Song{},
				SavedAt: savedAt,
			})
			i = len(entries) - 1
			index[id] = i
		}

		if origin.Valid {
			entries[i].Items = append(entries[i].Items, models.Song{
				Title:  title.String,
				Number: number.String,
				Origin: models.Origin(origin.String),
				Lyrics: lyrics.String,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
