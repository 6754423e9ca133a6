package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
)

// SnapshotRepository keeps the in-progress list in a single row. It implements tasks.SnapshotStore.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveCurrent replaces the stored list with snap.
func (r *SnapshotRepository) SaveCurrent(ctx context.Context, snap models.PlaylistSnapshot) error {
	items, err := json.Marshal(models.CloneSongs(snap.Items))
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO current_snapshot (id, group_id, service_date, items, dirty, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			group_id = excluded.group_id,
			service_date = excluded.service_date,
			items = excluded.items,
			dirty = excluded.dirty,
			updated_at = excluded.updated_at
	`, snap.GroupID, models.FormatDate(snap.Date), string(items), snap.Dirty, updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// LoadCurrent returns the stored list, or nil when nothing was saved yet.
func (r *SnapshotRepository) LoadCurrent(ctx context.Context) (*models.PlaylistSnapshot, error) {
	var (
		groupID, serviceDate, items string
		dirty                       bool
		updatedAt                   time.Time
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT group_id, service_date, items, dirty, updated_at
		FROM current_snapshot
		WHERE id = 1
	`).Scan(&groupID, &serviceDate, &items, &dirty, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	date, err := models.ParseDate(serviceDate)
	if err != nil {
		return nil, err
	}

	snap := &models.PlaylistSnapshot{GroupID: groupID, Date: date, Dirty: dirty, UpdatedAt: updatedAt}
	if err := json.Unmarshal([]byte(items), &snap.Items); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot items: %w", err)
	}
	if snap.Items == nil {
		snap.Items = []models.Song{}
	}

	return snap, nil
}

// ClearCurrent forgets the stored list.
func (r *SnapshotRepository) ClearCurrent(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM current_snapshot WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
