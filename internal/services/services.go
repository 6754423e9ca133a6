// package services implements history storage against hosted HTTP backends
package services

import (
	"cmp"
	"slices"

	"github.com/desertthunder/setlist/internal/models"
)

// sortBySavedAt orders entries oldest save first, breaking ties by ID so listings are stable.
func sortBySavedAt(entries []models.HistoryEntry) {
	slices.SortFunc(entries, func(a, b models.HistoryEntry) int {
		return cmp.Or(a.SavedAt.Compare(b.SavedAt), cmp.Compare(a.ID, b.ID))
	})
}
