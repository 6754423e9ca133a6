package tasks

import (
	"fmt"

	"github.com/desertthunder/setlist/internal/models"
)

// ProgressUpdate represents a progress event during a slow session operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadCatalog Phase = iota
	FetchHistory
	SaveHistory
	DeleteHistory
	RestoreSnapshot
	ArchiveHistory
)

func (p Phase) String() string {
	switch p {
	case LoadCatalog:
		return "load_catalog"
	case FetchHistory:
		return "fetch_history"
	case SaveHistory:
		return "save_history"
	case DeleteHistory:
		return "delete_history"
	case RestoreSnapshot:
		return "restore_snapshot"
	case ArchiveHistory:
		return "archive_history"
	default:
		return ""
	}
}

func loadingCatalogUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadCatalog,
		Step:    1,
		Total:   2,
		Message: "Loading catalog...",
	}
}

func catalogLoadedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadCatalog,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Catalog loaded (%d songs)", count),
		Data:    count,
	}
}

func fetchHistoryUpdate(groupID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching history for %s...", groupID),
	}
}

func savingUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveHistory,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Saving list (%d songs)...", count),
	}
}

func savedUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveHistory,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("✓ Saved %s", id),
		Data:    id,
	}
}

func deleteUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Deleting %s...", id),
	}
}

func restoreUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RestoreSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Restored list (%d songs)", count),
		Data:    count,
	}
}

func failedUpdate(phase Phase, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Message: fmt.Sprintf("✗ %s: %v", phase, err),
		Data:    err,
	}
}

func archiveUpdate(step, total int, e models.HistoryEntry, err error) ProgressUpdate {
	label := fmt.Sprintf("%s (%d songs)", models.FormatDate(e.Date), len(e.Items))
	if err != nil {
		return ProgressUpdate{
			Phase:   ArchiveHistory,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, label, err),
		}
	}
	return ProgressUpdate{
		Phase:   ArchiveHistory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, label),
	}
}
