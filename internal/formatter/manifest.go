package formatter

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ManifestEntry describes one archived history entry.
type ManifestEntry struct {
	ID      string   `json:"id"`
	GroupID string   `json:"groupId"`
	Date    string   `json:"date"`
	Songs   int      `json:"songs"`
	Files   []string `json:"files,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Manifest summarizes an archive run.
type Manifest struct {
	Format    Format          `json:"format"`
	Directory string          `json:"directory"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	CreatedAt time.Time       `json:"createdAt"`
	Entries   []ManifestEntry `json:"entries"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
