package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
)

// ArchiveOpts configures [Session.Archive].
type ArchiveOpts struct {
	Format     formatter.Format // Export format (default: txt)
	OutputDir  string           // Base output directory (default: setlist_archive_{epoch})
	NumWorkers int              // Concurrent writers (default: 4, max: 8)
}

// ArchiveResult summarizes an archive run.
type ArchiveResult struct {
	Manifest     formatter.Manifest
	ManifestPath string
}

type archiveJob struct {
	step  int
	entry models.HistoryEntry
}

// Archive writes every saved entry of the current group to its own file under opts.OutputDir, plus a
// manifest. Individual write failures are recorded in the manifest and do not stop the run.
func (s *Session) Archive(ctx context.Context, opts ArchiveOpts) (*ArchiveResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatText
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("setlist_archive_%d", s.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	entries, err := s.History(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jobs := make(chan archiveJob, len(entries))
	results := make(chan formatter.ManifestEntry, len(entries))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go s.archiveWorker(ctx, &wg, jobs, results, opts)
	}

	for i, e := range entries {
		jobs <- archiveJob{step: i + 1, entry: e}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	manifest := formatter.Manifest{
		Format:    opts.Format,
		Directory: opts.OutputDir,
		Total:     len(entries),
		CreatedAt: s.now(),
		Entries:   make([]formatter.ManifestEntry, 0, len(entries)),
	}

	for res := range results {
		manifest.Entries = append(manifest.Entries, res)
		if res.Error == "" {
			manifest.Succeeded++
		} else {
			manifest.Failed++
		}
	}
	slices.SortStableFunc(manifest.Entries, func(a, b formatter.ManifestEntry) int {
		return cmp.Or(strings.Compare(b.Date, a.Date), strings.Compare(a.ID, b.ID))
	})

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	result := &ArchiveResult{Manifest: manifest}
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return result, fmt.Errorf("archive completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	s.logger.Info("archived history", "dir", opts.OutputDir, "entries", manifest.Total, "failed", manifest.Failed)
	return result, nil
}

// archiveWorker writes entries from the jobs channel until it closes or ctx is done.
func (s *Session) archiveWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan archiveJob,
	results chan<- formatter.ManifestEntry,
	opts ArchiveOpts,
) {
	defer wg.Done()

	for job := range jobs {
		e := job.entry
		res := formatter.ManifestEntry{
			ID:      e.ID,
			GroupID: e.GroupID,
			Date:    models.FormatDate(e.Date),
			Songs:   len(e.Items),
		}

		if err := ctx.Err(); err != nil {
			res.Error = err.Error()
			results <- res
			continue
		}

		snap := models.PlaylistSnapshot{GroupID: e.GroupID, Date: e.Date, Items: e.Items, UpdatedAt: e.SavedAt}
		name := fmt.Sprintf("%s_%s.%s", models.FormatDate(e.Date), e.ID, opts.Format.Extension())
		path, err := formatter.WriteExport(snap, opts.Format, filepath.Join(opts.OutputDir, name))
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Files = []string{path}
		}

		results <- res
		s.sendProgress(archiveUpdate(job.step, cap(results), e, err))
	}
}
