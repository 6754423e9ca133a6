package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// HistoryList prints the saved lists of the current group, newest save first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	entries, err := ws.session.History(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		r.writePlain("No saved lists for %s\n", ws.session.GroupID())
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Saved lists · %s", ws.session.GroupID()))
	for _, e := range entries {
		r.writePlain("%s  %s  %2d songs  saved %s\n",
			e.ID, e.Date.Format("02/01/2006"), len(e.Items), e.SavedAt.Local().Format("02/01 15:04"))
		if len(e.Items) > 0 {
			r.writePlain("    %s\n", entrySummary(e, 3))
		}
	}
	return nil
}

// HistorySave stores a copy of the working list.
func (r *Runner) HistorySave(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	id, err := ws.session.Save(ctx)
	if err != nil {
		return err
	}

	if err := ws.persist(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Saved %d songs as %s\n", ws.session.Count(), id)
	return nil
}

// HistoryLoad replaces the working list with a saved one.
func (r *Runner) HistoryLoad(ctx context.Context, cmd *cli.Command) error {
	id, err := entryID(cmd)
	if err != nil {
		return err
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if _, err := ws.session.LoadEntry(ctx, id); err != nil {
		return err
	}

	if err := ws.persist(ctx); err != nil {
		return err
	}

	r.printList(ws.session.Snapshot())
	return nil
}

// HistoryDelete removes a saved list. The working list is left alone.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := entryID(cmd)
	if err != nil {
		return err
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.session.DeleteEntry(ctx, id); err != nil {
		return err
	}

	r.writePlain("✓ Deleted %s\n", id)
	return nil
}

// HistoryArchive writes every saved list of the group to its own file and reports progress as it goes.
func (r *Runner) HistoryArchive(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Phase == tasks.ArchiveHistory {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	ws, err := r.openWorkspace(ctx, progress)
	if err != nil {
		close(progress)
		<-done
		return err
	}
	defer ws.Close()

	result, err := ws.session.Archive(ctx, tasks.ArchiveOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progress)
	<-done

	if result == nil {
		return err
	}

	m := result.Manifest
	r.writePlainln("✓ Archived %d of %d lists to %s", m.Succeeded, m.Total, m.Directory)
	for _, e := range m.Entries {
		if e.Error != "" {
			r.writePlain("  ✗ %s (%s): %s\n", e.ID, e.Date, e.Error)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	return err
}

func entryID(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return "", fmt.Errorf("%w: entry id", shared.ErrMissingArgument)
	}
	return id, nil
}

// entrySummary renders the first songs of an entry on one line.
func entrySummary(e models.HistoryEntry, limit int) string {
	titles := make([]string, 0, limit+1)
	for i, song := range e.Items {
		if i == limit {
			titles = append(titles, "…")
			break
		}
		titles = append(titles, song.Display())
	}
	return strings.Join(titles, ", ")
}
