package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/playlist"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// listOutput is the JSON shape of the working list.
type listOutput struct {
	GroupID string        `json:"groupId"`
	Date    string        `json:"date"`
	Dirty   bool          `json:"dirty"`
	Items   []models.Song `json:"items"`
}

// ListShow prints the working list.
func (r *Runner) ListShow(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	snap := ws.session.Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(listOutput{
			GroupID: snap.GroupID,
			Date:    models.FormatDate(snap.Date),
			Dirty:   snap.Dirty,
			Items:   snap.Items,
		}, cmd.Bool("pretty"))
	}

	r.printList(snap)
	return nil
}

// ListNew starts an empty list, optionally for another date or group.
func (r *Runner) ListNew(ctx context.Context, cmd *cli.Command) error {
	date, err := r.parseDate(cmd.String("date"))
	if err != nil {
		return err
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if prev := ws.session.Snapshot(); prev.Dirty && len(prev.Items) > 0 {
		r.logger.Warn("discarding unsaved list", "group", prev.GroupID, "date", models.FormatDate(prev.Date), "songs", len(prev.Items))
	}

	ws.session.NewList(date)
	if group := strings.TrimSpace(cmd.String("group")); group != "" {
		ws.session.SetGroup(group)
	}

	if err := ws.persist(ctx); err != nil {
		return err
	}

	r.writePlain("✓ New list for %s on %s\n", ws.session.GroupID(), models.FormatDate(ws.session.Date()))
	return nil
}

// ListAdd looks a song up in the catalog and adds it, asking first when it was sung recently.
func (r *Runner) ListAdd(ctx context.Context, cmd *cli.Command) error {
	ref := strings.TrimSpace(cmd.StringArg("ref"))
	if ref == "" {
		return fmt.Errorf("%w: song number or title", shared.ErrMissingArgument)
	}

	origin, err := models.ParseOrigin(cmd.String("origin"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := r.loadCatalog(ctx, ws); err != nil {
		return err
	}

	song, err := ws.session.Find(origin, ref)
	if err != nil {
		return err
	}

	pending, err := ws.session.Prepare(ctx, song)
	if err != nil {
		return err
	}
	if pending.RecencyErr != nil {
		r.writePlain("! Could not check recent lists: %v\n", pending.RecencyErr)
	}

	if err := ws.session.Commit(pending, r.confirm(cmd.Bool("yes"))); err != nil {
		if errors.Is(err, playlist.ErrRecencyDeclined) {
			r.writePlain("Skipped %s\n", song.Display())
			return nil
		}
		return err
	}

	if err := ws.persist(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Added %s at position %d\n", song.Display(), ws.session.Count())
	return nil
}

// ListRemove drops the song at a 1-based position.
func (r *Runner) ListRemove(ctx context.Context, cmd *cli.Command) error {
	pos, err := position(cmd.IntArg("position"))
	if err != nil {
		return err
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	song, err := ws.session.Remove(pos)
	if err != nil {
		return err
	}

	if err := ws.persist(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Removed %s\n", song.Display())
	return nil
}

// ListMove reorders the list; positions are 1-based and the song lands at "to".
func (r *Runner) ListMove(ctx context.Context, cmd *cli.Command) error {
	from, err := position(cmd.IntArg("from"))
	if err != nil {
		return err
	}
	to, err := position(cmd.IntArg("to"))
	if err != nil {
		return err
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.session.Move(from, to); err != nil {
		return err
	}

	if err := ws.persist(ctx); err != nil {
		return err
	}

	r.printList(ws.session.Snapshot())
	return nil
}

// ListDate changes the service date of the working list.
func (r *Runner) ListDate(ctx context.Context, cmd *cli.Command) error {
	raw := strings.TrimSpace(cmd.StringArg("date"))
	if raw == "" {
		return fmt.Errorf("%w: date", shared.ErrMissingArgument)
	}
	date, err := r.parseDate(raw)
	if err != nil {
		return err
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ws.session.SetDate(date)
	if err := ws.persist(ctx); err != nil {
		return err
	}

	r.writePlain("✓ List date set to %s\n", models.FormatDate(date))
	return nil
}

// ListClear empties the working list.
func (r *Runner) ListClear(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	removed := ws.session.Count()
	ws.session.Clear()
	if err := ws.persist(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Cleared %d songs\n", removed)
	return nil
}

func (r *Runner) printList(snap models.PlaylistSnapshot) {
	title := fmt.Sprintf("%s · %s", snap.GroupID, snap.Date.Format("02/01/2006"))
	if snap.Dirty {
		title += " (unsaved)"
	}
	r.writePlainHeader(title)

	if len(snap.Items) == 0 {
		r.writePlain("(empty)\n")
		return
	}
	for i, song := range snap.Items {
		r.writePlain("%2d. %s (%s)\n", i+1, song.Display(), song.Origin.Label())
	}
}

// parseDate reads a YYYY-MM-DD service date; blank means today.
func (r *Runner) parseDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return models.DateOf(r.now()), nil
	}
	date, err := models.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	return date, nil
}

// position converts a 1-based CLI position to a list index.
func position(n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: positions start at 1, got %d", shared.ErrInvalidArgument, n)
	}
	return n - 1, nil
}
