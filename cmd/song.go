package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/urfave/cli/v3"
)

type customSongOutput struct {
	ID      string      `json:"id"`
	GroupID string      `json:"groupId"`
	Song    models.Song `json:"song"`
}

// SongAdd creates a custom song for the current group. It becomes searchable with origin "custom".
func (r *Runner) SongAdd(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	song := models.NewCustomSong(ws.session.GroupID(), cmd.String("number"), cmd.String("title"), cmd.String("lyrics"))
	if err := ws.songs.Create(song); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	r.logger.Info("created custom song", "id", song.ID(), "group", song.GroupID())
	r.writePlain("✓ Created %s (%s)\n", song.Song().Display(), song.ID())
	return nil
}

// SongEdit updates the flags that were given on a custom song.
func (r *Runner) SongEdit(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	song, err := ws.songs.Get(id)
	if err != nil {
		return err
	}

	if cmd.IsSet("title") {
		song.SetTitle(cmd.String("title"))
	}
	if cmd.IsSet("number") {
		song.SetNumber(cmd.String("number"))
	}
	if cmd.IsSet("lyrics") {
		song.SetLyrics(cmd.String("lyrics"))
	}

	if err := ws.songs.Update(song); err != nil {
		return err
	}

	r.writePlain("✓ Updated %s\n", song.Song().Display())
	return nil
}

// SongList prints the custom songs of the current group.
func (r *Runner) SongList(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	groupID := ws.session.GroupID()
	songs, err := ws.songs.List(map[string]any{"group_id": groupID})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]customSongOutput, 0, len(songs))
		for _, s := range songs {
			out = append(out, customSongOutput{ID: s.ID(), GroupID: s.GroupID(), Song: s.Song()})
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		r.writePlain("No custom songs for %s\n", groupID)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Custom songs · %s", groupID))
	for _, s := range songs {
		r.writePlain("%s  %s\n", s.ID(), s.Song().Display())
	}
	return nil
}

// SongDelete removes a custom song. Lists that already contain it keep their copy.
func (r *Runner) SongDelete(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.songs.Delete(id); err != nil {
		return err
	}

	r.writePlain("✓ Deleted custom song %s\n", id)
	return nil
}
