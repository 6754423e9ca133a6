package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/setlist/internal/catalog"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/urfave/cli/v3"
)

type searchOutput struct {
	Query string        `json:"query"`
	Total int           `json:"total"`
	Songs []models.Song `json:"songs"`
}

// CatalogSearch searches the hymnals and the group's custom songs.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		limit = r.config.Catalog.SearchLimit
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := r.loadCatalog(ctx, ws); err != nil {
		return err
	}

	search := ws.session.Search
	if cmd.Bool("fuzzy") {
		search = ws.session.FuzzySearch
	}

	res, err := search(query, limit)
	if err != nil {
		return err
	}
	r.logger.Debug("searched catalog", "query", query, "fuzzy", cmd.Bool("fuzzy"), "total", res.Total)

	if cmd.Bool("json") {
		return r.writeJSON(searchOutput{Query: query, Total: res.Total, Songs: res.Songs}, cmd.Bool("pretty"))
	}

	r.printSearch(query, res)
	return nil
}

func (r *Runner) printSearch(query string, res catalog.Result) {
	if len(res.Songs) == 0 {
		r.writePlain("No songs match %q\n", query)
		return
	}

	for _, song := range res.Songs {
		r.writePlain("  %-14s %s\n", song.Origin.Label(), song.Display())
	}

	if res.Truncated() {
		r.writePlainln("Showing %d of %d matches, refine the query to see the rest.", len(res.Songs), res.Total)
	}
}
