package main

import (
	"context"
	"strings"

	"github.com/desertthunder/setlist/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve loads the catalog and serves the working list over HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := strings.TrimSpace(cmd.String("host")); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := r.loadCatalog(ctx, ws); err != nil {
		return err
	}

	r.logger.Info("serving", "addr", cfg.Addr(), "group", ws.session.GroupID(), "history", r.config.History.Backend)
	return server.New(cfg, ws.session, r.logger).Run(ctx)
}
