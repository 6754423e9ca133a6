package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/urfave/cli/v3"
)

// Export renders the working list. Without --output or --copy it goes to stdout.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ws, err := r.openWorkspace(ctx, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	snap := ws.session.Snapshot()
	output := cmd.String("output")
	toClipboard := cmd.Bool("copy")

	if output != "" {
		if info, err := os.Stat(output); err == nil && info.IsDir() {
			output = filepath.Join(output, formatter.DefaultFilename(snap, format))
		}

		path, err := formatter.WriteExport(snap, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("exported list", "format", format, "path", path, "songs", len(snap.Items))
		r.writePlain("✓ Exported to %s\n", path)
	}

	if toClipboard {
		data, err := formatter.Export(snap, format)
		if err != nil {
			return err
		}
		if err := r.copyText(string(data)); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		r.writePlain("✓ Copied %d songs to the clipboard\n", len(snap.Items))
	}

	if output == "" && !toClipboard {
		data, err := formatter.Export(snap, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	return nil
}
