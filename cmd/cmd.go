// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// jsonFlags are shared by every command that can print raw JSON.
func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// catalogCommand handles hymnal lookups
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"cat"},
		Usage:   "Search the hymnal collections",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search songs by number or title",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:    "fuzzy",
						Aliases: []string{"f"},
						Usage:   "Rank titles by fuzzy match instead of substring",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (default: catalog.search_limit)",
					},
				}, jsonFlags()...),
				Action: r.CatalogSearch,
			},
		},
	}
}

// listCommand edits the working list
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Edit the working song list",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the working list",
				Flags:  jsonFlags(),
				Action: r.ListShow,
			},
			{
				Name:  "new",
				Usage: "Start an empty list",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "date",
						Aliases: []string{"d"},
						Usage:   "Service date as YYYY-MM-DD (default: today)",
					},
					&cli.StringFlag{
						Name:    "group",
						Aliases: []string{"g"},
						Usage:   "Congregation the list belongs to (default: playlist.group)",
					},
				},
				Action: r.ListNew,
			},
			{
				Name:  "add",
				Usage: "Add a catalog song by number (or title for loose songs)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ref"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "origin",
						Aliases: []string{"o"},
						Usage:   "Collection: congregacao, criancas, avulsos or custom",
						Value:   "congregacao",
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Add recently sung songs without asking",
					},
				},
				Action: r.ListAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove the song at a 1-based position",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "position"},
				},
				Action: r.ListRemove,
			},
			{
				Name:  "move",
				Usage: "Move a song from one 1-based position to another",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "from"},
					&cli.IntArg{Name: "to"},
				},
				Action: r.ListMove,
			},
			{
				Name:  "date",
				Usage: "Change the service date of the working list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "date"},
				},
				Action: r.ListDate,
			},
			{
				Name:   "clear",
				Usage:  "Remove every song from the working list",
				Action: r.ListClear,
			},
		},
	}
}

// historyCommand manages saved lists
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Save, browse and restore saved lists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved lists of the current group, newest first",
				Flags:  jsonFlags(),
				Action: r.HistoryList,
			},
			{
				Name:   "save",
				Usage:  "Save the working list",
				Action: r.HistorySave,
			},
			{
				Name:  "load",
				Usage: "Replace the working list with a saved one",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryLoad,
			},
			{
				Name:  "delete",
				Usage: "Delete a saved list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryDelete,
			},
			{
				Name:  "archive",
				Usage: "Export every saved list of the group to files, with a manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: txt, markdown, csv, lyrics or json",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: setlist_archive_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers",
						Value: 4,
					},
				},
				Action: r.HistoryArchive,
			},
		},
	}
}

// exportCommand renders the working list for sharing
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Render the working list as text, Markdown, CSV, lyrics or JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: txt, markdown, csv, lyrics or json",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file; a directory gets the default file name",
			},
			&cli.BoolFlag{
				Name:  "copy",
				Usage: "Copy the rendered list to the clipboard",
			},
		},
		Action: r.Export,
	}
}

// songCommand manages custom songs
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "song",
		Usage: "Manage custom songs of the current group",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a custom song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Song title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "number",
						Aliases: []string{"n"},
						Usage:   "Optional number",
					},
					&cli.StringFlag{
						Name:  "lyrics",
						Usage: "Lyrics text",
					},
				},
				Action: r.SongAdd,
			},
			{
				Name:  "edit",
				Usage: "Change a custom song; omitted flags keep their value",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Song title",
					},
					&cli.StringFlag{
						Name:    "number",
						Aliases: []string{"n"},
						Usage:   "Number",
					},
					&cli.StringFlag{
						Name:  "lyrics",
						Usage: "Lyrics text",
					},
				},
				Action: r.SongEdit,
			},
			{
				Name:   "list",
				Usage:  "List custom songs",
				Flags:  jsonFlags(),
				Action: r.SongList,
			},
			{
				Name:  "delete",
				Usage: "Delete a custom song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SongDelete,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive list building.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive list builder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI runs",
				Value: "./tmp/setlist-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the list builder over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (default: server.port)",
			},
		},
		Action: r.Serve,
	}
}
