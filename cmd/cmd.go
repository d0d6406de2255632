// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand creates the config file and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing, initialize the database and run migrations",
		Action: r.Setup,
	}
}

// searchCommand resolves a playlist and prints its match table.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Resolve a playlist link and list the candidate videos per track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "link"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the resolved playlist as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "List every candidate, not only the selected one",
			},
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"e"},
				Usage:   "Also write the match table in this format (csv, md, txt, json)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export file path (default: {playlist}_tracks.{format})",
			},
		},
		Action: r.Search,
	}
}

// downloadCommand resolves a playlist and saves the archive of the selected candidates.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Resolve a playlist link and download the selected candidates as one archive",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "link"},
		},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "select",
				Aliases: []string{"s"},
				Usage:   "Choose a candidate for a track as TRACK_ID=INDEX (0-based, repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "remove",
				Aliases: []string{"r"},
				Usage:   "Leave a track out of the archive by id (repeatable)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory to save the archive in (default: download.output_dir)",
			},
		},
		Action: r.Download,
	}
}

// exportCommand writes match tables for many playlists.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Resolve several playlist links and write one match table per playlist",
		ArgsUsage: "[link...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read links from a file, one per line",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format (csv, md, txt, json)",
				Value: "md",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: plzip_export_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent searches",
				Value: 3,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Searches per second",
				Value: 1,
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the relay HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API relaying search and download to the external service",
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

// historyCommand manages the download history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show saved archives",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of entries",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Only show downloads of this playlist",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.HistoryList,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show one download",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryShow,
			},
			{
				Name:    "rm",
				Aliases: []string{"delete"},
				Usage:   "Remove a download from the history (the archive is kept)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryDelete,
			},
			{
				Name:  "reset",
				Usage: "Drop and recreate the history database schema",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Confirm that every history entry will be lost",
					},
				},
				Action: r.HistoryReset,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist downloads.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for searching, picking and downloading",
		Action:  r.TUI,
	}
}
