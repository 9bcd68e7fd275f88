// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func renderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "theme",
			Aliases: []string{"t"},
			Usage:   "Theme name or colour, or \"auto\" to match the cover (default from config)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Export format: png, html, md, txt or json",
			Value:   "png",
		},
		&cli.StringFlag{
			Name:  "signature",
			Usage: "Footer text printed on the card",
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the Yoto session.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Yoto session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with the browser (OAuth2 PKCE)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening it",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget stored tokens",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether a session is stored and usable",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:  "token",
				Usage: "Print a valid access token, refreshing it if needed",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reveal",
						Usage: "Print the full token instead of a redacted one",
					},
				},
				Action: r.AuthToken,
			},
		},
	}
}

// playlistsCommand handles playlist browsing.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Browse Yoto playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your playlists",
				Flags: append(jsonFlags(), &cli.IntFlag{
					Name:  "limit",
					Usage: "Maximum number of playlists to show (0 for all)",
				}),
				Action: r.PlaylistsList,
			},
			{
				Name:  "show",
				Usage: "Show a playlist with its tracks",
				Flags: append(jsonFlags(), &cli.StringFlag{
					Name:     "id",
					Usage:    "Playlist (card) ID",
					Required: true,
				}),
				Action: r.PlaylistsShow,
			},
		},
	}
}

// cardCommand handles card generation.
func cardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "card",
		Usage: "Generate shareable playlist cards",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate the card of one playlist",
				Flags: append(renderFlags(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist (card) ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: yotoshare-<title>.<ext> in the configured output_dir)",
					},
				),
				Action: r.CardGenerate,
			},
			{
				Name:  "preview",
				Usage: "Print a text preview of a card without writing a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist (card) ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "theme",
						Aliases: []string{"t"},
						Usage:   "Theme name or colour, or \"auto\"",
					},
				},
				Action: r.CardPreview,
			},
			{
				Name:  "bulk",
				Usage: "Generate cards for many playlists concurrently",
				Flags: append(renderFlags(),
					&cli.StringSliceFlag{
						Name:  "ids",
						Usage: "Playlist IDs (repeat or comma-separate)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Generate every playlist of the account",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: yotoshare_export_<epoch>)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent renderers (max 10)",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Playlist fetches per second",
						Value: 5,
					},
				),
				Action: r.CardBulk,
			},
			{
				Name:   "themes",
				Usage:  "List the preset themes",
				Flags:  jsonFlags(),
				Action: r.CardThemes,
			},
			{
				Name:  "history",
				Usage: "List recorded exports, newest first",
				Flags: append(jsonFlags(),
					&cli.StringFlag{
						Name:  "id",
						Usage: "Only exports of this playlist",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Only exports in this format",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records",
						Value: 20,
					},
				),
				Action: r.CardHistory,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the Yoto API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Authenticated GET, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive card generator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "./tmp/yotoshare-tui.log",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format used by the TUI",
				Value:   "png",
			},
		},
		Action: r.TUI,
	}
}
