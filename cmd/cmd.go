// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// newApp builds the root command with the global flags shared by every subcommand.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ytlinks",
		Usage:   "Convert spreadsheets of Spotify track links to YouTube links",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to .env file with credentials",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

// convertCommand converts a spreadsheet
func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Add a YouTube link column to a spreadsheet of Spotify links",
		ArgsUsage: "<input.xlsx|input.csv>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "input"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output spreadsheet (.xlsx or .csv); defaults to convert.output",
			},
			&cli.StringFlag{
				Name:  "sheet",
				Usage: "Sheet to read from an .xlsx input (default: first sheet)",
			},
			&cli.StringFlag{
				Name:  "column",
				Usage: "Header of the added column; defaults to convert.column",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Do not read or write the link cache",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show an interactive progress view",
			},
		},
		Action: r.Convert,
	}
}

// resolveCommand looks up a single track
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a Spotify track link to its title and artist",
		ArgsUsage: "<link>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "link"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "search",
				Usage: "Also search for the video link",
			},
		},
		Action: r.Resolve,
	}
}

// searchCommand runs a single video search
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Print the first video link for a query",
		ArgsUsage: "<query>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Action: r.Search,
	}
}

// setupCommand initializes config and database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config file and initialize database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the link cache and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the latest database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// cacheCommand manages the link cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the resolved link cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached links",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only links for this artist",
					},
					&cli.BoolFlag{
						Name:  "missing",
						Usage: "Only tracks without a video link",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of links to list",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached link",
				Action: r.CacheClear,
			},
		},
	}
}
