// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/sptx/internal/shared"
	"github.com/urfave/cli/v3"
)

// newApp builds the root command. Running it without a subcommand starts the interface.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "sptx",
		Usage:   "Browse and control Spotify playback from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   shared.DefaultConfigPath(),
			},
		},
		Before:   r.Load,
		Action:   r.TUI,
		Commands: r.register(),
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
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

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify credentials",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in through the browser (OAuth2 authorization code flow)",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultLoginTimeout,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored credential",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the stored credential",
				Action: r.AuthLogout,
			},
		},
	}
}

func playbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playback",
		Aliases: []string{"p"},
		Usage:   "Control playback without the interface",
		Commands: []*cli.Command{
			{
				Name:   "play",
				Usage:  "Resume playback, on the preferred device when none is active",
				Action: r.PlaybackPlay,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Action: r.PlaybackPause,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Action: r.PlaybackNext,
			},
			{
				Name:   "prev",
				Usage:  "Skip to the previous track",
				Action: r.PlaybackPrevious,
			},
			{
				Name:  "status",
				Usage: "Show what is playing",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PlaybackStatus,
			},
			{
				Name:  "devices",
				Usage: "List available devices",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PlaybackDevices,
			},
			{
				Name:  "transfer",
				Usage: "Move playback to a device, by id or name, and remember it",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "device"},
				},
				Action: r.PlaybackTransfer,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Start the interactive interface (the default)",
		Action: r.TUI,
	}
}
