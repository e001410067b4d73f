// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand runs the OAuth flow and caches the resulting token.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Run the browser authorization flow",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check whether a cached token works",
				Action: r.AuthStatus,
			},
		},
	}
}

// snapshotCommand manages the local library snapshot.
func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Manage the local library snapshot",
		Commands: []*cli.Command{
			{
				Name:   "refresh",
				Usage:  "Re-fetch liked songs from Spotify into the local store",
				Action: r.SnapshotRefresh,
			},
			{
				Name:  "history",
				Usage: "Manage listening-history selectors",
				Commands: []*cli.Command{
					{
						Name:      "import",
						Usage:     "Import streaming history export files (extended format)",
						ArgsUsage: "<export.json>...",
						Action:    r.HistoryImport,
					},
				},
			},
		},
	}
}

// planCommand computes and prints the target roster without mutating anything.
func planCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Show the playlist roster a sync would produce (dry run)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the plan as JSON",
			},
		},
		Action: r.Plan,
	}
}

// syncCommand runs one full reconciliation pass.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile remote playlists against the computed plan",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Run interactively with a terminal UI",
			},
		},
		Action: r.Sync,
	}
}

// backupsCommand inspects backup records taken before destructive operations.
func backupsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backups",
		Usage: "Inspect playlist backups",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded backups, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of backups to show",
						Value: 20,
					},
				},
				Action: r.BackupsList,
			},
			{
				Name:      "show",
				Usage:     "Show one backup with its full track listing",
				ArgsUsage: "<backup-id>",
				Action:    r.BackupsShow,
			},
			{
				Name:      "restore",
				Usage:     "Re-create a playlist from a backup record",
				ArgsUsage: "<backup-id>",
				Action:    r.BackupsRestore,
			},
		},
	}
}
