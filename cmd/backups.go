package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"curator/internal/formatter"
	"curator/internal/guard"
	"curator/internal/shared"
)

// BackupsList prints recorded backups, newest first.
func (r *Runner) BackupsList(ctx context.Context, cmd *cli.Command) error {
	d, err := r.connect(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	store := guard.NewSQLStore(d.db)
	records, err := store.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.BackupsTable(records))
}

// BackupsShow prints one backup record with its full track listing.
func (r *Runner) BackupsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: backup id is required", shared.ErrMissingArgument)
	}

	d, err := r.connect(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	store := guard.NewSQLStore(d.db)
	record, err := store.Get(id)
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.BackupDetail(record))
}

// BackupsRestore re-creates a playlist from a backup record. The restored
// playlist is a fresh one; nothing existing is overwritten.
func (r *Runner) BackupsRestore(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: backup id is required", shared.ErrMissingArgument)
	}

	d, err := r.connect(ctx, true)
	if err != nil {
		return err
	}
	defer d.close()

	playlistID, err := d.guard.Restore(ctx, id)
	if err != nil {
		return err
	}

	return r.writePlainln("Restored backup %s to new playlist %s", id, playlistID)
}
