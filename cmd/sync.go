package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"curator/internal/catalog"
	"curator/internal/formatter"
	"curator/internal/shared"
	"curator/internal/tasks"
)

// SnapshotRefresh re-fetches the liked library from Spotify and stores it.
func (r *Runner) SnapshotRefresh(ctx context.Context, cmd *cli.Command) error {
	d, err := r.connect(ctx, true)
	if err != nil {
		return err
	}
	defer d.close()

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progress)

	count, err := d.engine.RefreshSnapshot(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	return r.writePlain("✓ Snapshot refreshed: %d tracks\n", count)
}

// HistoryImport loads streaming history export files and derives the
// monthly most-played and discovery selectors from them.
func (r *Runner) HistoryImport(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one export file is required", shared.ErrMissingArgument)
	}

	d, err := r.connect(ctx, false)
	if err != nil {
		return err
	}
	defer d.close()

	var events []catalog.PlayEvent
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		parsed, err := catalog.ParseStreamingHistory(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		events = append(events, parsed...)
	}

	months, err := d.store.ImportHistory(events)
	if err != nil {
		return err
	}

	return r.writePlain("✓ History imported: %d plays across %d months\n", len(events), months)
}

// Plan computes and prints the target roster without touching Spotify
// playlists. The platform is still needed when the local snapshot is empty.
func (r *Runner) Plan(ctx context.Context, cmd *cli.Command) error {
	d, err := r.connect(ctx, true)
	if err != nil {
		return err
	}
	defer d.close()

	plan, err := d.engine.Plan(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(plan, true)
	}

	return r.writePlain("%s", formatter.PlanTable(plan))
}

// Sync runs one full reconciliation pass against Spotify.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("tui") {
		return r.TUI(ctx, cmd)
	}

	d, err := r.connect(ctx, true)
	if err != nil {
		return err
	}
	defer d.close()

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progress)

	report, err := d.engine.RunSync(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("%s", formatter.ReportTable(report))

	if report.HasFailures() {
		return fmt.Errorf("sync finished with failures")
	}
	return nil
}

// drainProgress logs progress updates until the channel closes.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()
	return done
}
