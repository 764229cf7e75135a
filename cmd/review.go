package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/playback"
	"github.com/desertthunder/sift/internal/repositories"
	"github.com/desertthunder/sift/internal/review"
	"github.com/desertthunder/sift/internal/shared"
	"github.com/desertthunder/sift/internal/ui"
	"github.com/urfave/cli/v3"
)

// Review launches the interactive review TUI.
func (r *Runner) Review(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	snapshots := repositories.NewSnapshotRepository(db)
	sessions := repositories.NewSessionRepository(db)

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/sift-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	var opened []*review.Engine
	factory := func(collection models.Collection) *review.Engine {
		engine := review.NewEngine(r.spotify, snapshots, collection, review.Options{
			BatchSize:       r.config.Review.BatchSize,
			RefillThreshold: r.config.Review.RefillThreshold,
			Logger:          fileLogger,
		})
		opened = append(opened, engine)
		return engine
	}

	var player playback.Adapter = playback.NewSpotifyAdapter(r.spotify)
	if cmd.Bool("no-playback") {
		player = playback.NopAdapter{}
	}

	model := ui.NewModel(ctx, r.spotify, factory, player)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	r.recordSessions(sessions, snapshots, opened)
	return nil
}

// recordSessions writes one history row per engine that made progress.
func (r *Runner) recordSessions(sessions *repositories.SessionRepository, snapshots *repositories.SnapshotRepository, engines []*review.Engine) {
	for _, engine := range engines {
		stats := engine.Stats()
		if stats.Kept+stats.Discarded == 0 {
			continue
		}

		collection := engine.Collection()
		session := models.NewSession(0, collection.ID, collection.Name, stats.Total)
		session.SetCounts(stats.Kept, stats.Discarded)
		if engine.Exhausted() && stats.Pending == 0 {
			session.Finish()
			// finished collections do not need a resume snapshot
			if err := snapshots.Clear(collection.ID); err != nil {
				r.logger.Warn("failed to clear snapshot", "collection", collection.ID, "error", err)
			}
		}

		if err := sessions.Create(session); err != nil {
			r.logger.Warn("failed to record session", "collection", collection.ID, "error", err)
		}
	}
}

// Progress prints the persisted review state for one or all collections.
func (r *Runner) Progress(ctx context.Context, cmd *cli.Command) error {
	collectionID := cmd.String("id")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	snapshots := repositories.NewSnapshotRepository(db)

	ids := []string{collectionID}
	if collectionID == "" {
		if ids, err = snapshots.List(); err != nil {
			return fmt.Errorf("failed to list snapshots: %w", err)
		}
	}

	if len(ids) == 0 {
		r.writePlain("No reviews in progress.\n")
		return nil
	}

	for _, id := range ids {
		snap, found, err := snapshots.Load(id)
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		if !found {
			r.writePlain("No review in progress for %s\n", id)
			continue
		}

		r.writePlain("Collection: %s\n", id)
		r.writePlain("  Kept: %d\n", len(snap.Kept))
		r.writePlain("  Discarded: %d\n", len(snap.Discarded))
		r.writePlain("  Buffered: %d\n", len(snap.Pending))
		if snap.TotalTracks > 0 {
			percent := float64(snap.LastProcessedOffset) / float64(snap.TotalTracks) * 100
			r.writePlain("  Progress: %d/%d (%.1f%%)\n", snap.LastProcessedOffset, snap.TotalTracks, percent)
		}
		r.writePlain("\n")
	}

	return nil
}

// ResetProgress discards the persisted snapshot for a collection.
func (r *Runner) ResetProgress(ctx context.Context, cmd *cli.Command) error {
	collectionID := cmd.String("id")
	if collectionID == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	snapshots := repositories.NewSnapshotRepository(db)
	if err := snapshots.Clear(collectionID); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	r.writePlain("✓ Review progress cleared for %s\n", collectionID)
	return nil
}
