package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sift/internal/formatter"
	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/repositories"
	"github.com/desertthunder/sift/internal/shared"
	"github.com/urfave/cli/v3"
)

// Export writes the kept and discarded tracks of a reviewed collection to a file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	collectionID := cmd.String("id")
	format := cmd.String("format")
	outputFile := cmd.String("output")

	if collectionID == "" {
		return fmt.Errorf("%w: --id flag is required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	snapshots := repositories.NewSnapshotRepository(db)
	snap, found, err := snapshots.Load(collectionID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: no review recorded for %s", shared.ErrCollectionNotFound, collectionID)
	}

	collection := models.Collection{ID: collectionID, TrackCount: snap.TotalTracks}
	if collectionID == models.LikedSongsID {
		collection = models.LikedSongs()
		collection.TrackCount = snap.TotalTracks
	} else if r.spotify != nil {
		if remote, err := r.spotify.GetCollection(ctx, collectionID); err == nil {
			collection = *remote
		} else {
			r.logger.Warn("failed to resolve collection name", "error", err)
			collection.Name = collectionID
		}
	} else {
		collection.Name = collectionID
	}

	if outputFile == "" {
		ext := "json"
		if format == "csv" {
			ext = "csv"
		}
		outputFile = fmt.Sprintf("sift_%s.%s", collectionID, ext)
	}

	summary := formatter.NewReviewSummary(collection, snap.Kept, snap.Discarded, snap.TotalTracks)
	if err := formatter.WriteSummary(summary, format, outputFile); err != nil {
		return err
	}

	r.writePlain("✓ Review exported to %s\n", outputFile)
	r.writePlain("  Collection: %s\n", collection.Name)
	r.writePlain("  Kept: %d\n", len(snap.Kept))
	r.writePlain("  Discarded: %d\n", len(snap.Discarded))

	return nil
}
