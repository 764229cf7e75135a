package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/shared"
	"github.com/urfave/cli/v3"
)

// Collections lists the user's collections with the liked-songs library first.
func (r *Runner) Collections(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	if err := r.requireSpotify(); err != nil {
		return err
	}

	r.logger.Infof("listing collections with limit %v", limit)

	collections, err := r.spotify.UserCollections(ctx)
	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if collections, err = r.spotify.UserCollections(ctx); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if limit > 0 && int(limit) < len(collections) {
		collections = collections[:limit]
	}

	if save {
		saveFile := "sift_collections.json"
		data, err := shared.MarshalJSON(collections, true)
		if err != nil {
			return fmt.Errorf("failed to marshal collections: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save collections", "error", err)
		} else {
			r.logger.Info("collections saved", "file", saveFile)
		}
	}

	if useJSON {
		return r.writeJSON(collections, pretty)
	}

	r.writePlain("Found %d collections:\n\n", len(collections))
	for i, c := range collections {
		r.writePlain("%d. %s\n", i+1, c.Name)
		r.writePlain("   ID: %s\n", c.ID)
		r.writePlain("   Tracks: %d\n", c.TrackCount)
		if c.Kind == models.KindLiked {
			r.writePlain("   Kind: Liked Songs\n")
		}
		r.writePlain("\n")
	}

	return nil
}
