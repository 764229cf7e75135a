package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sift/internal/repositories"
	"github.com/urfave/cli/v3"
)

// History lists past review sessions, most recent first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	collectionID := cmd.String("id")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := repositories.NewSessionRepository(db)

	criteria := map[string]any{}
	if collectionID != "" {
		criteria["collection_id"] = collectionID
	}

	records, err := sessions.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if useJSON {
		return r.writeJSON(records, pretty)
	}

	if len(records) == 0 {
		r.writePlain("No review sessions recorded.\n")
		return nil
	}

	r.writePlain("Found %d sessions:\n\n", len(records))
	for _, session := range records {
		r.writePlain("#%d %s\n", session.Sequence(), session.CollectionName())
		r.writePlain("   Started: %s\n", session.StartedAt().Format("2006-01-02 15:04"))
		if finished := session.FinishedAt(); finished != nil {
			r.writePlain("   Finished: %s\n", finished.Format("2006-01-02 15:04"))
		} else {
			r.writePlain("   Finished: in progress\n")
		}
		r.writePlain("   Kept: %d, Discarded: %d of %d tracks\n\n", session.Kept(), session.Discarded(), session.Total())
	}

	return nil
}
