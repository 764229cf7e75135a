// package formatter renders review-session results for export
package formatter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/shared"
)

// ReviewSummary is the exportable result of a review session.
type ReviewSummary struct {
	Collection  models.Collection `json:"collection"`
	Kept        []models.Track    `json:"kept"`
	Discarded   []models.Track    `json:"discarded"`
	TotalTracks int               `json:"total_tracks"`
	ExportedAt  time.Time         `json:"exported_at"`
}

// NewReviewSummary builds a summary for the given collection and accumulators.
func NewReviewSummary(collection models.Collection, kept, discarded []models.Track, total int) *ReviewSummary {
	return &ReviewSummary{
		Collection:  collection,
		Kept:        kept,
		Discarded:   discarded,
		TotalTracks: total,
		ExportedAt:  time.Now(),
	}
}

// WriteJSONSummary writes the summary as pretty-printed JSON to the given path.
func WriteJSONSummary(summary *ReviewSummary, path string) error {
	data, err := shared.MarshalJSON(summary, true)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}

// WriteCSVSummary writes the summary as CSV, one row per decided track.
//
// Columns: decision, track id, name, artists, album, duration (seconds).
func WriteCSVSummary(summary *ReviewSummary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"decision", "id", "name", "artists", "album", "duration_seconds"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	writeRows := func(decision string, tracks []models.Track) error {
		for _, track := range tracks {
			row := []string{
				decision,
				track.ID,
				track.Name,
				track.ArtistLine(),
				track.Album,
				strconv.Itoa(track.DurationMS / 1000),
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
		return nil
	}

	if err := writeRows("kept", summary.Kept); err != nil {
		return err
	}
	if err := writeRows("discarded", summary.Discarded); err != nil {
		return err
	}

	return w.Error()
}

// WriteSummary writes the summary in the requested format ("json" or "csv").
func WriteSummary(summary *ReviewSummary, format, path string) error {
	switch format {
	case "csv":
		return WriteCSVSummary(summary, path)
	case "json", "":
		return WriteJSONSummary(summary, path)
	default:
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}
