package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/shared"
)

func sampleSummary() *ReviewSummary {
	collection := models.Collection{ID: "pl1", Name: "Road Trip", TrackCount: 3, Kind: models.KindOrdinary}
	kept := []models.Track{
		{ID: "t1", Name: "Opener", Artists: []string{"Band A"}, Album: "First", DurationMS: 185000},
		{ID: "t2", Name: "Closer", Artists: []string{"Band A", "Band B"}, Album: "First", DurationMS: 240500},
	}
	discarded := []models.Track{
		{ID: "t3", Name: "Filler", Artists: []string{"Band C"}, Album: "Second", DurationMS: 90000},
	}
	return NewReviewSummary(collection, kept, discarded, 3)
}

func TestFormatter(t *testing.T) {
	t.Run("NewReviewSummary", func(t *testing.T) {
		summary := sampleSummary()

		if summary.Collection.ID != "pl1" {
			t.Errorf("expected collection pl1, got %s", summary.Collection.ID)
		}
		if len(summary.Kept) != 2 || len(summary.Discarded) != 1 {
			t.Errorf("expected 2 kept and 1 discarded, got %d and %d", len(summary.Kept), len(summary.Discarded))
		}
		if summary.TotalTracks != 3 {
			t.Errorf("expected total 3, got %d", summary.TotalTracks)
		}
		if summary.ExportedAt.IsZero() {
			t.Error("expected ExportedAt to be set")
		}
	})

	t.Run("WriteJSONSummary", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "summary.json")

		if err := WriteJSONSummary(sampleSummary(), path); err != nil {
			t.Fatalf("failed to write JSON summary: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read summary file: %v", err)
		}

		var decoded ReviewSummary
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("summary is not valid JSON: %v", err)
		}

		if decoded.Collection.Name != "Road Trip" {
			t.Errorf("expected collection name Road Trip, got %s", decoded.Collection.Name)
		}
		if len(decoded.Kept) != 2 {
			t.Errorf("expected 2 kept tracks, got %d", len(decoded.Kept))
		}
		if decoded.Discarded[0].ID != "t3" {
			t.Errorf("expected discarded track t3, got %s", decoded.Discarded[0].ID)
		}
	})

	t.Run("WriteCSVSummary", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "summary.csv")

		if err := WriteCSVSummary(sampleSummary(), path); err != nil {
			t.Fatalf("failed to write CSV summary: %v", err)
		}

		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("failed to open summary file: %v", err)
		}
		defer f.Close()

		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV: %v", err)
		}

		if len(rows) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d rows", len(rows))
		}

		if rows[0][0] != "decision" || rows[0][5] != "duration_seconds" {
			t.Errorf("unexpected header row: %v", rows[0])
		}

		t.Run("Kept Rows Come First", func(t *testing.T) {
			if rows[1][0] != "kept" || rows[1][1] != "t1" {
				t.Errorf("expected first row kept/t1, got %v", rows[1])
			}
			if rows[3][0] != "discarded" || rows[3][1] != "t3" {
				t.Errorf("expected last row discarded/t3, got %v", rows[3])
			}
		})

		t.Run("Joins Artists And Converts Duration", func(t *testing.T) {
			if rows[2][3] != "Band A, Band B" {
				t.Errorf("expected joined artists, got %q", rows[2][3])
			}
			if rows[2][5] != "240" {
				t.Errorf("expected 240 seconds, got %q", rows[2][5])
			}
		})
	})

	t.Run("WriteSummary", func(t *testing.T) {
		dir := t.TempDir()

		t.Run("Defaults To JSON", func(t *testing.T) {
			path := filepath.Join(dir, "default.out")
			if err := WriteSummary(sampleSummary(), "", path); err != nil {
				t.Fatalf("failed to write summary: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read summary file: %v", err)
			}
			if !json.Valid(data) {
				t.Error("expected valid JSON output for empty format")
			}
		})

		t.Run("Rejects Unknown Formats", func(t *testing.T) {
			err := WriteSummary(sampleSummary(), "xml", filepath.Join(dir, "bad.out"))
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}
