package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/sift/internal/review"
)

// SnapshotRepository persists review queue snapshots, one row per collection.
//
// Implements the review engine's Store contract. The queue state is stored as
// a JSON payload keyed by collection identifier; saves upsert, so every
// mutation overwrites the previous snapshot atomically.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new [SnapshotRepository] with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the snapshot for a collection.
func (r *SnapshotRepository) Save(collectionID string, snap review.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshots (collection_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(collection_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, collectionID, string(payload), time.Now()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// Load retrieves the snapshot for a collection. The second return value is
// false when no snapshot has been persisted.
func (r *SnapshotRepository) Load(collectionID string) (review.Snapshot, bool, error) {
	var payload string

	query := `SELECT payload FROM snapshots WHERE collection_id = ?`
	err := r.db.QueryRow(query, collectionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return review.Snapshot{}, false, nil
	}
	if err != nil {
		return review.Snapshot{}, false, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var snap review.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return review.Snapshot{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snap, true, nil
}

// Clear deletes the snapshot for a collection. Clearing an absent snapshot is not an error.
func (r *SnapshotRepository) Clear(collectionID string) error {
	if _, err := r.db.Exec(`DELETE FROM snapshots WHERE collection_id = ?`, collectionID); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}

// List returns the collection identifiers with persisted snapshots, most recently updated first.
func (r *SnapshotRepository) List() ([]string, error) {
	rows, err := r.db.Query(`SELECT collection_id FROM snapshots ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}
