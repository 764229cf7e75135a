package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/shared"
)

// SessionRepository implements [models.Repository] for [models.Session] persistence.
//
// Sessions are kept as a history of finished or abandoned reviews and power
// the `sift history` command.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database with generated ID and sequence
func (r *SessionRepository) Create(session *models.Session) error {
	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	session.SetID(id)
	session.SetSequence(sequence)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sessions (id, sequence, collection_id, collection_name, kept, discarded, total, started_at, finished_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		session.CollectionID(),
		session.CollectionName(),
		session.Kept(),
		session.Discarded(),
		session.Total(),
		session.StartedAt(),
		session.FinishedAt(),
		session.CreatedAt(),
		session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID, excluding soft-deleted sessions
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `
		SELECT id, sequence, collection_id, collection_name, kept, discarded, total, started_at, finished_at, created_at, updated_at, deleted_at
		FROM sessions
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing session in the database
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)

	query := `
		UPDATE sessions
		SET kept = ?, discarded = ?, total = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		session.Kept(),
		session.Discarded(),
		session.Total(),
		session.FinishedAt(),
		now,
		session.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found or already deleted: %s", session.ID())
	}

	return nil
}

// Delete soft-deletes a session by ID
func (r *SessionRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE sessions
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all sessions matching the given criteria, excluding soft-deleted sessions
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `
		SELECT id, sequence, collection_id, collection_name, kept, discarded, total, started_at, finished_at, created_at, updated_at, deleted_at
		FROM sessions
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if collectionID, ok := criteria["collection_id"].(string); ok && collectionID != "" {
		query += " AND collection_id = ?"
		args = append(args, collectionID)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

type sessionColumns struct {
	id             string
	sequence       int
	collectionID   string
	collectionName string
	kept           int
	discarded      int
	total          int
	startedAt      time.Time
	finishedAt     sql.NullTime
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      sql.NullTime
}

func (c sessionColumns) build() *models.Session {
	session := models.NewSession(c.sequence, c.collectionID, c.collectionName, c.total)
	session.SetID(c.id)
	session.SetCounts(c.kept, c.discarded)
	session.SetStartedAt(c.startedAt)
	session.SetUpdatedAt(c.updatedAt)
	if c.finishedAt.Valid {
		session.SetFinishedAt(&c.finishedAt.Time)
	}
	if c.deletedAt.Valid {
		session.SetDeletedAt(&c.deletedAt.Time)
	}
	return session
}

// scanOne scans a single [sql.Row] into a [models.Session]
func (r *SessionRepository) scanOne(row *sql.Row) (*models.Session, error) {
	var c sessionColumns

	err := row.Scan(&c.id, &c.sequence, &c.collectionID, &c.collectionName, &c.kept, &c.discarded, &c.total, &c.startedAt, &c.finishedAt, &c.createdAt, &c.updatedAt, &c.deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	return c.build(), nil
}

// scanRow scans a row from [sql.Rows] into a [models.Session]
func (r *SessionRepository) scanRow(rows *sql.Rows) (*models.Session, error) {
	var c sessionColumns

	err := rows.Scan(&c.id, &c.sequence, &c.collectionID, &c.collectionName, &c.kept, &c.discarded, &c.total, &c.startedAt, &c.finishedAt, &c.createdAt, &c.updatedAt, &c.deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	return c.build(), nil
}
