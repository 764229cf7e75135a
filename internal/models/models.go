// package models defines the data model for the sift review client
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// LikedSongsID is the reserved collection identifier routed to the user's
// "Liked Songs" library instead of an ordinary playlist.
const LikedSongsID = "liked"

// CollectionKind tags a collection as an ordinary playlist or the liked-songs library.
//
// The kind determines which remote endpoints and removal payload shapes are used.
type CollectionKind string

const (
	KindOrdinary CollectionKind = "ordinary"
	KindLiked    CollectionKind = "liked"
)

// Image represents an artwork reference, ordered largest-first in track and collection listings.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Track represents a single reviewable track.
//
// Tracks are immutable once fetched; the review engine only moves them
// between containers and never mutates their fields.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	Artwork    []Image  `json:"artwork,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty"`
	URI        string   `json:"uri,omitempty"`
}

// ArtistLine returns the track's artists joined for display.
func (t Track) ArtistLine() string {
	line := ""
	for i, a := range t.Artists {
		if i > 0 {
			line += ", "
		}
		line += a
	}
	return line
}

// Collection represents a reviewable set of tracks: a playlist or the liked-songs library.
type Collection struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	TrackCount int            `json:"track_count"`
	Artwork    []Image        `json:"artwork,omitempty"`
	Kind       CollectionKind `json:"kind"`
}

// LikedSongs returns the distinguished liked-songs collection.
func LikedSongs() Collection {
	return Collection{ID: LikedSongsID, Name: "Liked Songs", Kind: KindLiked}
}

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Session is a persisted record of a review session over a collection.
type Session struct {
	id             string
	sequence       int
	collectionID   string
	collectionName string
	kept           int
	discarded      int
	total          int
	startedAt      time.Time
	finishedAt     *time.Time
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewSession creates a Session for the given collection, started now.
func NewSession(sequence int, collectionID, collectionName string, total int) *Session {
	now := time.Now()
	return &Session{
		sequence:       sequence,
		collectionID:   collectionID,
		collectionName: collectionName,
		total:          total,
		startedAt:      now,
		createdAt:      now,
		updatedAt:      now,
	}
}

func (s *Session) ID() string             { return s.id }
func (s *Session) Sequence() int          { return s.sequence }
func (s *Session) CollectionID() string   { return s.collectionID }
func (s *Session) CollectionName() string { return s.collectionName }
func (s *Session) Kept() int              { return s.kept }
func (s *Session) Discarded() int         { return s.discarded }
func (s *Session) Total() int             { return s.total }
func (s *Session) StartedAt() time.Time   { return s.startedAt }
func (s *Session) FinishedAt() *time.Time { return s.finishedAt }
func (s *Session) CreatedAt() time.Time   { return s.createdAt }
func (s *Session) UpdatedAt() time.Time   { return s.updatedAt }
func (s *Session) DeletedAt() *time.Time  { return s.deletedAt }

func (s *Session) SetID(id string)                 { s.id = id }
func (s *Session) SetSequence(sequence int)        { s.sequence = sequence }
func (s *Session) SetCounts(kept, discarded int)   { s.kept, s.discarded = kept, discarded }
func (s *Session) SetTotal(total int)              { s.total = total }
func (s *Session) SetStartedAt(t time.Time)        { s.startedAt = t }
func (s *Session) SetFinishedAt(t *time.Time)      { s.finishedAt = t }
func (s *Session) SetUpdatedAt(t time.Time)        { s.updatedAt = t }
func (s *Session) SetDeletedAt(t *time.Time)       { s.deletedAt = t }

// MarshalJSON serializes the session with stable snake_case keys.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID             string     `json:"id"`
		Sequence       int        `json:"sequence"`
		CollectionID   string     `json:"collection_id"`
		CollectionName string     `json:"collection_name"`
		Kept           int        `json:"kept"`
		Discarded      int        `json:"discarded"`
		Total          int        `json:"total"`
		StartedAt      time.Time  `json:"started_at"`
		FinishedAt     *time.Time `json:"finished_at,omitempty"`
	}{
		ID:             s.id,
		Sequence:       s.sequence,
		CollectionID:   s.collectionID,
		CollectionName: s.collectionName,
		Kept:           s.kept,
		Discarded:      s.discarded,
		Total:          s.total,
		StartedAt:      s.startedAt,
		FinishedAt:     s.finishedAt,
	})
}

// Finish marks the session as finished now.
func (s *Session) Finish() {
	now := time.Now()
	s.finishedAt = &now
	s.updatedAt = now
}

// Validate checks that the session references a collection.
func (s *Session) Validate() error {
	if s.collectionID == "" {
		return fmt.Errorf("session requires a collection id")
	}
	if s.kept < 0 || s.discarded < 0 {
		return fmt.Errorf("session counts cannot be negative")
	}
	return nil
}
