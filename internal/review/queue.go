package review

import (
	"github.com/desertthunder/sift/internal/models"
)

// Snapshot is the serializable form of a review queue, persisted after every
// state-changing operation and restored verbatim on resume.
type Snapshot struct {
	Pending             []models.Track `json:"queue_tracks"`
	Kept                []models.Track `json:"kept_tracks"`
	Discarded           []models.Track `json:"discarded_tracks"`
	LastProcessedOffset int            `json:"last_processed_offset"`
	TotalTracks         int            `json:"total_tracks"`
}

// Queue is the central mutable entity of a review session.
//
// pending is ordered front-first: the front element is the track currently
// under review, and insertion order is presentation order (oldest first).
// kept and discarded are append-only accumulators. The three containers hold
// pairwise-disjoint track identifiers at all times.
type Queue struct {
	pending             []models.Track
	kept                []models.Track
	discarded           []models.Track
	lastProcessedOffset int
	totalTracks         int
}

// Current returns the track under review, or nil if the queue is empty.
func (q *Queue) Current() *models.Track {
	if len(q.pending) == 0 {
		return nil
	}
	track := q.pending[0]
	return &track
}

// PendingLen returns the number of buffered, not-yet-reviewed tracks.
func (q *Queue) PendingLen() int { return len(q.pending) }

// KeptLen returns the number of kept tracks.
func (q *Queue) KeptLen() int { return len(q.kept) }

// DiscardedLen returns the number of discarded tracks.
func (q *Queue) DiscardedLen() int { return len(q.discarded) }

// Kept returns a copy of the kept accumulator.
func (q *Queue) Kept() []models.Track {
	return append([]models.Track(nil), q.kept...)
}

// Discarded returns a copy of the discarded accumulator.
func (q *Queue) Discarded() []models.Track {
	return append([]models.Track(nil), q.discarded...)
}

// Processed returns the count of decided tracks.
func (q *Queue) Processed() int { return len(q.kept) + len(q.discarded) }

// Total returns the remote-reported total at last fetch. Used for progress
// display only, never for loop termination.
func (q *Queue) Total() int { return q.totalTracks }

// keepFront moves the front of pending to the tail of kept and recomputes the offset.
func (q *Queue) keepFront() {
	q.kept = append(q.kept, q.pending[0])
	q.pending = q.pending[1:]
	q.lastProcessedOffset = q.Processed()
}

// discardFront moves the front of pending to the tail of discarded and recomputes the offset.
//
// Only called after the remote removal succeeded; local state never claims a
// removal that did not happen remotely.
func (q *Queue) discardFront() {
	q.discarded = append(q.discarded, q.pending[0])
	q.pending = q.pending[1:]
	q.lastProcessedOffset = q.Processed()
}

// appendPending appends fetched tracks to the tail of pending, skipping any
// identifier already present in one of the three containers. Appending never
// removes or reorders existing entries, so it commutes with foreground
// consumption from the front.
func (q *Queue) appendPending(tracks []models.Track) int {
	if len(tracks) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(q.pending)+len(q.kept)+len(q.discarded))
	for _, t := range q.pending {
		seen[t.ID] = struct{}{}
	}
	for _, t := range q.kept {
		seen[t.ID] = struct{}{}
	}
	for _, t := range q.discarded {
		seen[t.ID] = struct{}{}
	}

	added := 0
	for _, t := range tracks {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		q.pending = append(q.pending, t)
		added++
	}
	return added
}

// snapshot captures the queue state for persistence.
func (q *Queue) snapshot() Snapshot {
	return Snapshot{
		Pending:             append([]models.Track(nil), q.pending...),
		Kept:                append([]models.Track(nil), q.kept...),
		Discarded:           append([]models.Track(nil), q.discarded...),
		LastProcessedOffset: q.lastProcessedOffset,
		TotalTracks:         q.totalTracks,
	}
}

// restore replaces the queue state with a persisted snapshot, verbatim.
func (q *Queue) restore(snap Snapshot) {
	q.pending = append([]models.Track(nil), snap.Pending...)
	q.kept = append([]models.Track(nil), snap.Kept...)
	q.discarded = append([]models.Track(nil), snap.Discarded...)
	q.lastProcessedOffset = snap.LastProcessedOffset
	q.totalTracks = snap.TotalTracks
}

// clear empties all containers and counters.
func (q *Queue) clear() {
	q.pending = nil
	q.kept = nil
	q.discarded = nil
	q.lastProcessedOffset = 0
	q.totalTracks = 0
}
