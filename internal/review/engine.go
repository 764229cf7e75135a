package review

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/shared"
)

const (
	defaultBatchSize       = 20
	defaultRefillThreshold = 5
)

// Source is the remote read + removal contract the engine consumes.
//
// [services.SpotifyService] satisfies this interface.
type Source interface {
	ListTracks(ctx context.Context, collection models.Collection, limit, offset int) ([]models.Track, int, error)
	RemoveTrack(ctx context.Context, collection models.Collection, track models.Track) error
}

// Store persists review snapshots across sessions, keyed by collection identifier.
type Store interface {
	Save(collectionID string, snap Snapshot) error
	Load(collectionID string) (Snapshot, bool, error)
	Clear(collectionID string) error
}

// Stats summarizes review progress for display.
type Stats struct {
	Kept            int
	Discarded       int
	Pending         int
	Total           int
	ProgressPercent *float64 // nil when the remote total is unknown or zero
}

// Options tunes an [Engine].
type Options struct {
	BatchSize       int         // page size for fetches (default 20)
	RefillThreshold int         // refill when fewer pending tracks remain (default 5)
	Logger          *log.Logger // defaults to a stderr logger
}

// Engine owns the review queue for one open collection.
//
// One Engine instance exists per open collection; it is created on open and
// dropped on close. All queue mutations happen inside Keep/Discard/refill
// under the engine lock, and a new mutating call issued while a discard's
// remote call is outstanding is rejected with [shared.ErrReviewBusy] rather
// than corrupting state. Background refills only ever append to the pending
// tail.
type Engine struct {
	mu sync.Mutex

	source     Source
	store      Store
	logger     *log.Logger
	collection models.Collection

	queue Queue

	batchSize       int
	refillThreshold int

	// fetchOffset counts the logical remote positions already covered by
	// fetch windows, including positions the source filtered out. It is the
	// floor for the next fetch so a window of unusable tracks advances the
	// cursor instead of ending the session.
	fetchOffset int

	busy      bool  // a remote-mutating operation is in flight
	refilling bool  // a background refill is in flight
	drained   bool  // the remote has nothing further to fetch
	resumed   bool  // queue was restored from a snapshot
	lastErr   error // classified error from the last failed discard
}

// NewEngine creates an engine for the given collection.
func NewEngine(source Source, store Store, collection models.Collection, opts Options) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.RefillThreshold <= 0 {
		opts.RefillThreshold = defaultRefillThreshold
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Engine{
		source:          source,
		store:           store,
		logger:          opts.Logger.With("collection", collection.ID),
		collection:      collection,
		batchSize:       opts.BatchSize,
		refillThreshold: opts.RefillThreshold,
	}
}

// Collection returns the collection under review.
func (e *Engine) Collection() models.Collection {
	return e.collection
}

// Open loads or resumes the review queue.
//
// When a persisted snapshot exists it is restored verbatim and a refill is
// triggered if the buffer sits below the threshold; otherwise the first batch
// is fetched fresh at logical offset 0. A failed initial fetch surfaces the
// classified error and commits no partial state.
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if snap, ok := e.loadSnapshot(); ok {
		e.queue.restore(snap)
		e.resumed = true
		e.logger.Info("resumed review session",
			"pending", e.queue.PendingLen(), "processed", e.queue.Processed())

		if e.queue.PendingLen() < e.refillThreshold {
			// Refill semantics: failure is non-fatal, review continues on the
			// restored buffer.
			if err := e.fetchMoreLocked(ctx); err != nil {
				e.logger.Warn("refill on resume failed", "error", err)
			}
		}
		return nil
	}

	tracks, total, err := e.fetchPage(ctx, 0)
	if err != nil {
		return fmt.Errorf("initial fetch failed: %w", err)
	}

	e.queue.clear()
	e.queue.totalTracks = total
	e.queue.appendPending(tracks)
	e.markFetchedLocked(0, total)
	e.drained = e.fetchOffset >= total
	e.persistLocked()

	e.logger.Info("opened fresh review session", "pending", e.queue.PendingLen(), "total", total)
	return nil
}

// Resumed reports whether the queue was restored from a persisted snapshot.
func (e *Engine) Resumed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resumed
}

// CurrentTrack returns the track under review, or nil when the queue is empty.
func (e *Engine) CurrentTrack() *models.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Current()
}

// Stats returns progress counters for display.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Stats{
		Kept:      e.queue.KeptLen(),
		Discarded: e.queue.DiscardedLen(),
		Pending:   e.queue.PendingLen(),
		Total:     e.queue.Total(),
	}

	if total := e.queue.Total(); total > 0 {
		percent := float64(e.queue.Processed()) / float64(total) * 100
		if percent > 100 {
			percent = 100
		}
		stats.ProgressPercent = &percent
	}

	return stats
}

// KeptTracks returns a copy of the kept accumulator.
func (e *Engine) KeptTracks() []models.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Kept()
}

// DiscardedTracks returns a copy of the discarded accumulator.
func (e *Engine) DiscardedTracks() []models.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Discarded()
}

// Exhausted reports the terminal "nothing left to review" state: the buffer
// is empty and the remote has nothing further to fetch.
func (e *Engine) Exhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.PendingLen() == 0 && e.drained
}

// Err returns the retained classified error from the last failed discard, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// DismissError clears the retained discard failure without retrying it.
func (e *Engine) DismissError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = nil
}

// Keep retains the current track: it moves from the front of pending to the
// tail of kept. No remote call is made.
func (e *Engine) Keep(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.busy {
		return shared.ErrReviewBusy
	}
	if e.queue.PendingLen() == 0 {
		return shared.ErrNothingToReview
	}

	e.queue.keepFront()
	e.advanceLocked()
	return nil
}

// Discard removes the current track from the collection remotely, and only on
// a successful remote response moves it from pending to discarded.
//
// On a classified failure the track stays at the front of pending, the error
// is retained for [Engine.RetryLastFailure], and no local state changes.
func (e *Engine) Discard(ctx context.Context) error {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return shared.ErrReviewBusy
	}
	if e.queue.PendingLen() == 0 {
		e.mu.Unlock()
		return shared.ErrNothingToReview
	}

	track := *e.queue.Current()
	e.busy = true
	e.mu.Unlock()

	// The remote call runs outside the lock so reads and refill appends stay
	// live; the busy flag keeps a second mutating call out.
	err := e.source.RemoveTrack(ctx, e.collection, track)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false

	if err != nil {
		e.lastErr = err
		e.logger.Warn("discard failed", "track", track.ID, "error", err)
		return err
	}

	e.lastErr = nil
	e.queue.discardFront()
	e.advanceLocked()
	return nil
}

// RetryLastFailure re-runs the discard for the still-current front track.
//
// Safe because remote removal is idempotent: removing an already-absent track
// is treated as success by the remote contract.
func (e *Engine) RetryLastFailure(ctx context.Context) error {
	e.mu.Lock()
	if e.lastErr == nil {
		e.mu.Unlock()
		return shared.ErrNoFailedAction
	}
	e.mu.Unlock()

	return e.Discard(ctx)
}

// Reset clears all queue state and the persisted snapshot, then re-runs the
// fresh initialization path.
//
// Rejected while a discard or a background refill is in flight: a refill
// scheduled before the reset would otherwise complete afterward and append a
// page computed from the stale offsets.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.busy || e.refilling {
		return shared.ErrReviewBusy
	}

	if e.store != nil {
		if err := e.store.Clear(e.collection.ID); err != nil {
			e.logger.Warn("failed to clear persisted snapshot", "error", err)
		}
	}

	e.queue.clear()
	e.lastErr = nil
	e.drained = false
	e.resumed = false
	e.fetchOffset = 0

	tracks, total, err := e.fetchPage(ctx, 0)
	if err != nil {
		return fmt.Errorf("initial fetch failed: %w", err)
	}

	e.queue.totalTracks = total
	e.queue.appendPending(tracks)
	e.markFetchedLocked(0, total)
	e.drained = e.fetchOffset >= total
	e.persistLocked()
	return nil
}

// advanceLocked runs after every completed keep/discard: it persists the new
// state and triggers a background refill when the buffer runs low. Callers
// hold the engine lock.
func (e *Engine) advanceLocked() {
	e.persistLocked()

	if e.queue.PendingLen() >= e.refillThreshold || e.drained || e.refilling {
		return
	}

	e.refilling = true
	go e.refill()
}

// refill fetches the next unreviewed batch in the background and appends it
// to the pending tail. Failures are logged and suppressed; review continues
// on the already-buffered tracks.
func (e *Engine) refill() {
	// Detached from the triggering operation's context: the refill outlives
	// the keep/discard call that scheduled it.
	ctx := context.Background()

	e.mu.Lock()
	logicalOffset := e.nextFetchOffsetLocked()
	e.mu.Unlock()

	tracks, total, err := e.fetchPage(ctx, logicalOffset)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.refilling = false

	if err != nil {
		e.logger.Warn("background refill failed", "error", err)
		return
	}

	e.queue.totalTracks = total
	added := e.queue.appendPending(tracks)
	e.markFetchedLocked(logicalOffset, total)
	if e.fetchOffset >= total {
		e.drained = true
	}
	e.persistLocked()

	e.logger.Debug("refilled queue", "added", added, "pending", e.queue.PendingLen())
}

// fetchMoreLocked performs a synchronous refill at the current position.
// Callers hold the engine lock.
func (e *Engine) fetchMoreLocked(ctx context.Context) error {
	logicalOffset := e.nextFetchOffsetLocked()

	tracks, total, err := e.fetchPage(ctx, logicalOffset)
	if err != nil {
		return err
	}

	e.queue.totalTracks = total
	e.queue.appendPending(tracks)
	e.markFetchedLocked(logicalOffset, total)
	if e.fetchOffset >= total {
		e.drained = true
	}
	e.persistLocked()
	return nil
}

// nextFetchOffsetLocked returns the logical offset for the next fetch window:
// the count of buffered and reviewed tracks, floored by the cursor of windows
// already covered. The two diverge when the source filtered tracks out of a
// window or after a resume, where the cursor starts at zero. Callers hold the
// engine lock.
func (e *Engine) nextFetchOffsetLocked() int {
	logicalOffset := e.queue.Processed() + e.queue.PendingLen()
	if e.fetchOffset > logicalOffset {
		logicalOffset = e.fetchOffset
	}
	return logicalOffset
}

// markFetchedLocked advances the fetch cursor past the remote positions the
// window at logicalOffset spanned, usable or not. Callers hold the engine lock.
func (e *Engine) markFetchedLocked(logicalOffset, total int) {
	covered := total - logicalOffset
	if covered > e.batchSize {
		covered = e.batchSize
	}
	if covered < 0 {
		covered = 0
	}
	if next := logicalOffset + covered; next > e.fetchOffset {
		e.fetchOffset = next
	}
}

// fetchPage retrieves the page of unreviewed tracks at the given logical
// offset and returns it in presentation order (oldest first).
//
// The remote API pages most-recent-first, so the actual request offset is
// max(0, total - batchSize - logicalOffset) and the returned page is reversed
// before use. The total is refreshed with a one-item probe on every call
// because the collection may change size mid-session; already-fetched pages
// are never reordered retroactively.
func (e *Engine) fetchPage(ctx context.Context, logicalOffset int) ([]models.Track, int, error) {
	_, total, err := e.source.ListTracks(ctx, e.collection, 1, 0)
	if err != nil {
		return nil, 0, err
	}

	remaining := total - logicalOffset
	if remaining <= 0 {
		return nil, total, nil
	}

	actualOffset := total - e.batchSize - logicalOffset
	if actualOffset < 0 {
		actualOffset = 0
	}

	items, _, err := e.source.ListTracks(ctx, e.collection, e.batchSize, actualOffset)
	if err != nil {
		return nil, 0, err
	}

	reversed := make([]models.Track, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		reversed = append(reversed, items[i])
	}

	// When the window clamps at offset 0 the page overlaps tracks fetched
	// earlier. In presentation order the overlap is the oldest part of the
	// page, so only the newest suffix of length remaining is unseen.
	if len(reversed) > remaining {
		reversed = reversed[len(reversed)-remaining:]
	}

	return reversed, total, nil
}

// loadSnapshot reads the persisted snapshot for the collection, if any.
// Load failures degrade to a fresh session.
func (e *Engine) loadSnapshot() (Snapshot, bool) {
	if e.store == nil {
		return Snapshot{}, false
	}

	snap, ok, err := e.store.Load(e.collection.ID)
	if err != nil {
		e.logger.Warn("failed to load persisted snapshot", "error", err)
		return Snapshot{}, false
	}

	return snap, ok
}

// persistLocked writes a snapshot to the store. Fire-and-forget: failure is
// logged and never fails the in-memory operation, it only risks losing resume
// state. Callers hold the engine lock.
func (e *Engine) persistLocked() {
	if e.store == nil {
		return
	}

	if err := e.store.Save(e.collection.ID, e.queue.snapshot()); err != nil {
		e.logger.Warn("failed to persist snapshot", "error", err)
	}
}
