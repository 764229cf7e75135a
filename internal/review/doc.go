// Package review implements the track-queue pagination and review engine.
//
// An [Engine] owns the in-memory queue of not-yet-reviewed tracks for one
// open collection: it fetches tracks in controlled batches, presents them as
// a depletable queue, triggers background refills when the buffer runs low,
// persists partial progress through a [Store] after every mutation, and
// reconciles local queue state with removals performed against the remote
// [Source].
//
// # Ordering
//
// Tracks are presented oldest-first. Because the remote read API pages
// most-recent-first, each page is requested at max(0, total - limit -
// logicalOffset) and reversed before it is appended to the queue. The total
// is re-probed before every reverse fetch since the collection may change
// size during a session. If the collection is mutated externally mid-review
// this math can skip or repeat tracks; that is a known limitation of the
// reverse-offset scheme, not something the engine tries to repair.
//
// # Correctness
//
// The three containers (pending, kept, discarded) hold pairwise-disjoint
// track identifiers, lastProcessedOffset always equals kept+discarded after
// a completed operation, and a track enters discarded only after its remote
// removal succeeded. A discard failure leaves the track at the front of the
// queue for retry; remote removal is idempotent so retries are safe.
package review
