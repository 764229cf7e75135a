package review

import (
	"testing"

	"github.com/desertthunder/sift/internal/models"
)

func TestQueue(t *testing.T) {
	t.Run("Current", func(t *testing.T) {
		q := &Queue{}
		if q.Current() != nil {
			t.Error("expected nil current on empty queue")
		}

		q.appendPending([]models.Track{track(1), track(2)})
		current := q.Current()
		if current == nil || current.ID != "t1" {
			t.Errorf("expected current t1, got %+v", current)
		}
	})

	t.Run("AppendPending", func(t *testing.T) {
		t.Run("Appends To The Tail Only", func(t *testing.T) {
			q := &Queue{}
			q.appendPending([]models.Track{track(1), track(2)})

			added := q.appendPending([]models.Track{track(3), track(4)})
			if added != 2 {
				t.Errorf("expected 2 added, got %d", added)
			}

			want := []string{"t1", "t2", "t3", "t4"}
			for i, id := range want {
				if q.pending[i].ID != id {
					t.Fatalf("pending[%d] = %s, want %s", i, q.pending[i].ID, id)
				}
			}
		})

		t.Run("Skips Identifiers Already Present Anywhere", func(t *testing.T) {
			q := &Queue{}
			q.appendPending([]models.Track{track(1), track(2), track(3)})
			q.keepFront()
			q.discardFront()

			added := q.appendPending([]models.Track{track(1), track(2), track(3), track(4)})
			if added != 1 {
				t.Errorf("expected only t4 added, got %d", added)
			}
			if q.PendingLen() != 2 {
				t.Errorf("expected pending [t3 t4], got %d entries", q.PendingLen())
			}
		})
	})

	t.Run("Decisions Recompute The Offset", func(t *testing.T) {
		q := &Queue{}
		q.appendPending([]models.Track{track(1), track(2), track(3)})

		q.keepFront()
		if q.lastProcessedOffset != 1 {
			t.Errorf("expected offset 1 after keep, got %d", q.lastProcessedOffset)
		}

		q.discardFront()
		if q.lastProcessedOffset != 2 {
			t.Errorf("expected offset 2 after discard, got %d", q.lastProcessedOffset)
		}

		if q.Processed() != q.lastProcessedOffset {
			t.Error("offset must equal kept + discarded")
		}
	})

	t.Run("Snapshot Round Trip", func(t *testing.T) {
		q := &Queue{totalTracks: 9}
		q.appendPending([]models.Track{track(1), track(2), track(3)})
		q.keepFront()
		q.discardFront()

		snap := q.snapshot()

		restored := &Queue{}
		restored.restore(snap)

		if restored.PendingLen() != 1 || restored.KeptLen() != 1 || restored.DiscardedLen() != 1 {
			t.Errorf("container sizes differ after restore")
		}
		if restored.lastProcessedOffset != 2 || restored.totalTracks != 9 {
			t.Errorf("counters differ after restore: offset %d total %d",
				restored.lastProcessedOffset, restored.totalTracks)
		}
		if restored.Current().ID != "t3" {
			t.Errorf("expected current t3, got %s", restored.Current().ID)
		}
	})

	t.Run("Snapshot Is A Copy", func(t *testing.T) {
		q := &Queue{}
		q.appendPending([]models.Track{track(1), track(2)})

		snap := q.snapshot()
		q.keepFront()

		if len(snap.Pending) != 2 {
			t.Error("snapshot must not alias live queue state")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		q := &Queue{totalTracks: 5}
		q.appendPending([]models.Track{track(1), track(2)})
		q.keepFront()

		q.clear()
		if q.PendingLen() != 0 || q.KeptLen() != 0 || q.DiscardedLen() != 0 {
			t.Error("expected all containers empty")
		}
		if q.lastProcessedOffset != 0 || q.totalTracks != 0 {
			t.Error("expected counters reset")
		}
	})
}
