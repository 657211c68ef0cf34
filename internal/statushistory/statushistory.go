// Package statushistory implements the push-then-replace status transition shared by every
// status-bearing entity: the outgoing status is appended to the entity's history list and
// only then replaced by the new one. Any status may follow any other; domain rules about
// allowed transitions belong to the callers.
package statushistory

import "time"

// Entry is a status value with its audit fields. V is the entity's own status enum.
type Entry[V ~string] struct {
	Status    V      `json:"status" bson:"status"`
	Reason    string `json:"reason,omitempty" bson:"reason,omitempty"`
	UpdatedBy string `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	UpdatedAt int64  `json:"updatedAt" bson:"updatedAt"` // Unix millis
}

// IsZero reports whether e was never set.
func (e Entry[V]) IsZero() bool {
	return e.Status == "" && e.UpdatedAt == 0
}

// Change is the caller-supplied part of a transition.
type Change[V ~string] struct {
	Status V
	Reason string
}

// Initial returns the status an entity starts with.
func Initial[V ~string](status V, actorID string, now time.Time) Entry[V] {
	return Entry[V]{Status: status, UpdatedBy: actorID, UpdatedAt: now.UnixMilli()}
}

// Apply returns the status and history after moving from current to next.
// history is never modified in place; the returned slice is a fresh copy ending with current.
// A zero current (no status yet) is not recorded.
func Apply[V ~string](current Entry[V], history []Entry[V], next Change[V], actorID string, now time.Time) (Entry[V], []Entry[V]) {
	out := make([]Entry[V], len(history), len(history)+1)
	copy(out, history)
	if !current.IsZero() {
		out = append(out, current)
	}
	return Entry[V]{
		Status:    next.Status,
		Reason:    next.Reason,
		UpdatedBy: actorID,
		UpdatedAt: now.UnixMilli(),
	}, out
}
