package engine

import (
	"fmt"

	"github.com/desertthunder/mkplaylist/internal/models"
)

// Mode selects how a final track list is applied to an existing playlist.
type Mode string

const (
	// Append leaves existing entries at their positions and appends only
	// the missing tracks.
	Append Mode = "append"

	// Replace clears the playlist and re-adds the final list at positions
	// 0..len-1. Existing positions are not preserved even when membership
	// is unchanged; the only guarantee is that final membership and order
	// match the final list.
	Replace Mode = "replace"
)

// ParseMode converts a mode string from the CLI boundary.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Append, Replace:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid reconciliation mode %q", s)
	}
}

// Action tags one change-set entry.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Change is one add/remove operation at a playlist position.
type Change struct {
	Action   Action
	TrackID  string
	Position int
}

// ChangeSet is the ordered list of operations the reconciler emits. It is
// consumed by the playlist-mutation collaborator and never applied here.
type ChangeSet struct {
	Mode    Mode
	Changes []Change
}

// Empty reports whether the change-set contains no operations.
func (cs ChangeSet) Empty() bool {
	return len(cs.Changes) == 0
}

// Adds returns only the add operations, in order.
func (cs ChangeSet) Adds() []Change {
	return cs.filter(ActionAdd)
}

// Removes returns only the remove operations, in order.
func (cs ChangeSet) Removes() []Change {
	return cs.filter(ActionRemove)
}

func (cs ChangeSet) filter(a Action) []Change {
	var out []Change
	for _, ch := range cs.Changes {
		if ch.Action == a {
			out = append(out, ch)
		}
	}
	return out
}

// RunState tracks a reconciliation run: Pending -> Diffed -> Emitted. A run
// either fully emits a change-set or fails before emitting anything.
type RunState int

const (
	Pending RunState = iota
	Diffed
	Emitted
)

func (s RunState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Diffed:
		return "diffed"
	case Emitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// Reconciliation diffs a final track list against a playlist's existing
// membership. The membership snapshot must not be stale relative to a
// concurrent run against the same playlist; serializing runs per playlist is
// the caller's obligation.
type Reconciliation struct {
	mode     Mode
	existing []models.PlaylistEntry
	final    []models.Track
	changes  []Change
	state    RunState
}

// NewReconciliation creates a pending run.
func NewReconciliation(mode Mode, existing []models.PlaylistEntry, final []models.Track) *Reconciliation {
	return &Reconciliation{mode: mode, existing: existing, final: final}
}

// State returns the run's current state.
func (r *Reconciliation) State() RunState {
	return r.state
}

// Diff computes the change-set. Valid only in the pending state.
func (r *Reconciliation) Diff() error {
	if r.state != Pending {
		return fmt.Errorf("reconciliation already %s", r.state)
	}

	switch r.mode {
	case Append:
		r.changes = r.diffAppend()
	case Replace:
		r.changes = r.diffReplace()
	default:
		return fmt.Errorf("invalid reconciliation mode %q", r.mode)
	}

	r.state = Diffed
	return nil
}

// Emit hands out the computed change-set. Valid only once, after Diff.
func (r *Reconciliation) Emit() (ChangeSet, error) {
	if r.state != Diffed {
		return ChangeSet{}, fmt.Errorf("cannot emit change-set while %s", r.state)
	}
	r.state = Emitted
	return ChangeSet{Mode: r.mode, Changes: r.changes}, nil
}

func (r *Reconciliation) diffAppend() []Change {
	present := make(map[string]struct{}, len(r.existing))
	for _, entry := range r.existing {
		present[entry.TrackID] = struct{}{}
	}

	// Positions are dense and 0-based, so the next free slot is the count.
	next := len(r.existing)

	var changes []Change
	for _, track := range r.final {
		if _, ok := present[track.ID]; ok {
			continue
		}
		present[track.ID] = struct{}{}
		changes = append(changes, Change{Action: ActionAdd, TrackID: track.ID, Position: next})
		next++
	}
	return changes
}

func (r *Reconciliation) diffReplace() []Change {
	changes := make([]Change, 0, len(r.existing)+len(r.final))
	for _, entry := range r.existing {
		changes = append(changes, Change{Action: ActionRemove, TrackID: entry.TrackID, Position: entry.Position})
	}
	for i, track := range r.final {
		changes = append(changes, Change{Action: ActionAdd, TrackID: track.ID, Position: i})
	}
	return changes
}

// Reconcile runs a full Pending -> Diffed -> Emitted pass in one call.
func Reconcile(mode Mode, existing []models.PlaylistEntry, final []models.Track) (ChangeSet, error) {
	run := NewReconciliation(mode, existing, final)
	if err := run.Diff(); err != nil {
		return ChangeSet{}, err
	}
	return run.Emit()
}
