// Package editor tracks edits to an ordered collection of child records (the
// line items of a delivery or order) so that a single editing session can be
// partitioned into create, update and delete calls on submission.
package editor

import "github.com/mylpd15/inventory-console/models"

// ChangeKind tags each line's lifecycle relative to its last-persisted state.
// A line is exactly one of these at a time, which rules out the contradictory
// flag combinations the old isNew/isModified/isDeleted triple allowed.
type ChangeKind int

const (
	Unchanged ChangeKind = iota
	Added
	Modified
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Line is one child record plus its change tag. Original holds the
// last-persisted value for Modified lines so an implementation can diff or
// revert field by field.
type Line[T any] struct {
	Kind     ChangeKind
	Value    T
	Original T
	// prior kind before a soft removal, so Restore can put the line back.
	before ChangeKind
}

// Diff partitions an editing session into backend operations.
type Diff[T any] struct {
	ToCreate []T
	ToUpdate []T
	ToDelete []int
}

// Empty reports whether the diff carries no operations at all.
func (d Diff[T]) Empty() bool {
	return len(d.ToCreate) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0
}

// Editor manages the line items of one parent record. Mutations are only
// honored while the parent status is Pending; afterwards every operation is
// a no-op regardless of the actor's role.
type Editor[T any] struct {
	status models.Status
	lines  []Line[T]
	key    func(T) int
}

// New builds an editor over the parent's persisted line items. key extracts
// a line's backend identity (zero for never-persisted lines).
func New[T any](status models.Status, existing []T, key func(T) int) *Editor[T] {
	e := &Editor[T]{status: status, key: key}
	for _, item := range existing {
		e.lines = append(e.lines, Line[T]{Kind: Unchanged, Value: item, Original: item})
	}
	return e
}

// Status returns the parent status the editor is bound to.
func (e *Editor[T]) Status() models.Status {
	return e.status
}

// SetStatus records a parent status change. Only transitions the state
// machine allows are honored; the caller is responsible for the role check
// (Admin/WarehouseManager may change status while line items stay locked).
func (e *Editor[T]) SetStatus(to models.Status) bool {
	if !models.CanTransition(e.status, to) {
		return false
	}
	e.status = to
	return true
}

// Editable reports whether line-item mutations are currently honored.
func (e *Editor[T]) Editable() bool {
	return e.status.Editable()
}

// Lines exposes the full editing array, soft-removed lines included.
func (e *Editor[T]) Lines() []Line[T] {
	return e.lines
}

// Visible returns the values a form should render: everything except
// soft-removed lines.
func (e *Editor[T]) Visible() []T {
	var out []T
	for _, l := range e.lines {
		if l.Kind != Removed {
			out = append(out, l.Value)
		}
	}
	return out
}

// Add appends a new, never-persisted line. Returns false when the parent
// status locks the collection.
func (e *Editor[T]) Add(item T) bool {
	if !e.Editable() {
		return false
	}
	e.lines = append(e.lines, Line[T]{Kind: Added, Value: item, Original: item})
	return true
}

// Update applies mutate to the line at index. Previously-persisted lines
// become Modified; Added lines stay Added (they are created in full anyway).
// Removed lines and out-of-range indexes are left alone.
func (e *Editor[T]) Update(index int, mutate func(*T)) bool {
	if !e.Editable() || index < 0 || index >= len(e.lines) {
		return false
	}
	line := &e.lines[index]
	if line.Kind == Removed {
		return false
	}
	mutate(&line.Value)
	if line.Kind == Unchanged {
		line.Kind = Modified
	}
	return true
}

// Remove deletes the line at index. Added lines are spliced out immediately
// (they never existed server-side); persisted lines are soft-removed and can
// be restored until submission.
func (e *Editor[T]) Remove(index int) bool {
	if !e.Editable() || index < 0 || index >= len(e.lines) {
		return false
	}
	line := &e.lines[index]
	switch line.Kind {
	case Added:
		e.lines = append(e.lines[:index], e.lines[index+1:]...)
	case Removed:
		return false
	default:
		line.before = line.Kind
		line.Kind = Removed
	}
	return true
}

// Restore undoes a soft removal, putting the line back in its prior state.
func (e *Editor[T]) Restore(index int) bool {
	if !e.Editable() || index < 0 || index >= len(e.lines) {
		return false
	}
	line := &e.lines[index]
	if line.Kind != Removed {
		return false
	}
	line.Kind = line.before
	return true
}

// Diff partitions the current array into backend operations. Added lines go
// to ToCreate, Modified lines to ToUpdate, soft-removed lines contribute
// their identity to ToDelete. Unchanged lines appear nowhere, and a line
// added then removed in the same session is already absent from the array.
func (e *Editor[T]) Diff() Diff[T] {
	var d Diff[T]
	for _, l := range e.lines {
		switch l.Kind {
		case Added:
			d.ToCreate = append(d.ToCreate, l.Value)
		case Modified:
			d.ToUpdate = append(d.ToUpdate, l.Value)
		case Removed:
			d.ToDelete = append(d.ToDelete, e.key(l.Original))
		}
	}
	return d
}
