package playlist

import (
	"errors"
	"fmt"
)

var ErrDragActive = errors.New("a drag gesture is already in progress")

// DragState is the state of a [Reorder] session.
type DragState int

const (
	Idle DragState = iota
	Dragging
)

func (s DragState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return ""
	}
}

// Mover is the list a [Reorder] commits to. [Playlist] implements it.
type Mover interface {
	Count() int
	Move(from, to int) error
}

// Locator answers which item is at a pointer coordinate along the list's primary axis.
type Locator interface {
	IndexAt(pos float64) (int, bool)
}

// Bounds is the extent of one item along the primary axis.
type Bounds struct {
	Start float64
	End   float64
}

// Layout is a [Locator] over explicit item bounds, indexed like the list. An item is under the pointer
// only when the coordinate falls strictly between its start and end.
type Layout []Bounds

// IndexAt implements [Locator].
func (l Layout) IndexAt(pos float64) (int, bool) {
	for i, b := range l {
		if b.Start < pos && pos < b.End {
			return i, true
		}
	}
	return -1, false
}

// UniformLayout returns a [Layout] of n items of equal size starting at origin.
func UniformLayout(n int, origin, size float64) Layout {
	l := make(Layout, n)
	for i := range l {
		start := origin + float64(i)*size
		l[i] = Bounds{Start: start, End: start + size}
	}
	return l
}

// Reorder turns a drag gesture into at most one [Mover.Move] call.
//
// Hover updates are tracked continuously but only [Reorder.End] commits, so intermediate pointer events
// never touch the list.
type Reorder struct {
	target   Mover
	locator  Locator
	state    DragState
	source   int
	hover    int
	hasHover bool
}

// NewReorder creates an idle session over target. The locator may be swapped with [Reorder.SetLocator]
// when the presentation re-lays out.
func NewReorder(target Mover, locator Locator) *Reorder {
	return &Reorder{target: target, locator: locator, state: Idle, source: -1, hover: -1}
}

func (r *Reorder) State() DragState { return r.state }
func (r *Reorder) Source() int      { return r.source }

// HoverIndex returns the item currently under the pointer, if any.
func (r *Reorder) HoverIndex() (int, bool) {
	return r.hover, r.hasHover
}

// SetLocator replaces the hit tester, e.g. after a resize or scroll.
func (r *Reorder) SetLocator(l Locator) {
	r.locator = l
}

// Start begins dragging the item at source.
func (r *Reorder) Start(source int) error {
	if r.state == Dragging {
		return ErrDragActive
	}
	if source < 0 || source >= r.target.Count() {
		return fmt.Errorf("%w: drag source %d", ErrIndexOutOfRange, source)
	}

	r.state = Dragging
	r.source = source
	r.hover, r.hasHover = -1, false
	return nil
}

// Hover records the pointer position and returns the item under it. It is a no-op while idle.
func (r *Reorder) Hover(pos float64) (int, bool) {
	if r.state != Dragging {
		return -1, false
	}

	r.hover, r.hasHover = -1, false
	if r.locator != nil {
		if i, ok := r.locator.IndexAt(pos); ok && i >= 0 && i < r.target.Count() {
			r.hover, r.hasHover = i, true
		}
	}
	return r.hover, r.hasHover
}

// End finishes the gesture. The list is moved only when a hover target is set and differs from the
// source. The session is idle afterwards, whatever the outcome.
func (r *Reorder) End() (bool, error) {
	if r.state != Dragging {
		return false, nil
	}

	source, hover, ok := r.source, r.hover, r.hasHover
	r.reset()

	if !ok || hover == source {
		return false, nil
	}
	if err := r.target.Move(source, hover); err != nil {
		return false, err
	}
	return true, nil
}

// Cancel abandons the gesture without touching the list, as when pointer capture is lost.
func (r *Reorder) Cancel() {
	r.reset()
}

func (r *Reorder) reset() {
	r.state = Idle
	r.source = -1
	r.hover, r.hasHover = -1, false
}
