// Package selection tracks the cursor and the single expanded entry of a
// result list. It knows nothing about rendering.
package selection

// None marks that no entry is expanded.
const None = -1

// List is an ordered set of entries with a cursor and at most one expanded
// entry. The zero value is an empty list with nothing expanded.
// Each result list owns its own List; they never share state.
type List[T any] struct {
	items    []T
	cursor   int
	expanded int
}

// New creates a List over items. The first entry starts expanded when the
// list is non-empty. The slice is not copied.
func New[T any](items []T) List[T] {
	l := List[T]{items: items, expanded: None}
	if len(items) > 0 {
		l.expanded = 0
	}
	return l
}

// Len returns the number of entries.
func (l List[T]) Len() int {
	return len(l.items)
}

// Items returns the underlying entries.
func (l List[T]) Items() []T {
	return l.items
}

// At returns entry i.
func (l List[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(l.items) {
		return zero, false
	}
	return l.items[i], true
}

// Expanded returns the expanded index, if any.
func (l List[T]) Expanded() (int, bool) {
	if l.expanded == None || len(l.items) == 0 {
		return None, false
	}
	return l.expanded, true
}

// IsExpanded reports whether entry i is the expanded one.
func (l List[T]) IsExpanded(i int) bool {
	idx, ok := l.Expanded()
	return ok && idx == i
}

// Toggle collapses entry i if it is expanded, otherwise expands it and
// collapses whatever was open. Out-of-range indices are ignored.
func (l *List[T]) Toggle(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	if l.expanded == i {
		l.expanded = None
		return
	}
	l.expanded = i
}

// Collapse closes the expanded entry.
func (l *List[T]) Collapse() {
	l.expanded = None
}

// Cursor returns the highlighted index (0 for an empty list).
func (l List[T]) Cursor() int {
	return l.cursor
}

// Current returns the entry under the cursor.
func (l List[T]) Current() (T, bool) {
	return l.At(l.cursor)
}

// Move shifts the cursor by delta, clamped to the list bounds.
func (l *List[T]) Move(delta int) {
	l.SetCursor(l.cursor + delta)
}

// SetCursor places the cursor at i, clamped to the list bounds.
func (l *List[T]) SetCursor(i int) {
	switch {
	case len(l.items) == 0:
		l.cursor = 0
	case i < 0:
		l.cursor = 0
	case i >= len(l.items):
		l.cursor = len(l.items) - 1
	default:
		l.cursor = i
	}
}

// ToggleCursor toggles the entry under the cursor.
func (l *List[T]) ToggleCursor() {
	l.Toggle(l.cursor)
}
