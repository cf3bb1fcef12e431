package templater

// List is an ordered collection usable as a $-foreach source. Template data
// providers use it when the element count is not known at authoring time.
type List struct {
	items []any
}

// NewList creates a list of the given items.
func NewList(items ...any) *List {
	return &List{items: items}
}

// Items returns the elements in order.
func (l *List) Items() []any {
	return l.items
}

// Add appends an element.
func (l *List) Add(item any) {
	l.items = append(l.items, item)
}

// Size returns the number of elements.
func (l *List) Size() int {
	return len(l.items)
}
