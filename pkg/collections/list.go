// Package collections provides the growable host list that script arrays
// are converted into when a host API asks for a sequence rather than a slice.
package collections

import (
	"reflect"
)

// Sequence is the element-type-erased view of a List, used by callers that
// only know the element type at run time.
type Sequence interface {
	ElementType() reflect.Type
	Length() int
}

// List is a growable ordered sequence. The zero value is an empty list ready
// to use. A List is not safe for concurrent mutation.
type List[T any] struct {
	items []T
}

// NewList returns a list holding items, in order.
func NewList[T any](items ...T) *List[T] {
	l := &List[T]{}
	l.AppendAll(items)
	return l
}

// ElementType returns the reflect.Type of T.
func (l *List[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (l *List[T]) Length() int { return len(l.items) }

// Push appends a single item.
func (l *List[T]) Push(item T) {
	l.items = append(l.items, item)
}

// AppendAll appends items in bulk.
func (l *List[T]) AppendAll(items []T) {
	l.items = append(l.items, items...)
}

// At returns the item at i. It panics when i is out of range.
func (l *List[T]) At(i int) T { return l.items[i] }

// Items returns a copy of the list contents.
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// ForEach calls fn with every item and its position.
func (l *List[T]) ForEach(fn func(item T, index int)) {
	for i := 0; i < len(l.items); i++ {
		fn(l.items[i], i)
	}
}

// Where returns a new list with the items for which pred holds.
func (l *List[T]) Where(pred func(T) bool) *List[T] {
	out := &List[T]{}
	for _, it := range l.items {
		if pred(it) {
			out.items = append(out.items, it)
		}
	}
	return out
}

// Any reports whether pred holds for at least one item.
func (l *List[T]) Any(pred func(T) bool) bool {
	for _, it := range l.items {
		if pred(it) {
			return true
		}
	}
	return false
}

// Splice removes count items starting at index. The range is clamped to the
// list bounds.
func (l *List[T]) Splice(index, count int) {
	if index < 0 {
		count += index
		index = 0
	}
	if count <= 0 || index >= len(l.items) {
		return
	}
	end := index + count
	if end > len(l.items) {
		end = len(l.items)
	}
	var zero T
	n := copy(l.items[index:], l.items[end:])
	for i := index + n; i < len(l.items); i++ {
		l.items[i] = zero
	}
	l.items = l.items[:index+n]
}
