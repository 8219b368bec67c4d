// Package ring implements a fixed-capacity circular FIFO.
//
// Slots are allocated once; head and length wrap around the backing array
// so pushing and popping never reallocate.
package ring

type Buffer[T any] struct {
	slots  []T
	head   int
	length int
}

// New panics when capacity is not positive; callers validate user input first.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}

	return &Buffer[T]{
		slots: make([]T, capacity),
	}
}

// Push appends v at the tail. It reports false, leaving the buffer untouched, when full.
func (b *Buffer[T]) Push(v T) bool {
	if b.length == len(b.slots) {
		return false
	}

	b.slots[b.index(b.length)] = v
	b.length++
	return true
}

// Pop removes the head.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T
	if b.length == 0 {
		return zero, false
	}

	v := b.slots[b.head]
	b.slots[b.head] = zero
	b.head = b.index(1)
	b.length--
	if b.length == 0 {
		b.head = 0
	}
	return v, true
}

func (b *Buffer[T]) Len() int {
	return b.length
}

func (b *Buffer[T]) Cap() int {
	return len(b.slots)
}

func (b *Buffer[T]) IsEmpty() bool {
	return b.length == 0
}

func (b *Buffer[T]) IsFull() bool {
	return b.length == len(b.slots)
}

func (b *Buffer[T]) index(offset int) int {
	return (b.head + offset) % len(b.slots)
}
