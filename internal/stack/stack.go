// Package stack provides the LIFO frame stack shared by the matcher and the encoder.
package stack

import "iter"

// Stack is a growable LIFO of frames. The zero value is ready to use.
type Stack[T any] struct {
	frames []T
}

// NewWithCapacity preallocates room for depth frames.
func NewWithCapacity[T any](depth int) *Stack[T] {
	return &Stack[T]{
		frames: make([]T, 0, depth),
	}
}

// Push adds frames in order with the last one on top.
func (s *Stack[T]) Push(frames ...T) {
	s.frames = append(s.frames, frames...)
}

func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.frames) == 0 {
		return zero, false
	}

	top := len(s.frames) - 1
	frame := s.frames[top]
	s.frames[top] = zero // release references held by container frames
	s.frames = s.frames[:top]
	return frame, true
}

func (s *Stack[T]) Peek() (T, bool) {
	if len(s.frames) == 0 {
		var zero T
		return zero, false
	}

	return s.frames[len(s.frames)-1], true
}

// PeekRef allows mutating the top frame in place. The pointer is invalidated by the next Push.
func (s *Stack[T]) PeekRef() *T {
	if len(s.frames) == 0 {
		return nil
	}

	return &s.frames[len(s.frames)-1]
}

func (s *Stack[T]) IsEmpty() bool {
	return len(s.frames) == 0
}

func (s *Stack[T]) Size() int {
	return len(s.frames)
}

// All iterates from bottom to top without copying.
func (s *Stack[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, frame := range s.frames {
			if !yield(i, frame) {
				return
			}
		}
	}
}

// Reset drops every frame but keeps the allocated capacity.
func (s *Stack[T]) Reset() {
	clear(s.frames)
	s.frames = s.frames[:0]
}
