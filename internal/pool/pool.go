// Package pool recycles the scratch buffers used by the JSON encoder.
package pool

import (
	"io"
	"sync"
)

const (
	// DefaultSize is the initial capacity of pooled buffers.
	DefaultSize = 1024 * 4
	// MaxRetained is the largest capacity a buffer may have to return to the pool.
	MaxRetained = 1024 * 64
)

type Buffer struct {
	B []byte
}

func (b *Buffer) Len() int {
	return len(b.B)
}

func (b *Buffer) Reset() {
	b.B = b.B[:0]
}

func (b *Buffer) WriteByte(c byte) error {
	b.B = append(b.B, c)
	return nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	b.B = append(b.B, s...)
	return len(s), nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.B = append(b.B, p...)
	return len(p), nil
}

// WriteTo drains the buffer into w and resets it, even on error.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.B)
	b.Reset()
	return int64(n), err
}

var buffers = sync.Pool{
	New: func() any {
		return &Buffer{B: make([]byte, 0, DefaultSize)}
	},
}

func Get() *Buffer {
	b, _ := buffers.Get().(*Buffer)
	return b
}

// Put drops buffers that grew past MaxRetained so one large document does not pin memory.
func Put(b *Buffer) {
	if b == nil || cap(b.B) > MaxRetained {
		return
	}

	b.Reset()
	buffers.Put(b)
}
