package stringify

import (
	"io"
	"math"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/jacoelho/eventify/event"
	"github.com/jacoelho/eventify/internal/pool"
	"github.com/jacoelho/eventify/internal/stack"
)

type frame struct {
	count   int
	pending bool // a property was written and awaits its value
}

// Encoder renders an event sequence as JSON text. Error and DataError
// events do not interrupt the output; they are collected and reported by Err.
// Consecutive root values, as produced in documents mode, are separated by
// newlines.
type Encoder struct {
	w      io.Writer
	indent string
	buf    *pool.Buffer
	frames *stack.Stack[frame]
	roots  int
	errs   *multierror.Error
	werr   error
}

func NewEncoder(w io.Writer, indent string) *Encoder {
	return &Encoder{
		w:      w,
		indent: indent,
		buf:    pool.Get(),
		frames: stack.NewWithCapacity[frame](16),
	}
}

// Handle consumes one event. It never fails, so it can be registered with
// traverse.Traverser.OnAll directly.
func (e *Encoder) Handle(ev event.Event) error {
	switch ev.Kind {
	case event.KindArray:
		e.open('[')
	case event.KindObject:
		e.open('{')
	case event.KindEndArray:
		e.close(']')
	case event.KindEndObject:
		e.close('}')
	case event.KindProperty:
		e.separate()
		e.buf.WriteByte('"')
		e.buf.WriteString(ev.Text())
		e.buf.WriteString(`":`)
		if e.indent != "" {
			e.buf.WriteByte(' ')
		}
		if f := e.frames.PeekRef(); f != nil {
			f.pending = true
		}
	case event.KindString:
		e.separate()
		e.buf.WriteByte('"')
		e.buf.WriteString(ev.Text())
		e.buf.WriteByte('"')
	case event.KindNumber:
		e.separate()
		e.buf.B = appendNumber(e.buf.B, ev.Float())
	case event.KindLiteral:
		e.separate()
		switch ev.Value {
		case true:
			e.buf.WriteString("true")
		case false:
			e.buf.WriteString("false")
		default:
			e.buf.WriteString("null")
		}
	case event.KindError, event.KindDataError:
		e.errs = multierror.Append(e.errs, ev.Err)
	case event.KindEnd:
		e.flush()
		return nil
	}

	if e.buf.Len() >= pool.DefaultSize {
		e.flush()
	}
	return nil
}

// Flush writes any buffered output.
func (e *Encoder) Flush() error {
	e.flush()
	return e.werr
}

// Err reports the first write failure, or every error event seen so far.
func (e *Encoder) Err() error {
	if e.werr != nil {
		return e.werr
	}
	return e.errs.ErrorOrNil()
}

func (e *Encoder) release() {
	pool.Put(e.buf)
	e.buf = nil
}

func (e *Encoder) flush() {
	if e.buf.Len() == 0 {
		return
	}
	if e.werr != nil {
		e.buf.Reset()
		return
	}
	if _, err := e.buf.WriteTo(e.w); err != nil {
		e.werr = err
	}
}

// separate writes whatever precedes the next value or property.
func (e *Encoder) separate() {
	f := e.frames.PeekRef()
	if f == nil {
		if e.roots > 0 {
			e.buf.WriteByte('\n')
		}
		e.roots++
		return
	}
	if f.pending {
		f.pending = false
		return
	}
	if f.count > 0 {
		e.buf.WriteByte(',')
	}
	f.count++
	e.newline(e.frames.Size())
}

func (e *Encoder) newline(depth int) {
	if e.indent == "" {
		return
	}
	e.buf.WriteByte('\n')
	for range depth {
		e.buf.WriteString(e.indent)
	}
}

func (e *Encoder) open(c byte) {
	e.separate()
	e.buf.WriteByte(c)
	e.frames.Push(frame{})
}

func (e *Encoder) close(c byte) {
	f, _ := e.frames.Pop()
	if f.count > 0 {
		e.newline(e.frames.Size())
	}
	e.buf.WriteByte(c)
}

// appendNumber formats f the way JavaScript and encoding/json do.
func appendNumber(dst []byte, f float64) []byte {
	if f == 0 {
		f = 0 // drop the sign of negative zero
	}

	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	dst = strconv.AppendFloat(dst, f, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		if n := len(dst); n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst
}
