// Package match selects sub-documents from a traversal and delivers them as
// a pull stream.
//
// The stream rebuilds every container that can still be matched, tests the
// selector when a value completes and buffers matches in a fixed ring. When
// the ring is about to fill, or the reader already holds HighWaterMark
// unread matches, the traversal is paused until the next Read.
package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jacoelho/eventify/event"
	"github.com/jacoelho/eventify/internal/options"
	"github.com/jacoelho/eventify/internal/ring"
	"github.com/jacoelho/eventify/internal/stack"
	"github.com/jacoelho/eventify/traverse"
)

var (
	ErrSelector = errors.New("match: invalid selector")
	ErrPath     = errors.New("match: invalid path")
	ErrOption   = errors.New("match: invalid option")

	// ErrData wraps data errors reported by the traversal, such as circular references.
	ErrData = errors.New("match: data error")
	// ErrTraversal wraps handler failures and traversal faults.
	ErrTraversal = errors.New("match: traversal error")

	// ErrClosed is returned by Read after the traversal stopped without reaching its end.
	ErrClosed = errors.New("match: stream closed")
)

const initialDepth = 16

// frame is a container being rebuilt.
type frame struct {
	array    bool
	key      any
	items    []any
	members  map[string]any
	index    int
	property string
}

// nextKey consumes the key of the next child value.
func (f *frame) nextKey() any {
	if f.array {
		k := f.index
		f.index++
		return k
	}
	return f.property
}

func (f *frame) peekKey() any {
	if f.array {
		return f.index
	}
	return f.property
}

func (f *frame) insert(key, v any) {
	if f.array {
		f.items = append(f.items, v)
		return
	}
	if f.members == nil {
		f.members = make(map[string]any)
	}
	f.members[key.(string)] = v
}

func (f *frame) value() any {
	if f.array {
		if f.items == nil {
			return []any{}
		}
		return f.items
	}
	if f.members == nil {
		return map[string]any{}
	}
	return f.members
}

// Stream delivers the values of a traversal that satisfy a selector.
type Stream struct {
	sel    Selector
	cfg    Config
	log    logrus.FieldLogger
	t      *traverse.Traverser
	cancel context.CancelFunc

	// owned by the traversal goroutine
	scopes *stack.Stack[*frame]
	path   []any

	mu      sync.Mutex
	matches *ring.Buffer[any]
	queue   []any
	errs    []error
	resume  func()
	reading bool
	ended   bool
	notify  chan struct{}
}

// New validates the selector and options, then starts traversing input.
// selector is a Selector, a Predicate or func(key, value any, depth int) bool,
// a string, or a *regexp.Regexp.
func New(ctx context.Context, input, selector any, opts ...Option) (*Stream, error) {
	cfg := DefaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	sel, err := Compile(selector, cfg.Numbers)
	if err != nil {
		return nil, err
	}

	topts := slices.Concat([]traverse.Option{traverse.WithLogger(cfg.Logger)}, cfg.Traverse)
	if cfg.Documents {
		topts = append(topts, traverse.WithDocuments())
	}
	t, err := traverse.New(input, topts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOption, err)
	}

	s := &Stream{
		sel:     sel,
		cfg:     cfg,
		log:     cfg.Logger.WithField("run", t.ID()),
		t:       t,
		scopes:  stack.NewWithCapacity[*frame](initialDepth),
		matches: ring.New[any](cfg.BufferLength),
		notify:  make(chan struct{}, 1),
	}
	s.subscribe()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	t.Start(runCtx)

	return s, nil
}

// Read returns the next match. Errors wrapping ErrData or ErrTraversal are
// reported in between matches and do not end the stream. io.EOF follows the
// last match.
func (s *Stream) Read(ctx context.Context) (any, error) {
	stopped := false
	for {
		s.mu.Lock()
		s.pull()
		switch {
		case len(s.errs) > 0:
			err := s.errs[0]
			s.errs[0] = nil
			s.errs = s.errs[1:]
			s.mu.Unlock()
			return nil, err
		case len(s.queue) > 0:
			v := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return v, nil
		case s.ended && s.matches.IsEmpty():
			s.mu.Unlock()
			return nil, io.EOF
		}
		s.mu.Unlock()

		if stopped {
			return nil, ErrClosed
		}
		select {
		case <-s.notify:
		case <-s.t.Done():
			stopped = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// All ranges over the remaining matches. Out of band errors are yielded with
// a nil value; iteration stops at the end of the stream or on any other error.
func (s *Stream) All(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			v, err := s.Read(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(v, err) {
				s.Close()
				return
			}
			if err != nil && !errors.Is(err, ErrData) && !errors.Is(err, ErrTraversal) {
				return
			}
		}
	}
}

// Close stops the traversal. Buffered matches can still be read.
func (s *Stream) Close() {
	s.cancel()
}

func (s *Stream) subscribe() {
	s.t.On(event.KindArray, func(event.Event) error {
		s.open(true)
		return nil
	})
	s.t.On(event.KindObject, func(event.Event) error {
		s.open(false)
		return nil
	})
	s.t.On(event.KindProperty, func(ev event.Event) error {
		if top, ok := s.scopes.Peek(); ok {
			top.property = unescape(ev.Text())
		}
		return nil
	})
	s.t.On(event.KindString, func(ev event.Event) error {
		s.value(unescape(ev.Text()))
		return nil
	})
	s.t.On(event.KindNumber, func(ev event.Event) error {
		s.value(ev.Float())
		return nil
	})
	s.t.On(event.KindLiteral, func(ev event.Event) error {
		s.value(ev.Value)
		return nil
	})
	s.t.On(event.KindEndArray, s.close)
	s.t.On(event.KindEndObject, s.close)
	s.t.On(event.KindEnd, func(event.Event) error {
		// a fault ends the traversal with containers still open
		s.scopes.Reset()
		s.end()
		return nil
	})
	s.t.On(event.KindError, func(ev event.Event) error {
		s.fail(fmt.Errorf("%w: %w", ErrTraversal, ev.Err))
		return nil
	})
	s.t.On(event.KindDataError, func(ev event.Event) error {
		s.fail(fmt.Errorf("%w: %w", ErrData, ev.Err))
		return nil
	})
}

func unescape(text string) string {
	if s, err := event.Unescape(text); err == nil {
		return s
	}
	return text
}

func (s *Stream) open(array bool) {
	var key any
	if top, ok := s.scopes.Peek(); ok {
		key = top.peekKey()
	}
	s.scopes.Push(&frame{array: array, key: key})
}

func (s *Stream) close(event.Event) error {
	f, ok := s.scopes.Pop()
	if !ok {
		return nil
	}
	s.value(f.value())
	return nil
}

// value records a completed value in its parent and tests it. Values
// shallower than MinDepth are neither recorded nor tested; nulls are
// recorded but never matched.
func (s *Stream) value(v any) {
	depth := s.scopes.Size()

	var key any
	if top, ok := s.scopes.Peek(); ok {
		key = top.nextKey()
		if depth >= s.cfg.MinDepth {
			top.insert(key, v)
		}
	}

	if depth < s.cfg.MinDepth || v == nil {
		return
	}
	if s.sel.Match(s.trail(key, depth), v) {
		s.push(v)
	}
}

// trail reuses s.path to hold the keys from the root down to key.
func (s *Stream) trail(key any, depth int) []any {
	s.path = s.path[:0]
	for i, f := range s.scopes.All() {
		if i > 0 {
			s.path = append(s.path, f.key)
		}
	}
	if depth > 0 {
		s.path = append(s.path, key)
	}
	return s.path
}

// push buffers a match, pausing the traversal when the ring would become full.
func (s *Stream) push(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matches.Len()+1 == s.matches.Cap() {
		s.pause()
	}
	if s.matches.IsFull() {
		// an event delivered while a pause was being requested; spill the oldest match
		oldest, _ := s.matches.Pop()
		s.queue = append(s.queue, oldest)
	}
	s.matches.Push(v)
	s.after()
	s.signal()
}

func (s *Stream) end() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ended = true
	s.log.WithField("pending", s.matches.Len()+len(s.queue)).Debug("match input ended")
	s.signal()
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errs = append(s.errs, err)
	s.signal()
}

// pull runs on every Read: the first read starts draining the ring and a
// paused traversal resumes once the reader has room for more matches.
func (s *Stream) pull() {
	if !s.reading {
		s.reading = true
		s.after()
	}
	if s.resume != nil && len(s.queue) < s.cfg.HighWaterMark {
		resume := s.resume
		s.resume = nil
		resume()
		s.after()
	}
}

// after moves matches from the ring to the reader queue until the high water mark.
func (s *Stream) after() {
	if !s.reading || s.resume != nil {
		return
	}
	for !s.matches.IsEmpty() {
		if len(s.queue) >= s.cfg.HighWaterMark {
			s.pause()
			return
		}
		v, _ := s.matches.Pop()
		s.queue = append(s.queue, v)
	}
}

func (s *Stream) pause() {
	if s.resume != nil {
		return
	}
	s.resume = s.t.Pause()
	if s.cfg.onPause != nil {
		s.cfg.onPause()
	}
}

func (s *Stream) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
