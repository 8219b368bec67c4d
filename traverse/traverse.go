// Package traverse walks arbitrary Go values depth-first and emits the
// structural events defined by package event.
//
// Values are normalised by Coerce before dispatch: awaiters are resolved,
// byte slices decoded, map-like values and iterables collected. Slices and
// arrays become arrays, string-keyed maps, structs and Object become
// objects. Pointers are followed to the value they hold. Invalid values
// (Undefined, NaN, ±Inf, complex numbers, funcs and channels the policy did
// not convert) produce no event: they are omitted from objects and replaced
// by null in arrays so indices stay aligned.
//
// A container that is re-entered while it is still one of its own ancestors
// is a circular reference: it is opened and closed immediately and a
// DataError is emitted after it. The same container reached through two
// parallel paths is traversed twice.
package traverse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacoelho/eventify/event"
)

var (
	// ErrCircular is carried by the DataError emitted for a circular reference.
	ErrCircular = errors.New("circular reference")

	// ErrInvalidOption is returned by New for out of range options.
	ErrInvalidOption = errors.New("traverse: invalid option")

	// ErrHandlerPanic wraps a value recovered from a panicking handler.
	ErrHandlerPanic = errors.New("traverse: handler panicked")
)

// Handler reacts to an event. A returned error, or a panic, is reported
// through an Error event; it never interrupts the traversal.
type Handler func(event.Event) error

// ref identifies a container for cycle detection.
type ref struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

// Traverser emits the events for a single root value. Handlers must be
// registered before Start or Run.
type Traverser struct {
	root     any
	cfg      Config
	id       string
	log      logrus.FieldLogger
	handlers map[event.Kind][]Handler

	ancestors map[ref]struct{}
	count     atomic.Int64
	started   atomic.Bool

	mu     sync.Mutex
	paused chan struct{}
	done   chan struct{}
}

// New validates opts and prepares a traversal of root. Nothing is emitted
// until Start or Run is called.
func New(root any, opts ...Option) (*Traverser, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return newTraverser(root, cfg), nil
}

func newTraverser(root any, cfg Config) *Traverser {
	id := uuid.NewString()
	return &Traverser{
		root:      root,
		cfg:       cfg,
		id:        id,
		log:       cfg.Logger.WithField("run", id),
		handlers:  make(map[event.Kind][]Handler),
		ancestors: make(map[ref]struct{}),
		done:      make(chan struct{}),
	}
}

// ID identifies the traversal in log entries.
func (t *Traverser) ID() string {
	return t.id
}

// On registers h for kind. Handlers for the same kind run in registration order.
func (t *Traverser) On(kind event.Kind, h Handler) {
	t.handlers[kind] = append(t.handlers[kind], h)
}

// OnAll registers h for every kind.
func (t *Traverser) OnAll(h Handler) {
	for _, kind := range event.Kinds {
		t.On(kind, h)
	}
}

// Pause stops event delivery until the returned resume function is called.
// Traversal work already in progress finishes but its events are held back,
// never dropped. Pausing an already paused traverser shares the pause.
func (t *Traverser) Pause() (resume func()) {
	t.mu.Lock()
	if t.paused == nil {
		t.paused = make(chan struct{})
		t.log.Debug("traversal paused")
	}
	ch := t.paused
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.paused != ch {
				return
			}
			t.paused = nil
			t.count.Store(0)
			close(ch)
			t.log.Debug("traversal resumed")
		})
	}
}

// Start runs the traversal on a new goroutine. Cancelling ctx stops it
// without emitting further events. Subsequent calls are no-ops.
func (t *Traverser) Start(ctx context.Context) {
	if t.started.Swap(true) {
		return
	}
	go t.run(ctx)
}

// Run traverses synchronously, delivering every event on the calling goroutine.
func (t *Traverser) Run(ctx context.Context) {
	if t.started.Swap(true) {
		<-t.done
		return
	}
	t.run(ctx)
}

// Done is closed once the traversal has finished or was cancelled.
func (t *Traverser) Done() <-chan struct{} {
	return t.done
}

func (t *Traverser) run(ctx context.Context) {
	defer close(t.done)

	t.log.WithField("yieldRate", t.cfg.YieldRate).Debug("traversal started")

	err := t.begin(ctx)
	if ctx.Err() != nil {
		t.log.WithError(ctx.Err()).Debug("traversal cancelled")
		return
	}
	if err != nil {
		t.log.WithError(err).Debug("traversal failed")
		if t.emit(ctx, event.Error(err)) != nil {
			return
		}
	}
	if t.emit(ctx, event.End()) != nil {
		return
	}

	t.log.Debug("traversal finished")
}

func (t *Traverser) begin(ctx context.Context) error {
	if !t.cfg.Documents {
		return t.proceed(ctx, t.root)
	}

	docs, err := Coerce(ctx, t.root, t.cfg.Policy)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(docs)
	if docs == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Type() == objectType {
		return t.proceed(ctx, docs)
	}
	for i := range rv.Len() {
		if err := t.proceed(ctx, rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// proceed visits datum and dispatches it, skipping invalid values.
func (t *Traverser) proceed(ctx context.Context, datum any) error {
	coerced, owner, ok, err := t.visit(ctx, datum)
	if err != nil || !ok {
		return err
	}
	return t.dispatch(ctx, coerced, owner)
}

// visit counts datum towards the yield rate, coerces it and follows
// pointers to the value they hold. owner is the last pointer followed. ok is
// false for values without a JSON form; nothing has been emitted for them yet.
func (t *Traverser) visit(ctx context.Context, datum any) (v any, owner *ref, ok bool, err error) {
	if t.count.Add(1)%int64(t.cfg.YieldRate) == 0 {
		runtime.Gosched()
		if err := ctx.Err(); err != nil {
			return nil, nil, false, err
		}
	}

	v, err = Coerce(ctx, datum, t.cfg.Policy)
	if err != nil {
		return nil, nil, false, err
	}

	var chain []ref
	for {
		rv := reflect.ValueOf(v)
		if v == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
			break
		}
		id := ref{typ: rv.Type(), ptr: rv.Pointer()}
		if slices.Contains(chain, id) {
			// a pointer that leads back to itself holds no value
			return nil, nil, false, nil
		}
		chain = append(chain, id)
		owner = &chain[len(chain)-1]

		v, err = Coerce(ctx, rv.Elem().Interface(), t.cfg.Policy)
		if err != nil {
			return nil, nil, false, err
		}
	}
	return v, owner, !isInvalid(v), nil
}

// dispatch emits the events for an already coerced value. owner identifies
// the pointer a struct was reached through.
func (t *Traverser) dispatch(ctx context.Context, v any, owner *ref) error {
	if v == nil {
		return t.emit(ctx, event.Literal(nil))
	}
	if obj, ok := v.(Object); ok {
		return t.object(ctx, obj, sliceRef(reflect.ValueOf(obj)))
	}
	if n, ok := v.(json.Number); ok {
		return t.number(ctx, n)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return t.emit(ctx, event.Literal(rv.Bool()))
	case reflect.String:
		return t.emit(ctx, event.String(event.Escape(rv.String())))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return t.emit(ctx, event.Number(float64(rv.Int())))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return t.emit(ctx, event.Number(float64(rv.Uint())))
	case reflect.Float32, reflect.Float64:
		return t.emit(ctx, event.Number(rv.Float()))
	case reflect.Slice:
		if rv.IsNil() {
			return t.emit(ctx, event.Literal(nil))
		}
		return t.array(ctx, rv, sliceRef(rv))
	case reflect.Array:
		return t.array(ctx, rv, nil)
	case reflect.Map:
		if rv.IsNil() {
			return t.emit(ctx, event.Literal(nil))
		}
		id := &ref{typ: rv.Type(), ptr: rv.Pointer()}
		if rv.Type().Key().Kind() == reflect.String {
			return t.object(ctx, mapMembers(rv), id)
		}
		return t.object(ctx, mapObject(rv), id)
	case reflect.Struct:
		return t.object(ctx, structMembers(rv), owner)
	}

	// visit has already followed pointers and rejected values without a JSON form
	return t.emit(ctx, event.Literal(nil))
}

func (t *Traverser) number(ctx context.Context, n json.Number) error {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return t.emit(ctx, event.String(event.Escape(string(n))))
	}
	return t.emit(ctx, event.Number(f))
}

func sliceRef(rv reflect.Value) *ref {
	if rv.Len() == 0 {
		return nil
	}
	return &ref{typ: rv.Type(), ptr: rv.Pointer(), n: rv.Len()}
}

// array emits the elements of rv. Invalid elements become null so indices stay stable.
func (t *Traverser) array(ctx context.Context, rv reflect.Value, id *ref) error {
	return t.collection(ctx, event.KindArray, id, rv.Len(), func(i int) error {
		coerced, owner, ok, err := t.visit(ctx, rv.Index(i).Interface())
		if err != nil {
			return err
		}
		if !ok {
			return t.emit(ctx, event.Literal(nil))
		}
		return t.dispatch(ctx, coerced, owner)
	})
}

// object emits the members of obj. Members with invalid values are omitted,
// Property included, so a Property is always followed by its value.
func (t *Traverser) object(ctx context.Context, obj Object, id *ref) error {
	return t.collection(ctx, event.KindObject, id, len(obj), func(i int) error {
		m := obj[i]
		coerced, owner, ok, err := t.visit(ctx, m.Value)
		if err != nil || !ok {
			return err
		}
		if err := t.emit(ctx, event.Property(event.Escape(m.Key))); err != nil {
			return err
		}
		return t.dispatch(ctx, coerced, owner)
	})
}

func (t *Traverser) collection(ctx context.Context, kind event.Kind, id *ref, n int, child func(int) error) error {
	begin, end := event.Array(), event.EndArray()
	if kind == event.KindObject {
		begin, end = event.Object(), event.EndObject()
	}

	if id != nil {
		if _, seen := t.ancestors[*id]; seen {
			return t.circular(ctx, begin, end)
		}
		t.ancestors[*id] = struct{}{}
		defer delete(t.ancestors, *id)
	}

	if err := t.emit(ctx, begin); err != nil {
		return err
	}
	for i := range n {
		if err := child(i); err != nil {
			return err
		}
	}
	return t.emit(ctx, end)
}

// circular closes a repeated container without descending into it.
func (t *Traverser) circular(ctx context.Context, begin, end event.Event) error {
	if err := t.emit(ctx, begin); err != nil {
		return err
	}
	if err := t.emit(ctx, end); err != nil {
		return err
	}
	if t.cfg.IgnoreCircular {
		return nil
	}
	t.log.WithField("kind", begin.Kind).Debug("circular reference")
	return t.emit(ctx, event.DataError(ErrCircular))
}

// emit waits while paused, then delivers ev to its handlers.
func (t *Traverser) emit(ctx context.Context, ev event.Event) error {
	if err := t.wait(ctx); err != nil {
		return err
	}

	for _, h := range t.handlers[ev.Kind] {
		err := invoke(h, ev)
		if err == nil || ev.Kind == event.KindError {
			continue
		}
		t.log.WithError(err).WithField("event", ev.Kind).Debug("handler failed")
		for _, eh := range t.handlers[event.KindError] {
			_ = invoke(eh, event.Error(err))
		}
	}
	return nil
}

func (t *Traverser) wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		ch := t.paused
		t.mu.Unlock()

		if ch == nil {
			return ctx.Err()
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func invoke(h Handler, ev event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(ev)
}
