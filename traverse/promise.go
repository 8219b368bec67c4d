package traverse

import (
	"context"
	"sync"
)

// Promise is a single-assignment Awaiter.
type Promise struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewPromise returns an unsettled promise with its resolve and reject functions.
// Only the first settlement has an effect.
func NewPromise() (p *Promise, resolve func(any), reject func(error)) {
	p = &Promise{done: make(chan struct{})}
	return p, func(v any) { p.settle(v, nil) }, func(err error) { p.settle(nil, err) }
}

// Resolved returns a promise already settled with v.
func Resolved(v any) *Promise {
	p, resolve, _ := NewPromise()
	resolve(v)
	return p
}

// Rejected returns a promise already settled with err.
func Rejected(err error) *Promise {
	p, _, reject := NewPromise()
	reject(err)
	return p
}

func (p *Promise) settle(v any, err error) {
	p.once.Do(func() {
		p.value, p.err = v, err
		close(p.done)
	})
}

func (p *Promise) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
