package traverse

import (
	"context"
	"iter"

	"github.com/jacoelho/eventify/event"
)

// Walk returns a synchronous iterator over the events of root. Breaking out
// of the loop cancels the traversal. Options are validated once, up front;
// every iteration runs a fresh traversal.
func Walk(ctx context.Context, root any, opts ...Option) (iter.Seq[event.Event], error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return func(yield func(event.Event) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		t := newTraverser(root, cfg)
		t.OnAll(func(ev event.Event) error {
			if stopped {
				return nil
			}
			if !yield(ev) {
				stopped = true
				cancel()
			}
			return nil
		})
		t.Run(ctx)
	}, nil
}
