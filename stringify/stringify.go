// Package stringify serialises Go values to JSON text through the traverser,
// so promises, iterables and other coerced values are resolved on the way.
package stringify

import (
	"context"
	"io"
	"strings"

	"github.com/jacoelho/eventify/internal/options"
	"github.com/jacoelho/eventify/traverse"
)

// Write streams the JSON form of data to w. Output is written as it is
// produced; a non-nil error aggregates every error event of the traversal,
// or reports the first write failure.
func Write(ctx context.Context, w io.Writer, data any, opts ...Option) error {
	cfg := DefaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return err
	}

	topts := append([]traverse.Option{traverse.WithLogger(cfg.Logger)}, cfg.Traverse...)
	t, err := traverse.New(data, topts...)
	if err != nil {
		return err
	}

	enc := NewEncoder(w, cfg.Indent)
	defer enc.release()

	t.OnAll(enc.Handle)
	t.Run(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	return enc.Err()
}

// String returns the JSON form of data. Unlike Write, any error discards the output.
func String(ctx context.Context, data any, opts ...Option) (string, error) {
	var sb strings.Builder
	if err := Write(ctx, &sb, data, opts...); err != nil {
		return "", err
	}
	return sb.String(), nil
}
