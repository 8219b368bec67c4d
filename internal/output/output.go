// Package output writes results as newline delimited JSON.
package output

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/jacoelho/eventify/internal/pool"
	"github.com/jacoelho/eventify/internal/ratelimit"
	"github.com/jacoelho/eventify/stringify"
)

type Options struct {
	// Indent pretty prints each value; records are still separated by newlines.
	Indent string
	// Unique drops records identical to one already written.
	Unique bool
	// Rate caps records per second, 0 for no limit.
	Rate float64
}

// Sink serialises records one per line. It is safe for concurrent use.
type Sink struct {
	opts    Options
	limiter *ratelimit.Limiter

	mu         sync.Mutex
	w          *bufio.Writer
	seen       map[uint64]struct{}
	written    int
	duplicates int
}

func New(w io.Writer, opts Options) *Sink {
	s := &Sink{
		opts:    opts,
		limiter: ratelimit.New(opts.Rate, 1),
		w:       bufio.NewWriter(w),
	}
	if opts.Unique {
		s.seen = make(map[uint64]struct{})
	}
	return s
}

// Write serialises v and writes it as one record.
func (s *Sink) Write(ctx context.Context, v any) error {
	buf := pool.Get()
	defer pool.Put(buf)

	if err := stringify.Write(ctx, buf, v, stringify.Space(s.opts.Indent)); err != nil {
		return err
	}
	return s.write(ctx, buf.B)
}

// WriteLine writes text as one record without serialising it.
func (s *Sink) WriteLine(ctx context.Context, text string) error {
	return s.write(ctx, []byte(text))
}

func (s *Sink) write(ctx context.Context, record []byte) error {
	if s.opts.Unique {
		sum := xxhash.Sum64(record)
		s.mu.Lock()
		_, dup := s.seen[sum]
		if dup {
			s.duplicates++
		} else {
			s.seen[sum] = struct{}{}
		}
		s.mu.Unlock()
		if dup {
			return nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(record); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	s.written++
	if !s.limiter.Unlimited() {
		return s.w.Flush()
	}
	return nil
}

func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// Stats reports how many records were written and how many were dropped as duplicates.
func (s *Sink) Stats() (written, duplicates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written, s.duplicates
}
