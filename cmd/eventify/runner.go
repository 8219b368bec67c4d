package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/jacoelho/eventify/event"
	"github.com/jacoelho/eventify/internal/config"
	"github.com/jacoelho/eventify/internal/output"
	"github.com/jacoelho/eventify/internal/source"
	"github.com/jacoelho/eventify/match"
	"github.com/jacoelho/eventify/traverse"
)

type runner struct {
	cfg   *config.Config
	stdin io.Reader
	sink  *output.Sink
	log   logrus.FieldLogger
}

func newRunner(cfg *config.Config, stdin io.Reader, stdout io.Writer, log logrus.FieldLogger) *runner {
	return &runner{
		cfg:   cfg,
		stdin: stdin,
		sink:  output.New(stdout, output.Options{Indent: cfg.Space, Unique: cfg.Unique, Rate: cfg.Rate}),
		log:   log,
	}
}

// Run processes every input. Data and traversal errors do not stop the run;
// they are collected and returned together once all inputs are done.
func (r *runner) Run(ctx context.Context) error {
	loader := source.Loader{NDJSON: r.cfg.NDJSON, Concurrency: r.cfg.Concurrency, Stdin: r.stdin}
	docs, err := loader.LoadAll(ctx, r.cfg.Inputs)
	if err != nil {
		return err
	}

	var errs *multierror.Error
	for _, doc := range docs {
		log := r.log.WithField("input", doc.Name)
		log.WithField("documents", len(doc.Values)).Debug("processing input")

		if err := r.process(ctx, log, doc); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", doc.Name, err))
		}
		if ctx.Err() != nil {
			break
		}
	}

	if err := r.sink.Flush(); err != nil {
		errs = multierror.Append(errs, err)
	}
	written, duplicates := r.sink.Stats()
	r.log.WithField("written", written).WithField("duplicates", duplicates).Debug("run finished")

	return errs.ErrorOrNil()
}

// input is the value handed to the traversal and whether it holds several documents.
func input(doc source.Document, ndjson bool) (any, bool) {
	if len(doc.Values) == 1 && !ndjson {
		return doc.Values[0], false
	}
	return doc.Values, true
}

func (r *runner) process(ctx context.Context, log logrus.FieldLogger, doc source.Document) error {
	if len(doc.Values) == 0 {
		return nil
	}

	switch r.cfg.Mode {
	case config.ModeEvents:
		return r.events(ctx, log, doc)
	case config.ModeStringify:
		return r.stringify(ctx, doc)
	default:
		return r.match(ctx, log, doc)
	}
}

func (r *runner) match(ctx context.Context, log logrus.FieldLogger, doc source.Document) error {
	sel, err := r.cfg.Selector()
	if err != nil {
		return err
	}

	value, documents := input(doc, r.cfg.NDJSON)
	opts := append(r.cfg.MatchOptions(), match.WithLogger(log))
	if documents {
		opts = append(opts, match.NDJSON())
	}

	s, err := match.New(ctx, value, sel, opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	var errs *multierror.Error
	for v, err := range s.All(ctx) {
		if errors.Is(err, match.ErrData) || errors.Is(err, match.ErrTraversal) {
			log.WithError(err).Warn("match stream error")
			errs = multierror.Append(errs, err)
			continue
		}
		if err != nil {
			return err
		}
		if err := r.sink.Write(ctx, v); err != nil {
			return err
		}
	}
	return errs.ErrorOrNil()
}

func (r *runner) events(ctx context.Context, log logrus.FieldLogger, doc source.Document) error {
	value, documents := input(doc, r.cfg.NDJSON)
	opts := append(r.cfg.TraverseOptions(), traverse.WithLogger(log))
	if documents {
		opts = append(opts, traverse.WithDocuments())
	}

	seq, err := traverse.Walk(ctx, value, opts...)
	if err != nil {
		return err
	}

	var errs *multierror.Error
	for ev := range seq {
		if ev.Kind == event.KindError || ev.Kind == event.KindDataError {
			errs = multierror.Append(errs, ev.Err)
		}
		if err := r.sink.WriteLine(ctx, ev.String()); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errs.ErrorOrNil()
}

func (r *runner) stringify(ctx context.Context, doc source.Document) error {
	var errs *multierror.Error
	for _, v := range doc.Values {
		if err := r.sink.Write(ctx, v); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
