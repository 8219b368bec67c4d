// Package source loads the documents fed to the command line tool.
//
// Files are decompressed according to their extension and decoded as YAML,
// which also accepts JSON. Mapping order is preserved by decoding into
// traverse.Object.
package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"

	"github.com/jacoelho/eventify/traverse"
)

// Stdin is the name used for standard input.
const Stdin = "-"

// maxLine bounds a single NDJSON line.
const maxLine = 64 << 20

var (
	ErrUnsupported = errors.New("source: unsupported input")
	ErrDecode      = errors.New("source: decode failed")
)

// Document is every value decoded from one input.
type Document struct {
	Name   string
	Values []any
}

// Loader decodes inputs. The zero value reads multi-document YAML.
type Loader struct {
	// NDJSON decodes one value per non-blank line.
	NDJSON bool
	// Concurrency bounds LoadAll; zero or negative means one input at a time.
	Concurrency int
	// Stdin replaces os.Stdin when set.
	Stdin io.Reader
}

// LoadAll decodes names concurrently and returns the documents in input order.
// The first failure cancels the remaining loads.
func (l Loader) LoadAll(ctx context.Context, names []string) ([]Document, error) {
	docs := make([]Document, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(l.Concurrency, 1))
	for i, name := range names {
		g.Go(func() error {
			doc, err := l.Load(ctx, name)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Load decodes a single input. Stdin is read for Stdin or an empty name.
func (l Loader) Load(ctx context.Context, name string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	var r io.ReadCloser
	if name == "" || name == Stdin {
		name = Stdin
		in := l.Stdin
		if in == nil {
			in = os.Stdin
		}
		r = io.NopCloser(in)
	} else {
		f, err := os.Open(name)
		if err != nil {
			return Document{}, err
		}
		r = f
	}
	defer r.Close()

	dr, err := Decompress(name, r)
	if err != nil {
		return Document{}, err
	}
	defer dr.Close()

	values, err := Decode(dr, l.NDJSON)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", name, err)
	}
	return Document{Name: name, Values: values}, nil
}

// Decompress wraps r with the decompressor matching the extension of name.
// Unknown extensions are read as is.
func Decompress(name string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return zr, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return zr.IOReadCloser(), nil
	case ".lz4":
		return io.NopCloser(lz4.NewReader(r)), nil
	case ".s2", ".sz":
		return io.NopCloser(s2.NewReader(r)), nil
	case ".bz2", ".xz", ".zip":
		return nil, fmt.Errorf("%w: %s compression", ErrUnsupported, filepath.Ext(name))
	default:
		return io.NopCloser(r), nil
	}
}

// Decode reads every document of r. With ndjson each non-blank line is one document.
func Decode(r io.Reader, ndjson bool) ([]any, error) {
	if ndjson {
		return decodeLines(r)
	}

	var values []any
	dec := yaml.NewDecoder(r, yaml.UseOrderedMap())
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", ErrDecode, len(values)+1, err)
		}
		values = append(values, Ordered(v))
	}
}

func decodeLines(r io.Reader) ([]any, error) {
	var values []any

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}

		var v any
		if err := yaml.UnmarshalWithOptions(text, &v, yaml.UseOrderedMap()); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrDecode, line, err)
		}
		values = append(values, Ordered(v))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrDecode, line+1, err)
	}
	return values, nil
}

// Ordered converts decoded yaml.MapSlice values into traverse.Object, recursively.
func Ordered(v any) any {
	switch v := v.(type) {
	case yaml.MapSlice:
		obj := make(traverse.Object, 0, len(v))
		for _, item := range v {
			obj = append(obj, traverse.Member{Key: keyString(item.Key), Value: Ordered(item.Value)})
		}
		return obj
	case []any:
		for i := range v {
			v[i] = Ordered(v[i])
		}
		return v
	case map[string]any:
		for k, item := range v {
			v[k] = Ordered(item)
		}
		return v
	default:
		return v
	}
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	if k == nil {
		return "null"
	}
	return fmt.Sprint(k)
}
