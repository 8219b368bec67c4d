package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/jacoelho/eventify/traverse"
)

const sample = `{"b": 1, "a": [true, null, "x"]}`

var sampleValue = traverse.Object{
	{Key: "b", Value: uint64(1)},
	{Key: "a", Value: []any{true, nil, "x"}},
}

func compress(t *testing.T, ext string, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	switch ext {
	case ".gz":
		w = gzip.NewWriter(&buf)
	case ".zst":
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatal(err)
		}
		w = zw
	case ".lz4":
		w = lz4.NewWriter(&buf)
	case ".s2":
		w = s2.NewWriter(&buf)
	default:
		return data
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoader_Load_Compressed(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".json", ".gz", ".zst", ".lz4", ".s2"} {
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			name := filepath.Join(t.TempDir(), "doc"+ext)
			if err := os.WriteFile(name, compress(t, ext, []byte(sample)), 0o600); err != nil {
				t.Fatal(err)
			}

			doc, err := Loader{}.Load(context.Background(), name)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if doc.Name != name || len(doc.Values) != 1 {
				t.Fatalf("Load() = %+v", doc)
			}
			if !reflect.DeepEqual(doc.Values[0], sampleValue) {
				t.Errorf("value = %#v, want %#v", doc.Values[0], sampleValue)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		ndjson bool
		want   []any
	}{
		{
			name:  "yaml documents",
			input: "z: 1\ny: [a, b]\n---\n- k: v\n",
			want: []any{
				traverse.Object{{Key: "z", Value: uint64(1)}, {Key: "y", Value: []any{"a", "b"}}},
				[]any{traverse.Object{{Key: "k", Value: "v"}}},
			},
		},
		{
			name:  "empty",
			input: "",
		},
		{
			name:   "ndjson",
			input:  "{\"n\": 1}\n\n\"two\"\n[3]\n",
			ndjson: true,
			want:   []any{traverse.Object{{Key: "n", Value: uint64(1)}}, "two", []any{uint64(3)}},
		},
		{
			name:  "non string keys",
			input: "1: one\ntrue: yes\n",
			want:  []any{traverse.Object{{Key: "1", Value: "one"}, {Key: "true", Value: "yes"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode(strings.NewReader(tt.input), tt.ndjson)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Decode(strings.NewReader("{\"a\": 1}\n{broken\n"), true); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode(ndjson) error = %v, want ErrDecode", err)
	}
	if _, err := Decode(strings.NewReader("a: [1, 2\n"), false); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode(yaml) error = %v, want ErrDecode", err)
	}
	if _, err := Decompress("doc.bz2", strings.NewReader("")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Decompress(.bz2) error = %v, want ErrUnsupported", err)
	}
	if _, err := Decompress("doc.gz", strings.NewReader("not gzip")); err == nil {
		t.Error("Decompress(.gz) accepted invalid data")
	}
}

func TestLoader_LoadAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var names []string
	for i, body := range []string{"1", "[2]", "three: 3"} {
		name := filepath.Join(dir, string(rune('a'+i))+".yaml")
		if err := os.WriteFile(name, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}

	docs, err := Loader{Concurrency: 2}.LoadAll(context.Background(), names)
	if err != nil {
		t.Fatal(err)
	}
	for i, doc := range docs {
		if doc.Name != names[i] {
			t.Errorf("docs[%d].Name = %s, want %s", i, doc.Name, names[i])
		}
	}

	_, err = Loader{}.LoadAll(context.Background(), append(names, filepath.Join(dir, "missing.json")))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadAll() error = %v, want not exist", err)
	}
}

func TestLoader_Stdin(t *testing.T) {
	t.Parallel()

	doc, err := Loader{NDJSON: true, Stdin: strings.NewReader("1\n2\n")}.Load(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != Stdin || !reflect.DeepEqual(doc.Values, []any{uint64(1), uint64(2)}) {
		t.Errorf("Load(stdin) = %#v", doc)
	}
}
