package pool

import (
	"bytes"
	"errors"
	"testing"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("closed")
}

func TestBuffer_WriteTo(t *testing.T) {
	t.Parallel()

	b := Get()
	defer Put(b)

	_ = b.WriteByte('[')
	_, _ = b.WriteString(`"foo"`)
	_, _ = b.Write([]byte("]"))

	if b.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", b.Len())
	}

	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != 7 || out.String() != `["foo"]` {
		t.Errorf("WriteTo() = %d, %q", n, out.String())
	}
	if b.Len() != 0 {
		t.Errorf("Len() after WriteTo = %d, want 0", b.Len())
	}
}

func TestBuffer_WriteToResetsOnError(t *testing.T) {
	t.Parallel()

	b := Get()
	defer Put(b)

	_, _ = b.WriteString("null")
	if _, err := b.WriteTo(failingWriter{}); err == nil {
		t.Fatal("WriteTo() error = nil, want error")
	}
	if b.Len() != 0 {
		t.Errorf("Len() after failed WriteTo = %d, want 0", b.Len())
	}
}

func TestPut_DropsOversizedBuffers(t *testing.T) {
	t.Parallel()

	Put(nil)
	Put(&Buffer{B: make([]byte, 0, MaxRetained+1)})

	b := Get()
	if b == nil {
		t.Fatal("Get() returned nil")
	}
	if b.Len() != 0 {
		t.Errorf("Get() returned a dirty buffer of length %d", b.Len())
	}
	Put(b)
}
