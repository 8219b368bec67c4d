package exit

import (
	"bytes"
	"errors"
	"testing"
)

func TestResult_Print(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "adds_newline", message: "done", want: "done\n"},
		{name: "keeps_newline", message: "done\n", want: "done\n"},
		{name: "empty", message: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			r := &Result{Output: &buf, Message: tt.message}
			r.Print()
			if buf.String() != tt.want {
				t.Errorf("Print() wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	if r := Success("ok"); r.ExitCode != CodeSuccess || r.Message != "ok" {
		t.Errorf("Success() = %+v", r)
	}
	if r := Errorf("bad %d", 1); r.ExitCode != CodeFailure || r.Message != "bad 1" {
		t.Errorf("Errorf() = %+v", r)
	}
	if r := FromError(nil); r != nil {
		t.Errorf("FromError(nil) = %+v, want nil", r)
	}
	if r := FromError(errors.New("boom")); r.ExitCode != CodeFailure || r.Message != "Error: boom" {
		t.Errorf("FromError() = %+v", r)
	}
}
