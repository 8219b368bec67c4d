package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "default", verbose: false, wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := New(Options{Verbose: tt.verbose, DisableColor: true, Output: &buf})
			l.Debug("hidden unless verbose")

			if got := strings.Contains(buf.String(), "hidden unless verbose"); got != tt.wantDebug {
				t.Errorf("debug entry written = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Options{DisableColor: true, Output: &buf})
	l.Formatter.(*Formatter).HideTime = true

	l.WithField("run", "abc").WithError(errors.New("boom")).Warn("traversal failed")

	if want := "[WARNING] traversal failed error=boom run=abc\n"; buf.String() != want {
		t.Errorf("Format() = %q, want %q", buf.String(), want)
	}
}

func TestFormatter_Color(t *testing.T) {
	t.Parallel()

	f := &Formatter{HideTime: true}
	out, err := f.Format(&logrus.Entry{Level: logrus.ErrorLevel, Message: "x", Data: logrus.Fields{}})
	if err != nil {
		t.Fatal(err)
	}
	if want := "\033[31m[ERROR] x\033[0m\n"; string(out) != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
}
