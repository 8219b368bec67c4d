// Package logging configures logrus for the command line tool.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	colorRed    = 31
	colorYellow = 33
	colorBlue   = 36
	colorGray   = 37

	defaultTimestampFormat = "2006-01-02 15:04:05"
)

type Options struct {
	// Verbose enables debug entries, including the traversal lifecycle.
	Verbose bool
	// DisableColor drops the ANSI level colors, e.g. when stderr is not a terminal.
	DisableColor bool
	// Output defaults to os.Stderr so log lines never mix with results.
	Output io.Writer
}

// Init applies opts to the standard logger.
func Init(opts Options) {
	configure(logrus.StandardLogger(), opts)
}

// New returns a dedicated logger configured with opts.
func New(opts Options) *logrus.Logger {
	l := logrus.New()
	configure(l, opts)
	return l
}

func configure(l *logrus.Logger, opts Options) {
	if opts.Verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)
	l.SetFormatter(&Formatter{DisableColor: opts.DisableColor})
}

func levelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return colorGray
	case logrus.WarnLevel:
		return colorYellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return colorRed
	default:
		return colorBlue
	}
}

// Formatter prints "time [LEVEL] message key=value ..." with fields in key order.
type Formatter struct {
	DisableColor    bool
	HideTime        bool
	TimestampFormat string
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	format := f.TimestampFormat
	if format == "" {
		format = defaultTimestampFormat
	}
	if !f.HideTime {
		b.WriteString(entry.Time.Format(format))
		b.WriteByte(' ')
	}

	line := fmt.Sprintf("[%s] %s", strings.ToUpper(entry.Level.String()), entry.Message)
	if f.DisableColor {
		b.WriteString(line)
	} else {
		fmt.Fprintf(b, "\033[%dm%s\033[0m", levelColor(entry.Level), line)
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}
