package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/jacoelho/eventify/internal/exit"
	"github.com/jacoelho/eventify/internal/source"
	"github.com/jacoelho/eventify/match"
	"github.com/jacoelho/eventify/traverse"
)

// Mode selects what the tool prints for each input document.
type Mode string

const (
	// ModeMatch prints every value selected by -select.
	ModeMatch Mode = "match"
	// ModeEvents prints the traversal events, one per line.
	ModeEvents Mode = "events"
	// ModeStringify re-serialises each document.
	ModeStringify Mode = "stringify"
)

var (
	ErrMissingSelector = errors.New("match mode requires -select")
	ErrInvalidMode     = errors.New("mode must be one of match, events, stringify")
	ErrInvalidCircular = errors.New("circular must be error or ignore")
	ErrInvalidRegex    = errors.New("select is not a valid regular expression")
	ErrOutOfRange      = errors.New("value out of range")
)

// Config represents the complete configuration for the eventify tool.
type Config struct {
	Inputs []string
	Mode   Mode
	Debug  bool

	// Matching
	Select        string
	Regex         bool
	Numbers       bool
	MinDepth      int
	BufferLength  int
	HighWaterMark int

	// Traversal
	NDJSON         bool
	IgnoreCircular bool
	YieldRate      int

	// Output
	Space       string
	Rate        float64 // records per second (0 = unlimited)
	Unique      bool
	Concurrency int
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeMatch:
		if c.Select == "" {
			return ErrMissingSelector
		}
	case ModeEvents, ModeStringify:
	default:
		return fmt.Errorf("%w, got: %s", ErrInvalidMode, c.Mode)
	}

	if c.Regex {
		if _, err := regexp.Compile(c.Select); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRegex, err)
		}
	}

	checks := []struct {
		name string
		ok   bool
	}{
		{"min-depth", c.MinDepth >= 0},
		{"buffer-length", c.BufferLength > 0},
		{"high-water-mark", c.HighWaterMark > 0},
		{"yield-rate", c.YieldRate > 0},
		{"concurrency", c.Concurrency > 0},
		{"rate", c.Rate >= 0},
	}
	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("%w: -%s", ErrOutOfRange, check.name)
		}
	}

	for _, input := range c.Inputs {
		if input == source.Stdin {
			continue
		}
		if _, err := os.Stat(input); err != nil {
			return fmt.Errorf("input %s not found: %w", input, err)
		}
	}

	return nil
}

// Selector returns the -select value as accepted by match.New.
func (c *Config) Selector() (any, error) {
	if !c.Regex {
		return c.Select, nil
	}
	re, err := regexp.Compile(c.Select)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegex, err)
	}
	return re, nil
}

func (c *Config) TraverseOptions() []traverse.Option {
	opts := []traverse.Option{traverse.WithYieldRate(c.YieldRate)}
	if c.IgnoreCircular {
		opts = append(opts, traverse.IgnoreCircular())
	}
	return opts
}

func (c *Config) MatchOptions() []match.Option {
	opts := []match.Option{
		match.MinDepth(c.MinDepth),
		match.BufferLength(c.BufferLength),
		match.HighWaterMark(c.HighWaterMark),
		match.WithTraverseOptions(c.TraverseOptions()...),
	}
	if c.Numbers {
		opts = append(opts, match.Numbers())
	}
	return opts
}

// modeFlag implements flag.Value for -mode.
type modeFlag struct {
	mode *Mode
}

func (m modeFlag) String() string {
	if m.mode == nil {
		return ""
	}
	return string(*m.mode)
}

func (m modeFlag) Set(value string) error {
	switch Mode(value) {
	case ModeMatch, ModeEvents, ModeStringify:
		*m.mode = Mode(value)
		return nil
	}
	return fmt.Errorf("%w, got: %s", ErrInvalidMode, value)
}

// circularFlag implements flag.Value for -circular.
type circularFlag struct {
	ignore *bool
}

func (c circularFlag) String() string {
	if c.ignore != nil && *c.ignore {
		return "ignore"
	}
	return "error"
}

func (c circularFlag) Set(value string) error {
	switch value {
	case "error":
		*c.ignore = false
	case "ignore":
		*c.ignore = true
	default:
		return fmt.Errorf("%w, got: %s", ErrInvalidCircular, value)
	}
	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	name := "eventify"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	cfg := &Config{Mode: ModeMatch}
	fs.Var(modeFlag{&cfg.Mode}, "mode", "Output mode: match, events or stringify")
	fs.Var(circularFlag{&cfg.IgnoreCircular}, "circular", "Circular references: error or ignore")
	fs.StringVar(&cfg.Select, "select", "", "Property name, $.path or regular expression to match")
	fs.BoolVar(&cfg.Regex, "regex", false, "Treat -select as a regular expression")
	fs.BoolVar(&cfg.Numbers, "numbers", false, "Match array indices against -select")
	fs.IntVar(&cfg.MinDepth, "min-depth", 0, "Minimum depth of matched values")
	fs.IntVar(&cfg.BufferLength, "buffer-length", match.DefaultBufferLength, "Match buffer capacity")
	fs.IntVar(&cfg.HighWaterMark, "high-water-mark", match.DefaultHighWaterMark, "Matches read ahead before pausing")
	fs.BoolVar(&cfg.NDJSON, "ndjson", false, "Inputs hold one document per line")
	fs.IntVar(&cfg.YieldRate, "yield-rate", traverse.DefaultYieldRate, "Items traversed between yields")
	fs.StringVar(&cfg.Space, "space", "", "Indentation for printed values")
	fs.Float64Var(&cfg.Rate, "rate", 0, "Records printed per second (0 for unlimited)")
	fs.BoolVar(&cfg.Unique, "unique", false, "Drop duplicate records")
	fs.IntVar(&cfg.Concurrency, "concurrency", 4, "Inputs decoded concurrently")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Errorf("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	cfg.Inputs = fs.Args()
	if len(cfg.Inputs) == 0 {
		cfg.Inputs = []string{source.Stdin}
	}

	if err := cfg.Validate(); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	return cfg, nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `eventify - stream JSON and YAML documents as events and matches

Usage: eventify [options] [file ...]

Reads standard input when no file is given. Files ending in .gz, .zst, .lz4
or .s2 are decompressed.

Options:
  -mode MODE              match (default), events or stringify
  -select SELECTOR        Property name, $.path, or regular expression with -regex
  -regex                  Treat -select as a regular expression
  -numbers                Match array indices against -select
  -min-depth N            Minimum depth of matched values (default: 0)
  -buffer-length N        Match buffer capacity (default: 1024)
  -high-water-mark N      Matches read ahead before pausing (default: 16)
  -ndjson                 Inputs hold one document per line
  -circular MODE          error (default) or ignore
  -yield-rate N           Items traversed between yields (default: 16384)
  -space STRING           Indentation for printed values
  -rate N                 Records printed per second (0 for unlimited)
  -unique                 Drop duplicate records
  -concurrency N          Inputs decoded concurrently (default: 4)
  -debug                  Enable debug logging
  -h, -help               Show this help message

Examples:
  eventify -select name users.json              # Every "name" property
  eventify -select '$.items[*].id' orders.yaml  # Path selector
  eventify -select '^x-' -regex api.yaml        # Keys matching a pattern
  eventify -mode events doc.json.gz             # Dump traversal events
  eventify -mode stringify -space '  ' doc.yaml # Re-indent as JSON`
}
