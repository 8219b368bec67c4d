package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/jacoelho/eventify/match"
	"github.com/jacoelho/eventify/traverse"
)

func defaults(inputs ...string) *Config {
	return &Config{
		Inputs:        inputs,
		Mode:          ModeMatch,
		Select:        "name",
		BufferLength:  match.DefaultBufferLength,
		HighWaterMark: match.DefaultHighWaterMark,
		YieldRate:     traverse.DefaultYieldRate,
		Concurrency:   4,
	}
}

func TestParse(t *testing.T) {
	tempDir := t.TempDir()
	doc := filepath.Join(tempDir, "doc.json")
	other := filepath.Join(tempDir, "other.yaml")
	for _, f := range []string{doc, other} {
		if err := os.WriteFile(f, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	with := func(c *Config, fn func(*Config)) *Config {
		fn(c)
		return c
	}

	tests := []struct {
		name    string
		args    []string
		want    *Config
		wantErr bool
	}{
		{
			name: "stdin_by_default",
			args: []string{"eventify", "-select", "name"},
			want: defaults("-"),
		},
		{
			name: "multiple_files",
			args: []string{"eventify", "-select", "name", doc, other},
			want: defaults(doc, other),
		},
		{
			name: "match_flags",
			args: []string{"eventify", "-select", "name", "-numbers", "-min-depth", "2", "-buffer-length", "8", "-high-water-mark", "4", doc},
			want: with(defaults(doc), func(c *Config) {
				c.Numbers, c.MinDepth, c.BufferLength, c.HighWaterMark = true, 2, 8, 4
			}),
		},
		{
			name: "events_mode_without_selector",
			args: []string{"eventify", "-mode", "events", "-circular", "ignore", "-ndjson", doc},
			want: with(defaults(doc), func(c *Config) {
				c.Mode, c.Select, c.IgnoreCircular, c.NDJSON = ModeEvents, "", true, true
			}),
		},
		{
			name: "output_flags",
			args: []string{"eventify", "-mode", "stringify", "-space", "\t", "-rate", "2.5", "-unique", "-concurrency", "1", "-debug", doc},
			want: with(defaults(doc), func(c *Config) {
				c.Mode, c.Select, c.Space, c.Rate, c.Unique, c.Concurrency, c.Debug = ModeStringify, "", "\t", 2.5, true, 1, true
			}),
		},
		{
			name: "regex",
			args: []string{"eventify", "-select", "^na", "-regex", doc},
			want: with(defaults(doc), func(c *Config) {
				c.Select, c.Regex = "^na", true
			}),
		},
		{name: "missing_selector", args: []string{"eventify", doc}, wantErr: true},
		{name: "invalid_mode", args: []string{"eventify", "-mode", "tokens", doc}, wantErr: true},
		{name: "invalid_circular", args: []string{"eventify", "-circular", "maybe", "-select", "a"}, wantErr: true},
		{name: "invalid_regex", args: []string{"eventify", "-select", "(", "-regex"}, wantErr: true},
		{name: "negative_min_depth", args: []string{"eventify", "-select", "a", "-min-depth", "-1"}, wantErr: true},
		{name: "zero_buffer", args: []string{"eventify", "-select", "a", "-buffer-length", "0"}, wantErr: true},
		{name: "zero_yield_rate", args: []string{"eventify", "-select", "a", "-yield-rate", "0"}, wantErr: true},
		{name: "negative_rate", args: []string{"eventify", "-select", "a", "-rate", "-1"}, wantErr: true},
		{name: "missing_file", args: []string{"eventify", "-select", "a", filepath.Join(tempDir, "nope.json")}, wantErr: true},
		{name: "unknown_flag", args: []string{"eventify", "-verbose"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, exitResult := Parse(tt.args)

			if tt.wantErr {
				if exitResult == nil {
					t.Fatal("expected exit result but got nil")
				}
				if exitResult.ExitCode != 1 {
					t.Errorf("expected exit code 1, got %d", exitResult.ExitCode)
				}
				return
			}

			if exitResult != nil {
				t.Fatalf("unexpected exit result: %s", exitResult.Message)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseHelpFlag(t *testing.T) {
	for _, arg := range []string{"-help", "--help", "-h"} {
		_, exitResult := Parse([]string{"eventify", arg})
		if exitResult == nil {
			t.Fatalf("expected exit result for %s", arg)
		}
		if exitResult.ExitCode != 0 {
			t.Errorf("expected exit code 0 for %s, got %d", arg, exitResult.ExitCode)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no_selector", mutate: func(c *Config) { c.Select = "" }, want: ErrMissingSelector},
		{name: "bad_mode", mutate: func(c *Config) { c.Mode = "x" }, want: ErrInvalidMode},
		{name: "bad_regex", mutate: func(c *Config) { c.Select, c.Regex = "[", true }, want: ErrInvalidRegex},
		{name: "high_water_mark", mutate: func(c *Config) { c.HighWaterMark = 0 }, want: ErrOutOfRange},
		{name: "concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, want: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults("-")
			tt.mutate(c)

			err := c.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_Selector(t *testing.T) {
	c := defaults("-")
	sel, err := c.Selector()
	if err != nil || sel != "name" {
		t.Errorf("Selector() = %v, %v", sel, err)
	}

	c.Select, c.Regex = "^n", true
	sel, err = c.Selector()
	if err != nil {
		t.Fatal(err)
	}
	if re, ok := sel.(*regexp.Regexp); !ok || re.String() != "^n" {
		t.Errorf("Selector() = %#v, want regexp", sel)
	}
}

func TestConfig_Options(t *testing.T) {
	c := defaults("-")
	c.IgnoreCircular, c.Numbers = true, true

	if got := len(c.TraverseOptions()); got != 2 {
		t.Errorf("TraverseOptions() has %d options, want 2", got)
	}
	if got := len(c.MatchOptions()); got != 5 {
		t.Errorf("MatchOptions() has %d options, want 5", got)
	}
}

func TestUsage(t *testing.T) {
	usage := Usage()

	expectedSections := []string{
		"eventify - stream JSON and YAML documents",
		"Usage: eventify [options]",
		"Options:",
		"-select",
		"-mode",
		"-min-depth",
		"-rate",
		"Examples:",
	}

	for _, section := range expectedSections {
		if !strings.Contains(usage, section) {
			t.Errorf("Usage() missing expected section: %s", section)
		}
	}
}
