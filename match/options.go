package match

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jacoelho/eventify/internal/options"
	"github.com/jacoelho/eventify/traverse"
)

const (
	// DefaultBufferLength is the capacity of the match ring buffer.
	DefaultBufferLength = 1024

	// DefaultHighWaterMark bounds the matches handed to the reader before the traversal is paused.
	DefaultHighWaterMark = 16
)

type Config struct {
	MinDepth      int
	BufferLength  int
	HighWaterMark int
	Numbers       bool
	Documents     bool
	Traverse      []traverse.Option
	Logger        logrus.FieldLogger

	onPause func()
}

type Option = options.Option[*Config]

func DefaultConfig() Config {
	return Config{
		BufferLength:  DefaultBufferLength,
		HighWaterMark: DefaultHighWaterMark,
		Logger:        logrus.StandardLogger(),
	}
}

// MinDepth skips matching, and materialising, values nested less than n containers deep.
func MinDepth(n int) Option {
	return options.New(func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("%w: min depth %d is negative", ErrOption, n)
		}
		c.MinDepth = n
		return nil
	})
}

func BufferLength(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: buffer length %d must be positive", ErrOption, n)
		}
		c.BufferLength = n
		return nil
	})
}

func HighWaterMark(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: high water mark %d must be positive", ErrOption, n)
		}
		c.HighWaterMark = n
		return nil
	})
}

// Numbers compares array indices as decimal strings against key and regexp selectors.
func Numbers() Option {
	return options.NoError(func(c *Config) {
		c.Numbers = true
	})
}

// NDJSON treats the input as a sequence of root documents.
func NDJSON() Option {
	return options.NoError(func(c *Config) {
		c.Documents = true
	})
}

// WithTraverseOptions forwards opts to the underlying traverser.
func WithTraverseOptions(opts ...traverse.Option) Option {
	return options.NoError(func(c *Config) {
		c.Traverse = append(c.Traverse, opts...)
	})
}

func WithLogger(l logrus.FieldLogger) Option {
	return options.NoError(func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	})
}
