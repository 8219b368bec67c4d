package stringify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jacoelho/eventify/internal/options"
	"github.com/jacoelho/eventify/traverse"
)

// maxIndent caps indentation at ten characters, as JSON.stringify does.
const maxIndent = 10

var ErrOption = errors.New("stringify: invalid option")

type Config struct {
	Indent   string
	Traverse []traverse.Option
	Logger   logrus.FieldLogger
}

type Option = options.Option[*Config]

func DefaultConfig() Config {
	return Config{Logger: logrus.StandardLogger()}
}

// Space indents nested values with s, truncated to ten characters.
func Space(s string) Option {
	return options.NoError(func(c *Config) {
		if r := []rune(s); len(r) > maxIndent {
			s = string(r[:maxIndent])
		}
		c.Indent = s
	})
}

// Indent indents nested values with n spaces. n is capped at ten.
func Indent(n int) Option {
	return options.New(func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("%w: negative indent %d", ErrOption, n)
		}
		c.Indent = strings.Repeat(" ", min(n, maxIndent))
		return nil
	})
}

// WithTraverseOptions forwards opts to the traverser producing the events.
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
