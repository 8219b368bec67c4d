package traverse

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jacoelho/eventify/internal/options"
)

// DefaultYieldRate is the number of items processed between cooperative yields.
const DefaultYieldRate = 16384

// Config holds the traversal settings. Use the Option helpers to build one.
type Config struct {
	Policy         Policy
	IgnoreCircular bool
	YieldRate      int
	Documents      bool
	Logger         logrus.FieldLogger
}

// Option configures a Traverser.
type Option = options.Option[*Config]

// DefaultConfig coerces every category, reports circular references and yields every DefaultYieldRate items.
func DefaultConfig() Config {
	return Config{
		Policy:    DefaultPolicy(),
		YieldRate: DefaultYieldRate,
		Logger:    logrus.StandardLogger(),
	}
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IgnorePromises skips Awaiter values instead of resolving them.
func IgnorePromises() Option {
	return options.NoError(func(c *Config) { c.Policy.Promises = false })
}

// IgnoreBuffers skips byte slices instead of decoding them as UTF-8 strings.
func IgnoreBuffers() Option {
	return options.NoError(func(c *Config) { c.Policy.Buffers = false })
}

// IgnoreMaps skips map-like values instead of converting them to objects.
func IgnoreMaps() Option {
	return options.NoError(func(c *Config) { c.Policy.Maps = false })
}

// IgnoreIterables skips sequences and channels instead of collecting them into arrays.
func IgnoreIterables() Option {
	return options.NoError(func(c *Config) { c.Policy.Iterables = false })
}

// IgnoreCircular closes repeated containers silently instead of emitting a DataError.
func IgnoreCircular() Option {
	return options.NoError(func(c *Config) { c.IgnoreCircular = true })
}

// WithPolicy replaces the whole coercion policy.
func WithPolicy(p Policy) Option {
	return options.NoError(func(c *Config) { c.Policy = p })
}

// WithYieldRate sets how many items are processed per time slice. n must be positive.
func WithYieldRate(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: yield rate must be positive, got %d", ErrInvalidOption, n)
		}
		c.YieldRate = n
		return nil
	})
}

// WithDocuments treats the root as a sequence of documents, each traversed as its own root
// without surrounding array events.
func WithDocuments() Option {
	return options.NoError(func(c *Config) { c.Documents = true })
}

// WithLogger sets the debug logger. A nil logger keeps the default.
func WithLogger(l logrus.FieldLogger) Option {
	return options.NoError(func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	})
}
