package channel

import (
	"fmt"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/arloliu/go-mbim/logger"
	"github.com/arloliu/go-mbim/mbim"
	"github.com/arloliu/go-mbim/trace"
)

// Default values and ranges of the channel configuration.
const (
	DefaultTimeout = 10 * time.Second
	MinTimeout     = 1 * time.Second
	MaxTimeout     = 120 * time.Second

	DefaultMaxControlTransfer = 4096
	MinMaxControlTransfer     = mbim.MinMaxControlTransfer
	MaxMaxControlTransfer     = 4096

	DefaultIndicationQueueSize = 16
)

// Config holds the configuration of a Channel.
type Config struct {
	timeout             time.Duration
	maxControlTransfer  uint32
	indicationQueueSize int

	logger   logger.Logger
	clock    clock.Clock
	recorder trace.Recorder
}

// NewConfig creates a channel configuration. opts are applied in order.
func NewConfig(opts ...ConfigOption) (*Config, error) {
	cfg := &Config{
		timeout:             DefaultTimeout,
		maxControlTransfer:  DefaultMaxControlTransfer,
		indicationQueueSize: DefaultIndicationQueueSize,
		logger:              logger.GetLogger(),
		clock:               clock.NewClock(),
		recorder:            trace.NopRecorder{},
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Timeout returns the time a transaction waits for its response.
func (cfg *Config) Timeout() time.Duration { return cfg.timeout }

// MaxControlTransfer returns the fragment size used by Transact.
func (cfg *Config) MaxControlTransfer() uint32 { return cfg.maxControlTransfer }

// IndicationQueueSize returns the capacity of the indication queue.
func (cfg *Config) IndicationQueueSize() int { return cfg.indicationQueueSize }

// Logger returns the configured logger.
func (cfg *Config) Logger() logger.Logger { return cfg.logger }

// Clock returns the clock used for timeouts.
func (cfg *Config) Clock() clock.Clock { return cfg.clock }

// ConfigOption is a functional option for configuring a Config.
type ConfigOption interface {
	apply(*Config) error
}

type configOptFunc func(*Config) error

func (f configOptFunc) apply(cfg *Config) error { return f(cfg) }

// WithTimeout sets the transaction timeout, in the range [1s, 120s].
func WithTimeout(d time.Duration) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if d < MinTimeout || d > MaxTimeout {
			return fmt.Errorf("%w: timeout %v out of range [%v, %v]", ErrInvalidConfig, d, MinTimeout, MaxTimeout)
		}
		cfg.timeout = d

		return nil
	})
}

// WithMaxControlTransfer sets the fragment size used by Transact, in the range [64, 4096].
func WithMaxControlTransfer(size uint32) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if size < MinMaxControlTransfer || size > MaxMaxControlTransfer {
			return fmt.Errorf("%w: max control transfer %d out of range [%d, %d]",
				ErrInvalidConfig, size, MinMaxControlTransfer, MaxMaxControlTransfer)
		}
		cfg.maxControlTransfer = size

		return nil
	})
}

// WithIndicationQueueSize sets the number of indications buffered for handlers.
func WithIndicationQueueSize(size int) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if size < 1 {
			return fmt.Errorf("%w: indication queue size must be >= 1", ErrInvalidConfig)
		}
		cfg.indicationQueueSize = size

		return nil
	})
}

// WithLogger sets the logger for the channel.
func WithLogger(l logger.Logger) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if l == nil {
			return fmt.Errorf("%w: logger must not be nil", ErrInvalidConfig)
		}
		cfg.logger = l

		return nil
	})
}

// WithClock sets the clock used for timeouts.
func WithClock(clk clock.Clock) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if clk == nil {
			return fmt.Errorf("%w: clock must not be nil", ErrInvalidConfig)
		}
		cfg.clock = clk

		return nil
	})
}

// WithRecorder sets the recorder that receives every sent and received packet.
func WithRecorder(rec trace.Recorder) ConfigOption {
	return configOptFunc(func(cfg *Config) error {
		if rec == nil {
			return fmt.Errorf("%w: recorder must not be nil", ErrInvalidConfig)
		}
		cfg.recorder = rec

		return nil
	})
}
