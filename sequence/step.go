package sequence

import (
	"context"
	"errors"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/arloliu/go-mbim/logger"
)

// errStepSkipped is returned by a step whose capability gate is closed.
var errStepSkipped = errors.New("sequence: step skipped")

// Step is one operation of a sequence.
type Step struct {
	// Name identifies the step in logs and errors.
	Name string
	// Ref is the reference clause reported when the step fails.
	Ref string
	// Run performs the step.
	Run func(ctx context.Context) error
}

// StepResult describes one executed step.
type StepResult struct {
	// Name and Ref of the step.
	Name string
	Ref  string

	// Index of the step in its sequence (0-based).
	Index int

	// Skipped is true when the step was not attempted because the function
	// does not advertise the capability it requires.
	Skipped bool

	// Duration is how long the step took.
	Duration time.Duration

	// Err is the error that aborted the sequence, if any.
	Err error
}

// Observer is called after every step, including skipped and failed ones.
type Observer func(result StepResult)

// Option configures a sequence.
type Option interface {
	apply(*options)
}

type optFunc func(*options)

func (f optFunc) apply(o *options) { f(o) }

type options struct {
	logger   logger.Logger
	clock    clock.Clock
	observer Observer
}

func newOptions(opts []Option) options {
	o := options{
		logger: logger.GetLogger(),
		clock:  clock.NewClock(),
	}

	for _, opt := range opts {
		opt.apply(&o)
	}

	return o
}

// WithLogger sets the logger of the sequence.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithClock sets the clock used to time steps.
func WithClock(clk clock.Clock) Option {
	return optFunc(func(o *options) {
		if clk != nil {
			o.clock = clk
		}
	})
}

// WithObserver sets an observer that receives the result of every step.
func WithObserver(observer Observer) Option {
	return optFunc(func(o *options) {
		o.observer = observer
	})
}

// runSteps executes steps in order and stops at the first failure.
func runSteps(ctx context.Context, name string, o options, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return &SequenceError{Ref: step.Ref, Step: step.Name, Err: err}
		}

		start := o.clock.Now()
		err := step.Run(ctx)

		result := StepResult{
			Name:     step.Name,
			Ref:      step.Ref,
			Index:    i,
			Duration: o.clock.Since(start),
		}

		if errors.Is(err, errStepSkipped) {
			result.Skipped = true
			err = nil
		}

		if err != nil {
			var seqErr *SequenceError
			if !errors.As(err, &seqErr) {
				seqErr = &SequenceError{Ref: step.Ref, Step: step.Name, Err: err}
			}
			result.Err = seqErr

			if o.observer != nil {
				o.observer(result)
			}

			o.logger.Error("sequence: step failed",
				"sequence", name, "step", step.Name, "ref", seqErr.Ref, "error", seqErr.Err)

			return seqErr
		}

		if o.observer != nil {
			o.observer(result)
		}

		if o.logger.Level() == logger.DebugLevel {
			o.logger.Debug("sequence: step done",
				"sequence", name, "step", step.Name, "skipped", result.Skipped, "duration", result.Duration)
		}
	}

	return nil
}
