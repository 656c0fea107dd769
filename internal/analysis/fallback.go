package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/business-analyst/internal/agents"
	"github.com/sells-group/business-analyst/internal/crew"
	"github.com/sells-group/business-analyst/internal/metrics"
	"github.com/sells-group/business-analyst/internal/resilience"
)

// Runner executes the multi-step analysis on the primary provider.
type Runner interface {
	Name() string
	Run(ctx context.Context, steps []agents.Step) (string, error)
}

// Completer answers a single prompt on the secondary provider.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrSecondaryUnavailable is returned when no secondary provider is configured.
var ErrSecondaryUnavailable = eris.New("analysis: secondary provider unavailable")

// RunnerError is a failed primary attempt.
type RunnerError struct {
	Provider string
	Attempt  int
	Err      error
}

func (e *RunnerError) Error() string {
	return fmt.Sprintf("%s attempt %d: %v", e.Provider, e.Attempt, e.Err)
}

func (e *RunnerError) Unwrap() error { return e.Err }

// TimeoutError reports a provider call that outlived its deadline.
type TimeoutError struct {
	Provider string
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s call timed out after %s", e.Provider, e.After)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// Controller runs the primary provider with bounded retries and exposes the
// secondary provider for the caller to use when the primary is exhausted.
type Controller struct {
	runner           Runner
	completer        Completer
	retry            resilience.RetryConfig
	primaryTimeout   time.Duration
	secondaryTimeout time.Duration
}

// ControllerConfig holds the Controller's tunables.
type ControllerConfig struct {
	Retry            resilience.RetryConfig
	PrimaryTimeout   time.Duration
	SecondaryTimeout time.Duration
}

// NewController creates a Controller. Either provider may be nil.
func NewController(runner Runner, completer Completer, cfg ControllerConfig) *Controller {
	if cfg.PrimaryTimeout <= 0 {
		cfg.PrimaryTimeout = 180 * time.Second
	}
	if cfg.SecondaryTimeout <= 0 {
		cfg.SecondaryTimeout = 90 * time.Second
	}
	return &Controller{
		runner:           runner,
		completer:        completer,
		retry:            cfg.Retry,
		primaryTimeout:   cfg.PrimaryTimeout,
		secondaryTimeout: cfg.SecondaryTimeout,
	}
}

// PrimaryName returns the primary provider's name. A controller without a
// runner still reports the configured provider.
func (c *Controller) PrimaryName() string {
	if c.runner == nil {
		return crew.ProviderName
	}
	return c.runner.Name()
}

// SecondaryName returns the secondary provider's name.
func (c *Controller) SecondaryName() string {
	if c.completer == nil {
		return GeminiName
	}
	return c.completer.Name()
}

// RunPrimary runs steps on the primary provider. Quota errors, timeouts and
// cancellation end the attempts early. It reports false when no attempt
// produced text.
func (c *Controller) RunPrimary(ctx context.Context, steps []agents.Step) (string, bool) {
	log := loggerFrom(ctx)
	if c.runner == nil {
		log.Info("analysis: no primary provider configured")
		return "", false
	}
	name := c.runner.Name()

	cfg := c.retry
	cfg.ShouldRetry = retryPrimary
	cfg.OnRetry = resilience.RetryLogger(name, "run")

	attempt := 0
	text, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		attempt++
		log.Debug("analysis: state", zap.String("state", "primary_attempt"), zap.Int("attempt", attempt))

		start := time.Now()
		out, err := await(ctx, name, c.primaryTimeout, func(ctx context.Context) (string, error) {
			return c.runner.Run(ctx, steps)
		})
		metrics.ProviderDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err == nil && strings.TrimSpace(out) == "" {
			err = eris.New("analysis: primary returned empty text")
		}
		metrics.ProviderCalls.WithLabelValues(name, outcome(err)).Inc()
		if err != nil {
			return "", &RunnerError{Provider: name, Attempt: attempt, Err: err}
		}
		return out, nil
	})
	if err != nil {
		log.Warn("analysis: primary provider exhausted",
			zap.String("provider", name),
			zap.Int("attempts", attempt),
			zap.String("class", string(resilience.Classify(err))),
			zap.Error(err),
		)
		return "", false
	}
	return text, true
}

// RunSecondary sends prompt to the secondary provider. The returned text is
// not validated.
func (c *Controller) RunSecondary(ctx context.Context, prompt string) (string, error) {
	if c.completer == nil {
		return "", ErrSecondaryUnavailable
	}
	name := c.completer.Name()

	start := time.Now()
	out, err := await(ctx, name, c.secondaryTimeout, func(ctx context.Context) (string, error) {
		return c.completer.Complete(ctx, prompt)
	})
	metrics.ProviderDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	metrics.ProviderCalls.WithLabelValues(name, outcome(err)).Inc()
	if err != nil {
		return "", eris.Wrapf(err, "analysis: %s call", name)
	}
	return out, nil
}

// outcome is the metrics label for a provider call result.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(resilience.Classify(err))
}

func retryPrimary(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return false
	}
	return resilience.Retryable(err)
}

type callResult[T any] struct {
	val T
	err error
}

// await runs fn in its own goroutine and waits for its result or the
// deadline, whichever comes first. A runner that ignores its context cannot
// hold the caller past the timeout.
func await[T any](ctx context.Context, provider string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		v, err := fn(callCtx)
		done <- callResult[T]{val: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return zero, &TimeoutError{Provider: provider, After: timeout}
		}
		return r.val, r.err
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, &TimeoutError{Provider: provider, After: timeout}
	}
}
