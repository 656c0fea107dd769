package analysis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sells-group/business-analyst/internal/agents"
	"github.com/sells-group/business-analyst/internal/resilience"
)

type stubRunner struct {
	calls atomic.Int32
	fn    func(ctx context.Context, steps []agents.Step) (string, error)
}

func (s *stubRunner) Name() string { return "Anthropic" }

func (s *stubRunner) Run(ctx context.Context, steps []agents.Step) (string, error) {
	s.calls.Add(1)
	return s.fn(ctx, steps)
}

type stubCompleter struct {
	calls  atomic.Int32
	prompt string
	fn     func(ctx context.Context, prompt string) (string, error)
}

func (s *stubCompleter) Name() string { return "Gemini" }

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls.Add(1)
	s.prompt = prompt
	return s.fn(ctx, prompt)
}

func replyRunner(text string, err error) *stubRunner {
	return &stubRunner{fn: func(context.Context, []agents.Step) (string, error) { return text, err }}
}

func replyCompleter(text string, err error) *stubCompleter {
	return &stubCompleter{fn: func(context.Context, string) (string, error) { return text, err }}
}

func fastController(r Runner, c Completer) *Controller {
	return NewController(r, c, ControllerConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
			Multiplier:     1.5,
		},
		PrimaryTimeout:   time.Second,
		SecondaryTimeout: time.Second,
	})
}
