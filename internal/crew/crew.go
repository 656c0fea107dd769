// Package crew runs the analyst steps sequentially against the Anthropic
// Messages API. Each step sees the shared data context (cached as a system
// block) and the outputs of the steps before it.
package crew

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/business-analyst/internal/agents"
	"github.com/sells-group/business-analyst/internal/cost"
	"github.com/sells-group/business-analyst/internal/metrics"
	"github.com/sells-group/business-analyst/pkg/anthropic"
)

// ProviderName identifies the runner in logs, metrics, and error details.
const ProviderName = "Anthropic"

// Option configures a Runner.
type Option func(*Runner)

// WithCalculator sets the calculator used for cost attribution.
func WithCalculator(c *cost.Calculator) Option {
	return func(r *Runner) { r.calc = c }
}

// WithTemperature sets the sampling temperature for every step.
func WithTemperature(t float64) Option {
	return func(r *Runner) { r.temperature = &t }
}

// Runner executes analyst steps on an Anthropic client.
type Runner struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature *float64
	calc        *cost.Calculator
}

// New creates a Runner.
func New(client anthropic.Client, model string, maxTokens int64, opts ...Option) (*Runner, error) {
	if client == nil {
		return nil, eris.New("crew: anthropic client is nil")
	}
	if model == "" {
		return nil, eris.New("crew: model is empty")
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	r := &Runner{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		calc:      cost.NewCalculator(cost.DefaultRates()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Name returns the provider name.
func (r *Runner) Name() string { return ProviderName }

// Run executes steps in order and returns the combined transcript.
func (r *Runner) Run(ctx context.Context, steps []agents.Step) (string, error) {
	if err := agents.Validate(steps); err != nil {
		return "", err
	}

	start := time.Now()
	var usage anthropic.TokenUsage
	outputs := make([]agents.Output, 0, len(steps))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       r.model,
			MaxTokens:   r.maxTokens,
			System:      anthropic.BuildCachedSystemBlocks(dataBlock(step.Data), step.Agent.SystemPrompt()),
			Messages:    []anthropic.Message{{Role: "user", Content: step.Prompt(outputs)}},
			Temperature: r.temperature,
		})
		if err != nil {
			return "", eris.Wrapf(err, "crew: step %s", step.Name)
		}
		usage.Add(resp.Usage)

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", eris.Errorf("crew: step %s returned empty text", step.Name)
		}

		zap.L().Debug("crew: step complete",
			zap.Int("step", i+1),
			zap.String("name", step.Name),
			zap.String("role", step.Agent.Role),
			zap.Int("chars", len(text)),
		)
		outputs = append(outputs, agents.Output{Step: step.Name, Role: step.Agent.Role, Text: text})
	}

	r.record(usage, time.Since(start))
	return Transcript(outputs), nil
}

func (r *Runner) record(usage anthropic.TokenUsage, elapsed time.Duration) {
	u := cost.Usage{
		InputTokens:      usage.InputTokens,
		OutputTokens:     usage.OutputTokens,
		CacheWriteTokens: usage.CacheCreationInputTokens,
		CacheReadTokens:  usage.CacheReadInputTokens,
	}
	usd := r.calc.Attribute(zap.L(), "anthropic", r.model, u)

	metrics.ProviderTokens.WithLabelValues(ProviderName, "input").Add(float64(u.InputTokens + u.CacheWriteTokens + u.CacheReadTokens))
	metrics.ProviderTokens.WithLabelValues(ProviderName, "output").Add(float64(u.OutputTokens))
	metrics.ProviderCostUSD.WithLabelValues(ProviderName).Add(usd)
	zap.L().Info("crew: run complete", zap.Duration("elapsed", elapsed))
}

func dataBlock(data string) string {
	return "Business data for this analysis:\n\n" + data
}

// Transcript joins step outputs under an uppercase header per step, so the
// keyword extractor can find each section by name.
func Transcript(outputs []agents.Output) string {
	parts := make([]string, 0, len(outputs))
	for _, o := range outputs {
		parts = append(parts, fmt.Sprintf("%s (%s):\n%s", header(o.Step), o.Role, o.Text))
	}
	return strings.Join(parts, "\n\n")
}

func header(step string) string {
	switch step {
	case agents.StepCleaning:
		return "DATA CLEANING"
	case agents.StepTrend:
		return "TRENDS"
	case agents.StepInsight:
		return "INSIGHTS"
	case agents.StepQuestion:
		return "ANSWER"
	default:
		return strings.ToUpper(step)
	}
}
