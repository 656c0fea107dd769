package analysis

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/business-analyst/internal/cost"
	"github.com/sells-group/business-analyst/internal/metrics"
	"github.com/sells-group/business-analyst/pkg/gemini"
)

// GeminiName identifies the secondary provider.
const GeminiName = "Gemini"

// GeminiOption configures a GeminiCompleter.
type GeminiOption func(*GeminiCompleter)

// WithGeminiTemperature sets the sampling temperature sent with every prompt.
func WithGeminiTemperature(t float64) GeminiOption {
	return func(g *GeminiCompleter) { g.temperature = &t }
}

// WithGeminiCalculator sets the calculator used for cost attribution.
func WithGeminiCalculator(c *cost.Calculator) GeminiOption {
	return func(g *GeminiCompleter) { g.calc = c }
}

// GeminiCompleter adapts a gemini.Client to Completer.
type GeminiCompleter struct {
	client      gemini.Client
	model       string
	temperature *float64
	calc        *cost.Calculator
}

// NewGeminiCompleter wraps client. An empty model uses the client default.
func NewGeminiCompleter(client gemini.Client, model string, opts ...GeminiOption) *GeminiCompleter {
	g := &GeminiCompleter{
		client: client,
		model:  model,
		calc:   cost.NewCalculator(cost.DefaultRates()),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the provider name.
func (g *GeminiCompleter) Name() string { return GeminiName }

// Complete sends prompt as a single user turn and returns the text.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", ErrSecondaryUnavailable
	}
	resp, err := g.client.GenerateContent(ctx, gemini.GenerateRequest{
		Model:       g.model,
		Prompt:      prompt,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", eris.Wrap(err, "analysis: gemini generate")
	}

	u := cost.Usage{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	}
	model := g.model
	if resp.ModelVersion != "" && model == "" {
		model = resp.ModelVersion
	}
	usd := g.calc.Attribute(zap.L(), "gemini", model, u)
	metrics.ProviderTokens.WithLabelValues(GeminiName, "input").Add(float64(u.InputTokens))
	metrics.ProviderTokens.WithLabelValues(GeminiName, "output").Add(float64(u.OutputTokens))
	metrics.ProviderCostUSD.WithLabelValues(GeminiName).Add(usd)

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("analysis: gemini returned empty text")
	}
	return text, nil
}
