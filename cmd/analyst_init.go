package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/business-analyst/internal/analysis"
	"github.com/sells-group/business-analyst/internal/config"
	"github.com/sells-group/business-analyst/internal/cost"
	"github.com/sells-group/business-analyst/internal/crew"
	"github.com/sells-group/business-analyst/internal/resilience"
	anthropicpkg "github.com/sells-group/business-analyst/pkg/anthropic"
	"github.com/sells-group/business-analyst/pkg/gemini"
)

// initService validates the config for mode, builds both provider clients,
// and wires them into an analysis.Service. A provider without a key is left
// out; the service then skips straight to the other one.
func initService(c *config.Config, mode string) (*analysis.Service, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	calc := cost.NewCalculator(cost.DefaultRates())

	var runner analysis.Runner
	if c.Anthropic.Key != "" {
		// Retries are handled by the fallback controller.
		opts := []anthropicpkg.Option{anthropicpkg.WithMaxRetries(0)}
		if c.Anthropic.BaseURL != "" {
			opts = append(opts, anthropicpkg.WithBaseURL(c.Anthropic.BaseURL))
		}
		client := anthropicpkg.NewClient(c.Anthropic.Key, opts...)
		r, err := crew.New(client, c.Anthropic.Model, c.Anthropic.MaxTokens,
			crew.WithCalculator(calc),
			crew.WithTemperature(c.Anthropic.Temperature),
		)
		if err != nil {
			return nil, err
		}
		runner = r
	} else {
		zap.L().Warn("anthropic key not set, primary provider disabled")
	}

	var completer analysis.Completer
	if c.Gemini.Key != "" {
		client := gemini.NewClient(c.Gemini.Key,
			gemini.WithBaseURL(c.Gemini.BaseURL),
			gemini.WithModel(c.Gemini.Model),
			gemini.WithHTTPClient(&http.Client{Timeout: c.Analysis.SecondaryTimeout()}),
		)
		completer = analysis.NewGeminiCompleter(client, c.Gemini.Model,
			analysis.WithGeminiTemperature(c.Gemini.Temperature),
			analysis.WithGeminiCalculator(calc),
		)
	} else {
		zap.L().Warn("google key not set, secondary provider disabled")
	}

	a := c.Analysis
	ctrl := analysis.NewController(runner, completer, analysis.ControllerConfig{
		Retry:            resilience.FromConfig(a.MaxAttempts, a.InitialBackoffMs, a.BackoffMultiplier),
		PrimaryTimeout:   a.PrimaryTimeout(),
		SecondaryTimeout: a.SecondaryTimeout(),
	})

	return analysis.NewService(ctrl, analysis.Options{
		PrimaryRows:     a.PrimaryRows,
		FallbackRows:    a.FallbackRows,
		SectionMaxLen:   a.SectionMaxLen,
		DefaultQuestion: a.DefaultQuestion,
	}, nil), nil
}
