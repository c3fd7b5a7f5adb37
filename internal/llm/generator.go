// Package llm abstracts language-model calls behind a Generator interface so
// pipeline steps can be tested without a live API.
package llm

import (
	"context"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/sells-group/underwriting-cli/internal/resilience"
	"github.com/sells-group/underwriting-cli/pkg/anthropic"
)

// Request describes a single model invocation.
type Request struct {
	// Step names the pipeline step issuing the request, for logging.
	Step        string
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature *float64
}

// Generator produces text completions.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// AnthropicGenerator implements Generator on top of the Anthropic client,
// with a shared rate limiter and transient-error retries.
type AnthropicGenerator struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewAnthropicGenerator creates a Generator backed by the given client.
// requestsPerSecond bounds the call rate across all pipeline steps; zero or
// negative disables limiting.
func NewAnthropicGenerator(client anthropic.Client, model string, requestsPerSecond float64) *AnthropicGenerator {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.ShouldRetry = isRetryableAPIError

	return &AnthropicGenerator{
		client:  client,
		model:   model,
		limiter: limiter,
		retry:   cfg,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	cfg := g.retry
	cfg.OnRetry = resilience.RetryLogger("anthropic", req.Step)

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       g.model,
			MaxTokens:   maxTokens,
			System:      req.System,
			Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
			Temperature: req.Temperature,
		})
	})
	if err != nil {
		return "", err
	}

	resp.Usage.LogCost(g.model, req.Step)
	return resp.Text(), nil
}

// isRetryableAPIError extends the generic transient check with Anthropic
// overload signals that surface as wrapped message strings.
func isRetryableAPIError(err error) bool {
	if resilience.IsTransient(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{"429", "529", "rate_limit", "overloaded"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// CountingGenerator wraps a Generator and counts successful and failed calls.
// Safe for concurrent use.
type CountingGenerator struct {
	Inner Generator
	calls atomic.Int64
}

func (c *CountingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	c.calls.Add(1)
	return c.Inner.Generate(ctx, req)
}

// Calls returns the number of Generate invocations so far.
func (c *CountingGenerator) Calls() int64 {
	return c.calls.Load()
}
