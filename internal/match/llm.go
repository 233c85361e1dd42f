package match

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/internal/resilience"
	"github.com/supplygraph/matching-engine/pkg/anthropic"
)

// Interpreter is the AI-assisted matching collaborator: it judges whether a
// capability can satisfy a requirement and returns a confidence in [0,1].
// Callers impose the timeout; a failure or timeout is treated as "no match
// from this layer", never as a fatal error.
type Interpreter interface {
	Interpret(ctx context.Context, req model.Requirement, cap model.Capability) (float64, error)
}

// AnthropicInterpreter implements Interpreter against the Anthropic API,
// rate limited and retried on transient failures.
type AnthropicInterpreter struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewAnthropicInterpreter creates an interpreter. rps bounds outbound
// request rate; zero or negative disables the limiter.
func NewAnthropicInterpreter(client anthropic.Client, modelID string, rps float64) *AnthropicInterpreter {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &AnthropicInterpreter{
		client:  client,
		model:   modelID,
		limiter: limiter,
		retry:   resilience.DefaultRetryConfig(),
	}
}

const interpretSystem = `You judge whether a manufacturing or kitchen capability can satisfy a stated requirement. Reply with only a decimal number between 0 and 1: 0 means it cannot, 1 means it certainly can. No prose.`

// Interpret asks the model for a satisfaction confidence.
func (a *AnthropicInterpreter) Interpret(ctx context.Context, req model.Requirement, capability model.Capability) (float64, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return 0, eris.Wrap(err, "llm: rate limit wait")
		}
	}

	prompt, err := interpretPrompt(req, capability)
	if err != nil {
		return 0, err
	}

	var resp *anthropic.MessageResponse
	err = resilience.Do(ctx, a.retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.model,
			MaxTokens: 16,
			System:    interpretSystem,
			Messages: []anthropic.Message{
				{Role: "user", Content: prompt},
			},
		})
		return callErr
	})
	if err != nil {
		return 0, eris.Wrap(err, "llm: interpret")
	}

	conf, ok := parseConfidence(resp.Text)
	if !ok {
		return 0, eris.Errorf("llm: unparseable confidence %q", resp.Text)
	}
	return conf, nil
}

func interpretPrompt(req model.Requirement, capability model.Capability) (string, error) {
	payload := map[string]any{
		"requirement": req,
		"capability":  capability,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrap(err, "llm: marshal prompt")
	}
	return "Can this capability satisfy this requirement?\n" + string(data), nil
}

var confidenceRe = regexp.MustCompile(`\d*\.?\d+`)

// parseConfidence extracts the first decimal number from the model's reply
// and clamps it to [0,1].
func parseConfidence(text string) (float64, bool) {
	m := confidenceRe.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v, true
}
