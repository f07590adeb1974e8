// Package llm wraps the chat-completion backend behind a small Generator
// interface so the bot pipeline can be tested with a stub.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/neo/turring_backend/internal/logging"
)

// Request is one generation call.
type Request struct {
	Instructions string
	Prompt       string
	Temperature  float64
	MaxTokens    int
}

// Generator produces a reply for a request. Implementations must honor the
// context deadline.
type Generator interface {
	GenerateReply(ctx context.Context, req Request) (string, error)
}

// OpenAI is the production Generator backed by the OpenAI chat API.
type OpenAI struct {
	llm     llms.LLM
	model   string
	timeout time.Duration
}

// NewOpenAI creates a generator for the given model. Returns an error when
// the API key is empty or the client cannot be constructed.
func NewOpenAI(apiKey, model string, timeout time.Duration) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: api key is empty")
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %v", err)
	}

	return &OpenAI{llm: client, model: model, timeout: timeout}, nil
}

// GenerateReply runs one completion with the request's sampling knobs. The
// instructions are prepended to the prompt as the system framing.
func (o *OpenAI) GenerateReply(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prompt := req.Prompt
	if req.Instructions != "" {
		prompt = req.Instructions + "\n\n" + req.Prompt
	}

	start := time.Now()
	completion, err := o.llm.Call(ctx, prompt,
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %v", err)
	}
	logging.LogLLMEvent("completion", map[string]interface{}{
		"model":      o.model,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	return strings.TrimSpace(completion), nil
}
