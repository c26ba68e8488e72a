// Package commentary produces a short natural-language comment on a
// prediction through an OpenAI-compatible chat completion API.
package commentary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Generator produces commentary text. Failures are not fatal to callers.
type Generator interface {
	Generate(ctx context.Context, c Context) (string, error)
	// Enabled reports whether Generate can succeed at all.
	Enabled() bool
}

// Defaults for the chat completion request.
const (
	DefaultModel       = openai.GPT4oMini
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 300
	DefaultTimeout     = 15 * time.Second
)

// Option configures an OpenAIGenerator.
type Option func(*OpenAIGenerator)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(g *OpenAIGenerator) {
		if url != "" {
			g.baseURL = url
		}
	}
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(g *OpenAIGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *OpenAIGenerator) {
		if t >= 0 {
			g.temperature = t
		}
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(g *OpenAIGenerator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTimeout bounds a single Generate call.
func WithTimeout(d time.Duration) Option {
	return func(g *OpenAIGenerator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLanguage selects the prompt language.
func WithLanguage(lang string) Option {
	return func(g *OpenAIGenerator) {
		if _, ok := catalog[lang]; ok {
			g.lang = lang
		}
	}
}

// OpenAIGenerator implements Generator with go-openai.
type OpenAIGenerator struct {
	client      *openai.Client
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	lang        string
}

// New returns an OpenAIGenerator for apiKey, or a Noop generator when the
// key is blank.
func New(apiKey string, opts ...Option) Generator {
	if strings.TrimSpace(apiKey) == "" {
		return Noop{}
	}
	g := &OpenAIGenerator{
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		timeout:     DefaultTimeout,
		lang:        LangPolish,
	}
	for _, opt := range opts {
		opt(g)
	}
	cfg := openai.DefaultConfig(apiKey)
	if g.baseURL != "" {
		cfg.BaseURL = g.baseURL
	}
	g.client = openai.NewClientWithConfig(cfg)
	return g
}

// Enabled is always true for a configured client.
func (g *OpenAIGenerator) Enabled() bool { return true }

// Generate asks the model for a comment on c.
func (g *OpenAIGenerator) Generate(ctx context.Context, c Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	system, user := BuildPrompt(c, g.lang)
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmpty
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// Noop is the generator used when commentary is not configured.
type Noop struct{}

// Generate always returns ErrDisabled.
func (Noop) Generate(context.Context, Context) (string, error) { return "", ErrDisabled }

// Enabled is always false.
func (Noop) Enabled() bool { return false }
