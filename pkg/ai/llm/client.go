/*
Copyright 2025 The Inkwell Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package llm provides the AI provider clients. A prompt is one
// request/response; streaming is not modelled. Client errors preserve the
// upstream HTTP status so the retry policy can classify them.
package llm

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/provider"
)

// Config describes one provider client.
type Config struct {
	Provider    string        `yaml:"provider" validate:"required"`
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model" validate:"required"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	return c
}

// Client is the narrow contract the orchestrator consumes: one prompt in,
// one response out.
type Client interface {
	Prompt(ctx context.Context, prompt string) (string, error)
	Provider() provider.Name
}

// NewClient constructs a client for the configured provider.
func NewClient(cfg Config, log *logrus.Logger) (Client, error) {
	cfg = cfg.withDefaults()
	switch provider.Name(cfg.Provider) {
	case provider.OpenAI:
		return newChatCompletionClient(provider.OpenAI, "https://api.openai.com", cfg, log), nil
	case provider.Perplexity:
		return newChatCompletionClient(provider.Perplexity, "https://api.perplexity.ai", cfg, log), nil
	case provider.Anthropic:
		return newAnthropicClient(cfg, log)
	case provider.Ollama:
		return newOllamaClient(cfg, log)
	default:
		return nil, errors.Newf(errors.ErrorTypeInput, "unsupported provider: %s", cfg.Provider)
	}
}

// GuardedClient routes every prompt through the provider's gate: permit
// first, then the call, then exactly one terminal record. This is the only
// path by which agents reach a provider.
type GuardedClient struct {
	gate   *provider.Gate
	client Client
}

// NewGuardedClient wraps a client with its provider gate.
func NewGuardedClient(gate *provider.Gate, client Client) *GuardedClient {
	return &GuardedClient{gate: gate, client: client}
}

// Provider names the wrapped provider.
func (g *GuardedClient) Provider() provider.Name {
	return g.client.Provider()
}

// Prompt acquires a permit, performs the call, and records the outcome
// exactly once on every exit path, panics included. If acquisition fails —
// breaker open or deadline — no call is made and nothing is recorded
// against the permit.
func (g *GuardedClient) Prompt(ctx context.Context, prompt string) (string, error) {
	if err := g.gate.Acquire(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	recorded := false
	defer func() {
		if !recorded {
			g.gate.RecordFailure(errors.New(errors.ErrorTypeInternal, "provider call panicked"), time.Since(start))
		}
	}()

	response, err := g.client.Prompt(ctx, prompt)
	if err != nil {
		recorded = true
		g.gate.RecordFailure(err, time.Since(start))
		return "", err
	}
	recorded = true
	g.gate.RecordSuccess(time.Since(start))
	return response, nil
}

// Prompter is what agents program against: either a GuardedClient or a
// test double.
type Prompter interface {
	Prompt(ctx context.Context, prompt string) (string, error)
	Provider() provider.Name
}
