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

package llm

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/provider"
)

// ollamaClient drives a locally hosted model. It backs the fallback agents
// when cloud providers are down, so its own failures are classified
// transient rather than fatal.
type ollamaClient struct {
	model       llms.Model
	maxTokens   int
	temperature float64
	log         *logrus.Logger
}

func newOllamaClient(cfg Config, log *logrus.Logger) (*ollamaClient, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.Endpoint != "" {
		opts = append(opts, ollama.WithServerURL(cfg.Endpoint))
	}
	model, err := ollama.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInput, "configuring ollama client")
	}
	return &ollamaClient{
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log,
	}, nil
}

func (c *ollamaClient) Provider() provider.Name {
	return provider.Ollama
}

func (c *ollamaClient) Prompt(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "ollama request cancelled")
		}
		return "", errors.Wrap(err, errors.ErrorTypeTransient, "ollama generation failed")
	}
	return response, nil
}
