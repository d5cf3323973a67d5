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
	stderrors "errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/provider"
)

type anthropicClient struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	log         *logrus.Logger
}

func newAnthropicClient(cfg Config, log *logrus.Logger) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrorTypeInput, "anthropic client requires an api key")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return &anthropicClient{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log,
	}, nil
}

func (c *anthropicClient) Provider() provider.Name {
	return provider.Anthropic
}

func (c *anthropicClient) Prompt(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyAnthropicError(ctx, err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New(errors.ErrorTypeParse, "anthropic returned no text content")
	}
	return out.String(), nil
}

func classifyAnthropicError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "anthropic request cancelled")
	}
	var apiErr *anthropic.Error
	if stderrors.As(err, &apiErr) {
		return errors.Wrapf(err, errors.FromStatusCode(apiErr.StatusCode),
			"anthropic returned status %d", apiErr.StatusCode).
			WithStatusCode(apiErr.StatusCode)
	}
	return errors.Wrap(err, errors.ErrorTypeTransient, "anthropic request failed")
}
