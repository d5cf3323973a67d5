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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/shared/httpclient"
)

// chatCompletionClient speaks the OpenAI-compatible chat completions wire
// format, shared by OpenAI and Perplexity.
type chatCompletionClient struct {
	name        provider.Name
	endpoint    string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	log         *logrus.Logger
}

func newChatCompletionClient(name provider.Name, defaultEndpoint string, cfg Config, log *logrus.Logger) *chatCompletionClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &chatCompletionClient{
		name:        name,
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  httpclient.NewClientWithTimeout(cfg.Timeout),
		log:         log,
	}
}

func (c *chatCompletionClient) Provider() provider.Name {
	return c.name
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *chatCompletionClient) Prompt(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInput, "encoding chat request")
	}

	url := c.endpoint + "/chat/completions"
	if c.name == provider.OpenAI {
		url = c.endpoint + "/v1/chat/completions"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInput, "building chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "chat request cancelled")
		}
		return "", errors.Wrapf(err, errors.ErrorTypeTransient, "%s request failed", c.name)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrorTypeTransient, "reading %s response", c.name)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf(errors.FromStatusCode(resp.StatusCode), "%s returned status %d: %s",
			c.name, resp.StatusCode, truncate(string(payload), 200)).
			WithStatusCode(resp.StatusCode)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", errors.Wrapf(err, errors.ErrorTypeParse, "decoding %s response", c.name)
	}
	if parsed.Error != nil {
		return "", errors.Newf(errors.ErrorTypeTransient, "%s error: %s", c.name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.Newf(errors.ErrorTypeParse, "%s returned no choices", c.name)
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
