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

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/cache"
	"github.com/inkwell-ai/inkwell/pkg/discovery"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/shared/httpclient"
)

// SemanticScholarSource runs similarity search against the Semantic
// Scholar graph API using the source paper's title and abstract.
type SemanticScholarSource struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	gate       *provider.Gate
	cache      cache.ResponseCache
	cacheTTL   time.Duration
	log        *logrus.Logger
}

// NewSemanticScholarSource builds the adapter. endpoint defaults to the
// public graph API.
func NewSemanticScholarSource(endpoint, apiKey string, gate *provider.Gate, respCache cache.ResponseCache, log *logrus.Logger) *SemanticScholarSource {
	if endpoint == "" {
		endpoint = "https://api.semanticscholar.org/graph/v1"
	}
	if respCache == nil {
		respCache = cache.NewNoopCache()
	}
	return &SemanticScholarSource{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpclient.NewClientWithTimeout(30 * time.Second),
		gate:       gate,
		cache:      respCache,
		cacheTTL:   time.Hour,
		log:        log,
	}
}

func (s *SemanticScholarSource) Name() string {
	return discovery.SourceSemanticSimilarity
}

type s2Paper struct {
	Title         string `json:"title"`
	Venue         string `json:"venue"`
	Year          int    `json:"year"`
	CitationCount int    `json:"citationCount"`
	URL           string `json:"url"`
	ExternalIDs   struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

type s2SearchResponse struct {
	Total int       `json:"total"`
	Data  []s2Paper `json:"data"`
}

func (s *SemanticScholarSource) Discover(ctx context.Context, paper discovery.SourcePaper, cfg discovery.Config) ([]discovery.Candidate, error) {
	query := paper.Title
	if query == "" {
		query = paper.Abstract
	}
	if query == "" {
		return nil, nil
	}
	if len(query) > 300 {
		query = query[:300]
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", cfg.MaxPapersPerSource))
	params.Set("fields", "title,venue,year,citationCount,url,externalIds,authors")
	requestURL := s.endpoint + "/paper/search?" + params.Encode()
	cacheKey := "s2:search:" + params.Encode()

	payload, ok := s.cache.Get(ctx, cacheKey)
	if !ok {
		if err := s.gate.Acquire(ctx); err != nil {
			return nil, err
		}
		start := time.Now()
		var err error
		payload, err = s.fetch(ctx, requestURL)
		if err != nil {
			s.gate.RecordFailure(err, time.Since(start))
			return nil, err
		}
		s.gate.RecordSuccess(time.Since(start))
		s.cache.Set(ctx, cacheKey, payload, s.cacheTTL)
	}

	var parsed s2SearchResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "decoding semantic scholar response")
	}

	out := make([]discovery.Candidate, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		candidate := discovery.Candidate{
			Title:            p.Title,
			Venue:            p.Venue,
			Year:             p.Year,
			CitationCount:    p.CitationCount,
			URL:              p.URL,
			DOI:              p.ExternalIDs.DOI,
			Source:           s.Name(),
			RelationshipType: "semantically_similar",
		}
		for _, a := range p.Authors {
			candidate.Authors = append(candidate.Authors, a.Name)
		}
		out = append(out, candidate)
	}
	return out, nil
}

func (s *SemanticScholarSource) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInput, "building semantic scholar request")
	}
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "semantic scholar request cancelled")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeTransient, "semantic scholar request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.FromStatusCode(resp.StatusCode),
			"semantic scholar returned status %d", resp.StatusCode).WithStatusCode(resp.StatusCode)
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTransient, "reading semantic scholar response")
	}
	return payload, nil
}
