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

// Package sources implements the discovery strategy adapters. Every
// outbound call goes through the owning provider's gate; cached responses
// bypass the gate entirely since no request leaves the process.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/cache"
	"github.com/inkwell-ai/inkwell/pkg/discovery"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/shared/httpclient"
)

// CrossrefClient queries the Crossref works API. One client backs the
// citation, author, and venue network strategies.
type CrossrefClient struct {
	endpoint   string
	mailto     string
	httpClient *http.Client
	gate       *provider.Gate
	cache      cache.ResponseCache
	cacheTTL   time.Duration
	log        *logrus.Logger
}

// NewCrossrefClient builds the client. endpoint defaults to the public
// API; mailto joins the polite pool.
func NewCrossrefClient(endpoint, mailto string, gate *provider.Gate, respCache cache.ResponseCache, log *logrus.Logger) *CrossrefClient {
	if endpoint == "" {
		endpoint = "https://api.crossref.org"
	}
	if respCache == nil {
		respCache = cache.NewNoopCache()
	}
	return &CrossrefClient{
		endpoint:   endpoint,
		mailto:     mailto,
		httpClient: httpclient.NewClientWithTimeout(30 * time.Second),
		gate:       gate,
		cache:      respCache,
		cacheTTL:   time.Hour,
		log:        log,
	}
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefWork struct {
	DOI                 string           `json:"DOI"`
	Title               []string         `json:"title"`
	Author              []crossrefAuthor `json:"author"`
	ContainerTitle      []string         `json:"container-title"`
	URL                 string           `json:"URL"`
	IsReferencedByCount int              `json:"is-referenced-by-count"`
	Published           struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published"`
}

type crossrefWorksResponse struct {
	Status  string `json:"status"`
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

// Works runs one works query and returns the items.
func (c *CrossrefClient) Works(ctx context.Context, params url.Values, rows int) ([]crossrefWork, error) {
	params.Set("rows", fmt.Sprintf("%d", rows))
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}
	requestURL := c.endpoint + "/works?" + params.Encode()
	cacheKey := "crossref:works:" + params.Encode()

	if payload, ok := c.cache.Get(ctx, cacheKey); ok {
		return decodeCrossref(payload)
	}

	if err := c.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	payload, err := c.fetch(ctx, requestURL)
	if err != nil {
		c.gate.RecordFailure(err, time.Since(start))
		return nil, err
	}
	c.gate.RecordSuccess(time.Since(start))

	items, err := decodeCrossref(payload)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, cacheKey, payload, c.cacheTTL)
	return items, nil
}

func (c *CrossrefClient) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInput, "building crossref request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "crossref request cancelled")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeTransient, "crossref request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.FromStatusCode(resp.StatusCode),
			"crossref returned status %d", resp.StatusCode).WithStatusCode(resp.StatusCode)
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTransient, "reading crossref response")
	}
	return payload, nil
}

func decodeCrossref(payload []byte) ([]crossrefWork, error) {
	var parsed crossrefWorksResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "decoding crossref response")
	}
	return parsed.Message.Items, nil
}

func (w crossrefWork) toCandidate(source, relationship string) discovery.Candidate {
	candidate := discovery.Candidate{
		DOI:              w.DOI,
		URL:              w.URL,
		CitationCount:    w.IsReferencedByCount,
		Source:           source,
		RelationshipType: relationship,
	}
	if len(w.Title) > 0 {
		candidate.Title = w.Title[0]
	}
	if len(w.ContainerTitle) > 0 {
		candidate.Venue = w.ContainerTitle[0]
	}
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			candidate.Authors = append(candidate.Authors, name)
		}
	}
	if len(w.Published.DateParts) > 0 && len(w.Published.DateParts[0]) > 0 {
		candidate.Year = w.Published.DateParts[0][0]
	}
	return candidate
}

// CitationNetworkSource walks the citation graph: forward lookups by the
// source paper's DOI, backward by keywords drawn from its title.
type CitationNetworkSource struct {
	client *CrossrefClient
}

// NewCitationNetworkSource wraps the crossref client.
func NewCitationNetworkSource(client *CrossrefClient) *CitationNetworkSource {
	return &CitationNetworkSource{client: client}
}

func (s *CitationNetworkSource) Name() string {
	return discovery.SourceCitationNetwork
}

func (s *CitationNetworkSource) Discover(ctx context.Context, paper discovery.SourcePaper, cfg discovery.Config) ([]discovery.Candidate, error) {
	var out []discovery.Candidate

	if paper.DOI != "" {
		params := url.Values{}
		params.Set("query.bibliographic", paper.DOI)
		works, err := s.client.Works(ctx, params, cfg.MaxPapersPerSource)
		if err != nil {
			return nil, err
		}
		for _, w := range works {
			out = append(out, w.toCandidate(s.Name(), "cites"))
		}
	}

	if keywords := titleKeywords(paper.Title, 6); keywords != "" {
		params := url.Values{}
		params.Set("query.bibliographic", keywords)
		works, err := s.client.Works(ctx, params, cfg.MaxPapersPerSource)
		if err != nil {
			// The DOI leg may already have produced results; keep them.
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}
		for _, w := range works {
			out = append(out, w.toCandidate(s.Name(), "cited_by"))
		}
	}
	return out, nil
}

// AuthorNetworkSource fetches other works from up to three of the source
// paper's authors.
type AuthorNetworkSource struct {
	client *CrossrefClient
}

// NewAuthorNetworkSource wraps the crossref client.
func NewAuthorNetworkSource(client *CrossrefClient) *AuthorNetworkSource {
	return &AuthorNetworkSource{client: client}
}

func (s *AuthorNetworkSource) Name() string {
	return discovery.SourceAuthorNetwork
}

func (s *AuthorNetworkSource) Discover(ctx context.Context, paper discovery.SourcePaper, cfg discovery.Config) ([]discovery.Candidate, error) {
	authors := paper.Authors
	if len(authors) > 3 {
		authors = authors[:3]
	}
	if len(authors) == 0 {
		return nil, nil
	}

	perAuthor := cfg.MaxPapersPerSource / len(authors)
	if perAuthor < 1 {
		perAuthor = 1
	}

	var out []discovery.Candidate
	for _, author := range authors {
		params := url.Values{}
		params.Set("query.author", author)
		works, err := s.client.Works(ctx, params, perAuthor)
		if err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}
		for _, w := range works {
			out = append(out, w.toCandidate(s.Name(), "same_author"))
		}
	}
	return out, nil
}

// VenueNetworkSource fetches recent works from the same journal or
// conference.
type VenueNetworkSource struct {
	client *CrossrefClient
}

// NewVenueNetworkSource wraps the crossref client.
func NewVenueNetworkSource(client *CrossrefClient) *VenueNetworkSource {
	return &VenueNetworkSource{client: client}
}

func (s *VenueNetworkSource) Name() string {
	return discovery.SourceVenueNetwork
}

func (s *VenueNetworkSource) Discover(ctx context.Context, paper discovery.SourcePaper, cfg discovery.Config) ([]discovery.Candidate, error) {
	if paper.Venue == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("query.container-title", paper.Venue)
	works, err := s.client.Works(ctx, params, cfg.MaxPapersPerSource)
	if err != nil {
		return nil, err
	}
	out := make([]discovery.Candidate, 0, len(works))
	for _, w := range works {
		out = append(out, w.toCandidate(s.Name(), "same_venue"))
	}
	return out, nil
}

// titleKeywords takes the first meaningful words of a title for a
// backward keyword query.
func titleKeywords(title string, max int) string {
	stop := map[string]struct{}{
		"a": {}, "an": {}, "the": {}, "of": {}, "on": {}, "for": {}, "and": {},
		"in": {}, "with": {}, "to": {}, "via": {}, "by": {},
	}
	var words []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,:;!?()[]")
		if _, skip := stop[w]; skip || len(w) < 3 {
			continue
		}
		words = append(words, w)
		if len(words) >= max {
			break
		}
	}
	return strings.Join(words, " ")
}
