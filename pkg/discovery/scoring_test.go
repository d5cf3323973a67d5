package discovery

import (
	"math"
	"testing"
	"time"
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestRelevanceBounds(t *testing.T) {
	source := SourcePaper{
		Title:   "A Study of Things",
		Authors: []string{"Jane Smith", "Wei Chen"},
		Venue:   "Journal of Things",
	}

	cases := []Candidate{
		{},
		{Title: "Minimal"},
		{Title: "Max Everything", Year: time.Now().Year(), CitationCount: 1 << 30,
			Authors: []string{"Jane Smith", "Wei Chen"}, Venue: "Journal of Things"},
		{Title: "Future Paper", Year: time.Now().Year() + 2},
		{Title: "Ancient", Year: 1970, CitationCount: -5},
	}

	for _, c := range cases {
		score := Relevance(c, source)
		if score < 0 || score > 1 {
			t.Errorf("Relevance(%q) = %v, outside [0,1]", c.Title, score)
		}
	}
}

func TestRelevanceComponents(t *testing.T) {
	source := SourcePaper{
		Title:   "Source",
		Authors: []string{"Jane Smith"},
		Venue:   "NeurIPS",
	}

	base := Relevance(Candidate{Title: "Bare"}, source)
	if !approx(base, 0.5) {
		t.Errorf("bare candidate score = %v, want base 0.5", base)
	}

	venueMatch := Relevance(Candidate{Title: "V", Venue: "NeurIPS"}, source)
	if !approx(venueMatch, 0.6) {
		t.Errorf("venue match score = %v, want 0.6", venueMatch)
	}

	authorMatch := Relevance(Candidate{Title: "A", Authors: []string{"Jane Smith"}}, source)
	if !approx(authorMatch, 0.7) {
		t.Errorf("full author overlap score = %v, want 0.7", authorMatch)
	}

	cited := Relevance(Candidate{Title: "C", CitationCount: 100}, source)
	if !approx(cited, 0.8) {
		t.Errorf("citation ceiling score = %v, want 0.8", cited)
	}
}

func TestAuthorOverlapSurnames(t *testing.T) {
	source := SourcePaper{Title: "S", Authors: []string{"Smith, Jane", "Chen, Wei"}}

	half := Relevance(Candidate{Title: "C", Authors: []string{"Jane Smith", "Alex Doe"}}, source)
	want := 0.5 + 0.2*0.5
	if !approx(half, want) {
		t.Errorf("half overlap score = %v, want %v", half, want)
	}
}

func TestDedupePrefersHigherRelevance(t *testing.T) {
	merged := Dedupe([]Candidate{
		{Title: "Paper", DOI: "10.1/X", RelevanceScore: 0.6, Source: "a"},
		{Title: "Paper", DOI: "10.1/x", RelevanceScore: 0.9, Source: "b"},
		{Title: "Other", RelevanceScore: 0.7},
		{Title: "other", RelevanceScore: 0.5},
	})

	if len(merged) != 2 {
		t.Fatalf("Dedupe() kept %d candidates, want 2", len(merged))
	}
	if merged[0].Source != "b" {
		t.Errorf("Dedupe() kept source %q for shared DOI, want b", merged[0].Source)
	}
	if !approx(merged[1].RelevanceScore, 0.7) {
		t.Errorf("Dedupe() kept title-dup score %v, want 0.7", merged[1].RelevanceScore)
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"Deep Learning: A Survey":  "deep learning a survey",
		"  deep   learning—a survey!! ": "deep learning a survey",
		"": "",
	}
	for in, want := range cases {
		if got := NormalizeTitle(in); got != want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
