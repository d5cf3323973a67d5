package agent

import (
	"testing"

	"github.com/inkwell-ai/inkwell/internal/errors"
)

func TestRequiredString(t *testing.T) {
	in := Input{"paperId": "p-1"}

	got, err := in.RequiredString("paperId")
	if err != nil {
		t.Fatalf("RequiredString() error = %v", err)
	}
	if got != "p-1" {
		t.Errorf("RequiredString() = %q, want p-1", got)
	}

	_, err = in.RequiredString("textContent")
	if err == nil {
		t.Fatal("RequiredString() expected error for missing key")
	}
	if errors.Classify(err) != errors.ErrorTypeInput {
		t.Errorf("missing key should classify as input error, got %v", errors.Classify(err))
	}
}

func TestFirstRequiredString(t *testing.T) {
	in := Input{"textContent": "body"}

	got, err := in.FirstRequiredString("rawContent", "textContent")
	if err != nil {
		t.Fatalf("FirstRequiredString() error = %v", err)
	}
	if got != "body" {
		t.Errorf("FirstRequiredString() = %q, want body", got)
	}

	if _, err := in.FirstRequiredString("a", "b"); err == nil {
		t.Error("FirstRequiredString() expected error when no alternative present")
	}
}

func TestOptionalString(t *testing.T) {
	in := Input{"mode": "detailed", "count": float64(3), "empty": ""}

	if got := in.OptionalString("mode", "standard"); got != "detailed" {
		t.Errorf("OptionalString() = %q, want detailed", got)
	}
	if got := in.OptionalString("missing", "standard"); got != "standard" {
		t.Errorf("OptionalString() default = %q, want standard", got)
	}
	if got := in.OptionalString("count", ""); got != "3" {
		t.Errorf("OptionalString() numeric = %q, want 3", got)
	}
	if got := in.OptionalString("empty", "fallback"); got != "fallback" {
		t.Errorf("OptionalString() empty = %q, want fallback", got)
	}
}

func TestOptionalEnum(t *testing.T) {
	in := Input{"summaryType": "brief"}

	got, err := in.OptionalEnum("summaryType", "standard", "brief", "standard", "detailed")
	if err != nil || got != "brief" {
		t.Errorf("OptionalEnum() = %q, %v; want brief, nil", got, err)
	}

	got, err = in.OptionalEnum("missing", "standard", "brief", "standard", "detailed")
	if err != nil || got != "standard" {
		t.Errorf("OptionalEnum() default = %q, %v; want standard, nil", got, err)
	}

	in["summaryType"] = "verbose"
	if _, err := in.OptionalEnum("summaryType", "standard", "brief", "standard", "detailed"); err == nil {
		t.Error("OptionalEnum() expected error for unrecognized value")
	}
}

func TestStringList(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  []string
	}{
		{"comma list", "APA, MLA ,IEEE", []string{"APA", "MLA", "IEEE"}},
		{"json array", []any{"APA", "MLA"}, []string{"APA", "MLA"}},
		{"string slice", []string{" Chicago "}, []string{"Chicago"}},
		{"empty string", "  ", nil},
		{"absent", nil, nil},
	}

	for _, tc := range cases {
		in := Input{}
		if tc.value != nil {
			in["citationStyles"] = tc.value
		}
		got := in.StringList("citationStyles")
		if len(got) != len(tc.want) {
			t.Errorf("%s: StringList() = %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: StringList()[%d] = %q, want %q", tc.name, i, got[i], tc.want[i])
			}
		}
	}
}

func TestOptionalBoolIntFloat(t *testing.T) {
	in := Input{
		"verifyFacts":           true,
		"findRelated":           "false",
		"maxTotalPapers":        float64(25),
		"timeoutSeconds":        "45",
		"minimumRelevanceScore": 0.4,
	}

	if !in.OptionalBool("verifyFacts", false) {
		t.Error("OptionalBool(verifyFacts) = false, want true")
	}
	if in.OptionalBool("findRelated", true) {
		t.Error("OptionalBool(findRelated) = true, want false")
	}
	if in.OptionalBool("missing", true) != true {
		t.Error("OptionalBool default not honored")
	}
	if got := in.OptionalInt("maxTotalPapers", 10); got != 25 {
		t.Errorf("OptionalInt() = %d, want 25", got)
	}
	if got := in.OptionalInt("timeoutSeconds", 10); got != 45 {
		t.Errorf("OptionalInt() string = %d, want 45", got)
	}
	if got := in.OptionalFloat("minimumRelevanceScore", 0.5); got != 0.4 {
		t.Errorf("OptionalFloat() = %v, want 0.4", got)
	}
}

func TestNestedString(t *testing.T) {
	in := Input{
		"paper": map[string]any{
			"id":    "p-42",
			"title": "A Study",
		},
	}

	if got := in.NestedString("paper.id"); got != "p-42" {
		t.Errorf("NestedString(paper.id) = %q, want p-42", got)
	}
	if got := in.NestedString("paper.missing"); got != "" {
		t.Errorf("NestedString(paper.missing) = %q, want empty", got)
	}
	if got := in.NestedString("other.id"); got != "" {
		t.Errorf("NestedString(other.id) = %q, want empty", got)
	}
}
