package asset

import (
	"math"
	"testing"

	"assetmatch/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func beachCriteria() domain.VisualSearchCriteria {
	return domain.VisualSearchCriteria{
		SceneDescription: "a person walking on a beach at sunset",
		Style:            domain.StyleCinematic,
		Elements: []domain.SceneElement{{
			Type:        domain.ElementLocation,
			Description: "beach at sunset",
			Importance:  1,
			Attributes:  map[string]any{},
		}},
		Mood: "calm",
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateConfidenceComponents(t *testing.T) {
	criteria := beachCriteria()
	criteria.Duration = floatPtr(10)

	cases := []struct {
		name   string
		meta   domain.AssetMetadata
		expect float64
	}{
		{
			name:   "nothing matches",
			meta:   domain.AssetMetadata{Title: "Office", Tags: []string{"office", "desk"}, Description: "people in an office"},
			expect: 0,
		},
		{
			name:   "all tags match",
			meta:   domain.AssetMetadata{Tags: []string{"Beach", "at", "SUNSET"}},
			expect: 0.3,
		},
		{
			name:   "one of three keywords",
			meta:   domain.AssetMetadata{Tags: []string{"beach"}},
			expect: 0.1,
		},
		{
			name:   "style only",
			meta:   domain.AssetMetadata{Style: "cinematic"},
			expect: 0.2,
		},
		{
			name:   "style is case sensitive",
			meta:   domain.AssetMetadata{Style: "Cinematic"},
			expect: 0,
		},
		{
			name:   "description substring",
			meta:   domain.AssetMetadata{Description: "Waves on the BEACH AT SUNSET"},
			expect: 0.3,
		},
		{
			name:   "mood only",
			meta:   domain.AssetMetadata{Mood: "calm"},
			expect: 0.1,
		},
		{
			name:   "duration within two seconds",
			meta:   domain.AssetMetadata{Duration: floatPtr(11.5)},
			expect: 0.1,
		},
		{
			name:   "duration exactly two seconds off",
			meta:   domain.AssetMetadata{Duration: floatPtr(12)},
			expect: 0,
		},
		{
			name: "everything matches",
			meta: domain.AssetMetadata{
				Tags:        []string{"beach", "at", "sunset"},
				Style:       "cinematic",
				Description: "beach at sunset",
				Mood:        "calm",
				Duration:    floatPtr(9),
			},
			expect: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateConfidence(domain.AssetSearchResult{Metadata: tc.meta}, criteria)
			if !approxEqual(got, tc.expect) {
				t.Fatalf("confidence = %v, want %v", got, tc.expect)
			}
			if got < 0 || got > 1 {
				t.Fatalf("confidence %v out of range", got)
			}
		})
	}
}

func TestCalculateConfidenceWithoutElements(t *testing.T) {
	criteria := domain.VisualSearchCriteria{SceneDescription: "anything"}
	result := domain.AssetSearchResult{Metadata: domain.AssetMetadata{Tags: []string{"anything"}, Description: "anything"}}
	if got := CalculateConfidence(result, criteria); got != 0 {
		t.Fatalf("confidence = %v, want 0", got)
	}
}

func TestCalculateConfidenceMoodRequiresCriteria(t *testing.T) {
	criteria := domain.VisualSearchCriteria{SceneDescription: "x"}
	result := domain.AssetSearchResult{Metadata: domain.AssetMetadata{Mood: ""}}
	if got := CalculateConfidence(result, criteria); got != 0 {
		t.Fatalf("empty mood should not match, got %v", got)
	}
}

func TestCalculateConfidenceIsDeterministic(t *testing.T) {
	criteria := beachCriteria()
	result := domain.AssetSearchResult{Metadata: domain.AssetMetadata{
		Tags:        []string{"beach", "waves"},
		Description: "a calm beach at sunset",
		Mood:        "calm",
	}}
	first := CalculateConfidence(result, criteria)
	second := CalculateConfidence(result, criteria)
	if first != second {
		t.Fatalf("scores differ: %v vs %v", first, second)
	}
}

func TestScoreAndSortOrdersDescending(t *testing.T) {
	criteria := beachCriteria()
	results := []domain.AssetSearchResult{
		{URL: "office", Metadata: domain.AssetMetadata{Tags: []string{"office"}}},
		{URL: "beach", Metadata: domain.AssetMetadata{Tags: []string{"beach", "sunset"}, Description: "beach at sunset"}},
		{URL: "partial", Metadata: domain.AssetMetadata{Tags: []string{"beach"}}},
	}
	sorted := ScoreAndSort(results, criteria)
	want := []string{"beach", "partial", "office"}
	for i, url := range want {
		if sorted[i].URL != url {
			t.Fatalf("position %d = %q, want %q", i, sorted[i].URL, url)
		}
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Confidence < sorted[i].Confidence {
			t.Fatalf("results not sorted: %v before %v", sorted[i-1].Confidence, sorted[i].Confidence)
		}
	}
}

func TestKeywordScoreIgnoresPunctuation(t *testing.T) {
	criteria := domain.VisualSearchCriteria{
		SceneDescription: "beach",
		Elements:         []domain.SceneElement{{Type: domain.ElementLocation, Description: "Beach, at sunset!"}},
	}
	result := domain.AssetSearchResult{Metadata: domain.AssetMetadata{Tags: []string{"beach", "at", "sunset"}}}
	if got := keywordScore(result, criteria); got != 1 {
		t.Fatalf("keywordScore = %v, want 1", got)
	}
}

func TestWords(t *testing.T) {
	cases := map[string][]string{
		"Beach, at sunset!": {"beach", "at", "sunset"},
		"4k drone-shot":     {"4k", "drone", "shot"},
		"  ... ":            nil,
		"café (outdoor)":    {"café", "outdoor"},
	}
	for in, want := range cases {
		got := words(in)
		if len(got) != len(want) {
			t.Fatalf("words(%q) = %q, want %q", in, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("words(%q) = %q, want %q", in, got, want)
			}
		}
	}
}
