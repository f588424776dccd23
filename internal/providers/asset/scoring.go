package asset

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"assetmatch/internal/domain"
)

// Scoring weights. They sum to 1.
const (
	weightKeywords  = 0.3
	weightStyle     = 0.2
	weightElements  = 0.3
	weightMood      = 0.1
	weightTechnical = 0.1

	durationTolerance = 2.0
)

// CalculateConfidence scores how well result matches criteria. It is a pure
// function of its inputs and always returns a value in [0,1].
func CalculateConfidence(result domain.AssetSearchResult, criteria domain.VisualSearchCriteria) float64 {
	score := keywordScore(result, criteria) * weightKeywords

	if criteria.Style != "" && result.Metadata.Style == string(criteria.Style) {
		score += weightStyle
	}
	if elementsMatch(result, criteria) {
		score += weightElements
	}
	if criteria.Mood != "" && result.Metadata.Mood == criteria.Mood {
		score += weightMood
	}
	if criteria.Duration != nil && result.Metadata.Duration != nil &&
		math.Abs(*criteria.Duration-*result.Metadata.Duration) < durationTolerance {
		score += weightTechnical
	}
	return math.Min(score, 1)
}

// keywordScore is the fraction of element-description words found among the result tags.
func keywordScore(result domain.AssetSearchResult, criteria domain.VisualSearchCriteria) float64 {
	var keywords []string
	for _, el := range criteria.Elements {
		keywords = append(keywords, words(el.Description)...)
	}
	if len(keywords) == 0 {
		return 0
	}
	tags := make(map[string]struct{}, len(result.Metadata.Tags))
	for _, tag := range result.Metadata.Tags {
		tags[strings.ToLower(tag)] = struct{}{}
	}
	matched := 0
	for _, kw := range keywords {
		if _, ok := tags[kw]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// words splits s into lowercase runs of letters and digits.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func elementsMatch(result domain.AssetSearchResult, criteria domain.VisualSearchCriteria) bool {
	description := strings.ToLower(result.Metadata.Description)
	if description == "" {
		return false
	}
	for _, el := range criteria.Elements {
		needle := strings.ToLower(strings.TrimSpace(el.Description))
		if needle != "" && strings.Contains(description, needle) {
			return true
		}
	}
	return false
}

// ScoreAndSort assigns a confidence to every result and orders them best first.
func ScoreAndSort(results []domain.AssetSearchResult, criteria domain.VisualSearchCriteria) []domain.AssetSearchResult {
	for i := range results {
		results[i].Confidence = CalculateConfidence(results[i], criteria)
	}
	SortByConfidence(results)
	return results
}

// SortByConfidence orders results by confidence, highest first.
func SortByConfidence(results []domain.AssetSearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
}
