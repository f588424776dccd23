package asset

import (
	"sort"
	"strings"

	"assetmatch/internal/domain"
)

const maxQueryElements = 3

// BuildQuery turns criteria into a free-text search query. The three most
// important elements drive it; characters read "gender age description",
// objects read "size color description", locations use the description as is.
// Style and mood are appended last.
func BuildQuery(criteria domain.VisualSearchCriteria) string {
	elements := append([]domain.SceneElement(nil), criteria.Elements...)
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Importance > elements[j].Importance
	})
	if len(elements) > maxQueryElements {
		elements = elements[:maxQueryElements]
	}

	var parts []string
	for _, el := range elements {
		var words []string
		switch el.Type {
		case domain.ElementCharacter:
			words = append(words, el.Attribute("gender"), el.Attribute("age"))
		case domain.ElementObject:
			words = append(words, el.Attribute("size"), el.Attribute("color"))
		}
		words = append(words, strings.TrimSpace(el.Description))
		if phrase := joinNonEmpty(words); phrase != "" {
			parts = append(parts, phrase)
		}
	}
	if criteria.Style != "" {
		parts = append(parts, strings.ToLower(string(criteria.Style)))
	}
	if mood := strings.TrimSpace(criteria.Mood); mood != "" {
		parts = append(parts, strings.ToLower(mood))
	}
	if len(parts) == 0 {
		return strings.TrimSpace(criteria.SceneDescription)
	}
	return strings.Join(parts, " ")
}

func joinNonEmpty(words []string) string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}
