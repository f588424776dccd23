package domain

import (
	"fmt"
	"strings"
)

// Style enumerates the visual styles a scene can ask for.
type Style string

const (
	StyleCinematic   Style = "cinematic"
	StyleDocumentary Style = "documentary"
	StyleAnimated    Style = "animated"
	StyleCorporate   Style = "corporate"
	StyleCasual      Style = "casual"
	StyleArtistic    Style = "artistic"
	StyleMinimal     Style = "minimal"
)

var knownStyles = map[Style]struct{}{
	StyleCinematic:   {},
	StyleDocumentary: {},
	StyleAnimated:    {},
	StyleCorporate:   {},
	StyleCasual:      {},
	StyleArtistic:    {},
	StyleMinimal:     {},
}

// Valid reports whether s is one of the known styles. The empty style is not valid.
func (s Style) Valid() bool {
	_, ok := knownStyles[s]
	return ok
}

// ElementType enumerates the kinds of scene elements.
type ElementType string

const (
	ElementCharacter ElementType = "character"
	ElementLocation  ElementType = "location"
	ElementObject    ElementType = "object"
)

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	switch t {
	case ElementCharacter, ElementLocation, ElementObject:
		return true
	}
	return false
}

// SceneElement is one detected visual component of a scene.
type SceneElement struct {
	Type        ElementType    `json:"type" yaml:"type"`
	Description string         `json:"description" yaml:"description"`
	Importance  float64        `json:"importance" yaml:"importance"`
	Attributes  map[string]any `json:"attributes" yaml:"attributes"`
}

// Attribute returns the attribute value formatted as text, or "" when absent.
func (e SceneElement) Attribute(key string) string {
	v, ok := e.Attributes[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// VisualSearchCriteria is the normalized query handed to every asset provider.
// Everything except SceneDescription is a best-effort hint.
type VisualSearchCriteria struct {
	SceneDescription string         `json:"sceneDescription"`
	Style            Style          `json:"style,omitempty"`
	Elements         []SceneElement `json:"elements"`
	Duration         *float64       `json:"duration,omitempty"`
	ColorScheme      []string       `json:"colorScheme,omitempty"`
	Mood             string         `json:"mood,omitempty"`
	// ExcludeKeywords is accepted and carried through but no provider filters on it yet.
	ExcludeKeywords []string `json:"excludeKeywords,omitempty"`
	// Locale is a BCP-47 tag forwarded to providers that localize their search.
	Locale string `json:"locale,omitempty"`
}

// Validate checks the invariants every criteria value must hold before it is dispatched.
func (c VisualSearchCriteria) Validate() error {
	if strings.TrimSpace(c.SceneDescription) == "" {
		return fmt.Errorf("%w: sceneDescription is required", ErrInvalidCriteria)
	}
	if c.Style != "" && !c.Style.Valid() {
		return fmt.Errorf("%w: unknown style %q", ErrInvalidCriteria, c.Style)
	}
	return nil
}

// ClampImportance bounds v into [0,1].
func ClampImportance(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
