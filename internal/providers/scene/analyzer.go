package scene

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"assetmatch/internal/domain"
)

const defaultImportance = 0.5

// Analyzer turns a free-text scene description into structured search criteria.
type Analyzer interface {
	AnalyzeScene(ctx context.Context, description string) (*domain.VisualSearchCriteria, error)
}

// ModelClient sends a single JSON-mode completion to a language model.
type ModelClient interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// scenePayload is the structured output requested from the model. The remote
// collaborator answers with the same camelCase shape.
type scenePayload struct {
	Elements    []elementPayload `json:"elements"`
	Style       string           `json:"style"`
	Mood        string           `json:"mood"`
	ColorScheme []string         `json:"colorScheme"`
	Duration    *float64         `json:"duration"`
}

type elementPayload struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Importance  *float64       `json:"importance"`
	Attributes  map[string]any `json:"attributes"`
}

const systemPrompt = "You are a visual scene analyst for a stock footage search engine. You only respond with valid JSON."

// ModelAnalyzer extracts criteria with one structured-output model request.
type ModelAnalyzer struct {
	client ModelClient
}

// NewModelAnalyzer wraps client.
func NewModelAnalyzer(client ModelClient) *ModelAnalyzer {
	return &ModelAnalyzer{client: client}
}

// AnalyzeScene asks the model for elements, style, mood and color scheme.
// Missing credentials surface as domain.ErrConfiguration, transport failures
// as domain.ErrUpstream and unusable output as domain.ErrParse.
func (a *ModelAnalyzer) AnalyzeScene(ctx context.Context, description string) (*domain.VisualSearchCriteria, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("scene: %w: description is required", domain.ErrInvalidCriteria)
	}
	if a.client == nil {
		return nil, fmt.Errorf("scene: %w: no language model configured", domain.ErrConfiguration)
	}
	text, err := a.client.Complete(ctx, systemPrompt, buildAnalysisPrompt(description))
	if err != nil {
		return nil, classify(a.client.Name(), err)
	}
	payload, err := parseModelPayload[scenePayload](text)
	if err != nil {
		return nil, fmt.Errorf("scene: %s: %w: %v", a.client.Name(), domain.ErrParse, err)
	}
	return payload.toCriteria(description), nil
}

func buildAnalysisPrompt(description string) string {
	sb := &strings.Builder{}
	sb.WriteString("Analyze the scene below and extract what a matching stock video or photo must show. Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"elements":[{"type":"character"|"location"|"object","description":string,"importance":number,"attributes":object}],"style":"cinematic"|"documentary"|"animated"|"corporate"|"casual"|"artistic"|"minimal","mood":string,"colorScheme":string[]}`)
	sb.WriteString(". Importance is between 0 and 1. Character attributes may include gender and age; object attributes may include size and color. ")
	fmt.Fprintf(sb, "Scene: %q", description)
	return sb.String()
}

// classify keeps already-kinded errors as they are and marks everything else upstream.
func classify(name string, err error) error {
	if errors.Is(err, domain.ErrConfiguration) || errors.Is(err, domain.ErrUpstream) || errors.Is(err, domain.ErrParse) {
		return err
	}
	return fmt.Errorf("scene: %s: %w: %w", name, domain.ErrUpstream, err)
}

var labelFolder = cases.Lower(language.Und)

func (p scenePayload) toCriteria(description string) *domain.VisualSearchCriteria {
	elements := make([]domain.SceneElement, 0, len(p.Elements))
	for _, el := range p.Elements {
		importance := defaultImportance
		if el.Importance != nil {
			importance = *el.Importance
		}
		elType := domain.ElementType(labelFolder.String(strings.TrimSpace(el.Type)))
		if !elType.Valid() {
			elType = domain.ElementObject
		}
		attrs := el.Attributes
		if attrs == nil {
			attrs = map[string]any{}
		}
		elements = append(elements, domain.SceneElement{
			Type:        elType,
			Description: strings.TrimSpace(el.Description),
			Importance:  domain.ClampImportance(importance),
			Attributes:  attrs,
		})
	}
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Importance > elements[j].Importance
	})

	style := domain.Style(labelFolder.String(strings.TrimSpace(p.Style)))
	if !style.Valid() {
		style = ""
	}
	var colors []string
	for _, c := range p.ColorScheme {
		if c = strings.TrimSpace(c); c != "" {
			colors = append(colors, c)
		}
	}
	return &domain.VisualSearchCriteria{
		SceneDescription: description,
		Style:            style,
		Elements:         elements,
		Duration:         p.Duration,
		ColorScheme:      colors,
		Mood:             labelFolder.String(strings.TrimSpace(p.Mood)),
	}
}

// EnhanceSearchCriteria returns criteria unchanged when it already carries
// elements. Otherwise it analyzes the scene description and lays the caller's
// fields over the analysis.
func EnhanceSearchCriteria(ctx context.Context, analyzer Analyzer, criteria domain.VisualSearchCriteria) (domain.VisualSearchCriteria, error) {
	if len(criteria.Elements) > 0 {
		return criteria, nil
	}
	if analyzer == nil {
		return criteria, fmt.Errorf("scene: %w: no analyzer configured", domain.ErrConfiguration)
	}
	analyzed, err := analyzer.AnalyzeScene(ctx, criteria.SceneDescription)
	if err != nil {
		return criteria, err
	}
	return Merge(*analyzed, criteria), nil
}

// Merge lays the non-empty fields of overlay over base. SceneDescription
// always comes from overlay when set.
func Merge(base, overlay domain.VisualSearchCriteria) domain.VisualSearchCriteria {
	out := base
	if s := strings.TrimSpace(overlay.SceneDescription); s != "" {
		out.SceneDescription = s
	}
	if overlay.Style != "" {
		out.Style = overlay.Style
	}
	if len(overlay.Elements) > 0 {
		out.Elements = overlay.Elements
	}
	if overlay.Duration != nil {
		out.Duration = overlay.Duration
	}
	if len(overlay.ColorScheme) > 0 {
		out.ColorScheme = overlay.ColorScheme
	}
	if overlay.Mood != "" {
		out.Mood = overlay.Mood
	}
	if len(overlay.ExcludeKeywords) > 0 {
		out.ExcludeKeywords = overlay.ExcludeKeywords
	}
	if overlay.Locale != "" {
		out.Locale = overlay.Locale
	}
	if out.Elements == nil {
		out.Elements = []domain.SceneElement{}
	}
	return out
}

var _ Analyzer = (*ModelAnalyzer)(nil)
