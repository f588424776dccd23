package domain

// AssetType enumerates the media kinds a provider can return.
type AssetType string

const (
	AssetVideo AssetType = "video"
	AssetImage AssetType = "image"
	AssetAudio AssetType = "audio"
)

// Attribution credits the creator of an asset.
type Attribution struct {
	Author    string `json:"author,omitempty"`
	AuthorURL string `json:"authorUrl,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// AssetMetadata carries what the scorer and the caller need to know about an asset.
type AssetMetadata struct {
	Title       string       `json:"title"`
	Tags        []string     `json:"tags"`
	Description string       `json:"description,omitempty"`
	Duration    *float64     `json:"duration,omitempty"`
	Resolution  string       `json:"resolution,omitempty"`
	Style       string       `json:"style,omitempty"`
	Mood        string       `json:"mood,omitempty"`
	Color       string       `json:"color,omitempty"`
	Attribution *Attribution `json:"attribution,omitempty"`
}

// License mirrors the licensing terms of the source library.
type License struct {
	Type                string   `json:"type"`
	RequiresAttribution bool     `json:"requiresAttribution"`
	Restrictions        []string `json:"restrictions,omitempty"`
}

// AssetSearchResult is one scored candidate asset. Results are built fresh per
// search and never persisted.
type AssetSearchResult struct {
	URL          string        `json:"url"`
	ThumbnailURL string        `json:"thumbnailUrl"`
	Type         AssetType     `json:"type"`
	Provider     string        `json:"provider"`
	Confidence   float64       `json:"confidence"`
	Metadata     AssetMetadata `json:"metadata"`
	License      License       `json:"license"`
}
