package asset

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"assetmatch/internal/domain"
)

const (
	UnsplashName           = "unsplash"
	unsplashDefaultBaseURL = "https://api.unsplash.com"
)

var unsplashLicense = domain.License{
	Type:                "Unsplash License",
	RequiresAttribution: false,
	Restrictions: []string{
		"Photos may not be sold without significant modification",
		"May not be compiled to replicate a similar or competing service",
	},
}

// UnsplashOptions configures the Unsplash photo adapter.
type UnsplashOptions struct {
	AccessKey   string
	BaseURL     string
	HTTPClient  *http.Client
	PerPage     int
	Orientation string
}

// Unsplash searches the Unsplash photo library.
type Unsplash struct {
	accessKey   string
	baseURL     string
	client      *http.Client
	perPage     int
	orientation string
}

type unsplashSearchResponse struct {
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Results    []unsplashPhoto `json:"results"`
}

type unsplashPhoto struct {
	ID             string  `json:"id"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Color          string  `json:"color"`
	Description    *string `json:"description"`
	AltDescription *string `json:"alt_description"`
	URLs           struct {
		Raw     string `json:"raw"`
		Full    string `json:"full"`
		Regular string `json:"regular"`
		Small   string `json:"small"`
		Thumb   string `json:"thumb"`
	} `json:"urls"`
	Links struct {
		HTML string `json:"html"`
	} `json:"links"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
	Tags []struct {
		Title string `json:"title"`
	} `json:"tags"`
}

// NewUnsplash constructs the adapter with defaults applied.
func NewUnsplash(opts UnsplashOptions) *Unsplash {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = unsplashDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	orientation := opts.Orientation
	if orientation == "" {
		orientation = defaultOrientation
	}
	return &Unsplash{
		accessKey:   strings.TrimSpace(opts.AccessKey),
		baseURL:     baseURL,
		client:      client,
		perPage:     perPage,
		orientation: orientation,
	}
}

func (u *Unsplash) Name() string       { return UnsplashName }
func (u *Unsplash) RequiresAuth() bool { return true }

// SearchAssets queries /search/photos and maps each photo with a usable URL.
func (u *Unsplash) SearchAssets(ctx context.Context, criteria domain.VisualSearchCriteria) ([]domain.AssetSearchResult, error) {
	params := url.Values{}
	params.Set("query", BuildQuery(criteria))
	params.Set("per_page", strconv.Itoa(u.perPage))
	params.Set("orientation", u.orientation)
	params.Set("content_filter", "high")
	if lang := unsplashLang(criteria.Locale); lang != "" {
		params.Set("lang", lang)
	}
	var out unsplashSearchResponse
	if err := getJSON(ctx, u.client, UnsplashName, u.baseURL+"/search/photos?"+params.Encode(), u.header(), &out); err != nil {
		return nil, err
	}
	results := make([]domain.AssetSearchResult, 0, len(out.Results))
	for _, photo := range out.Results {
		if res, ok := u.toResult(photo); ok {
			results = append(results, res)
		}
	}
	return results, nil
}

// TestConnection lists a single editorial photo.
func (u *Unsplash) TestConnection(ctx context.Context) error {
	var out []unsplashPhoto
	return getJSON(ctx, u.client, UnsplashName, u.baseURL+"/photos?per_page=1", u.header(), &out)
}

func (u *Unsplash) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Client-ID "+u.accessKey)
	h.Set("Accept-Version", "v1")
	return h
}

func (u *Unsplash) toResult(photo unsplashPhoto) (domain.AssetSearchResult, bool) {
	full := coalesce(photo.URLs.Full, photo.URLs.Regular, photo.URLs.Raw)
	if full == "" {
		return domain.AssetSearchResult{}, false
	}
	alt := deref(photo.AltDescription)
	desc := deref(photo.Description)

	tags := make([]string, 0, len(photo.Tags))
	for _, t := range photo.Tags {
		if title := strings.ToLower(strings.TrimSpace(t.Title)); title != "" {
			tags = append(tags, title)
		}
	}
	if len(tags) == 0 && alt != "" {
		tags = strings.Fields(strings.ToLower(alt))
	}

	meta := domain.AssetMetadata{
		Title:       coalesce(alt, desc, fmt.Sprintf("Unsplash photo %s", photo.ID)),
		Tags:        tags,
		Description: strings.TrimSpace(strings.Join([]string{desc, alt}, " ")),
		Color:       photo.Color,
		Attribution: &domain.Attribution{
			Author:    photo.User.Name,
			AuthorURL: photo.User.Links.HTML,
			SourceURL: photo.Links.HTML,
		},
	}
	if photo.Width > 0 && photo.Height > 0 {
		meta.Resolution = fmt.Sprintf("%dx%d", photo.Width, photo.Height)
	}
	return domain.AssetSearchResult{
		URL:          full,
		ThumbnailURL: coalesce(photo.URLs.Thumb, photo.URLs.Small),
		Type:         domain.AssetImage,
		Provider:     UnsplashName,
		Metadata:     meta,
		License:      unsplashLicense,
	}, true
}

// unsplashLang returns the primary language subtag for non-English locales.
func unsplashLang(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No || base.String() == "en" {
		return ""
	}
	return base.String()
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

var _ Source = (*Unsplash)(nil)
