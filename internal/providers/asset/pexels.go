package asset

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"assetmatch/internal/domain"
)

const (
	PexelsName           = "pexels"
	pexelsDefaultBaseURL = "https://api.pexels.com"
)

var pexelsLicense = domain.License{
	Type:                "Pexels License",
	RequiresAttribution: false,
	Restrictions: []string{
		"Unaltered copies may not be sold or redistributed",
		"Identifiable people may not appear in a bad light or imply endorsement",
		"May not be redistributed on other stock media platforms",
	},
}

var pexelsLocales = []string{
	"en-US", "pt-BR", "es-ES", "ca-ES", "de-DE", "it-IT", "fr-FR", "sv-SE", "id-ID", "pl-PL",
	"ja-JP", "zh-TW", "zh-CN", "ko-KR", "th-TH", "nl-NL", "hu-HU", "vi-VN", "cs-CZ", "da-DK",
	"fi-FI", "uk-UA", "el-GR", "ro-RO", "nb-NO", "sk-SK", "tr-TR", "ru-RU",
}

var pexelsLocaleMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(pexelsLocales))
	for i, l := range pexelsLocales {
		tags[i] = language.MustParse(l)
	}
	return language.NewMatcher(tags)
}()

// PexelsOptions configures the Pexels video adapter.
type PexelsOptions struct {
	APIKey      string
	BaseURL     string
	HTTPClient  *http.Client
	PerPage     int
	Orientation string
}

// Pexels searches the Pexels video library.
type Pexels struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	perPage     int
	orientation string
}

type pexelsSearchResponse struct {
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	TotalResults int           `json:"total_results"`
	Videos       []pexelsVideo `json:"videos"`
}

type pexelsVideo struct {
	ID       int64   `json:"id"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	URL      string  `json:"url"`
	Image    string  `json:"image"`
	Duration float64 `json:"duration"`
	User     struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"user"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

type pexelsVideoFile struct {
	ID       int64  `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// NewPexels constructs the adapter with defaults applied.
func NewPexels(opts PexelsOptions) *Pexels {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = pexelsDefaultBaseURL
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
	return &Pexels{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		client:      client,
		perPage:     perPage,
		orientation: orientation,
	}
}

func (p *Pexels) Name() string       { return PexelsName }
func (p *Pexels) RequiresAuth() bool { return true }

// SearchAssets queries /videos/search and keeps one playable file per video.
func (p *Pexels) SearchAssets(ctx context.Context, criteria domain.VisualSearchCriteria) ([]domain.AssetSearchResult, error) {
	params := url.Values{}
	params.Set("query", BuildQuery(criteria))
	params.Set("per_page", strconv.Itoa(p.perPage))
	params.Set("orientation", p.orientation)
	if locale := pexelsLocale(criteria.Locale); locale != "" {
		params.Set("locale", locale)
	}
	var out pexelsSearchResponse
	if err := getJSON(ctx, p.client, PexelsName, p.baseURL+"/videos/search?"+params.Encode(), p.header(), &out); err != nil {
		return nil, err
	}
	results := make([]domain.AssetSearchResult, 0, len(out.Videos))
	for _, video := range out.Videos {
		if res, ok := p.toResult(video); ok {
			results = append(results, res)
		}
	}
	return results, nil
}

// TestConnection requests a single popular video.
func (p *Pexels) TestConnection(ctx context.Context) error {
	var out pexelsSearchResponse
	return getJSON(ctx, p.client, PexelsName, p.baseURL+"/videos/popular?per_page=1", p.header(), &out)
}

func (p *Pexels) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", p.apiKey)
	return h
}

func (p *Pexels) toResult(video pexelsVideo) (domain.AssetSearchResult, bool) {
	file, ok := bestVideoFile(video.VideoFiles)
	if !ok {
		return domain.AssetSearchResult{}, false
	}
	title, tags := titleFromPexelsURL(video.URL)
	if tags == nil {
		tags = []string{}
	}
	if title == "" {
		title = fmt.Sprintf("Pexels video %d", video.ID)
	}
	duration := video.Duration
	width, height := file.Width, file.Height
	if width == 0 || height == 0 {
		width, height = video.Width, video.Height
	}
	meta := domain.AssetMetadata{
		Title:       title,
		Tags:        tags,
		Description: strings.ToLower(title),
		Duration:    &duration,
		Attribution: &domain.Attribution{
			Author:    video.User.Name,
			AuthorURL: video.User.URL,
			SourceURL: video.URL,
		},
	}
	if width > 0 && height > 0 {
		meta.Resolution = fmt.Sprintf("%dx%d", width, height)
	}
	return domain.AssetSearchResult{
		URL:          file.Link,
		ThumbnailURL: video.Image,
		Type:         domain.AssetVideo,
		Provider:     PexelsName,
		Metadata:     meta,
		License:      pexelsLicense,
	}, true
}

// bestVideoFile picks the highest-resolution mp4 file with a link.
func bestVideoFile(files []pexelsVideoFile) (pexelsVideoFile, bool) {
	var best pexelsVideoFile
	found := false
	for _, f := range files {
		if f.Link == "" || !strings.EqualFold(f.FileType, "video/mp4") {
			continue
		}
		if !found || f.Width*f.Height > best.Width*best.Height {
			best = f
			found = true
		}
	}
	return best, found
}

// titleFromPexelsURL derives a title and tags from a page URL such as
// https://www.pexels.com/video/waves-on-a-beach-at-sunset-1093662/.
func titleFromPexelsURL(pageURL string) (string, []string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", nil
	}
	slug := path.Base(strings.TrimRight(u.Path, "/"))
	if slug == "." || slug == "/" {
		return "", nil
	}
	var words []string
	for _, w := range strings.Split(slug, "-") {
		if w == "" {
			continue
		}
		if _, err := strconv.Atoi(w); err == nil {
			continue
		}
		words = append(words, strings.ToLower(w))
	}
	if len(words) == 0 {
		return "", nil
	}
	title := strings.Join(words, " ")
	title = strings.ToUpper(title[:1]) + title[1:]
	return title, words
}

// pexelsLocale maps a BCP-47 tag onto one of the locales Pexels accepts.
func pexelsLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	_, idx, conf := pexelsLocaleMatcher.Match(tag)
	if conf == language.No {
		return ""
	}
	return pexelsLocales[idx]
}

var _ Source = (*Pexels)(nil)
