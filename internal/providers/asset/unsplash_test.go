package asset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"assetmatch/internal/domain"
)

const unsplashSearchFixture = `{
  "total": 3,
  "total_pages": 1,
  "results": [
    {
      "id": "abc123",
      "width": 6000,
      "height": 4000,
      "color": "#f3a25c",
      "description": "Golden hour",
      "alt_description": "person walking on beach at sunset",
      "urls": {"raw": "https://images.unsplash.com/raw", "full": "https://images.unsplash.com/full", "regular": "https://images.unsplash.com/regular", "small": "https://images.unsplash.com/small", "thumb": "https://images.unsplash.com/thumb"},
      "links": {"html": "https://unsplash.com/photos/abc123"},
      "user": {"name": "Sam Lee", "links": {"html": "https://unsplash.com/@sam"}},
      "tags": [{"title": "Beach"}, {"title": "sunset"}, {"title": " "}]
    },
    {
      "id": "def456",
      "width": 800,
      "height": 600,
      "alt_description": "quiet office desk",
      "description": null,
      "urls": {"regular": "https://images.unsplash.com/def-regular", "small": "https://images.unsplash.com/def-small"},
      "links": {"html": "https://unsplash.com/photos/def456"},
      "user": {"name": "Kim", "links": {"html": "https://unsplash.com/@kim"}},
      "tags": []
    },
    {
      "id": "nourl",
      "urls": {},
      "user": {"name": "Nobody"}
    }
  ]
}`

func TestUnsplashSearchAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/photos" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Client-ID us-key" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("Accept-Version"); got != "v1" {
			t.Errorf("accept-version = %q", got)
		}
		q := r.URL.Query()
		if q.Get("content_filter") != "high" || q.Get("orientation") != "landscape" || q.Get("per_page") != "15" {
			t.Errorf("unexpected params %v", q)
		}
		if q.Get("lang") != "" {
			t.Errorf("english locale should not send lang, got %q", q.Get("lang"))
		}
		_, _ = w.Write([]byte(unsplashSearchFixture))
	}))
	defer srv.Close()

	client := NewUnsplash(UnsplashOptions{AccessKey: "us-key", BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	criteria := beachCriteria()
	criteria.Locale = "en-GB"

	results, err := client.SearchAssets(context.Background(), criteria)
	if err != nil {
		t.Fatalf("SearchAssets: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected photo without urls to be dropped, got %d", len(results))
	}

	first := results[0]
	if first.URL != "https://images.unsplash.com/full" || first.ThumbnailURL != "https://images.unsplash.com/thumb" {
		t.Fatalf("urls = %q / %q", first.URL, first.ThumbnailURL)
	}
	if first.Type != domain.AssetImage || first.Provider != UnsplashName {
		t.Fatalf("type/provider = %q/%q", first.Type, first.Provider)
	}
	if len(first.Metadata.Tags) != 2 || first.Metadata.Tags[0] != "beach" {
		t.Fatalf("tags = %v", first.Metadata.Tags)
	}
	if first.Metadata.Title != "person walking on beach at sunset" {
		t.Fatalf("title = %q", first.Metadata.Title)
	}
	if first.Metadata.Description != "Golden hour person walking on beach at sunset" {
		t.Fatalf("description = %q", first.Metadata.Description)
	}
	if first.Metadata.Resolution != "6000x4000" || first.Metadata.Color != "#f3a25c" {
		t.Fatalf("resolution/color = %q/%q", first.Metadata.Resolution, first.Metadata.Color)
	}
	if first.Metadata.Duration != nil {
		t.Fatal("photos must not carry a duration")
	}
	if first.Metadata.Attribution == nil || first.Metadata.Attribution.Author != "Sam Lee" {
		t.Fatalf("attribution = %+v", first.Metadata.Attribution)
	}

	second := results[1]
	if second.URL != "https://images.unsplash.com/def-regular" || second.ThumbnailURL != "https://images.unsplash.com/def-small" {
		t.Fatalf("fallback urls = %q / %q", second.URL, second.ThumbnailURL)
	}
	if len(second.Metadata.Tags) != 3 || second.Metadata.Tags[2] != "desk" {
		t.Fatalf("alt description tags = %v", second.Metadata.Tags)
	}
}

func TestUnsplashSendsLangForNonEnglishLocale(t *testing.T) {
	var lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = r.URL.Query().Get("lang")
		_, _ = w.Write([]byte(`{"total":0,"total_pages":0,"results":[]}`))
	}))
	defer srv.Close()

	client := NewUnsplash(UnsplashOptions{AccessKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	criteria := beachCriteria()
	criteria.Locale = "id-ID"
	results, err := client.SearchAssets(context.Background(), criteria)
	if err != nil {
		t.Fatalf("SearchAssets: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
	if lang != "id" {
		t.Fatalf("lang = %q, want id", lang)
	}
}

func TestUnsplashForbiddenIsAuthenticationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":["OAuth error: The access token is invalid"]}`))
	}))
	defer srv.Close()

	client := NewUnsplash(UnsplashOptions{AccessKey: "bad", BaseURL: srv.URL, HTTPClient: srv.Client()})
	err := client.TestConnection(context.Background())
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestUnsplashServerErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewUnsplash(UnsplashOptions{AccessKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := client.SearchAssets(context.Background(), beachCriteria())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
