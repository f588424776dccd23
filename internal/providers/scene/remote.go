package scene

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"assetmatch/internal/domain"
)

// RemoteOptions configures the HTTP scene-analysis collaborator.
type RemoteOptions struct {
	URL        string
	HTTPClient *http.Client
}

// RemoteAnalyzer delegates analysis to a service that accepts
// {"sceneDescription": ...} and answers with camelCase criteria.
type RemoteAnalyzer struct {
	url    string
	client *http.Client
}

type remoteRequest struct {
	SceneDescription string `json:"sceneDescription"`
}

type remoteError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// NewRemoteAnalyzer builds the collaborator client.
func NewRemoteAnalyzer(opts RemoteOptions) *RemoteAnalyzer {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RemoteAnalyzer{url: strings.TrimSpace(opts.URL), client: client}
}

// AnalyzeScene posts the description and normalizes the returned criteria.
func (r *RemoteAnalyzer) AnalyzeScene(ctx context.Context, description string) (*domain.VisualSearchCriteria, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("scene: %w: description is required", domain.ErrInvalidCriteria)
	}
	if r.url == "" {
		return nil, fmt.Errorf("scene: %w: SCENE_ANALYZER_URL is not set", domain.ErrConfiguration)
	}
	body, err := json.Marshal(remoteRequest{SceneDescription: description})
	if err != nil {
		return nil, fmt.Errorf("scene: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scene: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scene: remote: %w: %w", domain.ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("scene: remote: %w: read response: %w", domain.ErrUpstream, err)
	}
	if resp.StatusCode >= 300 {
		detail := truncate(string(raw), 200)
		var e remoteError
		if json.Unmarshal(raw, &e) == nil {
			if msg := coalesce(e.Details, e.Error); msg != "" {
				detail = msg
			}
		}
		return nil, fmt.Errorf("scene: remote: %w: status %d: %s", domain.ErrUpstream, resp.StatusCode, detail)
	}
	var payload scenePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("scene: remote: %w: %v", domain.ErrParse, err)
	}
	return payload.toCriteria(description), nil
}

var _ Analyzer = (*RemoteAnalyzer)(nil)
