package asset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"assetmatch/internal/domain"
)

const maxResponseBytes = 8 << 20

type upstreamErrorBody struct {
	Error   string   `json:"error"`
	Errors  []string `json:"errors"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

// getJSON performs an authenticated GET and decodes the JSON body into out.
// Every failure comes back as a *domain.ProviderError for provider.
func getJSON(ctx context.Context, client *http.Client, provider, endpoint string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.NewProviderError(provider, domain.ErrUpstream, "build request", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return domain.NewProviderError(provider, domain.ErrUpstream, "http request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.NewProviderError(provider, domain.ErrUpstream, "read response", err)
	}
	if resp.StatusCode >= 300 {
		kind := domain.ErrUpstream
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = domain.ErrAuthentication
		case http.StatusTooManyRequests:
			kind = domain.ErrRateLimited
		}
		return domain.NewProviderError(provider, kind, upstreamMessage(resp.StatusCode, raw), nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewProviderError(provider, domain.ErrUpstream, "malformed response", err)
	}
	return nil
}

func upstreamMessage(status int, raw []byte) string {
	var detail upstreamErrorBody
	if err := json.Unmarshal(raw, &detail); err == nil {
		switch {
		case detail.Error != "":
			return fmt.Sprintf("status %d: %s", status, detail.Error)
		case len(detail.Errors) > 0:
			return fmt.Sprintf("status %d: %s", status, strings.Join(detail.Errors, "; "))
		case detail.Message != "":
			return fmt.Sprintf("status %d: %s", status, detail.Message)
		}
	}
	body := strings.TrimSpace(string(raw))
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		body = http.StatusText(status)
	}
	return fmt.Sprintf("status %d: %s", status, body)
}
