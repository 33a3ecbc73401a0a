// Package providers holds the backup news APIs tried, in fixed order,
// when the primary RSS pool yields zero usable articles. Each provider
// speaks its own response shape and adapts it to feed.RawArticle.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/geobrief/geobrief/app/feed"
)

const (
	providerTimeout = 10 * time.Second
	defaultLimit    = 50
)

type Provider interface {
	Name() string
	Fetch(ctx context.Context) ([]feed.RawArticle, error)
}

// fetchJSON performs a GET with the provider latency budget and decodes
// the JSON body into v.
func fetchJSON(ctx context.Context, client *http.Client, url string, v any) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
