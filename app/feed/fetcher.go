package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

const fetchTimeout = 10 * time.Second

// Fetcher retrieves registered feeds and normalizes them into RawArticle
// values. It never returns an error for a single feed: transport, status
// and parse failures all yield an empty result and a logged warning.
type Fetcher struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
	}
}

// FetchAll fans out over all sources concurrently. Each source fetch is
// isolated: one failure neither delays nor fails the others. The merged
// result is sorted freshest-first.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) []RawArticle {
	results := make([][]RawArticle, len(sources))

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			results[i] = f.FetchOne(ctx, source.URL, source.Name)
		}(i, source)
	}
	wg.Wait()

	var merged []RawArticle
	for _, articles := range results {
		merged = append(merged, articles...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})

	return merged
}

// FetchOne fetches and parses a single feed. Failures are logged and
// produce a nil slice, never an error.
func (f *Fetcher) FetchOne(ctx context.Context, feedURL, sourceName string) []RawArticle {
	data, err := f.fetch(ctx, feedURL)
	if err != nil {
		slog.Warn("Feed fetch failed", "source", sourceName, "url", feedURL, "error", err)
		return nil
	}

	parsed, err := f.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Feed parse failed", "source", sourceName, "url", feedURL, "error", err)
		return nil
	}

	articles := make([]RawArticle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Title == "" {
			continue
		}
		articles = append(articles, f.normalizeItem(item, sourceName))
	}

	return articles
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (f *Fetcher) normalizeItem(item *gofeed.Item, sourceName string) RawArticle {
	raw := RawArticle{
		Title:       item.Title,
		Description: item.Description,
		Link:        item.Link,
		SourceID:    sourceName,
	}

	if item.PublishedParsed != nil {
		raw.PublishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		raw.PublishedAt = item.UpdatedParsed.UTC()
	} else {
		raw.PublishedAt = time.Now().UTC()
	}

	return raw
}
