package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/geobrief/geobrief/app/feed"
)

type NewsDataProvider struct {
	apiKey     string
	httpClient *http.Client
}

func NewNewsDataProvider(apiKey string, httpClient *http.Client) *NewsDataProvider {
	return &NewsDataProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (p *NewsDataProvider) Name() string {
	return "NewsData"
}

func (p *NewsDataProvider) Fetch(ctx context.Context) ([]feed.RawArticle, error) {
	url := fmt.Sprintf(
		"https://newsdata.io/api/1/latest?category=politics,world&language=en&apikey=%s",
		p.apiKey,
	)

	var raw newsDataResponse
	if err := fetchJSON(ctx, p.httpClient, url, &raw); err != nil {
		return nil, fmt.Errorf("newsdata fetch: %w", err)
	}

	if !strings.EqualFold(raw.Status, "success") {
		return nil, fmt.Errorf("newsdata status: %s", raw.Status)
	}

	articles := make([]feed.RawArticle, 0, len(raw.Results))
	for _, item := range raw.Results {
		// NewsData timestamps are "2006-01-02 15:04:05" in UTC.
		publishedAt, err := time.Parse("2006-01-02 15:04:05", item.PubDate)
		if err != nil {
			publishedAt = time.Time{}
		}

		sourceName := item.SourceName
		if sourceName == "" {
			sourceName = item.SourceID
		}
		if sourceName == "" {
			sourceName = p.Name()
		}

		articles = append(articles, feed.RawArticle{
			Title:       item.Title,
			Description: item.Description,
			Link:        item.Link,
			SourceID:    sourceName,
			PublishedAt: publishedAt,
		})
	}

	return articles, nil
}

type newsDataResponse struct {
	Status  string           `json:"status"`
	Results []newsDataResult `json:"results"`
}

type newsDataResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
	SourceID    string `json:"source_id"`
	SourceName  string `json:"source_name"`
}
