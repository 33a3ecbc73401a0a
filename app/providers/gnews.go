package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/geobrief/geobrief/app/feed"
)

type GNewsProvider struct {
	apiKey     string
	httpClient *http.Client
}

func NewGNewsProvider(apiKey string, httpClient *http.Client) *GNewsProvider {
	return &GNewsProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (p *GNewsProvider) Name() string {
	return "GNews"
}

func (p *GNewsProvider) Fetch(ctx context.Context) ([]feed.RawArticle, error) {
	url := fmt.Sprintf(
		"https://gnews.io/api/v4/top-headlines?category=world&lang=en&max=%d&apikey=%s",
		defaultLimit, p.apiKey,
	)

	var raw gnewsResponse
	if err := fetchJSON(ctx, p.httpClient, url, &raw); err != nil {
		return nil, fmt.Errorf("gnews fetch: %w", err)
	}

	articles := make([]feed.RawArticle, 0, len(raw.Articles))
	for _, item := range raw.Articles {
		publishedAt, err := time.Parse(time.RFC3339, item.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}

		sourceName := item.Source.Name
		if sourceName == "" {
			sourceName = p.Name()
		}

		articles = append(articles, feed.RawArticle{
			Title:       item.Title,
			Description: item.Description,
			Link:        item.URL,
			SourceID:    sourceName,
			PublishedAt: publishedAt,
		})
	}

	return articles, nil
}

type gnewsResponse struct {
	Articles []gnewsArticle `json:"articles"`
}

type gnewsArticle struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	PublishedAt string      `json:"publishedAt"`
	Source      gnewsSource `json:"source"`
}

type gnewsSource struct {
	Name string `json:"name"`
}
