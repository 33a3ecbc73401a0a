package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/geobrief/geobrief/app/feed"
)

type CurrentsProvider struct {
	apiKey     string
	httpClient *http.Client
}

func NewCurrentsProvider(apiKey string, httpClient *http.Client) *CurrentsProvider {
	return &CurrentsProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (p *CurrentsProvider) Name() string {
	return "Currents"
}

func (p *CurrentsProvider) Fetch(ctx context.Context) ([]feed.RawArticle, error) {
	url := fmt.Sprintf(
		"https://api.currentsapi.services/v1/latest-news?category=world&language=en&apiKey=%s",
		p.apiKey,
	)

	var raw currentsResponse
	if err := fetchJSON(ctx, p.httpClient, url, &raw); err != nil {
		return nil, fmt.Errorf("currents fetch: %w", err)
	}

	articles := make([]feed.RawArticle, 0, len(raw.News))
	for _, item := range raw.News {
		// Currents timestamps look like "2024-05-01 10:15:04 +0000".
		publishedAt, err := time.Parse("2006-01-02 15:04:05 -0700", item.Published)
		if err != nil {
			publishedAt = time.Time{}
		}

		sourceName := item.Author
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

type currentsResponse struct {
	Status string         `json:"status"`
	News   []currentsItem `json:"news"`
}

type currentsItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Published   string `json:"published"`
}
