// Package summarizer generates short prose summaries for event clusters.
// It is a soft dependency: every failure path yields an empty summary
// and a warning, never an error the pipeline has to handle.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	gocache "github.com/patrickmn/go-cache"

	"github.com/geobrief/geobrief/app/feed"
)

const (
	summaryTimeout  = 20 * time.Second
	summaryCacheTTL = 6 * time.Hour
	maxHeadlines    = 10
)

const systemPrompt = "You are a geopolitical news editor. Given headlines " +
	"about one event, write a neutral 2-3 sentence briefing summary. " +
	"State only what the headlines support. No preamble, no markdown."

type Summarizer struct {
	client *anthropic.Client
	model  anthropic.Model
	memo   *gocache.Cache
}

func New(apiKey, model string) *Summarizer {
	if apiKey == "" {
		return &Summarizer{memo: gocache.New(summaryCacheTTL, summaryCacheTTL)}
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Summarizer{
		client: &client,
		model:  anthropic.Model(model),
		memo:   gocache.New(summaryCacheTTL, summaryCacheTTL),
	}
}

// Enabled reports whether an API key was configured.
func (s *Summarizer) Enabled() bool {
	return s.client != nil
}

// Summarize returns prose for a cluster, memoized by cluster identity.
// On any failure (no key, timeout, quota, empty response) it returns "".
func (s *Summarizer) Summarize(ctx context.Context, cluster feed.Cluster) string {
	if cached, ok := s.memo.Get(cluster.ID); ok {
		return cached.(string)
	}

	if !s.Enabled() {
		return ""
	}

	summary, err := s.generate(ctx, cluster)
	if err != nil {
		slog.Warn("Summarization failed", "cluster", cluster.ID, "error", err)
		return ""
	}

	s.memo.Set(cluster.ID, summary, gocache.DefaultExpiration)
	return summary
}

func (s *Summarizer) generate(ctx context.Context, cluster feed.Cluster) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()

	resp, err := s.client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(clusterPrompt(cluster))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}

	summary := strings.TrimSpace(resp.Content[0].Text)
	if summary == "" {
		return "", fmt.Errorf("blank summary")
	}

	return summary, nil
}

func clusterPrompt(cluster feed.Cluster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event in %s (%s). Headlines:\n", cluster.PrimaryCountry, cluster.Category)

	for i, article := range cluster.Articles {
		if i >= maxHeadlines {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", article.Headline, article.Source)
	}

	return b.String()
}
