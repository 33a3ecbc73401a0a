package feed

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Display feed size cap, matching the snapshot limit.
const maxBriefingArticles = 50

// RawSource is one rung of the article-acquisition ladder: the RSS pool
// first, then each backup provider in fixed order. An empty result is an
// explicit "no result" signal, not an error.
type RawSource interface {
	Name() string
	Fetch(ctx context.Context) ([]RawArticle, error)
}

// Pipeline runs one full refresh cycle:
// fetch -> filter -> dedup -> cluster -> balance. It never fails: when
// every source comes back empty or over-filtered, it degrades to the
// last good briefing and finally to the embedded seed data.
type Pipeline struct {
	registry  *Registry
	fetcher   *Fetcher
	backups   []RawSource
	filterer  *Filterer
	dedup     *Deduplicator
	clusterer *Clusterer
	balancer  *Balancer
	lastGood  func() *Briefing
}

func NewPipeline(registry *Registry, fetcher *Fetcher, backups []RawSource,
	balancer *Balancer, lastGood func() *Briefing) *Pipeline {
	return &Pipeline{
		registry:  registry,
		fetcher:   fetcher,
		backups:   backups,
		filterer:  NewFilterer(),
		dedup:     NewDeduplicator(),
		clusterer: NewClusterer(),
		balancer:  balancer,
		lastGood:  lastGood,
	}
}

func (p *Pipeline) Run(ctx context.Context) *Briefing {
	now := time.Now().UTC()
	started := now

	raw := p.acquire(ctx)
	if len(raw) == 0 {
		slog.Warn("All sources empty, falling back")
		return p.fallback(now)
	}

	relevant := p.filterer.Run(raw)
	if len(relevant) == 0 {
		slog.Warn("Relevance filter left zero articles, falling back", "raw", len(raw))
		return p.fallback(now)
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].PublishedAt.After(relevant[j].PublishedAt)
	})

	unique := p.dedup.Run(relevant)
	if len(unique) > maxBriefingArticles {
		unique = unique[:maxBriefingArticles]
	}

	articles := make([]Article, 0, len(unique))
	for _, r := range unique {
		articles = append(articles, Normalize(r, now))
	}

	clusters := p.clusterer.Run(articles)
	articles = p.balancer.Run(articles)
	// Top-up injection can push the list past the cap; re-trim so the
	// served feed honors it too, not just the snapshot path.
	if len(articles) > maxBriefingArticles {
		articles = articles[:maxBriefingArticles]
	}
	articles = AssignClusterIDs(articles, clusters)

	slog.Info("Pipeline run completed",
		"duration", time.Since(started),
		"raw", len(raw),
		"relevant", len(relevant),
		"unique", len(unique),
		"clusters", len(clusters))

	return &Briefing{
		Articles:    articles,
		Clusters:    clusters,
		GeneratedAt: now,
		Origin:      OriginLive,
	}
}

// acquire tries the RSS pool, then each backup provider in order,
// stopping at the first rung that yields any usable article.
func (p *Pipeline) acquire(ctx context.Context) []RawArticle {
	raw := p.fetcher.FetchAll(ctx, p.registry.GetEnabledSources())
	if len(raw) > 0 {
		return raw
	}

	for _, backup := range p.backups {
		articles, err := backup.Fetch(ctx)
		if err != nil {
			slog.Warn("Backup provider failed", "provider", backup.Name(), "error", err)
			continue
		}
		if len(articles) > 0 {
			slog.Info("Backup provider served articles", "provider", backup.Name(), "count", len(articles))
			return articles
		}
	}

	return nil
}

func (p *Pipeline) fallback(now time.Time) *Briefing {
	if p.lastGood != nil {
		if cached := p.lastGood(); cached != nil && len(cached.Articles) > 0 {
			slog.Info("Serving cached briefing", "generated_at", cached.GeneratedAt)
			return &Briefing{
				Articles:    cached.Articles,
				Clusters:    cached.Clusters,
				GeneratedAt: cached.GeneratedAt,
				Origin:      OriginCached,
			}
		}
	}

	slog.Info("Serving seed briefing")
	return SeedBriefing(now)
}
