package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geobrief/geobrief/app/cache"
	"github.com/geobrief/geobrief/app/feed"
	"github.com/geobrief/geobrief/app/summarizer"
)

// WarmEdgeCacheTask pre-generates clusters and summaries into the edge
// tier so cold clients never wait on a live pipeline run. It runs on its
// own cadence, independent of client requests, and writes to keys the
// request path only reads.
type WarmEdgeCacheTask struct {
	Task
	pipeline   *feed.Pipeline
	edge       cache.EdgeCache
	summarizer *summarizer.Summarizer
	topN       int
	ttl        time.Duration
	inflight   *atomic.Bool
}

func NewWarmEdgeCacheTask(pipeline *feed.Pipeline, edge cache.EdgeCache,
	s *summarizer.Summarizer, topN int, ttl time.Duration, inflight *atomic.Bool) *WarmEdgeCacheTask {
	return &WarmEdgeCacheTask{
		Task:       NewTask(TaskTypeWarmEdgeCache, 0),
		pipeline:   pipeline,
		edge:       edge,
		summarizer: s,
		topN:       topN,
		ttl:        ttl,
		inflight:   inflight,
	}
}

func (t *WarmEdgeCacheTask) Execute(ctx context.Context) error {
	defer t.inflight.Store(false)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	briefing := t.pipeline.Run(ctx)

	summarized := 0
	for i := range briefing.Clusters {
		if i >= t.topN {
			break
		}
		cluster := &briefing.Clusters[i]

		summary := t.summarizer.Summarize(ctx, *cluster)
		if summary == "" {
			continue
		}
		cluster.Summary = summary
		summarized++

		if err := t.edge.Set(ctx, cache.KeySummary(cluster.ID), []byte(summary), t.ttl); err != nil {
			slog.Warn("Failed to cache cluster summary", "cluster", cluster.ID, "error", err)
		}
	}

	payload, err := json.Marshal(briefing)
	if err != nil {
		return fmt.Errorf("failed to serialize briefing: %w", err)
	}

	if err := t.edge.Set(ctx, cache.KeyEvents, payload, t.ttl); err != nil {
		return fmt.Errorf("failed to write edge cache: %w", err)
	}

	slog.Info("Task completed",
		"type", "WarmEdgeCache",
		"duration", t.GetDuration(),
		"origin", briefing.Origin,
		"clusters", len(briefing.Clusters),
		"summarized", summarized)

	return nil
}
