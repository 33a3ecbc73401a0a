package tasks

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geobrief/geobrief/app/cache"
	"github.com/geobrief/geobrief/app/database"
	"github.com/geobrief/geobrief/app/feed"
)

// RefreshBriefingTask runs one full pipeline cycle and replaces the
// session-tier briefing. It is single-flight: the scheduler's in-flight
// flag is held for the task's whole lifetime and released here. No
// retries; the next interval produces a fresher replacement anyway.
type RefreshBriefingTask struct {
	Task
	pipeline     *feed.Pipeline
	session      *cache.SessionStore
	inflight     *atomic.Bool
	saveSnapshot func(database.BriefingSnapshot)
}

func NewRefreshBriefingTask(pipeline *feed.Pipeline, session *cache.SessionStore,
	inflight *atomic.Bool, saveSnapshot func(database.BriefingSnapshot)) *RefreshBriefingTask {
	return &RefreshBriefingTask{
		Task:         NewTask(TaskTypeRefreshBriefing, 0),
		pipeline:     pipeline,
		session:      session,
		inflight:     inflight,
		saveSnapshot: saveSnapshot,
	}
}

func (t *RefreshBriefingTask) Execute(ctx context.Context) error {
	defer t.inflight.Store(false)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	briefing := t.pipeline.Run(ctx)
	t.session.Replace(briefing)

	slog.Info("Task completed",
		"type", "RefreshBriefing",
		"duration", t.GetDuration(),
		"origin", briefing.Origin,
		"articles", len(briefing.Articles),
		"clusters", len(briefing.Clusters))

	if briefing.Origin == feed.OriginLive && t.saveSnapshot != nil {
		if snapshot, ok := snapshotOf(briefing); ok {
			t.saveSnapshot(snapshot)
		}
	}

	return nil
}

// snapshotOf builds today's snapshot from a live briefing. Briefings
// whose articles carry no real URL (seeded or synthetic data) are never
// persisted.
func snapshotOf(briefing *feed.Briefing) (database.BriefingSnapshot, bool) {
	hasURL := false
	for _, article := range briefing.Articles {
		if article.URL != "" {
			hasURL = true
			break
		}
	}
	if !hasURL {
		return database.BriefingSnapshot{}, false
	}

	now := time.Now().UTC()
	return database.BriefingSnapshot{
		Date:         now.Format("2006-01-02"),
		Articles:     briefing.Articles,
		SavedAt:      now,
		ArticleCount: len(briefing.Articles),
	}, true
}
