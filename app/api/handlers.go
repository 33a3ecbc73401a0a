package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geobrief/geobrief/app/cache"
	"github.com/geobrief/geobrief/app/cfg"
	"github.com/geobrief/geobrief/app/database"
	"github.com/geobrief/geobrief/app/feed"
	"github.com/geobrief/geobrief/app/summarizer"
	"github.com/geobrief/geobrief/app/tasks"
)

func NewHandler(registry *feed.Registry, fetcher *feed.Fetcher,
	session *cache.SessionStore, edge cache.EdgeCache,
	snapshotRepo database.SnapshotRepository, s *summarizer.Summarizer,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		registry:     registry,
		fetcher:      fetcher,
		session:      session,
		edge:         edge,
		snapshotRepo: snapshotRepo,
		summarizer:   s,
		scheduler:    scheduler,
	}
}

// GetRelay proxies a single allow-listed feed for the browser client.
// Non-allow-listed domains are refused so the relay cannot be used as an
// open proxy.
func (h *Handler) GetRelay(c *gin.Context) {
	feedURL := c.Query("url")
	if feedURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "url query parameter is required"})
		return
	}

	if !h.registry.IsAllowedURL(feedURL) {
		slog.Warn("Relay refused non-allow-listed URL", "url", feedURL)
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "feed domain is not allow-listed"})
		return
	}

	items := h.fetcher.FetchOne(c.Request.Context(), feedURL, c.Query("source"))

	c.JSON(http.StatusOK, relayResponse{
		Status: "ok",
		Items:  emptyIfNil(items),
	})
}

// PostBatch aggregates several relay fetches into one round trip. Feeds
// are fetched concurrently; a failed or refused feed yields an error
// entry without affecting the others.
func (h *Handler) PostBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	results := make([]batchResult, len(req.Feeds))

	var wg sync.WaitGroup
	for i, f := range req.Feeds {
		wg.Add(1)
		go func(i int, f batchFeed) {
			defer wg.Done()

			if !h.registry.IsAllowedURL(f.URL) {
				results[i] = batchResult{URL: f.URL, Status: "forbidden", Items: []feed.RawArticle{}}
				return
			}

			items := h.fetcher.FetchOne(c.Request.Context(), f.URL, f.Source)
			results[i] = batchResult{URL: f.URL, Status: "ok", Items: emptyIfNil(items)}
		}(i, f)
	}
	wg.Wait()

	c.JSON(http.StatusOK, batchResponse{Status: "ok", Results: results})
}

// PostSummarize returns prose for a cluster, preferring the edge cache
// the scheduled job pre-populated. A summarization failure is not an
// error: the response simply carries an empty summary.
func (h *Handler) PostSummarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if cached, err := h.edge.Get(c.Request.Context(), cache.KeySummary(req.ClusterID)); err == nil {
		c.JSON(http.StatusOK, summarizeResponse{Status: "ok", Summary: string(cached)})
		return
	}

	cluster := feed.Cluster{
		ID:             req.ClusterID,
		PrimaryCountry: req.PrimaryCountry,
		Category:       req.Category,
	}
	for _, article := range req.Articles {
		cluster.Articles = append(cluster.Articles, feed.Article{
			Headline: article.Headline,
			Source:   article.Source,
		})
	}

	summary := h.summarizer.Summarize(c.Request.Context(), cluster)

	c.JSON(http.StatusOK, summarizeResponse{Status: "ok", Summary: summary})
}

// GetBriefing serves the current feed. A stale value is served
// immediately while a refresh is triggered in the background; a cold
// process falls through to the edge tier, and finally to seed content.
// The client never sees an error or an empty feed here.
func (h *Handler) GetBriefing(c *gin.Context) {
	briefing, freshness := h.session.Current()

	if freshness == cache.FreshnessNone {
		if briefing = h.briefingFromEdge(c); briefing != nil {
			freshness = cache.FreshnessStale
		}
	}

	if briefing == nil {
		briefing = feed.SeedBriefing(time.Now().UTC())
		freshness = cache.FreshnessStale
	}

	if freshness != cache.FreshnessFresh {
		h.scheduler.TriggerRefresh()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"freshness":   freshness,
		"lastUpdated": briefing.GeneratedAt.Format(time.RFC3339),
		"briefing":    briefing,
	})
}

func (h *Handler) briefingFromEdge(c *gin.Context) *feed.Briefing {
	payload, err := h.edge.Get(c.Request.Context(), cache.KeyEvents)
	if err != nil {
		return nil
	}

	var briefing feed.Briefing
	if err := json.Unmarshal(payload, &briefing); err != nil {
		slog.Warn("Failed to decode edge briefing", "error", err)
		return nil
	}
	briefing.Origin = feed.OriginCached
	return &briefing
}

// GetHistory lists saved snapshots, newest first, without article
// bodies.
func (h *Handler) GetHistory(c *gin.Context) {
	snapshots, err := h.snapshotRepo.ListSnapshots()
	if err != nil {
		slog.Error("Database error", "operation", "list_snapshots", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		return
	}

	entries := make([]gin.H, 0, len(snapshots))
	for _, snapshot := range snapshots {
		entries = append(entries, gin.H{
			"date":         snapshot.Date,
			"savedAt":      snapshot.SavedAt.Format(time.RFC3339),
			"articleCount": snapshot.ArticleCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "snapshots": entries})
}

func (h *Handler) GetHistoryByDate(c *gin.Context) {
	date := c.Param("date")

	snapshot, err := h.snapshotRepo.GetSnapshot(date)
	if err != nil {
		slog.Error("Database error", "operation", "get_snapshot", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "no snapshot for date"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "snapshot": snapshot})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"service":   "geobrief",
		"version":   cfg.Get().Version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sources":   h.registry.GetSourceCount(),
	}

	if count, err := h.snapshotRepo.GetSnapshotCount(); err == nil {
		health["snapshots"] = count
	}

	_, freshness := h.session.Current()
	health["briefing"] = freshness

	c.JSON(http.StatusOK, health)
}

// APITriggerRefresh manually triggers a pipeline run. A run already in
// flight drops the trigger; the response says which happened.
func (h *Handler) APITriggerRefresh(c *gin.Context) {
	accepted := h.scheduler.TriggerRefresh()

	status := http.StatusAccepted
	if !accepted {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"status": "ok", "accepted": accepted})
}

func (h *Handler) APIListSources(c *gin.Context) {
	sources := h.registry.GetSources()

	entries := make([]gin.H, 0, len(sources))
	for _, source := range sources {
		entries = append(entries, gin.H{
			"name":    source.Name,
			"url":     source.URL,
			"bias":    source.Bias,
			"enabled": source.IsEnabled(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "sources": entries})
}

func emptyIfNil(items []feed.RawArticle) []feed.RawArticle {
	if items == nil {
		return []feed.RawArticle{}
	}
	return items
}
