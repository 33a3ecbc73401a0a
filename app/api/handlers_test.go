package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geobrief/geobrief/app/cache"
	"github.com/geobrief/geobrief/app/cfg"
	"github.com/geobrief/geobrief/app/database"
	"github.com/geobrief/geobrief/app/feed"
	"github.com/geobrief/geobrief/app/summarizer"
	"github.com/geobrief/geobrief/app/tasks"
)

type fakeScheduler struct {
	refreshCalls int
	warmCalls    int
	accept       bool
}

func (f *fakeScheduler) Start() {}
func (f *fakeScheduler) Stop()  {}

func (f *fakeScheduler) EnqueueTask(tasks.TaskInterface) error { return nil }

func (f *fakeScheduler) TriggerRefresh() bool {
	f.refreshCalls++
	return f.accept
}

func (f *fakeScheduler) TriggerWarm() bool {
	f.warmCalls++
	return f.accept
}

type fakeSnapshotRepo struct {
	snapshots []database.BriefingSnapshot
	err       error
}

func (r *fakeSnapshotRepo) SaveSnapshot(snapshot database.BriefingSnapshot) error {
	r.snapshots = append(r.snapshots, snapshot)
	return r.err
}

func (r *fakeSnapshotRepo) GetSnapshot(date string) (*database.BriefingSnapshot, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.snapshots {
		if r.snapshots[i].Date == date {
			return &r.snapshots[i], nil
		}
	}
	return nil, nil
}

func (r *fakeSnapshotRepo) GetLatestSnapshot() (*database.BriefingSnapshot, error) {
	if len(r.snapshots) == 0 {
		return nil, r.err
	}
	return &r.snapshots[0], r.err
}

func (r *fakeSnapshotRepo) ListSnapshots() ([]database.BriefingSnapshot, error) {
	return r.snapshots, r.err
}

func (r *fakeSnapshotRepo) GetSnapshotCount() (int, error) {
	return len(r.snapshots), r.err
}

type testEnv struct {
	router    *gin.Engine
	session   *cache.SessionStore
	edge      *cache.MemoryCache
	scheduler *fakeScheduler
	repo      *fakeSnapshotRepo
}

func newTestEnv(t *testing.T, apiAccessKey string, allowedDomains ...string) *testEnv {
	t.Helper()

	cfg.Set(&cfg.Cfg{Version: "test"})

	content := "sources:\n  - name: \"BBC World\"\n    url: \"https://feeds.bbci.co.uk/news/world/rss.xml\"\n    bias: \"LC\"\n"
	if len(allowedDomains) > 0 {
		content += "allowed_domains:\n"
		for _, domain := range allowedDomains {
			content += "  - \"" + domain + "\"\n"
		}
	}

	path := filepath.Join(t.TempDir(), "sources.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write sources file: %v", err)
	}

	registry := feed.NewRegistry(path)
	if err := registry.Run(); err != nil {
		t.Fatalf("Registry load failed: %v", err)
	}

	env := &testEnv{
		session:   cache.NewSessionStore(time.Hour),
		edge:      cache.NewMemoryCache(),
		scheduler: &fakeScheduler{accept: true},
		repo:      &fakeSnapshotRepo{},
	}

	handler := NewHandler(registry, feed.NewFetcher(&http.Client{}, "test-agent"),
		env.session, env.edge, env.repo, summarizer.New("", ""), env.scheduler)
	env.router = NewServer(handler, apiAccessKey)

	return env
}

func (env *testEnv) request(t *testing.T, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	return body
}

func TestGetRelay_RequiresURL(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.request(t, "GET", "/rss", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestGetRelay_RefusesUnlistedDomain(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.request(t, "GET", "/rss?url=https://evil.example.com/feed.xml", "", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}
}

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>
<item><title>Ukraine ceasefire talks resume</title><link>https://example.org/1</link>
<pubDate>Mon, 31 Aug 2026 12:00:00 GMT</pubDate></item>
<item><title>Sudan border clashes reported</title><link>https://example.org/2</link>
<pubDate>Mon, 31 Aug 2026 11:00:00 GMT</pubDate></item>
</channel></rss>`

func TestGetRelay_ServesAllowedFeed(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeedXML))
	}))
	defer upstream.Close()

	env := newTestEnv(t, "", "127.0.0.1")

	w := env.request(t, "GET", "/rss?url="+upstream.URL+"/feed.xml&source=Test", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp relayResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q", resp.Status)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].Title != "Ukraine ceasefire talks resume" {
		t.Errorf("Title = %q", resp.Items[0].Title)
	}
	if resp.Items[0].SourceID != "Test" {
		t.Errorf("SourceID = %q", resp.Items[0].SourceID)
	}
}

func TestPostBatch_IsolatesForbiddenFeeds(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeedXML))
	}))
	defer upstream.Close()

	env := newTestEnv(t, "", "127.0.0.1")

	body := `{"feeds":[{"url":"` + upstream.URL + `/feed.xml","source":"Test"},{"url":"https://evil.example.com/feed.xml"}]}`
	w := env.request(t, "POST", "/batch", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp batchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Status != "ok" || len(resp.Results[0].Items) != 2 {
		t.Errorf("Expected the allowed feed served, got %+v", resp.Results[0].Status)
	}
	if resp.Results[1].Status != "forbidden" {
		t.Errorf("Expected the unlisted feed refused, got %q", resp.Results[1].Status)
	}
}

func TestPostBatch_RejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.request(t, "POST", "/batch", `{"feeds":"nope"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestPostSummarize_ServesEdgeCachedSummary(t *testing.T) {
	env := newTestEnv(t, "")

	env.edge.Set(context.Background(), cache.KeySummary("evt-ukraine-0"),
		[]byte("Pre-generated summary."), time.Minute)

	body := `{"clusterId":"evt-ukraine-0","articles":[{"headline":"Ukraine ceasefire talks resume"}]}`
	w := env.request(t, "POST", "/summarize", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp summarizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if resp.Summary != "Pre-generated summary." {
		t.Errorf("Summary = %q", resp.Summary)
	}
}

func TestPostSummarize_DisabledSummarizerReturnsEmpty(t *testing.T) {
	env := newTestEnv(t, "")

	body := `{"clusterId":"evt-sudan-1","articles":[{"headline":"Sudan border clashes reported"}]}`
	w := env.request(t, "POST", "/summarize", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp summarizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if resp.Summary != "" {
		t.Errorf("Expected an empty summary without an API key, got %q", resp.Summary)
	}
}

func TestPostSummarize_RejectsMissingClusterID(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.request(t, "POST", "/summarize", `{"articles":[{"headline":"x"}]}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestGetBriefing_ColdProcessServesSeed(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.request(t, "GET", "/briefing", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["freshness"] != string(cache.FreshnessStale) {
		t.Errorf("Expected STALE freshness for seed content, got %v", body["freshness"])
	}
	briefing := body["briefing"].(map[string]any)
	if briefing["origin"] != string(feed.OriginSeed) {
		t.Errorf("Expected seed origin, got %v", briefing["origin"])
	}
	if env.scheduler.refreshCalls != 1 {
		t.Errorf("Expected a background refresh trigger, got %d", env.scheduler.refreshCalls)
	}
}

func TestGetBriefing_FreshSessionSkipsTrigger(t *testing.T) {
	env := newTestEnv(t, "")

	env.session.Replace(&feed.Briefing{
		Articles:    []feed.Article{{Headline: "Live story"}},
		GeneratedAt: time.Now().UTC(),
		Origin:      feed.OriginLive,
	})

	w := env.request(t, "GET", "/briefing", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["freshness"] != string(cache.FreshnessFresh) {
		t.Errorf("Expected FRESH, got %v", body["freshness"])
	}
	if env.scheduler.refreshCalls != 0 {
		t.Errorf("Expected no refresh trigger for a fresh briefing, got %d", env.scheduler.refreshCalls)
	}
}

func TestGetBriefing_FallsThroughToEdge(t *testing.T) {
	env := newTestEnv(t, "")

	cached := feed.Briefing{
		Articles:    []feed.Article{{Headline: "Edge story"}},
		GeneratedAt: time.Now().UTC().Add(-time.Hour),
		Origin:      feed.OriginLive,
	}
	payload, _ := json.Marshal(cached)
	env.edge.Set(context.Background(), cache.KeyEvents, payload, time.Minute)

	w := env.request(t, "GET", "/briefing", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	briefing := body["briefing"].(map[string]any)
	if briefing["origin"] != string(feed.OriginCached) {
		t.Errorf("Expected cached origin from the edge tier, got %v", briefing["origin"])
	}
	if body["freshness"] != string(cache.FreshnessStale) {
		t.Errorf("Expected an edge-served briefing reported stale, got %v", body["freshness"])
	}
	articles := briefing["articles"].([]any)
	if len(articles) != 1 {
		t.Errorf("Expected 1 edge article, got %d", len(articles))
	}
	if env.scheduler.refreshCalls != 1 {
		t.Errorf("Expected a background refresh trigger, got %d", env.scheduler.refreshCalls)
	}
}

func TestGetHistory(t *testing.T) {
	env := newTestEnv(t, "")
	env.repo.snapshots = []database.BriefingSnapshot{
		{Date: "2026-09-01", SavedAt: time.Now().UTC(), ArticleCount: 12},
		{Date: "2026-08-31", SavedAt: time.Now().UTC(), ArticleCount: 9},
	}

	w := env.request(t, "GET", "/briefing/history", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	snapshots := body["snapshots"].([]any)
	if len(snapshots) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(snapshots))
	}
	first := snapshots[0].(map[string]any)
	if first["date"] != "2026-09-01" || first["articleCount"] != float64(12) {
		t.Errorf("Unexpected first entry: %v", first)
	}
	if _, hasArticles := first["articles"]; hasArticles {
		t.Error("History entries must not carry article bodies")
	}
}

func TestGetHistory_DatabaseError(t *testing.T) {
	env := newTestEnv(t, "")
	env.repo.err = errors.New("disk failure")

	w := env.request(t, "GET", "/briefing/history", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestGetHistoryByDate_NotFound(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.request(t, "GET", "/briefing/history/1999-01-01", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestGetHistoryByDate(t *testing.T) {
	env := newTestEnv(t, "")
	env.repo.snapshots = []database.BriefingSnapshot{{
		Date:         "2026-09-01",
		Articles:     []feed.Article{{Headline: "Archived story"}},
		SavedAt:      time.Now().UTC(),
		ArticleCount: 1,
	}}

	w := env.request(t, "GET", "/briefing/history/2026-09-01", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	snapshot := body["snapshot"].(map[string]any)
	if snapshot["date"] != "2026-09-01" {
		t.Errorf("Unexpected snapshot: %v", snapshot)
	}
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.request(t, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["service"] != "geobrief" {
		t.Errorf("service = %v", body["service"])
	}
	if body["sources"] != float64(1) {
		t.Errorf("sources = %v", body["sources"])
	}
	if body["briefing"] != string(cache.FreshnessNone) {
		t.Errorf("briefing = %v", body["briefing"])
	}
}

func TestAdminEndpoints_RequireKey(t *testing.T) {
	env := newTestEnv(t, "secret")

	w := env.request(t, "POST", "/api/refresh", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a key, got %d", w.Code)
	}

	w = env.request(t, "POST", "/api/refresh", "", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a wrong key, got %d", w.Code)
	}
}

func TestAdminEndpoints_AcceptValidKey(t *testing.T) {
	env := newTestEnv(t, "secret")

	w := env.request(t, "POST", "/api/refresh", "", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", w.Code)
	}
	if env.scheduler.refreshCalls != 1 {
		t.Errorf("Expected 1 refresh trigger, got %d", env.scheduler.refreshCalls)
	}

	w = env.request(t, "POST", "/api/refresh", "", map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202 with bearer auth, got %d", w.Code)
	}
}

func TestAPITriggerRefresh_ReportsDroppedTrigger(t *testing.T) {
	env := newTestEnv(t, "secret")
	env.scheduler.accept = false

	w := env.request(t, "POST", "/api/refresh", "", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 when the trigger is dropped, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["accepted"] != false {
		t.Errorf("accepted = %v", body["accepted"])
	}
}

func TestAPIListSources(t *testing.T) {
	env := newTestEnv(t, "secret")

	w := env.request(t, "GET", "/api/sources", "", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	sources := body["sources"].([]any)
	if len(sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(sources))
	}
	source := sources[0].(map[string]any)
	if source["name"] != "BBC World" || source["bias"] != "LC" {
		t.Errorf("Unexpected source entry: %v", source)
	}
	if source["enabled"] != true {
		t.Errorf("enabled = %v", source["enabled"])
	}
}

func TestAdminEndpointsAbsentWithoutKey(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.request(t, "POST", "/api/refresh", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when admin endpoints are disabled, got %d", w.Code)
	}
}
