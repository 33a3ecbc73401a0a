package api

import (
	"github.com/geobrief/geobrief/app/cache"
	"github.com/geobrief/geobrief/app/database"
	"github.com/geobrief/geobrief/app/feed"
	"github.com/geobrief/geobrief/app/summarizer"
	"github.com/geobrief/geobrief/app/tasks"
)

type Handler struct {
	registry     *feed.Registry
	fetcher      *feed.Fetcher
	session      *cache.SessionStore
	edge         cache.EdgeCache
	snapshotRepo database.SnapshotRepository
	summarizer   *summarizer.Summarizer
	scheduler    tasks.TaskSchedulerInterface
}

// Relay request/response shapes.

type relayResponse struct {
	Status string            `json:"status"`
	Items  []feed.RawArticle `json:"items"`
}

type batchRequest struct {
	Feeds []batchFeed `json:"feeds" binding:"required"`
}

type batchFeed struct {
	URL    string `json:"url" binding:"required"`
	Source string `json:"source"`
}

type batchResult struct {
	URL    string            `json:"url"`
	Status string            `json:"status"`
	Items  []feed.RawArticle `json:"items"`
}

type batchResponse struct {
	Status  string        `json:"status"`
	Results []batchResult `json:"results"`
}

type summarizeRequest struct {
	ClusterID      string             `json:"clusterId" binding:"required"`
	PrimaryCountry string             `json:"primaryCountry"`
	Category       feed.Category      `json:"category"`
	Articles       []summarizeArticle `json:"articles" binding:"required"`
}

type summarizeArticle struct {
	Headline string `json:"headline" binding:"required"`
	Source   string `json:"source"`
}

type summarizeResponse struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}
