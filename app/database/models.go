package database

import (
	"time"

	"github.com/geobrief/geobrief/app/feed"
)

// BriefingSnapshot is one saved, dated copy of the displayed feed.
// Created at most once per calendar day from live data; overwritten, not
// appended, on subsequent saves the same day.
type BriefingSnapshot struct {
	Date         string         `json:"date"`
	Articles     []feed.Article `json:"articles"`
	SavedAt      time.Time      `json:"savedAt"`
	ArticleCount int            `json:"articleCount"`
}

// Maximum number of articles persisted per snapshot.
const SnapshotArticleLimit = 50
