package feed

import (
	"time"
)

// Article categories, ordered roughly by severity.

type Category string

const (
	CategoryConflict  Category = "CONFLICT"
	CategoryCrisis    Category = "CRISIS"
	CategorySecurity  Category = "SECURITY"
	CategoryEconomy   Category = "ECONOMY"
	CategoryDiplomacy Category = "DIPLOMACY"
	CategoryPolitics  Category = "POLITICS"
)

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
)

// RawArticle is the common shape every feed and backup provider is
// normalized into. Ephemeral, never persisted.
type RawArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	SourceID    string    `json:"sourceId"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Article is a classified, display-ready article. Owned by the pipeline
// for the duration of one refresh cycle.
type Article struct {
	Headline     string     `json:"headline"`
	Source       string     `json:"source"`
	Category     Category   `json:"category"`
	Importance   Importance `json:"importance"`
	RelativeTime string     `json:"relativeTime"`
	URL          string     `json:"url"`
	PublishedAt  time.Time  `json:"publishedAt"`
	ClusterID    string     `json:"clusterId,omitempty"`
}

// Cluster groups articles believed to describe the same real-world event.
// Immutable after the clustering pass except for lazy summary attachment.
type Cluster struct {
	ID             string    `json:"id"`
	PrimaryCountry string    `json:"primaryCountry"`
	Category       Category  `json:"category"`
	Articles       []Article `json:"articles"`
	SourceCount    int       `json:"sourceCount"`
	Summary        string    `json:"summary,omitempty"`
	Time           time.Time `json:"time"`
}

type Origin string

const (
	OriginLive   Origin = "live"
	OriginCached Origin = "cached"
	OriginSeed   Origin = "seed"
)

// Briefing is one complete refresh result. Replaced wholesale in the
// session store, never mutated in place.
type Briefing struct {
	Articles    []Article `json:"articles"`
	Clusters    []Cluster `json:"clusters"`
	GeneratedAt time.Time `json:"generatedAt"`
	Origin      Origin    `json:"origin"`
}

// Configuration types for the source registry file.

type Source struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Bias    string `yaml:"bias"`
	Enabled *bool  `yaml:"enabled"`
}

type RegistryConfig struct {
	Sources        []Source `yaml:"sources"`
	AllowedDomains []string `yaml:"allowed_domains"`
}

// IsEnabled treats a missing enabled flag as enabled.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}
