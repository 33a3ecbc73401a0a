package feed

import (
	"time"
)

// Static seed articles bundled with the application. Used twice: as the
// last rung of the fallback ladder when every source fails, and as the
// right-leaning pool the balancer tops up from. Seed articles carry no
// URL, which also keeps them out of persisted snapshots.
var seedArticles = []Article{
	{Headline: "Security council weighs new sanctions framework", Source: "Reuters", Category: CategoryDiplomacy, Importance: ImportanceMedium},
	{Headline: "Regional powers resume border demarcation talks", Source: "Associated Press", Category: CategoryDiplomacy, Importance: ImportanceMedium},
	{Headline: "Defense ministers meet over alliance readiness", Source: "France 24", Category: CategorySecurity, Importance: ImportanceHigh},
	{Headline: "Energy exports reshape trade balances across the region", Source: "The Economist", Category: CategoryEconomy, Importance: ImportanceMedium},
	{Headline: "Pentagon expands deterrence posture in the Pacific", Source: "Fox News", Category: CategorySecurity, Importance: ImportanceHigh},
	{Headline: "Trade negotiators push back on tariff escalation", Source: "Wall Street Journal", Category: CategoryEconomy, Importance: ImportanceMedium},
	{Headline: "Border security funding clears committee vote", Source: "Washington Examiner", Category: CategoryPolitics, Importance: ImportanceMedium},
	{Headline: "Allies debate burden sharing ahead of summit", Source: "The Telegraph", Category: CategoryDiplomacy, Importance: ImportanceMedium},
}

// SeedBriefing builds the embedded fallback briefing.
func SeedBriefing(now time.Time) *Briefing {
	articles := make([]Article, len(seedArticles))
	copy(articles, seedArticles)
	for i := range articles {
		articles[i].PublishedAt = now
		articles[i].RelativeTime = RelativeTime(now, now)
	}

	return &Briefing{
		Articles:    articles,
		Clusters:    nil,
		GeneratedAt: now,
		Origin:      OriginSeed,
	}
}

// FallbackPool returns the seed articles used by the balancer top-up.
func FallbackPool() []Article {
	pool := make([]Article, len(seedArticles))
	copy(pool, seedArticles)
	return pool
}
