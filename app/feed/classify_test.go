package feed

import (
	"testing"
	"time"
)

func TestClassify_Categories(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected Category
	}{
		{"conflict", "Missile strike and artillery shelling reported on frontline", CategoryConflict},
		{"crisis", "Famine warning as humanitarian disaster deepens", CategoryCrisis},
		{"security", "Nuclear program espionage case widens", CategorySecurity},
		{"economy", "New tariff package and sanctions hit exports", CategoryEconomy},
		{"diplomacy", "Summit produces draft treaty after marathon talks", CategoryDiplomacy},
		{"politics fallback", "Cabinet reshuffle announced", CategoryPolitics},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, _ := Classify(RawArticle{Title: tt.title})
			if category != tt.expected {
				t.Errorf("Expected category %s, got %s", tt.expected, category)
			}
		})
	}
}

func TestClassify_ImportanceFollowsCategory(t *testing.T) {
	highCategories := []string{
		"War intensifies as invasion stalls",
		"Refugee crisis and famine spread",
		"Coup attempt and assassination plot foiled",
	}
	for _, title := range highCategories {
		_, importance := Classify(RawArticle{Title: title})
		if importance != ImportanceHigh {
			t.Errorf("Expected high importance for %q, got %s", title, importance)
		}
	}

	_, importance := Classify(RawArticle{Title: "Summit produces draft treaty"})
	if importance != ImportanceMedium {
		t.Errorf("Expected medium importance for diplomacy, got %s", importance)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		publishedAt time.Time
		expected    string
	}{
		{"just now", now.Add(-30 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-49 * time.Hour), "2d ago"},
		{"zero time", time.Time{}, "just now"},
		{"future", now.Add(time.Hour), "just now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativeTime(tt.publishedAt, now); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := RawArticle{
		Title:       "  Summit produces draft treaty  ",
		Description: "Negotiators celebrate",
		Link:        "https://example.com/story",
		SourceID:    "Reuters",
		PublishedAt: now.Add(-2 * time.Hour),
	}

	article := Normalize(raw, now)

	if article.Headline != "Summit produces draft treaty" {
		t.Errorf("Expected trimmed headline, got %q", article.Headline)
	}
	if article.Source != "Reuters" {
		t.Errorf("Expected source Reuters, got %s", article.Source)
	}
	if article.Category != CategoryDiplomacy {
		t.Errorf("Expected DIPLOMACY, got %s", article.Category)
	}
	if article.RelativeTime != "2h ago" {
		t.Errorf("Expected relative time 2h ago, got %s", article.RelativeTime)
	}
	if article.URL != "https://example.com/story" {
		t.Errorf("Expected URL preserved, got %s", article.URL)
	}
}
