package feed

import (
	"fmt"
	"strings"
	"time"
)

// Keyword weights per category. The highest-scoring category wins;
// POLITICS is the fallback when nothing matches.
var categoryKeywords = map[Category]map[string]int{
	CategoryConflict: {
		"war": 3, "missile": 3, "airstrike": 3, "strike": 2, "offensive": 2,
		"invasion": 3, "troops": 2, "shelling": 3, "drone attack": 3,
		"ceasefire": 2, "frontline": 2, "combat": 2, "artillery": 2,
	},
	CategoryCrisis: {
		"crisis": 3, "famine": 3, "refugee": 2, "humanitarian": 2,
		"earthquake": 3, "flood": 2, "outbreak": 2, "evacuation": 2,
		"disaster": 3, "collapse": 2,
	},
	CategorySecurity: {
		"nuclear": 3, "terror": 3, "cyberattack": 3, "espionage": 3,
		"coup": 3, "assassination": 3, "hostage": 2, "weapons": 2,
		"intelligence": 2, "militant": 2, "insurgent": 2,
	},
	CategoryEconomy: {
		"tariff": 3, "sanctions": 3, "inflation": 2, "trade": 2,
		"economy": 2, "gdp": 2, "central bank": 2, "oil price": 2,
		"embargo": 3, "export": 1, "currency": 2,
	},
	CategoryDiplomacy: {
		"summit": 3, "treaty": 3, "diplomat": 3, "talks": 2,
		"negotiation": 2, "ambassador": 2, "bilateral": 2, "accord": 2,
		"foreign minister": 2, "peace deal": 3,
	},
	CategoryPolitics: {
		"election": 2, "parliament": 2, "president": 1, "minister": 1,
		"government": 1, "opposition": 1, "referendum": 2, "coalition": 1,
	},
}

// Classify assigns a category by weighted keyword match over the
// combined title and description, and derives importance from it.
func Classify(raw RawArticle) (Category, Importance) {
	text := strings.ToLower(raw.Title + " " + raw.Description)

	best := CategoryPolitics
	bestScore := 0
	// Fixed evaluation order keeps classification deterministic when
	// scores tie.
	order := []Category{CategoryConflict, CategoryCrisis, CategorySecurity,
		CategoryEconomy, CategoryDiplomacy, CategoryPolitics}

	for _, category := range order {
		score := 0
		for keyword, weight := range categoryKeywords[category] {
			if strings.Contains(text, keyword) {
				score += weight
			}
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}

	return best, importanceOf(best)
}

func importanceOf(category Category) Importance {
	switch category {
	case CategoryConflict, CategoryCrisis, CategorySecurity:
		return ImportanceHigh
	default:
		return ImportanceMedium
	}
}

// RelativeTime renders a published timestamp the way the client shows
// it ("3h ago", "2d ago").
func RelativeTime(publishedAt, now time.Time) string {
	if publishedAt.IsZero() || publishedAt.After(now) {
		return "just now"
	}

	elapsed := now.Sub(publishedAt)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	}
}

// Normalize turns a raw article into a classified display article.
func Normalize(raw RawArticle, now time.Time) Article {
	category, importance := Classify(raw)

	return Article{
		Headline:     strings.TrimSpace(raw.Title),
		Source:       raw.SourceID,
		Category:     category,
		Importance:   importance,
		RelativeTime: RelativeTime(raw.PublishedAt, now),
		URL:          raw.Link,
		PublishedAt:  raw.PublishedAt,
	}
}
