package feed

import (
	"strings"
)

// Domestic-noise and irrelevant-topic keywords. One match anywhere in
// title+description drops the article.
var noiseKeywords = []string{
	"sports", "football", "soccer", "basketball", "tennis", "olympics",
	"celebrity", "entertainment", "box office", "movie review", "tv show",
	"recipe", "lifestyle", "horoscope", "fashion week", "royal family",
	"lottery", "weather forecast", "video game", "music award", "red carpet",
	"dating", "viral video",
}

// Geopolitical relevance signals. An article is kept only if it matches
// at least one; silence is not relevance.
var relevanceKeywords = []string{
	"war", "conflict", "military", "missile", "nuclear", "sanctions",
	"treaty", "summit", "diplomacy", "diplomatic", "border", "election",
	"coup", "government", "parliament", "minister", "president", "nato",
	"united nations", "security council", "ceasefire", "invasion",
	"tariff", "embargo", "refugee", "humanitarian", "terror", "insurgent",
	"espionage", "cyberattack", "arms", "troops", "geopolit", "annexation",
	"airstrike", "peacekeeping", "foreign policy", "trade deal",
}

// Filterer drops domestic noise and requires a positive geopolitical
// signal. Both conditions are evaluated per article; failing either one
// rejects it.
type Filterer struct {
	noise     []string
	relevance []string
}

func NewFilterer() *Filterer {
	return &Filterer{
		noise:     noiseKeywords,
		relevance: relevanceKeywords,
	}
}

// NewFiltererWithKeywords builds a filterer with explicit keyword lists.
func NewFiltererWithKeywords(noise, relevance []string) *Filterer {
	return &Filterer{
		noise:     noise,
		relevance: relevance,
	}
}

func (f *Filterer) Run(articles []RawArticle) []RawArticle {
	kept := make([]RawArticle, 0, len(articles))
	for _, article := range articles {
		if f.IsRelevant(article) {
			kept = append(kept, article)
		}
	}
	return kept
}

func (f *Filterer) IsRelevant(article RawArticle) bool {
	text := strings.ToLower(article.Title + " " + article.Description)

	for _, keyword := range f.noise {
		if strings.Contains(text, keyword) {
			return false
		}
	}

	for _, keyword := range f.relevance {
		if strings.Contains(text, keyword) {
			return true
		}
	}

	// A recognized country mention is a relevance signal on its own.
	return primaryCountry(text) != ""
}
