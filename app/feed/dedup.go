package feed

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Headline prefix length used for duplicate detection, in runes.
const dedupPrefixLength = 50

var headlineFolder = cases.Fold()

// Deduplicator collapses near-identical headlines across feeds by
// normalized prefix. First-seen wins, so callers must order input
// freshest-first to keep the most recent instance of a repeated story.
// This is approximate on purpose: duplicates with very different leading
// text slip through.
type Deduplicator struct{}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

func (d *Deduplicator) Run(articles []RawArticle) []RawArticle {
	seen := make(map[string]bool, len(articles))
	unique := make([]RawArticle, 0, len(articles))

	for _, article := range articles {
		key := d.dedupKey(article.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, article)
	}

	return unique
}

func (d *Deduplicator) dedupKey(title string) string {
	folded := headlineFolder.String(norm.NFKC.String(strings.TrimSpace(title)))
	folded = strings.Join(strings.Fields(folded), " ")

	runes := []rune(folded)
	if len(runes) > dedupPrefixLength {
		runes = runes[:dedupPrefixLength]
	}
	return string(runes)
}
