package feed

import (
	"sort"
	"strings"
)

type BiasLabel string

const (
	BiasLeft      BiasLabel = "L"
	BiasLeanLeft  BiasLabel = "LC"
	BiasCenter    BiasLabel = "C"
	BiasLeanRight BiasLabel = "RC"
	BiasRight     BiasLabel = "R"
)

type BiasDirection int

const (
	DirectionCenter BiasDirection = iota
	DirectionLeft
	DirectionRight
)

func (l BiasLabel) Direction() BiasDirection {
	switch l {
	case BiasLeft, BiasLeanLeft:
		return DirectionLeft
	case BiasLeanRight, BiasRight:
		return DirectionRight
	default:
		return DirectionCenter
	}
}

// Canonical source-name to bias-label table. Lookups that miss fall back
// to the longest partial match; unknown sources default to center.
var biasTable = map[string]BiasLabel{
	"BBC World":           BiasLeanLeft,
	"Reuters":             BiasCenter,
	"Associated Press":    BiasCenter,
	"Al Jazeera":          BiasLeanLeft,
	"The Guardian":        BiasLeft,
	"New York Times":      BiasLeanLeft,
	"Washington Post":     BiasLeanLeft,
	"CNN":                 BiasLeanLeft,
	"NPR":                 BiasLeanLeft,
	"Fox News":            BiasRight,
	"New York Post":       BiasLeanRight,
	"Washington Times":    BiasLeanRight,
	"Washington Examiner": BiasRight,
	"The Telegraph":       BiasLeanRight,
	"Daily Mail":          BiasRight,
	"Wall Street Journal": BiasLeanRight,
	"The Economist":       BiasCenter,
	"Deutsche Welle":      BiasCenter,
	"France 24":           BiasCenter,
	"The Hill":            BiasCenter,
	"Politico":            BiasLeanLeft,
	"Newsmax":             BiasRight,
	"National Review":     BiasRight,
}

// BiasIndex resolves a source name to its bias label.
type BiasIndex struct {
	table map[string]BiasLabel
}

func NewBiasIndex(overrides map[string]string) *BiasIndex {
	table := make(map[string]BiasLabel, len(biasTable)+len(overrides))
	for name, label := range biasTable {
		table[name] = label
	}
	for name, label := range overrides {
		table[name] = BiasLabel(label)
	}
	return &BiasIndex{table: table}
}

// Lookup resolves by exact match first, then by the longest partial
// match in either direction. The longest-match rule keeps the fallback
// deterministic regardless of map order.
func (b *BiasIndex) Lookup(sourceName string) BiasLabel {
	if label, ok := b.table[sourceName]; ok {
		return label
	}

	lowered := strings.ToLower(sourceName)
	bestLen := 0
	best := BiasCenter
	for name, label := range b.table {
		key := strings.ToLower(name)
		if strings.Contains(lowered, key) || strings.Contains(key, lowered) {
			if len(key) > bestLen {
				bestLen = len(key)
				best = label
			}
		}
	}
	return best
}

// Balancer parameters.
const (
	minRightLeaning   = 3
	dispersionWindow  = 3
	dispersionLookout = 8
	dispersionPasses  = 3
	demoteTopN        = 5
	demoteOffset      = 8
)

// Keywords whose stories are demoted out of the top positions regardless
// of bias; stable, low-urgency topics the client buries.
var demoteKeywords = []string{"switzerland", "norway", "luxembourg", "monaco"}

// Balancer reorders the final article list so displayed source leanings
// are not clustered and under-represented directions are topped up from
// a static fallback pool.
type Balancer struct {
	bias     *BiasIndex
	fallback []Article
}

func NewBalancer(bias *BiasIndex, fallback []Article) *Balancer {
	return &Balancer{bias: bias, fallback: fallback}
}

func (b *Balancer) Run(articles []Article) []Article {
	balanced := b.topUp(articles)
	balanced = b.disperse(balanced)
	balanced = b.demoteLowPriority(balanced)
	return balanced
}

// topUp injects right-leaning fallback articles at evenly spaced
// positions until the minimum count is met or the pool is exhausted.
func (b *Balancer) topUp(articles []Article) []Article {
	count := 0
	for _, article := range articles {
		if b.bias.Lookup(article.Source).Direction() == DirectionRight {
			count++
		}
	}
	if count >= minRightLeaning {
		return articles
	}

	var pool []Article
	for _, article := range b.fallback {
		if b.bias.Lookup(article.Source).Direction() == DirectionRight {
			pool = append(pool, article)
		}
	}

	needed := minRightLeaning - count
	if needed > len(pool) {
		needed = len(pool)
	}
	if needed == 0 {
		return articles
	}

	result := make([]Article, len(articles))
	copy(result, articles)

	// Spread injections through the list rather than stacking them at
	// either end.
	step := (len(result) / (needed + 1)) + 1
	for i := 0; i < needed; i++ {
		pos := (i + 1) * step
		if pos > len(result) {
			pos = len(result)
		}
		result = append(result[:pos], append([]Article{pool[i]}, result[pos:]...)...)
	}

	return result
}

// disperse breaks up runs of 3+ consecutive same-direction articles by
// swapping the third member with the nearest later article of a
// different direction. Center articles do not count toward a run.
// Best-effort: bounded look-ahead, bounded passes.
func (b *Balancer) disperse(articles []Article) []Article {
	result := make([]Article, len(articles))
	copy(result, articles)

	for pass := 0; pass < dispersionPasses; pass++ {
		swapped := false

		nonCenter := b.nonCenterIndexes(result)
		for w := 0; w+dispersionWindow <= len(nonCenter); w++ {
			i, j, k := nonCenter[w], nonCenter[w+1], nonCenter[w+2]
			di := b.direction(result[i])
			if di != b.direction(result[j]) || di != b.direction(result[k]) {
				continue
			}

			if b.swapAway(result, k, di) {
				swapped = true
				nonCenter = b.nonCenterIndexes(result)
			}
		}

		if !swapped {
			break
		}
	}

	return result
}

func (b *Balancer) swapAway(articles []Article, pos int, direction BiasDirection) bool {
	limit := pos + dispersionLookout
	if limit > len(articles)-1 {
		limit = len(articles) - 1
	}
	for candidate := pos + 1; candidate <= limit; candidate++ {
		if b.direction(articles[candidate]) != direction {
			articles[pos], articles[candidate] = articles[candidate], articles[pos]
			return true
		}
	}
	return false
}

func (b *Balancer) nonCenterIndexes(articles []Article) []int {
	indexes := make([]int, 0, len(articles))
	for i, article := range articles {
		if b.direction(article) != DirectionCenter {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func (b *Balancer) direction(article Article) BiasDirection {
	return b.bias.Lookup(article.Source).Direction()
}

// demoteLowPriority moves known-stable-topic stories out of the top N by
// removal and reinsertion at a fixed later offset.
func (b *Balancer) demoteLowPriority(articles []Article) []Article {
	result := make([]Article, len(articles))
	copy(result, articles)

	// Collect candidates first so reinsertion does not reorder scanning.
	var demoted []int
	for i := 0; i < len(result) && i < demoteTopN; i++ {
		headline := strings.ToLower(result[i].Headline)
		for _, keyword := range demoteKeywords {
			if strings.Contains(headline, keyword) {
				demoted = append(demoted, i)
				break
			}
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(demoted)))
	for _, i := range demoted {
		article := result[i]
		result = append(result[:i], result[i+1:]...)
		pos := demoteOffset
		if pos > len(result) {
			pos = len(result)
		}
		result = append(result[:pos], append([]Article{article}, result[pos:]...)...)
	}

	return result
}
