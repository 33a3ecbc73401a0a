package feed

import (
	"fmt"
	"sort"
	"strings"
)

// Hard cap on articles per cluster. Excess articles are dropped, not
// split into a new cluster.
const maxClusterSize = 40

// Country names and demonyms used for primary-country detection.
// Aliases match on word boundaries, so "mali" never fires inside
// "somalia"; the first matching entry in scan order wins.
var countryAliases = []struct {
	Country string
	Aliases []string
}{
	{"North Korea", []string{"north korea", "north korean", "pyongyang", "dprk"}},
	{"South Korea", []string{"south korea", "south korean", "seoul"}},
	{"United States", []string{"united states", "american", "america", "washington", "u.s.", "us"}},
	{"United Kingdom", []string{"united kingdom", "britain", "british", "uk"}},
	{"China", []string{"china", "chinese", "beijing"}},
	{"Russia", []string{"russia", "russian", "moscow", "kremlin"}},
	{"Ukraine", []string{"ukraine", "ukrainian", "kyiv"}},
	{"Israel", []string{"israel", "israeli", "jerusalem", "tel aviv"}},
	{"Iran", []string{"iran", "iranian", "tehran"}},
	{"Iraq", []string{"iraq", "iraqi", "baghdad"}},
	{"Syria", []string{"syria", "syrian", "damascus"}},
	{"India", []string{"india", "indian", "new delhi"}},
	{"Pakistan", []string{"pakistan", "pakistani", "islamabad"}},
	{"Afghanistan", []string{"afghanistan", "afghan", "kabul", "taliban"}},
	{"Germany", []string{"germany", "german", "berlin"}},
	{"France", []string{"france", "french", "paris"}},
	{"Japan", []string{"japan", "japanese", "tokyo"}},
	{"Taiwan", []string{"taiwan", "taiwanese", "taipei"}},
	{"Turkey", []string{"turkey", "turkish", "ankara"}},
	{"Saudi Arabia", []string{"saudi arabia", "saudi", "riyadh"}},
	{"Egypt", []string{"egypt", "egyptian", "cairo"}},
	{"Ethiopia", []string{"ethiopia", "ethiopian", "addis ababa"}},
	{"Sudan", []string{"sudan", "sudanese", "khartoum"}},
	{"Nigeria", []string{"nigeria", "nigerian", "abuja"}},
	{"Venezuela", []string{"venezuela", "venezuelan", "caracas"}},
	{"Brazil", []string{"brazil", "brazilian", "brasilia"}},
	{"Mexico", []string{"mexico", "mexican"}},
	{"Canada", []string{"canada", "canadian", "ottawa"}},
	{"Poland", []string{"poland", "polish", "warsaw"}},
	{"Yemen", []string{"yemen", "yemeni", "houthi"}},
	{"Lebanon", []string{"lebanon", "lebanese", "beirut", "hezbollah"}},
	{"Gaza", []string{"gaza", "palestinian", "palestine", "hamas", "west bank"}},
	{"Armenia", []string{"armenia", "armenian", "yerevan"}},
	{"Azerbaijan", []string{"azerbaijan", "azerbaijani", "baku"}},
	{"Georgia", []string{"tbilisi"}},
	{"Belarus", []string{"belarus", "belarusian", "minsk"}},
	{"Myanmar", []string{"myanmar", "burmese", "naypyidaw"}},
	{"Philippines", []string{"philippines", "filipino", "manila"}},
	{"Indonesia", []string{"indonesia", "indonesian", "jakarta"}},
	{"Australia", []string{"australia", "australian", "canberra"}},
	{"Italy", []string{"italy", "italian", "rome"}},
	{"Spain", []string{"spain", "spanish", "madrid"}},
	{"Greece", []string{"greece", "greek", "athens"}},
	{"Serbia", []string{"serbia", "serbian", "belgrade"}},
	{"Kosovo", []string{"kosovo"}},
	{"Libya", []string{"libya", "libyan", "tripoli"}},
	{"Mali", []string{"mali", "malian", "bamako"}},
	{"Somalia", []string{"somalia", "somali", "mogadishu"}},
	{"Haiti", []string{"haiti", "haitian", "port-au-prince"}},
	{"Cuba", []string{"cuba", "cuban", "havana"}},
	{"Argentina", []string{"argentina", "argentine", "buenos aires"}},
	{"Colombia", []string{"colombia", "colombian", "bogota"}},
	{"Chile", []string{"chile", "chilean", "santiago"}},
	{"Vietnam", []string{"vietnam", "vietnamese", "hanoi"}},
	{"Thailand", []string{"thailand", "thai", "bangkok"}},
}

// Countries mentioned too frequently for a name match alone to be a
// reliable clustering signal. Articles about them only merge when they
// also share a topic keyword with the cluster's anchor article.
var clusterStoplist = map[string]bool{
	"United States":  true,
	"China":          true,
	"Russia":         true,
	"United Kingdom": true,
	"France":         true,
	"Germany":        true,
}

// Topic keywords used for the stoplist second-signal check. Heuristic
// and intentionally configurable rather than contractual.
var clusterTopicKeywords = []string{
	"tariff", "sanctions", "missile", "nuclear", "summit", "election",
	"trade", "treaty", "border", "ceasefire", "invasion", "espionage",
	"cyberattack", "oil", "drone", "troops", "ambassador", "embargo",
	"hostage", "airstrike", "coup", "protest", "energy", "grain",
	"semiconductor", "debt", "currency", "refugee",
}

// Clusterer groups articles describing the same real-world event. The
// algorithm is intentionally coarse: one time-ordered pass plus a merge
// pass, country-keyed, with no NLP dependency.
type Clusterer struct{}

func NewClusterer() *Clusterer {
	return &Clusterer{}
}

func (c *Clusterer) Run(articles []Article) []Cluster {
	var clusters []*Cluster
	// Most recent open cluster per country, by index into clusters.
	open := make(map[string]int)

	for _, article := range articles {
		country := primaryCountry(strings.ToLower(article.Headline))
		if country == "" {
			continue
		}

		idx, found := open[country]
		if found {
			cluster := clusters[idx]
			if c.canMerge(cluster, article, country) {
				c.merge(cluster, article)
				continue
			}
		}

		clusters = append(clusters, c.newCluster(article, country, len(clusters)))
		open[country] = len(clusters) - 1
	}

	merged := c.mergeSameCountry(clusters)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].SourceCount != merged[j].SourceCount {
			return merged[i].SourceCount > merged[j].SourceCount
		}
		return merged[i].Time.After(merged[j].Time)
	})

	return merged
}

func (c *Clusterer) canMerge(cluster *Cluster, article Article, country string) bool {
	if len(cluster.Articles) >= maxClusterSize {
		return false
	}
	if !clusterStoplist[country] {
		return true
	}
	// Stoplisted countries need a shared topic keyword with the anchor
	// to avoid merging unrelated stories about the same major power.
	anchor := cluster.Articles[0]
	return sharedTopicKeyword(anchor.Headline, article.Headline) != ""
}

func (c *Clusterer) merge(cluster *Cluster, article Article) {
	article.ClusterID = cluster.ID
	cluster.Articles = append(cluster.Articles, article)
	cluster.SourceCount = countSources(cluster.Articles)
	if article.PublishedAt.After(cluster.Time) {
		cluster.Time = article.PublishedAt
	}
}

func (c *Clusterer) newCluster(article Article, country string, ordinal int) *Cluster {
	id := fmt.Sprintf("evt-%s-%d", slugify(country), ordinal)
	article.ClusterID = id

	return &Cluster{
		ID:             id,
		PrimaryCountry: country,
		Category:       article.Category,
		Articles:       []Article{article},
		SourceCount:    1,
		Time:           article.PublishedAt,
	}
}

// mergeSameCountry is the second pass: clusters that ended up with the
// same primary country are folded together to correct for ordering
// artifacts, subject to the stoplist rule and the size cap.
func (c *Clusterer) mergeSameCountry(clusters []*Cluster) []Cluster {
	result := make([]Cluster, 0, len(clusters))
	firstByCountry := make(map[string]*Cluster)
	absorbed := make(map[string]bool)

	for _, cluster := range clusters {
		existing, found := firstByCountry[cluster.PrimaryCountry]
		if !found {
			firstByCountry[cluster.PrimaryCountry] = cluster
			continue
		}

		if clusterStoplist[cluster.PrimaryCountry] {
			anchor := existing.Articles[0]
			other := cluster.Articles[0]
			if sharedTopicKeyword(anchor.Headline, other.Headline) == "" {
				// Distinct events about the same major power stay apart.
				continue
			}
		}

		for _, article := range cluster.Articles {
			if len(existing.Articles) >= maxClusterSize {
				break
			}
			c.merge(existing, article)
		}
		absorbed[cluster.ID] = true
	}

	for _, cluster := range clusters {
		if !absorbed[cluster.ID] {
			result = append(result, *cluster)
		}
	}
	return result
}

// AssignClusterIDs copies cluster membership back onto a flat article
// list, matching by headline.
func AssignClusterIDs(articles []Article, clusters []Cluster) []Article {
	byHeadline := make(map[string]string)
	for _, cluster := range clusters {
		for _, article := range cluster.Articles {
			byHeadline[article.Headline] = cluster.ID
		}
	}

	assigned := make([]Article, len(articles))
	for i, article := range articles {
		article.ClusterID = byHeadline[article.Headline]
		assigned[i] = article
	}
	return assigned
}

// primaryCountry returns the first country detected in the lowercased
// text, or "" when none matches.
func primaryCountry(lowered string) string {
	for _, entry := range countryAliases {
		for _, alias := range entry.Aliases {
			if containsWord(lowered, alias) {
				return entry.Country
			}
		}
	}
	return ""
}

// containsWord reports whether alias occurs in text delimited by word
// boundaries, so short aliases like "us" never match inside longer
// words.
func containsWord(text, alias string) bool {
	for offset := 0; ; {
		i := strings.Index(text[offset:], alias)
		if i < 0 {
			return false
		}
		i += offset
		end := i + len(alias)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		offset = i + 1
	}
}

func isWordByte(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	}
	// Treat multi-byte characters as word characters.
	return b >= 0x80
}

func sharedTopicKeyword(headlineA, headlineB string) string {
	a := strings.ToLower(headlineA)
	b := strings.ToLower(headlineB)
	for _, keyword := range clusterTopicKeywords {
		if strings.Contains(a, keyword) && strings.Contains(b, keyword) {
			return keyword
		}
	}
	return ""
}

func countSources(articles []Article) int {
	sources := make(map[string]bool, len(articles))
	for _, article := range articles {
		sources[article.Source] = true
	}
	return len(sources)
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}
