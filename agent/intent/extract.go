package intent

import (
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
)

var (
	betweenPattern = regexp.MustCompile(`between\s*\$?(\d+\.?\d*)\s*(?:and|-)\s*\$?(\d+\.?\d*)`)
	underPattern   = regexp.MustCompile(`(under|below|less than)\s*\$?(\d+\.?\d*)`)
	overPattern    = regexp.MustCompile(`(over|above|more than|greater than)\s*\$?(\d+\.?\d*)`)
	tokenPattern   = regexp.MustCompile(`[a-z0-9]+`)
	deltaPattern   = regexp.MustCompile(`^[+-]\d+$`)
)

var categoryPatterns = func() map[contractx.Category]*regexp.Regexp {
	patterns := make(map[contractx.Category]*regexp.Regexp, len(contractx.Categories))
	for _, cat := range contractx.Categories {
		patterns[cat] = regexp.MustCompile(`\b` + strings.ToLower(string(cat)) + `\b`)
	}
	return patterns
}()

// Filler words that carry no product meaning.
var stopwords = map[string]bool{
	"show":   true,
	"me":     true,
	"find":   true,
	"please": true,
	"the":    true,
	"for":    true,
}

type searchTerms struct {
	Query    string
	PriceMin *float64
	PriceMax *float64
	Category *contractx.Category
}

// parseSearchTerms pulls price bounds and a category out of free text
// and returns the cleaned residual query. The "between" span is removed
// before the under/over passes so it can never double-match.
func parseSearchTerms(text string) searchTerms {
	t := strings.ToLower(text)
	var terms searchTerms

	if m := betweenPattern.FindStringSubmatch(t); m != nil {
		if low, err := strconv.ParseFloat(m[1], 64); err == nil {
			terms.PriceMin = &low
		}
		if high, err := strconv.ParseFloat(m[2], 64); err == nil {
			terms.PriceMax = &high
		}
		t = strings.Replace(t, m[0], " ", 1)
	}
	if m := underPattern.FindStringSubmatch(t); m != nil && terms.PriceMax == nil {
		if high, err := strconv.ParseFloat(m[2], 64); err == nil {
			terms.PriceMax = &high
		}
		t = strings.Replace(t, m[0], " ", 1)
	}
	if m := overPattern.FindStringSubmatch(t); m != nil && terms.PriceMin == nil {
		if low, err := strconv.ParseFloat(m[2], 64); err == nil {
			terms.PriceMin = &low
		}
		t = strings.Replace(t, m[0], " ", 1)
	}

	// Whole-word category match, stripped from the residual query. When
	// several category words appear, the last one in vocabulary order wins.
	for _, cat := range contractx.Categories {
		pattern := categoryPatterns[cat]
		if pattern.MatchString(t) {
			c := cat
			terms.Category = &c
			t = pattern.ReplaceAllString(t, " ")
		}
	}

	var kept []string
	for _, tok := range tokenPattern.FindAllString(t, -1) {
		if !stopwords[tok] {
			kept = append(kept, tok)
		}
	}
	terms.Query = strings.Join(kept, " ")
	return terms
}

// extractProductID returns the first whitespace-delimited token carrying
// the entity prefix, preserving its original case.
func extractProductID(text string) string {
	normalized := strings.ReplaceAll(text, "\n", " ")
	for _, token := range strings.Fields(normalized) {
		if strings.HasPrefix(strings.ToLower(token), contractx.EntityIDPrefix) {
			return token
		}
	}
	return ""
}

// extractDelta finds the first signed integer token, e.g. "+2" or "-1".
func extractDelta(lower string) (int, bool) {
	spaced := strings.ReplaceAll(lower, "+", " +")
	spaced = strings.ReplaceAll(spaced, "-", " -")
	for _, token := range strings.Fields(spaced) {
		if !deltaPattern.MatchString(token) {
			continue
		}
		delta, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		return delta, true
	}
	return 0, false
}
