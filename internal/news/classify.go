package news

import (
	"regexp"
	"strings"
)

// Context keywords marking an index addition
var additionKeywords = []string{
	"added to s&p 500", "added to s&p500", "joins s&p 500", "joins s&p500",
	"enters s&p 500", "enters s&p500", "included in s&p 500", "included in s&p500",
	"s&p 500 addition", "s&p500 addition", "new s&p 500 member", "new s&p500 member",
	"added to the s&p 500", "added to the s&p500", "joins the s&p 500", "joins the s&p500",
	"s&p 500 index addition", "s&p500 index addition", "index addition", "index inclusion",
}

// Context keywords marking an index removal
var removalKeywords = []string{
	"removed from s&p 500", "removed from s&p500", "leaves s&p 500", "leaves s&p500",
	"exits s&p 500", "exits s&p500", "excluded from s&p 500", "excluded from s&p500",
	"s&p 500 removal", "s&p500 removal", "dropped from s&p 500", "dropped from s&p500",
	"removed from the s&p 500", "removed from the s&p500", "leaves the s&p 500", "leaves the s&p500",
	"s&p 500 index removal", "s&p500 index removal", "index removal", "index exclusion",
}

// Phrases about the index itself rather than membership changes
var falsePositivePatterns = []string{
	"s&p 500 futures", "s&p500 futures", "s&p 500 etf", "s&p500 etf",
	"s&p 500 options", "s&p500 options", "s&p 500 index fund", "s&p500 index fund",
	"s&p 500 correlation", "s&p500 correlation", "s&p 500 performance", "s&p500 performance",
	"s&p 500 analysis", "s&p500 analysis", "s&p 500 forecast", "s&p500 forecast",
	"s&p 500 prediction", "s&p500 prediction", "s&p 500 outlook", "s&p500 outlook",
}

// Official announcement language raises confidence
var officialLanguage = []string{
	"announced", "announcement", "official", "effective", "s&p dow jones indices",
}

// Ticker shapes: bare, $-prefixed and parenthesized
var tickerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z]{2,5}\b`),
	regexp.MustCompile(`\$[A-Z]{2,5}\b`),
	regexp.MustCompile(`\([A-Z]{2,5}\)`),
}

var nonWord = regexp.MustCompile(`[^A-Z0-9]`)

// excludedWords are uppercase tokens that match the ticker shape but are
// ordinary words or index jargon
var excludedWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"AND", "THE", "FOR", "ARE", "BUT", "NOT", "YOU", "ALL", "CAN", "WAS",
		"ONE", "OUR", "HAD", "WHAT", "SOME", "THAT", "WITH", "THEY", "THIS",
		"HAVE", "FROM", "WERE", "WHEN", "YOUR", "SAID", "THERE", "EACH",
		"WHICH", "THEIR", "WILL", "OTHER", "ABOUT", "OUT", "MANY", "THEN",
		"THEM", "THESE", "WOULD", "MAKE", "LIKE", "INTO", "TIME", "HAS",
		"TWO", "MORE", "WAY", "COULD", "THAN", "FIRST", "BEEN", "CALL",
		"WHO", "ITS", "NOW", "FIND", "LONG", "DOWN", "DAY", "DID", "GET",
		"COME", "MADE", "MAY", "PART",
		"INC", "CORP", "LTD", "LLC", "CO", "SP", "SPX", "INDEX", "STOCK",
		"SHARES", "TRADING", "MARKET", "PRICE", "VOLUME", "GAINS", "LOSSES",
		"RISE", "FALL", "HIGH", "LOW", "OPEN", "CLOSE", "YEAR", "MONTH",
		"WEEK", "DATE", "NEWS", "REPORT", "ANALYSIS", "UPDATE", "CHANGE",
		"CHANGES", "ANNOUNCED", "ANNOUNCEMENT", "EFFECTIVE", "IMMEDIATELY",
		"FOLLOWING", "QUARTERLY", "REVIEW", "REBALANCING", "ADDITION",
		"REMOVAL", "JOINS", "LEAVES", "ENTERS", "EXITS", "INCLUDED",
		"EXCLUDED", "ADDED", "REMOVED", "DROPPED", "REPLACED", "REPLACEMENT",
		"SUBSTITUTION", "COMMITTEE", "DOW", "JONES", "STANDARD", "POOR",
		"POORS", "ETF", "FUND", "FUTURES",
	} {
		excludedWords[w] = struct{}{}
	}
}

const (
	// contextRadius is how many characters around a ticker mention are
	// inspected to classify it
	contextRadius = 50

	baseConfidence     = 0.6
	officialConfidence = 0.8
)

// IndexChange is a classified membership-change headline
type IndexChange struct {
	Added      []string
	Removed    []string
	Confidence float64
}

// Classify inspects a headline plus summary and extracts index membership
// changes. Returns false when the text is not a membership-change story or
// no ticker could be classified.
func Classify(title, summary string) (*IndexChange, bool) {
	raw := title + " " + summary
	text := strings.ToLower(raw)

	for _, pattern := range falsePositivePatterns {
		if strings.Contains(text, pattern) {
			return nil, false
		}
	}

	hasAddition := containsAny(text, additionKeywords)
	hasRemoval := containsAny(text, removalKeywords)
	if !hasAddition && !hasRemoval {
		return nil, false
	}

	tickers := extractTickers(raw)
	if len(tickers) == 0 {
		return nil, false
	}

	change := &IndexChange{Confidence: baseConfidence}
	if containsAny(text, officialLanguage) {
		change.Confidence = officialConfidence
	}

	for _, ticker := range tickers {
		context := tickerContext(text, strings.ToLower(ticker))
		if context == "" {
			continue
		}
		additionScore := keywordHits(context, additionKeywords)
		removalScore := keywordHits(context, removalKeywords)
		switch {
		case additionScore > 0 && removalScore == 0:
			change.Added = append(change.Added, ticker)
		case removalScore > 0 && additionScore == 0:
			change.Removed = append(change.Removed, ticker)
		}
	}

	if len(change.Added) == 0 && len(change.Removed) == 0 {
		return nil, false
	}
	return change, true
}

// extractTickers pulls candidate ticker symbols out of raw text
func extractTickers(text string) []string {
	seen := make(map[string]struct{})
	var tickers []string
	for _, pattern := range tickerPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			ticker := nonWord.ReplaceAllString(strings.ToUpper(match), "")
			if len(ticker) < 2 || len(ticker) > 5 {
				continue
			}
			if _, excluded := excludedWords[ticker]; excluded {
				continue
			}
			if _, dup := seen[ticker]; dup {
				continue
			}
			seen[ticker] = struct{}{}
			tickers = append(tickers, ticker)
		}
	}
	return tickers
}

// tickerContext returns the text surrounding the first mention of a ticker
func tickerContext(text, ticker string) string {
	idx := strings.Index(text, ticker)
	if idx < 0 {
		return ""
	}
	start := idx - contextRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(ticker) + contextRadius
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func keywordHits(text string, keywords []string) int {
	hits := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			hits++
		}
	}
	return hits
}
