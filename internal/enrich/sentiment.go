// Package enrich turns raw merged provider data into the canonical record:
// sentiment scoring, category tagging, timeline construction, and display
// formatting. Everything here is a pure function over its inputs.
package enrich

import (
	"strings"

	"github.com/carsongrett/nocharts/internal/stock"
)

// Keyword lists for the sentiment heuristic. Matching is case-insensitive
// substring per word; the score is the signed difference of counts.
var (
	positiveWords = []string{
		"beat", "boost", "bullish", "buy", "expand", "gain", "great", "growth",
		"high", "jump", "outperform", "profit", "rally", "record", "rise",
		"soar", "strong", "success", "surge", "upgrade", "win",
	}
	negativeWords = []string{
		"bearish", "concern", "crash", "cut", "decline", "downgrade", "drop",
		"fall", "fear", "fraud", "investigation", "lawsuit", "layoff", "loss",
		"low", "miss", "plunge", "recall", "risk", "sell", "slump", "weak",
	}
)

// ScoreSentiment counts positive and negative keyword occurrences in text
// and returns positives minus negatives.
func ScoreSentiment(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, w := range positiveWords {
		score += strings.Count(lower, w)
	}
	for _, w := range negativeWords {
		score -= strings.Count(lower, w)
	}
	return score
}

// LabelSentiment partitions a score three ways at zero.
func LabelSentiment(score int) stock.SentimentLabel {
	switch {
	case score > 0:
		return stock.SentimentPositive
	case score < 0:
		return stock.SentimentNegative
	default:
		return stock.SentimentNeutral
	}
}

// Sentiment scores title and description together and labels the result.
func Sentiment(title, description string) stock.Sentiment {
	score := ScoreSentiment(title + " " + description)
	return stock.Sentiment{Score: score, Label: LabelSentiment(score)}
}
