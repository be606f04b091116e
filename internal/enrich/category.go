package enrich

import (
	"strings"

	"github.com/carsongrett/nocharts/internal/stock"
)

// categoryRule is one ordered keyword group. The first rule with any keyword
// present in the text wins; order matters where keyword sets could overlap
// ("earnings guidance" must classify as earnings, not market).
type categoryRule struct {
	category stock.Category
	keywords []string
}

var categoryRules = []categoryRule{
	{stock.CategoryEarnings, []string{"earnings", "revenue", "eps", "quarterly results", "guidance", "profit report"}},
	{stock.CategoryMergers, []string{"merger", "acquisition", "acquire", "takeover", "buyout", "deal"}},
	{stock.CategoryProduct, []string{"launch", "product", "unveil", "release", "announce", "feature"}},
	{stock.CategoryLeadership, []string{"ceo", "cfo", "executive", "resign", "appoint", "board"}},
	{stock.CategoryRegulatory, []string{"sec", "regulat", "lawsuit", "investigation", "antitrust", "fine"}},
	{stock.CategoryMarket, []string{"stock", "shares", "market", "trading", "analyst", "rating"}},
}

// Categorize classifies text into the first matching category group, falling
// back to general when nothing matches.
func Categorize(text string) stock.Category {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return stock.CategoryGeneral
}

// EnrichNews derives the enriched news list from raw items, attaching
// sentiment and category. Provider order is preserved.
func EnrichNews(raw []stock.RawNewsItem) []stock.NewsItem {
	items := make([]stock.NewsItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, stock.NewsItem{
			Title:       r.Title,
			Description: r.Description,
			URL:         r.URL,
			Source:      r.Source,
			Author:      r.Author,
			PublishedAt: r.PublishedAt,
			Sentiment:   Sentiment(r.Title, r.Description),
			Category:    Categorize(r.Title + " " + r.Description),
		})
	}
	return items
}
