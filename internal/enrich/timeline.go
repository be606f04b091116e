package enrich

import (
	"fmt"
	"sort"
	"time"

	"github.com/carsongrett/nocharts/internal/stock"
)

// BuildTimeline merges news items and earnings reports into one dated event
// stream, newest first. The sort is stable so items sharing a date keep
// their original provider order.
func BuildTimeline(news []stock.NewsItem, earnings []stock.EarningsReport) []stock.TimelineEvent {
	events := make([]stock.TimelineEvent, 0, len(news)+len(earnings))

	for _, n := range news {
		sentiment := n.Sentiment
		events = append(events, stock.TimelineEvent{
			Kind:        stock.EventNews,
			Date:        n.PublishedAt,
			Title:       n.Title,
			Description: n.Description,
			Sentiment:   &sentiment,
		})
	}

	for _, e := range earnings {
		events = append(events, stock.TimelineEvent{
			Kind:        stock.EventEarnings,
			Date:        e.Period,
			Title:       earningsTitle(e),
			Description: earningsDescription(e),
			Surprise:    e.SurprisePercent,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.After(events[j].Date)
	})
	return events
}

func earningsTitle(e stock.EarningsReport) string {
	if e.Quarter > 0 && e.Year > 0 {
		return fmt.Sprintf("Q%d %d earnings report", e.Quarter, e.Year)
	}
	return fmt.Sprintf("Earnings report (%s)", e.Period.Format("2006-01-02"))
}

func earningsDescription(e stock.EarningsReport) string {
	if e.ActualEPS == nil || e.EstimateEPS == nil {
		return "EPS figures not reported"
	}
	verdict := "met"
	switch {
	case *e.ActualEPS > *e.EstimateEPS:
		verdict = "beat"
	case *e.ActualEPS < *e.EstimateEPS:
		verdict = "missed"
	}
	return fmt.Sprintf("EPS %s estimates: actual %.2f vs estimate %.2f", verdict, *e.ActualEPS, *e.EstimateEPS)
}

// SurprisePercent fills in the EPS surprise percentage for reports where the
// provider supplied actual and estimate but omitted the derived figure.
func SurprisePercent(reports []stock.EarningsReport) []stock.EarningsReport {
	out := make([]stock.EarningsReport, len(reports))
	copy(out, reports)
	for i := range out {
		e := &out[i]
		if e.SurprisePercent != nil || e.ActualEPS == nil || e.EstimateEPS == nil || *e.EstimateEPS == 0 {
			continue
		}
		pct := (*e.ActualEPS - *e.EstimateEPS) / abs(*e.EstimateEPS) * 100
		e.SurprisePercent = &pct
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// sortEarnings orders reports newest first, matching the timeline direction.
func sortEarnings(reports []stock.EarningsReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Period.After(reports[j].Period)
	})
}

// NormalizeEarnings fills derived fields and orders reports newest first.
func NormalizeEarnings(reports []stock.EarningsReport) []stock.EarningsReport {
	out := SurprisePercent(reports)
	sortEarnings(out)
	return out
}

// withinDays reports whether t falls inside the trailing n-day window ending
// at ref. Used by callers that trim stale news off the timeline.
func withinDays(t, ref time.Time, n int) bool {
	return !t.Before(ref.AddDate(0, 0, -n))
}

// TrimOlderThan drops events older than n days before ref. A non-positive n
// keeps everything.
func TrimOlderThan(events []stock.TimelineEvent, ref time.Time, n int) []stock.TimelineEvent {
	if n <= 0 {
		return events
	}
	out := events[:0:0]
	for _, ev := range events {
		if withinDays(ev.Date, ref, n) {
			out = append(out, ev)
		}
	}
	return out
}
