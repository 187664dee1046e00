// Package spending re-groups receipt items by category for display. The
// server-computed category summary stays authoritative; this package only
// derives a local partition of the item list and display metrics from it.
package spending

import (
	"math"
	"strings"

	"github.com/hoorain17/Receipt-Analyzer/internal/analyzing"
)

// reconcileTolerance absorbs floating-point rounding when comparing summed
// item prices against the server-reported category total
const reconcileTolerance = 1e-2

// Severity buckets a category's share of total spending
type Severity string

const (
	SeverityHigh   Severity = "high"   // >30% of total
	SeverityMedium Severity = "medium" // >20% of total
	SeverityLow    Severity = "low"
)

// Group is one per-category display grouping: the server summary for the
// category plus the receipt items that belong to it, in original order.
type Group struct {
	Category     string                  `json:"category"`
	Items        []analyzing.ReceiptItem `json:"items"`
	TotalSpent   float64                 `json:"total_spent"`
	Percentage   float64                 `json:"percentage"`
	ItemCount    int                     `json:"item_count"`
	Severity     Severity                `json:"severity"`
	Overspending bool                    `json:"overspending"`
	// Reconciled is false when the grouped items do not reproduce the
	// server-reported total or count. A data-integrity condition, not an
	// error: the group still renders best-effort.
	Reconciled bool `json:"reconciled"`
}

// Breakdown is the aggregated view handed to the presentation layer. It is
// recomputed fresh from the current result on every call; nothing is cached.
type Breakdown struct {
	Groups         []Group  `json:"groups"`
	TotalSpending  float64  `json:"total_spending"`
	TotalItemCount int      `json:"total_item_count"`
	TopCategory    string   `json:"top_category,omitempty"`
	Overspending   []string `json:"overspending"`
	Anomalies      []string `json:"anomalies"`
}

// BuildBreakdown partitions the flat item list by exact category equality
// and joins each partition with its server-computed summary. Group order
// follows the server breakdown; categories that appear only on items are
// appended afterwards in first-seen order. Server categories with no
// matching items become empty groups rather than being omitted.
func BuildBreakdown(items []analyzing.ReceiptItem, sa analyzing.SpendingAnalysis) Breakdown {
	itemsByCategory := make(map[string][]analyzing.ReceiptItem)
	var categoryOrder []string
	for _, item := range items {
		if _, ok := itemsByCategory[item.Category]; !ok {
			categoryOrder = append(categoryOrder, item.Category)
		}
		itemsByCategory[item.Category] = append(itemsByCategory[item.Category], item)
	}

	breakdown := Breakdown{
		Groups:        make([]Group, 0, len(sa.CategoryBreakdown)),
		TotalSpending: sa.TotalSpending,
		TopCategory:   sa.TopCategory,
		Overspending:  sa.OverspendingCategories,
		Anomalies:     sa.Anomalies,
	}
	if breakdown.Overspending == nil {
		breakdown.Overspending = []string{}
	}
	if breakdown.Anomalies == nil {
		breakdown.Anomalies = []string{}
	}

	seen := make(map[string]bool)
	for _, ca := range sa.CategoryBreakdown {
		seen[ca.Category] = true
		grouped := itemsByCategory[ca.Category]
		breakdown.Groups = append(breakdown.Groups, Group{
			Category:     ca.Category,
			Items:        grouped,
			TotalSpent:   ca.TotalSpent,
			Percentage:   ca.Percentage,
			ItemCount:    ca.ItemCount,
			Severity:     classifySeverity(ca.Percentage),
			Overspending: matchesOverspending(sa.OverspendingCategories, ca.Category),
			Reconciled:   reconciles(grouped, ca),
		})
		breakdown.TotalItemCount += ca.ItemCount
	}

	// Items whose category the server summary never mentioned still render,
	// with locally summed figures and no authoritative percentage
	for _, cat := range categoryOrder {
		if seen[cat] {
			continue
		}
		grouped := itemsByCategory[cat]
		var total float64
		for _, item := range grouped {
			total += item.TotalPrice
		}
		breakdown.Groups = append(breakdown.Groups, Group{
			Category:     cat,
			Items:        grouped,
			TotalSpent:   total,
			ItemCount:    len(grouped),
			Severity:     SeverityLow,
			Overspending: matchesOverspending(sa.OverspendingCategories, cat),
			Reconciled:   false,
		})
		breakdown.TotalItemCount += len(grouped)
	}

	return breakdown
}

// classifySeverity buckets a percentage of total spending with fixed
// thresholds: >30 high, >20 medium, else low
func classifySeverity(percentage float64) Severity {
	switch {
	case percentage > 30:
		return SeverityHigh
	case percentage > 20:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// matchesOverspending reports whether any overspending message refers to the
// category. Messages are free text generated externally (typically
// "<category> (<pct>% of total)"), so this is a best-effort prefix match
// with both sides lower-cased.
func matchesOverspending(messages []string, category string) bool {
	lowerCategory := strings.ToLower(category)
	for _, message := range messages {
		if strings.HasPrefix(strings.ToLower(message), lowerCategory) {
			return true
		}
	}
	return false
}

// reconciles checks the grouped items against the server-reported figures
func reconciles(items []analyzing.ReceiptItem, ca analyzing.CategoryAnalysis) bool {
	if len(items) != ca.ItemCount {
		return false
	}
	var total float64
	for _, item := range items {
		total += item.TotalPrice
	}
	return math.Abs(total-ca.TotalSpent) <= reconcileTolerance
}
