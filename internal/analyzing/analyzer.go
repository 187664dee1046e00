package analyzing

import "context"

// ReceiptItem is a single line item extracted from a receipt. Items are
// immutable once received; the category label is free-form text chosen by
// the analysis backend.
type ReceiptItem struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Receipt is the structured receipt extracted by the analysis backend.
type Receipt struct {
	Items          []ReceiptItem `json:"items"`
	Subtotal       float64       `json:"subtotal"`
	Tax            float64       `json:"tax"`
	Total          float64       `json:"total"`
	StoreName      string        `json:"store_name,omitempty"`
	Date           string        `json:"date,omitempty"` // ISO 8601 format
	RawOCRText     string        `json:"raw_ocr_text,omitempty"`
	ProcessingTime float64       `json:"processing_time,omitempty"`
}

// CategoryAnalysis is the server-computed summary for one category. The
// client never mutates it, only re-derives a local grouping for display.
type CategoryAnalysis struct {
	Category   string   `json:"category"`
	TotalSpent float64  `json:"total_spent"`
	Percentage float64  `json:"percentage"`
	ItemCount  int      `json:"item_count"`
	Items      []string `json:"items"`
}

// SpendingAnalysis is the server-computed spending summary.
type SpendingAnalysis struct {
	TotalSpending          float64            `json:"total_spending"`
	CategoryBreakdown      []CategoryAnalysis `json:"category_breakdown"`
	TopCategory            string             `json:"top_category,omitempty"`
	OverspendingCategories []string           `json:"overspending_categories"`
	Anomalies              []string           `json:"anomalies"`
}

// Insight is the natural-language advice generated by the backend LLM.
// It is opaque to this application and passed through unmodified.
type Insight struct {
	Summary          string   `json:"summary"`
	Recommendations  []string `json:"recommendations"`
	BudgetTips       []string `json:"budget_tips"`
	SavingsPotential string   `json:"savings_potential"`
}

// Result is the single unit exchanged with the analysis backend: receipt,
// spending summary, and LLM insight. It exists fully formed or not at all.
type Result struct {
	Receipt          Receipt          `json:"receipt"`
	SpendingAnalysis SpendingAnalysis `json:"spending_analysis"`
	Insight          Insight          `json:"llm_insight"`
	ProcessedAt      string           `json:"processed_at"`
}

// Analyzer defines the interface for receipt analysis backends.
type Analyzer interface {
	// Analyze submits a base64-encoded PNG receipt image and returns the
	// fully formed analysis result.
	Analyze(ctx context.Context, imageBase64 string, aggressive bool) (*Result, error)
	// Close closes the analyzer and releases resources
	Close() error
}
