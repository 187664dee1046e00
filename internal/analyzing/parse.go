package analyzing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// parseResultJSON parses the JSON response from Gemini into a Result
func parseResultJSON(text string) (*Result, error) {
	text = strings.TrimSpace(text)

	// Remove opening markdown code blocks
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	if len(result.Receipt.Items) == 0 {
		return nil, fmt.Errorf("no receipt items in response")
	}

	// Fill in totals the model may have omitted
	if result.Receipt.Subtotal == 0 {
		var computed float64
		for _, item := range result.Receipt.Items {
			computed += item.TotalPrice
		}
		result.Receipt.Subtotal = computed
	}
	if result.Receipt.Total == 0 {
		result.Receipt.Total = result.Receipt.Subtotal + result.Receipt.Tax
	}
	if result.SpendingAnalysis.TotalSpending == 0 {
		result.SpendingAnalysis.TotalSpending = result.Receipt.Total
	}

	// Keep list fields non-nil so the presentation layer can range freely
	if result.SpendingAnalysis.CategoryBreakdown == nil {
		result.SpendingAnalysis.CategoryBreakdown = []CategoryAnalysis{}
	}
	if result.SpendingAnalysis.OverspendingCategories == nil {
		result.SpendingAnalysis.OverspendingCategories = []string{}
	}
	if result.SpendingAnalysis.Anomalies == nil {
		result.SpendingAnalysis.Anomalies = []string{}
	}

	if result.ProcessedAt == "" {
		result.ProcessedAt = time.Now().UTC().Format(time.RFC3339)
	}

	return &result, nil
}
