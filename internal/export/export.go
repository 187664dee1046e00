// Package export renders a completed analysis result as downloadable CSV or
// JSON, and as a plain-text summary suitable for the clipboard.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/hoorain17/Receipt-Analyzer/internal/analyzing"
)

// Download filenames offered to the browser
const (
	CSVFilename  = "receipt-analysis.csv"
	JSONFilename = "receipt-analysis.json"
)

// csvHeader is the fixed column order for the items table
var csvHeader = []string{"Name", "Quantity", "Unit Price", "Total Price", "Category", "Confidence"}

// ToCSV renders the receipt items as CSV: the fixed header row, then one row
// per item in original order, numeric fields to two decimal places
func ToCSV(result *analyzing.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	for _, item := range result.Receipt.Items {
		row := []string{
			item.Name,
			fmt.Sprintf("%.2f", item.Quantity),
			fmt.Sprintf("%.2f", item.UnitPrice),
			fmt.Sprintf("%.2f", item.TotalPrice),
			item.Category,
			fmt.Sprintf("%.2f", item.Confidence),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ToJSON serializes the full analysis result verbatim, pretty-printed
func ToJSON(result *analyzing.Result) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return data, nil
}

// Summary produces the fixed-format multi-line text block for sharing
func Summary(result *analyzing.Result) string {
	topCategory := result.SpendingAnalysis.TopCategory
	if topCategory == "" {
		topCategory = "N/A"
	}
	return fmt.Sprintf(
		"Receipt Analysis\nTotal: $%.2f\nItems: %d\nTop category: %s\nSavings potential: %s",
		result.Receipt.Total,
		len(result.Receipt.Items),
		topCategory,
		result.Insight.SavingsPotential,
	)
}
