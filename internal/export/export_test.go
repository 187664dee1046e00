package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hoorain17/Receipt-Analyzer/internal/analyzing"
)

func TestExport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Export Suite")
}

func fixtureResult() *analyzing.Result {
	return &analyzing.Result{
		Receipt: analyzing.Receipt{
			Items: []analyzing.ReceiptItem{
				{Name: "Milk", Quantity: 1, UnitPrice: 3.50, TotalPrice: 3.50, Category: "Dairy & Eggs", Confidence: 0.95},
				{Name: "Chips", Quantity: 1, UnitPrice: 2.00, TotalPrice: 2.00, Category: "Snacks & Candy", Confidence: 0.9},
			},
			Subtotal:  5.50,
			Tax:       0.44,
			Total:     5.94,
			StoreName: "Corner Market",
			Date:      "2026-02-10",
		},
		SpendingAnalysis: analyzing.SpendingAnalysis{
			TotalSpending: 5.50,
			CategoryBreakdown: []analyzing.CategoryAnalysis{
				{Category: "Dairy & Eggs", TotalSpent: 3.50, Percentage: 63.6, ItemCount: 1, Items: []string{"Milk"}},
				{Category: "Snacks & Candy", TotalSpent: 2.00, Percentage: 36.4, ItemCount: 1, Items: []string{"Chips"}},
			},
			TopCategory:            "Dairy & Eggs",
			OverspendingCategories: []string{"Dairy & Eggs (63.6% of total)"},
			Anomalies:              []string{},
		},
		Insight: analyzing.Insight{
			Summary:          "A small dairy-heavy grocery run.",
			Recommendations:  []string{"Buy milk in bulk"},
			BudgetTips:       []string{"Set a snack budget"},
			SavingsPotential: "$1.20/month",
		},
		ProcessedAt: "2026-02-10T12:00:00Z",
	}
}

var _ = Describe("ToCSV", func() {
	var (
		result *analyzing.Result
		data   []byte
		err    error
	)

	BeforeEach(func() {
		result = fixtureResult()
	})

	JustBeforeEach(func() {
		data, err = ToCSV(result)
	})

	It("should not return an error", func() {
		Expect(err).NotTo(HaveOccurred())
	})

	It("should produce one record per item plus the header", func() {
		records, readErr := csv.NewReader(bytes.NewReader(data)).ReadAll()
		Expect(readErr).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(len(result.Receipt.Items) + 1))
	})

	It("should emit the fixed header in order", func() {
		records, _ := csv.NewReader(bytes.NewReader(data)).ReadAll()
		Expect(records[0]).To(Equal([]string{"Name", "Quantity", "Unit Price", "Total Price", "Category", "Confidence"}))
	})

	It("should keep items in original order", func() {
		records, _ := csv.NewReader(bytes.NewReader(data)).ReadAll()
		Expect(records[1][0]).To(Equal("Milk"))
		Expect(records[2][0]).To(Equal("Chips"))
	})

	It("should format numeric fields to two decimal places", func() {
		records, _ := csv.NewReader(bytes.NewReader(data)).ReadAll()
		Expect(records[1]).To(Equal([]string{"Milk", "1.00", "3.50", "3.50", "Dairy & Eggs", "0.95"}))
	})

	When("the receipt has no items", func() {
		BeforeEach(func() {
			result.Receipt.Items = nil
		})

		It("should produce only the header", func() {
			records, readErr := csv.NewReader(bytes.NewReader(data)).ReadAll()
			Expect(readErr).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})
	})
})

var _ = Describe("ToJSON", func() {
	It("should round-trip to an identical structure", func() {
		result := fixtureResult()
		data, err := ToJSON(result)
		Expect(err).NotTo(HaveOccurred())

		var parsed analyzing.Result
		Expect(json.Unmarshal(data, &parsed)).To(Succeed())
		Expect(parsed).To(Equal(*result))
	})

	It("should be pretty-printed", func() {
		data, err := ToJSON(fixtureResult())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("\n  \"receipt\""))
	})
})

var _ = Describe("Summary", func() {
	It("should contain total, item count, top category, and savings potential", func() {
		summary := Summary(fixtureResult())
		Expect(summary).To(Equal("Receipt Analysis\nTotal: $5.94\nItems: 2\nTop category: Dairy & Eggs\nSavings potential: $1.20/month"))
	})

	When("there is no top category", func() {
		It("should fall back to N/A", func() {
			result := fixtureResult()
			result.SpendingAnalysis.TopCategory = ""
			Expect(Summary(result)).To(ContainSubstring("Top category: N/A"))
		})
	})
})
