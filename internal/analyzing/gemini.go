package analyzing

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// receiptAnalysisPrompt asks the model for the complete analysis result in a
// single pass: structured receipt, per-category summary, and insights
const receiptAnalysisPrompt = `You are analyzing a photographed shopping receipt. Read every line of the image and produce a complete spending analysis.

1. Extract every line item with its name, quantity, unit price, and total price. Assign each item a short free-form spending category you invent yourself (e.g. "Dairy & Eggs", "Snacks & Candy", "Laundry & Cleaning"). Give each item a confidence between 0 and 1.
2. Extract the subtotal, tax, and total, plus the store name and the purchase date (YYYY-MM-DD) if visible.
3. Compute a per-category summary: total spent, percentage of the overall total (percentages across categories must sum to 100), item count, and the item names in that category. Order categories from highest to lowest spend.
4. Flag any category above 30% of the total as overspending, formatted as "<category> (<percentage>% of total)". List any unusually expensive items as anomalies.
5. Write a short summary of the purchase, 2-4 concrete recommendations, 2-4 budget tips, and a one-line savings potential estimate.

Return ONLY valid JSON in this exact format:
{
  "receipt": {
    "items": [{"name": "", "quantity": 1, "unit_price": 0.0, "total_price": 0.0, "category": "", "confidence": 0.9}],
    "subtotal": 0.0,
    "tax": 0.0,
    "total": 0.0,
    "store_name": "",
    "date": "YYYY-MM-DD"
  },
  "spending_analysis": {
    "total_spending": 0.0,
    "category_breakdown": [{"category": "", "total_spent": 0.0, "percentage": 0.0, "item_count": 0, "items": [""]}],
    "top_category": "",
    "overspending_categories": [],
    "anomalies": []
  },
  "llm_insight": {
    "summary": "",
    "recommendations": [""],
    "budget_tips": [""],
    "savings_potential": ""
  }
}

Important:
- All amounts must be numbers (not strings), representing dollars and cents
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// Gemini implements the Analyzer interface using Google Gemini directly,
// without the remote analysis service in between
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Analyzer instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// Analyze submits a receipt image to Gemini and parses the analysis result.
// The aggressive flag is accepted for interface parity; preprocessing is the
// remote service's concern and Gemini receives the image as-is.
func (g *Gemini) Analyze(ctx context.Context, imageBase64 string, aggressive bool) (*Result, error) {
	imageData, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	// Images are normalized to PNG before submission, so "png" is always right
	parts := []genai.Part{
		genai.ImageData("png", imageData),
		genai.Text(receiptAnalysisPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	result, err := parseResultJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing analysis result: %w", err)
	}

	return result, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
