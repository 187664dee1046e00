package analyzing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is the ceiling for one analyze call. The backend chains
// several sequential model calls and can legitimately take minutes.
const DefaultTimeout = 5 * time.Minute

// Remote implements the Analyzer interface against the HTTP analysis service
type Remote struct {
	baseURL string
	client  *http.Client
}

// NewRemote creates a new Remote Analyzer instance
func NewRemote(baseURL string, timeout time.Duration) (*Remote, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("analysis service URL is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Remote{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// analyzeRequest is the request body for the analyze endpoint
type analyzeRequest struct {
	ImageBase64             string `json:"image_base64"`
	AggressivePreprocessing bool   `json:"aggressive_preprocessing"`
}

// analyzeEnvelope is the response envelope from the analyze endpoint.
// success=false with HTTP 200 is still a failure.
type analyzeEnvelope struct {
	Success        bool    `json:"success"`
	Data           *Result `json:"data"`
	Error          string  `json:"error"`
	ProcessingTime float64 `json:"processing_time"`
}

// errorBody captures the error fields the service may return on failure
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// Analyze submits a receipt image to the remote service and returns the result
func (r *Remote) Analyze(ctx context.Context, imageBase64 string, aggressive bool) (*Result, error) {
	reqBody := analyzeRequest{
		ImageBase64:             imageBase64,
		AggressivePreprocessing: aggressive,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/analyze", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling analyze API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s", normalizeError(body, fmt.Sprintf("analysis service returned status %d", resp.StatusCode)))
	}

	var envelope analyzeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if !envelope.Success || envelope.Data == nil {
		message := envelope.Error
		if message == "" {
			message = "Analysis failed"
		}
		return nil, fmt.Errorf("%s", message)
	}

	return envelope.Data, nil
}

// normalizeError reduces a failure body to a single human-readable message,
// preferring the server-supplied detail, then error, then the fallback
func normalizeError(body []byte, fallback string) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if fallback != "" {
		return fallback
	}
	return "Unknown error"
}

// HealthCheck reports whether the analysis service is reachable
func (r *Remote) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/health", r.baseURL), nil)
	if err != nil {
		return false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Close closes the Remote analyzer (no-op for HTTP client)
func (r *Remote) Close() error {
	return nil
}
