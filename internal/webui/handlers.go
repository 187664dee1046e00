package webui

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoorain17/Receipt-Analyzer/internal/analysis"
	"github.com/hoorain17/Receipt-Analyzer/internal/analyzing"
	"github.com/hoorain17/Receipt-Analyzer/internal/category"
	"github.com/hoorain17/Receipt-Analyzer/internal/export"
	"github.com/hoorain17/Receipt-Analyzer/internal/imaging"
	"github.com/hoorain17/Receipt-Analyzer/internal/sample"
	"github.com/hoorain17/Receipt-Analyzer/internal/spending"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// styledGroup is a spending group joined with its category color and icon
type styledGroup struct {
	spending.Group
	Style category.Style `json:"style"`
	Icon  string         `json:"icon"`
}

// styledBreakdown is the breakdown as rendered by the interface
type styledBreakdown struct {
	Groups          []styledGroup `json:"groups"`
	TotalSpending   float64       `json:"total_spending"`
	TotalItemCount  int           `json:"total_item_count"`
	TopCategory     string        `json:"top_category,omitempty"`
	TopCategoryIcon string        `json:"top_category_icon,omitempty"`
	Anomalies       []string      `json:"anomalies"`
}

// stateResponse is the polled lifecycle view
type stateResponse struct {
	State        string            `json:"state"`
	Stage        int               `json:"stage"`
	HasImage     bool              `json:"has_image"`
	ImagePreview string            `json:"image_preview,omitempty"`
	Aggressive   bool              `json:"aggressive"`
	Error        string            `json:"error,omitempty"`
	Result       *analyzing.Result `json:"result,omitempty"`
	Breakdown    *styledBreakdown  `json:"breakdown,omitempty"`
}

// buildStyledBreakdown joins the aggregated groups with their display styling
func buildStyledBreakdown(result *analyzing.Result) *styledBreakdown {
	breakdown := spending.BuildBreakdown(result.Receipt.Items, result.SpendingAnalysis)

	groups := make([]styledGroup, 0, len(breakdown.Groups))
	for _, g := range breakdown.Groups {
		groups = append(groups, styledGroup{
			Group: g,
			Style: category.StyleFor(g.Category),
			Icon:  category.IconFor(g.Category),
		})
	}

	styled := &styledBreakdown{
		Groups:         groups,
		TotalSpending:  breakdown.TotalSpending,
		TotalItemCount: breakdown.TotalItemCount,
		TopCategory:    breakdown.TopCategory,
		Anomalies:      breakdown.Anomalies,
	}
	if breakdown.TopCategory != "" {
		styled.TopCategoryIcon = category.IconFor(breakdown.TopCategory)
	}
	return styled
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleUploadImage accepts a receipt upload, normalizes it to PNG, and
// stages it as the pending analysis payload
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	// Max 50MB to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" {
		contentType = imaging.ContentTypeFor(header.Filename)
	}

	imagePNG, err := imaging.ToPNG(data, contentType)
	if err != nil {
		slog.Error("Error converting upload", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if aggressive := r.FormValue("aggressive"); aggressive != "" {
		s.controller.SetAggressive(aggressive == "true" || aggressive == "1")
	}

	if err := s.controller.SetImage(imagePNG); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	slog.Info("Image staged", "filename", header.Filename, "bytes", len(imagePNG))

	s.writeState(w, http.StatusCreated)
}

// handleAnalyze starts the analysis for the staged image
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Analyze(); err != nil {
		switch {
		case errors.Is(err, analysis.ErrAnalysisInProgress):
			jsonError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, analysis.ErrNoImage):
			jsonError(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("Error starting analysis", "error", err)
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	s.writeState(w, http.StatusAccepted)
}

// handleReset clears the current image, result, and error
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.controller.Reset()
	s.writeState(w, http.StatusOK)
}

// handleState returns the polled lifecycle snapshot
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, http.StatusOK)
}

func (s *Server) writeState(w http.ResponseWriter, code int) {
	snapshot := s.controller.Snapshot()

	response := stateResponse{
		State:        snapshot.State.String(),
		Stage:        snapshot.Stage,
		HasImage:     snapshot.HasImage,
		ImagePreview: snapshot.ImagePreview,
		Aggressive:   snapshot.Aggressive,
		Error:        snapshot.Err,
		Result:       snapshot.Result,
	}
	if snapshot.Result != nil {
		response.Breakdown = buildStyledBreakdown(snapshot.Result)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListSamples returns the bundled demo receipts without their payloads
func (s *Server) handleListSamples(w http.ResponseWriter, r *http.Request) {
	receipts, err := sample.All()
	if err != nil {
		slog.Error("Error loading samples", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	type sampleInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Store       string `json:"store"`
		Description string `json:"description"`
	}
	infos := make([]sampleInfo, 0, len(receipts))
	for _, receipt := range receipts {
		infos = append(infos, sampleInfo{
			ID:          receipt.ID,
			Name:        receipt.Name,
			Store:       receipt.Store,
			Description: receipt.Description,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(infos); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleLoadSample stages a bundled receipt as the pending payload
func (s *Server) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	receipt, err := sample.ByID(id)
	if err != nil {
		corsError(w, "Sample not found", http.StatusNotFound)
		return
	}

	imagePNG, err := receipt.ImagePNG()
	if err != nil {
		slog.Error("Error decoding sample", "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := s.controller.SetImage(imagePNG); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	slog.Info("Sample staged", "id", id)

	s.writeState(w, http.StatusOK)
}

// currentResult fetches the completed result or reports why there isn't one
func (s *Server) currentResult(w http.ResponseWriter) *analyzing.Result {
	snapshot := s.controller.Snapshot()
	if snapshot.Result == nil {
		corsError(w, "No completed analysis to export", http.StatusNotFound)
		return nil
	}
	return snapshot.Result
}

// handleExportCSV downloads the current result's items as CSV
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	result := s.currentResult(w)
	if result == nil {
		return
	}

	data, err := export.ToCSV(result)
	if err != nil {
		slog.Error("Error building CSV export", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.CSVFilename+`"`)
	w.Write(data)
}

// handleExportJSON downloads the current result as pretty-printed JSON
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	result := s.currentResult(w)
	if result == nil {
		return
	}

	data, err := export.ToJSON(result)
	if err != nil {
		slog.Error("Error building JSON export", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.JSONFilename+`"`)
	w.Write(data)
}

// handleSummary returns the copyable plain-text summary of the current result
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	result := s.currentResult(w)
	if result == nil {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, export.Summary(result))
}

// handleListHistory returns all saved analyses
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		corsError(w, "History is disabled", http.StatusNotFound)
		return
	}

	entries, err := s.history.ListAnalyses()
	if err != nil {
		slog.Error("Error listing analyses", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetHistoryEntry returns a single saved analysis
func (s *Server) handleGetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		corsError(w, "History is disabled", http.StatusNotFound)
		return
	}

	entry, err := s.history.GetAnalysis(r.PathValue("id"))
	if err != nil {
		corsError(w, "Analysis not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetHistoryImage returns the stored receipt image for a saved analysis
func (s *Server) handleGetHistoryImage(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		corsError(w, "History is disabled", http.StatusNotFound)
		return
	}

	data, err := s.history.GetAnalysisImage(r.PathValue("id"))
	if err != nil {
		corsError(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// handleDeleteHistoryEntry deletes a saved analysis
func (s *Server) handleDeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		corsError(w, "History is disabled", http.StatusNotFound)
		return
	}

	if err := s.history.DeleteAnalysis(r.PathValue("id")); err != nil {
		corsError(w, "Error deleting analysis", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
