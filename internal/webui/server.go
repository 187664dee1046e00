// Package webui serves the embedded single-page interface and the JSON API
// in front of the analysis controller and the history store.
package webui

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoorain17/Receipt-Analyzer/internal/analysis"
	"github.com/hoorain17/Receipt-Analyzer/internal/history"
)

// Server handles HTTP requests for the receipt analyzer
type Server struct {
	controller *analysis.Controller
	history    *history.Store
	basicAuth  BasicAuth
	mux        *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux. The history store may be
// nil when persistence is disabled.
func NewServer(controller *analysis.Controller, store *history.Store, basicAuth BasicAuth) *Server {
	return NewServerWithMux(controller, store, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(controller *analysis.Controller, store *history.Store, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		controller: controller,
		history:    store,
		basicAuth:  basicAuth,
		mux:        mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			// Ensure CORS headers are set before error response
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Receipt Analyzer"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// Static files
	s.mux.HandleFunc("GET /static/app.css", s.requireAuth(s.handleStaticCSS))
	s.mux.HandleFunc("GET /static/app.js", s.requireAuth(s.handleStaticJS))

	// API endpoints - analysis lifecycle
	s.mux.HandleFunc("POST /api/image", s.requireAuth(s.handleUploadImage))
	s.mux.HandleFunc("POST /api/analyze", s.requireAuth(s.handleAnalyze))
	s.mux.HandleFunc("POST /api/reset", s.requireAuth(s.handleReset))
	s.mux.HandleFunc("GET /api/state", s.requireAuth(s.handleState))

	// API endpoints - sample receipts
	s.mux.HandleFunc("POST /api/samples/{id}", s.requireAuth(s.handleLoadSample))
	s.mux.HandleFunc("GET /api/samples", s.requireAuth(s.handleListSamples))

	// API endpoints - exports of the current result
	s.mux.HandleFunc("GET /api/export/csv", s.requireAuth(s.handleExportCSV))
	s.mux.HandleFunc("GET /api/export/json", s.requireAuth(s.handleExportJSON))
	s.mux.HandleFunc("GET /api/summary", s.requireAuth(s.handleSummary))

	// API endpoints - saved analyses (most specific paths first)
	s.mux.HandleFunc("GET /api/history/{id}/image", s.requireAuth(s.handleGetHistoryImage))
	s.mux.HandleFunc("GET /api/history/{id}", s.requireAuth(s.handleGetHistoryEntry))
	s.mux.HandleFunc("DELETE /api/history/{id}", s.requireAuth(s.handleDeleteHistoryEntry))
	s.mux.HandleFunc("GET /api/history", s.requireAuth(s.handleListHistory))

	// Static HTML interface (register last as it's the catch-all)
	s.mux.HandleFunc("GET /index.html", s.requireAuth(s.handleIndex))
	s.mux.HandleFunc("GET /", s.requireAuth(s.handleIndex))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware to handle all requests including OPTIONS
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
