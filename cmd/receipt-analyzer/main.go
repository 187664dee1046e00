package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/hoorain17/Receipt-Analyzer/internal/analysis"
	"github.com/hoorain17/Receipt-Analyzer/internal/analyzing"
	"github.com/hoorain17/Receipt-Analyzer/internal/history"
	"github.com/hoorain17/Receipt-Analyzer/internal/webui"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Optional .env for local development; missing file is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	fs := ff.NewFlagSet("receipt-analyzer")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		backendURL   = fs.StringLong("backend-url", "http://localhost:8000", "Analysis backend base URL")
		analyzerType = fs.StringLong("analyzer", "remote", "Analyzer type: 'remote' or 'gemini'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		timeout      = fs.DurationLong("timeout", analyzing.DefaultTimeout, "Analysis request timeout")
		dbPath       = fs.StringLong("db", "receipt-analyzer.db", "History database file path (empty disables history)")
		storagePath  = fs.StringLong("storage", "./analyses", "Stored receipt image directory")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_ANALYZER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize analyzer based on type
	var analyzer analyzing.Analyzer
	var err error
	switch *analyzerType {
	case "remote":
		slog.Info("Initializing remote analyzer...", "url", *backendURL, "timeout", *timeout)
		analyzer, err = analyzing.NewRemote(*backendURL, *timeout)
		if err != nil {
			slog.Error("Failed to initialize remote analyzer", "error", err)
			os.Exit(1)
		}
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini analyzer...", "model", *geminiModel)
		analyzer, err = analyzing.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid analyzer type", "type", *analyzerType, "valid", "remote or gemini")
		os.Exit(1)
	}
	defer analyzer.Close()

	// Initialize history store unless disabled
	var store *history.Store
	if *dbPath != "" {
		slog.Info("Initializing history store...", "db", *dbPath, "storage", *storagePath)
		files, err := history.NewLocalFileStore(*storagePath)
		if err != nil {
			slog.Error("Failed to initialize image storage", "error", err)
			os.Exit(1)
		}
		store, err = history.NewStore(*dbPath, files)
		if err != nil {
			slog.Error("Failed to initialize history store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
	} else {
		slog.Info("History persistence disabled")
	}

	// Initialize controller: the recorder is the history store when enabled
	var recorder analysis.Recorder
	if store != nil {
		recorder = store
	}
	controller := analysis.NewControllerWithDeps(analyzer, recorder, analysis.NewScheduler(), *timeout)

	// Initialize server
	basicAuth := webui.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := webui.NewServer(controller, store, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
