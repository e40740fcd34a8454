package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/ironsheep/answer-sheet-omr/internal/config"
	"github.com/ironsheep/answer-sheet-omr/internal/logging"
	"github.com/ironsheep/answer-sheet-omr/internal/pipeline"
	"github.com/ironsheep/answer-sheet-omr/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			caps := pipeline.Capabilities()
			fmt.Printf("omr-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Marker backend: %s (%s)\n", caps.MarkerBackend, caps.MarkerBackendVersion)
			return
		case "--help", "-h", "help":
			fmt.Println("omr-mcp - MCP server for reading multiple-choice answer sheets")
			fmt.Println()
			fmt.Println("Usage: omr-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from ./.env):")
			fmt.Println("  OMR_LOG_LEVEL=debug              Log level (debug, info, warn, error)")
			fmt.Println("  OMR_LOG_FILE=/path/omr.log       Also write logs to a rotated file")
			fmt.Println("  OMR_LOG_NO_COLOR=1               Disable colored log output")
			fmt.Println("  OMR_EXAM_FILE=/path/exam.yaml    Exam definition used as the default")
			fmt.Println("  OMR_QUESTION_COUNT, OMR_CHOICES_PER_QUESTION, OMR_FILL_RATIO_THRESHOLD,")
			fmt.Println("  OMR_ILLUMINATION, OMR_ADAPTIVE_THRESHOLD, OMR_CORRESPONDENCE,")
			fmt.Println("  OMR_MIN_MARKER_AREA, OMR_WORKERS, OMR_TITLE, OMR_LOCALE")
			fmt.Println("                                   Override exam definition fields")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client.")
			return
		}
	}

	// A missing .env is normal; anything else is worth reporting.
	envErr := godotenv.Load()
	if envErr != nil && errors.Is(envErr, fs.ErrNotExist) {
		envErr = nil
	}

	// Logs go to stderr (stdout is for MCP protocol)
	logger, err := logging.New(logging.OptionsFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "omr-mcp: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if envErr != nil {
		logger.WithError(envErr).Warn("Failed to load .env file")
	}

	exam, err := config.LoadDefault()
	if err != nil {
		logger.WithError(err).Fatal("Invalid exam configuration")
	}

	logger.WithFields(map[string]interface{}{
		"version":   Version,
		"commit":    GitCommit,
		"questions": exam.QuestionCount,
		"choices":   exam.ChoicesPerQuestion,
		"backend":   pipeline.Capabilities().MarkerBackend,
	}).Info("Answer sheet MCP server starting")

	srv := server.New(
		server.WithExam(exam),
		server.WithLogger(logger),
		server.WithVersion(Version),
	)
	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}
