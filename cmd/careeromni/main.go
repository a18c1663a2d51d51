// Package main provides the CareerOmni CLI and HTTP API server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/career-omni/internal/config"
	"github.com/jonathan/career-omni/internal/llm"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "careeromni",
	Short: "CareerOmni résumé analysis and generation",
	Long: "CareerOmni extracts text from PDF and DOCX résumés, critiques them with Gemini, " +
		"and drafts new résumés from job descriptions, from the command line or over a REST API.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file (optional)")
}

// newLLMClient is replaced in tests.
var newLLMClient = func(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	return llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
