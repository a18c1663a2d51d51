package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jonathan/career-omni/internal/analysis"
	"github.com/jonathan/career-omni/internal/config"
	"github.com/jonathan/career-omni/internal/extraction"
	"github.com/jonathan/career-omni/internal/observability"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Critique a résumé and export resume_analysis.json",
	Long: "Extract text from a PDF or DOCX résumé, request a four-section critique " +
		"(overall impression, key strengths, areas for improvement, formatting and layout), " +
		"print each section, and optionally export the analysis as JSON.",
	RunE: runAnalyze,
}

type analyzeOptions struct {
	File    string
	OutDir  string
	Verbose bool
}

var analyzeOpts analyzeOptions

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOpts.File, "file", "f", "", "Path to résumé (.pdf or .docx)")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.OutDir, "out", "o", "", "Directory for resume_analysis.json")
	analyzeCmd.Flags().BoolVarP(&analyzeOpts.Verbose, "verbose", "v", false, "Print the extracted text preview")
	_ = analyzeCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	analyzeOpts.Verbose = analyzeOpts.Verbose || cfg.Verbose

	ctx := cmd.Context()
	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	analyzer := analysis.NewAnalyzer(client, analysis.WithTimeout(cfg.Timeout()))
	return analyzeResume(ctx, analyzeOpts, extraction.NewExtractor(), analyzer, cmd.OutOrStdout())
}

// analyzeResume runs extraction and analysis for one file.
func analyzeResume(ctx context.Context, opts analyzeOptions, extractor *extraction.Extractor, analyzer *analysis.Analyzer, out io.Writer) error {
	printer := observability.NewPrinter(out)

	text, err := extractResume(ctx, extractor, opts.File)
	if err != nil {
		return err
	}
	if opts.Verbose {
		printer.PrintExtraction(filepath.Base(opts.File), text)
	}

	result, err := analyzer.Analyze(ctx, text)
	if err != nil {
		var analysisErr *analysis.Error
		if errors.As(err, &analysisErr) {
			return fmt.Errorf("%s (%w)", analysisErr.Message(), err)
		}
		return err
	}

	printer.PrintSections(result.Sections)
	if missing := result.Sections.Missing(); len(missing) > 0 {
		printer.PrintWarning(fmt.Sprintf("%d of %d sections could not be parsed", len(missing), len(result.Sections.Items)))
	}

	if opts.OutDir == "" {
		return nil
	}
	data, err := analysis.Export(result.Text, time.Now())
	if err != nil {
		return fmt.Errorf("failed to export analysis: %w", err)
	}
	_, err = writeFile(out, opts.OutDir, analysis.ExportFilename, data)
	return err
}
