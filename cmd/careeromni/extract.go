package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/career-omni/internal/extraction"
	"github.com/jonathan/career-omni/internal/observability"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract plain text from a PDF or DOCX résumé",
	RunE:  runExtract,
}

var (
	extractFile string
	extractOut  string
)

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Path to résumé (.pdf or .docx)")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Write the extracted text to this file")
	_ = extractCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	text, err := extractResume(cmd.Context(), extraction.NewExtractor(), extractFile)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintExtraction(filepath.Base(extractFile), text)

	if extractOut != "" {
		if err := os.WriteFile(extractOut, []byte(text+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", extractOut, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Extracted text: %s\n", extractOut)
	}
	return nil
}

// extractResume reads path and returns its text. Extraction failures are
// returned with their user-facing message.
func extractResume(ctx context.Context, extractor *extraction.Extractor, path string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read résumé: %w", err)
	}

	text, err := extractor.Extract(ctx, filepath.Base(path), data)
	if err != nil {
		var extractionErr *extraction.Error
		if errors.As(err, &extractionErr) {
			return "", fmt.Errorf("%s (%w)", extractionErr.Message(), err)
		}
		return "", err
	}
	return text, nil
}

// writeFile writes data under dir, creating dir if needed, and reports the path.
func writeFile(out io.Writer, dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(out, "Saved: %s\n", path)
	return path, nil
}
