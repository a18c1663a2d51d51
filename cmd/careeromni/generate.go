package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jonathan/career-omni/internal/config"
	"github.com/jonathan/career-omni/internal/extraction"
	"github.com/jonathan/career-omni/internal/generation"
	"github.com/jonathan/career-omni/internal/ingestion"
	"github.com/jonathan/career-omni/internal/observability"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a résumé for a job description",
	Long: "Generate an ATS-friendly résumé for a job description given as text, a file, or a URL. " +
		"An existing résumé (--resume) is used as the candidate background.",
	RunE: runGenerate,
}

type generateOptions struct {
	JobText string
	JobFile string
	JobURL  string
	Resume  string
	OutDir  string
	Format  string
}

var generateOpts generateOptions

func init() {
	generateCmd.Flags().StringVarP(&generateOpts.JobText, "job", "j", "", "Job description text")
	generateCmd.Flags().StringVarP(&generateOpts.JobFile, "job-file", "t", "", "Path to text file containing the job description")
	generateCmd.Flags().StringVarP(&generateOpts.JobURL, "job-url", "u", "", "URL to fetch the job posting from")
	generateCmd.Flags().StringVarP(&generateOpts.Resume, "resume", "r", "", "Current résumé (.pdf or .docx) used as background")
	generateCmd.Flags().StringVarP(&generateOpts.OutDir, "out", "o", "", "Directory for the generated résumé file")
	generateCmd.Flags().StringVar(&generateOpts.Format, "format", string(generation.FormatDOCX), "Download label: docx or pdf")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if err := generateOpts.validate(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	generator := generation.NewGenerator(client,
		generation.WithTimeout(cfg.Timeout()),
		generation.WithURLOptions(ingestion.URLOptions{UseBrowser: cfg.UseBrowser, Verbose: cfg.Verbose}),
	)
	return generateResume(ctx, generateOpts, extraction.NewExtractor(), generator, cmd.OutOrStdout())
}

// validate checks that at most one job description source is given.
func (o generateOptions) validate() error {
	sources := 0
	for _, s := range []string{o.JobText, o.JobFile, o.JobURL} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return fmt.Errorf("--job, --job-file and --job-url are mutually exclusive; provide only one")
	}
	if _, err := generation.ParseFormat(o.Format); err != nil {
		return err
	}
	return nil
}

// generateResume drafts a résumé and optionally saves it. A missing job
// description prints a warning and makes no model call.
func generateResume(ctx context.Context, opts generateOptions, extractor *extraction.Extractor, generator *generation.Generator, out io.Writer) error {
	printer := observability.NewPrinter(out)

	req := generation.Request{JobDescription: opts.JobText, JobURL: opts.JobURL}
	if opts.JobFile != "" {
		text, _, err := ingestion.IngestFromFile(opts.JobFile)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		req.JobDescription = text
	}
	if opts.Resume != "" {
		text, err := extractResume(ctx, extractor, opts.Resume)
		if err != nil {
			return err
		}
		req.ResumeText = text
	}

	result, err := generator.Generate(ctx, req)
	if errors.Is(err, generation.ErrEmptyJobDescription) {
		printer.PrintWarning("Please enter a job description.")
		return nil
	}
	if err != nil {
		return err
	}

	printer.PrintGeneratedResume(result.Text)

	if opts.OutDir == "" {
		return nil
	}
	format, err := generation.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	file, err := generation.Download(result.Text, format)
	if err != nil {
		return err
	}
	_, err = writeFile(out, opts.OutDir, file.Name, file.Data)
	return err
}
