package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/career-omni/internal/analysis"
	"github.com/jonathan/career-omni/internal/config"
	"github.com/jonathan/career-omni/internal/extraction"
	"github.com/jonathan/career-omni/internal/extraction/extractiontest"
	"github.com/jonathan/career-omni/internal/generation"
	"github.com/jonathan/career-omni/internal/llm"
	"github.com/jonathan/career-omni/internal/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const critique = `1. Overall Impression:
Focused and readable.

2. Key Strengths:
- Go services

3. Areas for Improvement:
- Add metrics

4. Formatting and Layout:
Clean.`

func writeResume(t *testing.T, name string, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, extractiontest.DOCX(t, paragraphs...), 0644))
	return path
}

func TestRootCommand_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "extract", "analyze", "generate"} {
		assert.Contains(t, names, want)
	}
}

func TestExtractResume(t *testing.T) {
	path := writeResume(t, "resume.docx", "Jane Doe", "Software Engineer")

	text, err := extractResume(context.Background(), extraction.NewExtractor(extraction.WithTempDir(t.TempDir())), path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSoftware Engineer", text)
}

func TestExtractResume_Errors(t *testing.T) {
	extractor := extraction.NewExtractor(extraction.WithTempDir(t.TempDir()))

	_, err := extractResume(context.Background(), extractor, filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorContains(t, err, "failed to read résumé")

	txt := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain"), 0644))
	_, err = extractResume(context.Background(), extractor, txt)
	assert.ErrorContains(t, err, "Unsupported file type")

	var extractionErr *extraction.Error
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, extraction.ReasonUnsupportedType, extractionErr.Reason)
}

func TestAnalyzeResume(t *testing.T) {
	path := writeResume(t, "resume.docx", "Jane Doe", "Software Engineer")
	outDir := filepath.Join(t.TempDir(), "out")
	fake := &llmtest.Fake{Response: critique}
	var out bytes.Buffer

	err := analyzeResume(context.Background(),
		analyzeOptions{File: path, OutDir: outDir, Verbose: true},
		extraction.NewExtractor(extraction.WithTempDir(t.TempDir())),
		analysis.NewAnalyzer(fake),
		&out,
	)
	require.NoError(t, err)

	printed := out.String()
	assert.Contains(t, printed, "EXTRACTED RESUME TEXT")
	assert.Contains(t, printed, "1. OVERALL IMPRESSION")
	assert.Contains(t, printed, "4. FORMATTING AND LAYOUT")
	assert.NotContains(t, printed, analysis.FallbackMessage)

	data, err := os.ReadFile(filepath.Join(outDir, analysis.ExportFilename))
	require.NoError(t, err)
	var doc analysis.ExportDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, critique, doc.ResumeAnalysis)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Software Engineer")
	assert.Equal(t, llm.TierStandard, calls[0].Tier)
}

func TestAnalyzeResume_PartialResponse(t *testing.T) {
	path := writeResume(t, "resume.docx", "Jane Doe")
	var out bytes.Buffer

	err := analyzeResume(context.Background(),
		analyzeOptions{File: path},
		extraction.NewExtractor(extraction.WithTempDir(t.TempDir())),
		analysis.NewAnalyzer(&llmtest.Fake{Response: "2. Key Strengths:\n- Go"}),
		&out,
	)
	require.NoError(t, err)
	assert.Contains(t, out.String(), analysis.FallbackMessage)
	assert.Contains(t, out.String(), "3 of 4 sections could not be parsed")
}

func TestAnalyzeResume_ModelFailure(t *testing.T) {
	path := writeResume(t, "resume.docx", "Jane Doe")
	outDir := t.TempDir()

	err := analyzeResume(context.Background(),
		analyzeOptions{File: path, OutDir: outDir},
		extraction.NewExtractor(extraction.WithTempDir(t.TempDir())),
		analysis.NewAnalyzer(&llmtest.Fake{Err: errors.New("quota")}),
		&bytes.Buffer{},
	)
	assert.ErrorContains(t, err, "Error analyzing resume")
	assert.NoFileExists(t, filepath.Join(outDir, analysis.ExportFilename))
}

func TestGenerateResume(t *testing.T) {
	resume := writeResume(t, "resume.docx", "Jane Doe", "Software Engineer")
	jobFile := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(jobFile, []byte("Senior   Go engineer\n\n\n\nRemote"), 0644))
	outDir := t.TempDir()
	fake := &llmtest.Fake{Response: "```\nJane Doe\nSenior Go Engineer\n```"}
	var out bytes.Buffer

	err := generateResume(context.Background(),
		generateOptions{JobFile: jobFile, Resume: resume, OutDir: outDir, Format: "PDF"},
		extraction.NewExtractor(extraction.WithTempDir(t.TempDir())),
		generation.NewGenerator(fake),
		&out,
	)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "GENERATED RESUME")

	data, err := os.ReadFile(filepath.Join(outDir, "generated_resume.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Go Engineer", string(data))

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Senior Go engineer\n\nRemote")
	assert.Contains(t, calls[0].Prompt, "Software Engineer")
	assert.Equal(t, llm.TierAdvanced, calls[0].Tier)
}

func TestGenerateResume_EmptyJobDescription(t *testing.T) {
	fake := &llmtest.Fake{Response: "unused"}
	outDir := t.TempDir()
	var out bytes.Buffer

	err := generateResume(context.Background(),
		generateOptions{JobText: "  \n ", OutDir: outDir, Format: "docx"},
		extraction.NewExtractor(),
		generation.NewGenerator(fake),
		&out,
	)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Please enter a job description.")
	assert.Empty(t, fake.Calls())

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateOptions_Validate(t *testing.T) {
	assert.NoError(t, generateOptions{JobText: "Go", Format: "docx"}.validate())
	assert.NoError(t, generateOptions{Format: ".pdf"}.validate())
	assert.ErrorContains(t, generateOptions{JobText: "Go", JobURL: "https://x", Format: "docx"}.validate(), "mutually exclusive")
	assert.ErrorContains(t, generateOptions{JobText: "Go", Format: "odt"}.validate(), "unsupported download format")
}

func TestAnalyzeCommand_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	path := writeResume(t, "resume.docx", "Jane Doe")

	rootCmd.SetArgs([]string{"analyze", "--file", path})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestAnalyzeCommand_WithInjectedClient(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	fake := &llmtest.Fake{Response: critique}
	original := newLLMClient
	newLLMClient = func(_ context.Context, cfg *config.Config) (llm.Client, error) {
		assert.Equal(t, "test-key", cfg.APIKey)
		return fake, nil
	}
	t.Cleanup(func() {
		newLLMClient = original
		analyzeOpts = analyzeOptions{}
		rootCmd.SetArgs(nil)
	})

	path := writeResume(t, "resume.docx", "Jane Doe", "Software Engineer")
	outDir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetArgs([]string{"analyze", "--file", path, "--out", outDir})
	rootCmd.SetOut(&out)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "2. KEY STRENGTHS")
	assert.FileExists(t, filepath.Join(outDir, analysis.ExportFilename))
	assert.True(t, fake.Closed())
}
