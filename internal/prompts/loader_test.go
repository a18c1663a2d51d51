package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(ResumeFile, KeyAnalyzeResume)
	require.NoError(t, err)
	assert.Contains(t, prompt, "1. Overall Impression:")
	assert.Contains(t, prompt, "4. Formatting and Layout:")
	assert.Contains(t, prompt, "{{.ResumeText}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(ResumeFile, "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRender(t *testing.T) {
	ClearCache()

	prompt, err := Render(ResumeFile, KeyGenerateResume, map[string]string{
		"JobDescription":      "Senior Go engineer",
		"CandidateBackground": "",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Senior Go engineer")
	assert.NotContains(t, prompt, "{{.JobDescription}}")
	assert.NotContains(t, prompt, "{{.CandidateBackground}}")
}

func TestFormat(t *testing.T) {
	result := Format("Hello {{.Name}}, welcome to {{.Company}}!", map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	})
	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", result)
}

func TestFormat_ValuesAreNotReexpanded(t *testing.T) {
	result := Format("{{.A}} {{.B}}", map[string]string{
		"A": "{{.B}}",
		"B": "b",
	})
	assert.Equal(t, "{{.B}} b", result)
}

func TestFormat_UnknownPlaceholderKept(t *testing.T) {
	assert.Equal(t, "Hi {{.Missing}}", Format("Hi {{.Missing}}", map[string]string{"Name": "x"}))
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(ResumeFile)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyAnalyzeResume, KeyCandidateBlock, KeyGenerateResume}, keys)
}
