package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validExport = `{
  "resume_analysis": "1. Overall Impression\nGood.",
  "timestamp": "2025-01-31 14:05:09.123456"
}`

func TestValidate_ValidExport(t *testing.T) {
	assert.NoError(t, Validate(ResumeAnalysis, []byte(validExport)))
}

func TestValidate_MissingField(t *testing.T) {
	err := Validate(ResumeAnalysis, []byte(`{"resume_analysis": "text"}`))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
	assert.Equal(t, ResumeAnalysis, validationErr.Schema)
}

func TestValidate_WrongType(t *testing.T) {
	err := Validate(ResumeAnalysis, []byte(`{"resume_analysis": 42, "timestamp": "2025-01-31 14:05:09.123456"}`))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Equal(t, "resume_analysis", validationErr.Errors[0].Field)
}

func TestValidate_BadTimestamp(t *testing.T) {
	err := Validate(ResumeAnalysis, []byte(`{"resume_analysis": "x", "timestamp": "2025-01-31T14:05:09Z"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", []byte(validExport))
	require.Error(t, err)

	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok, "error should be SchemaLoadError type")
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(ResumeAnalysis, []byte(`{not json`))
	require.Error(t, err)
	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok)
}

func TestValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume_analysis.json")
	require.NoError(t, os.WriteFile(path, []byte(validExport), 0o644))

	assert.NoError(t, ValidateFile(ResumeAnalysis, path))
}

func TestValidateFile_NotFound(t *testing.T) {
	err := ValidateFile(ResumeAnalysis, filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNames(t *testing.T) {
	assert.Contains(t, Names(), ResumeAnalysis)
}
