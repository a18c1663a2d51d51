package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), DefaultConfig(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestExtractTextFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{genai.Text("1. Overall Impression\n"), genai.Text("Good.")},
				},
			},
		},
	}

	text, err := extractTextFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "1. Overall Impression\nGood.", text)
}

func TestExtractTextFromResponse_Empty(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{name: "nil response", resp: nil, want: "no candidates"},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: "no candidates"},
		{
			name: "no content",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			want: "no content",
		},
		{
			name: "no text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}},
			}},
			want: "no text parts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractTextFromResponse(tt.resp)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClassifyError(t *testing.T) {
	blocked := classifyError("gemini-2.5-flash", &genai.BlockedError{
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	})
	assert.ErrorIs(t, blocked, ErrBlocked)
	assert.Contains(t, blocked.Error(), "gemini-2.5-flash")

	transport := errors.New("connection reset")
	wrapped := classifyError("gemini-2.5-pro", transport)
	assert.ErrorIs(t, wrapped, transport)
	assert.NotErrorIs(t, wrapped, ErrBlocked)
}
