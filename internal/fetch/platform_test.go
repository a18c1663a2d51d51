package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://job-boards.greenhouse.io/doordashusa/jobs/7063751", PlatformGreenhouse},
		{"https://boards.greenhouse.io/company/jobs/123", PlatformGreenhouse},
		{"https://jobs.lever.co/company/job-id", PlatformLever},
		{"https://company.wd5.myworkdayjobs.com/en-US/careers/job/123", PlatformWorkday},
		{"https://example.com/careers/123", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestSelectorsFor(t *testing.T) {
	greenhouse := SelectorsFor(PlatformGreenhouse)
	assert.Equal(t, ".job__description.body", greenhouse.Content[0])
	assert.Contains(t, greenhouse.Noise, "form")
	assert.Contains(t, greenhouse.Noise, ".post-apply")

	lever := SelectorsFor(PlatformLever)
	assert.Contains(t, lever.Noise, ".posting-apply")
	assert.NotContains(t, lever.Noise, ".post-apply")

	unknown := SelectorsFor(PlatformUnknown)
	assert.Equal(t, JobPostingSelectors(), unknown.Content)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("   short   "))

	long := make([]byte, MinContentLength)
	for i := range long {
		long[i] = 'x'
	}
	assert.False(t, ShouldUseBrowser(string(long)))
}
