package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// Selectors describes where a posting's text lives on a page and what to strip first.
type Selectors struct {
	Content []string
	Noise   []string
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	switch {
	case strings.Contains(host, "greenhouse.io"):
		return PlatformGreenhouse
	case strings.Contains(host, "lever.co"):
		return PlatformLever
	case strings.Contains(host, "workday.com"), strings.Contains(host, "myworkdayjobs.com"):
		return PlatformWorkday
	default:
		return PlatformUnknown
	}
}

// JobPostingSelectors returns generic selectors for job board pages.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

// SelectorsFor returns the selector profile for a platform.
func SelectorsFor(platform Platform) Selectors {
	noise := []string{
		"form",
		"#application-form",
		".application-form",
		".apply-button-container",
		".voluntary-disclosure",
		".eeo-statement",
		".eeo-section",
		".legal-disclosure",
		".social-share",
		".share-buttons",
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformGreenhouse:
		return Selectors{
			Content: []string{".job__description.body", ".job__description", ".job-description__content", "#content"},
			Noise:   append(noise, ".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"),
		}
	case PlatformLever:
		return Selectors{
			Content: []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"},
			Noise:   append(noise, ".apply-section", ".lever-application-form", ".posting-apply"),
		}
	case PlatformWorkday:
		return Selectors{
			Content: []string{"[data-automation-id='jobDescription']", ".gwt-HTML", ".job-description"},
			Noise:   append(noise, "[data-automation-id='applyButton']", ".application-section"),
		}
	default:
		return Selectors{Content: JobPostingSelectors(), Noise: noise}
	}
}
