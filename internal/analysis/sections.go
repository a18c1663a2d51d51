package analysis

import (
	"regexp"
	"strings"
)

// SectionID is the stable identifier of a critique section.
type SectionID string

// Critique sections, in the order the prompt requests them.
const (
	OverallImpression   SectionID = "overall_impression"
	KeyStrengths        SectionID = "key_strengths"
	AreasForImprovement SectionID = "areas_for_improvement"
	FormattingAndLayout SectionID = "formatting_and_layout"
)

// FallbackMessage is shown in place of a section the model did not produce.
const FallbackMessage = "Section parsing error"

// Heading describes one expected section of the model response.
type Heading struct {
	Index int       `json:"index"`
	ID    SectionID `json:"id"`
	Label string    `json:"heading"`
}

// DefaultHeadings is the fixed ordered section list.
var DefaultHeadings = []Heading{
	{Index: 1, ID: OverallImpression, Label: "Overall Impression"},
	{Index: 2, ID: KeyStrengths, Label: "Key Strengths"},
	{Index: 3, ID: AreasForImprovement, Label: "Areas for Improvement"},
	{Index: 4, ID: FormattingAndLayout, Label: "Formatting and Layout"},
}

// Status reports whether a section was found in the response.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Section is one heading together with the text attributed to it.
type Section struct {
	Heading
	Status Status `json:"status"`
	Body   string `json:"body"`
	// Lines holds the heading line(s) as they appeared in the response.
	Lines []string `json:"-"`
}

// Display returns the body, or FallbackMessage when the section is absent.
func (s Section) Display() string {
	if s.Status == StatusAbsent {
		return FallbackMessage
	}
	return s.Body
}

// Sections is the result of splitting one analysis response.
type Sections struct {
	Preamble string    `json:"preamble,omitempty"`
	Items    []Section `json:"sections"`
}

// Get returns the section with the given identifier.
func (s *Sections) Get(id SectionID) (Section, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Section{}, false
}

// Missing lists the identifiers of absent sections.
func (s *Sections) Missing() []SectionID {
	var missing []SectionID
	for _, item := range s.Items {
		if item.Status == StatusAbsent {
			missing = append(missing, item.ID)
		}
	}
	return missing
}

// Complete reports whether every section was found.
func (s *Sections) Complete() bool {
	return len(s.Missing()) == 0
}

// Reconstruct joins the preamble and each present section's heading lines and
// body with newlines.
func (s *Sections) Reconstruct() string {
	var parts []string
	if s.Preamble != "" {
		parts = append(parts, s.Preamble)
	}
	for _, item := range s.Items {
		if item.Status != StatusPresent {
			continue
		}
		parts = append(parts, item.Lines...)
		if item.Body != "" {
			parts = append(parts, item.Body)
		}
	}
	return strings.Join(parts, "\n")
}

var (
	markerPattern    = regexp.MustCompile(`^\[\[SECTION:([a-z_]+)\]\]$`)
	numberingPattern = regexp.MustCompile(`^\d+[.)]\s*`)
)

const decoration = "#*_ \t"

type lineKind int

const (
	plainLine lineKind = iota
	markerLine
	headingLine
)

// classify reports whether line opens one of the headings. For heading lines
// with text after the colon, inline holds that text.
func classify(line string, headings []Heading) (idx int, kind lineKind, inline string) {
	t := strings.TrimLeft(strings.TrimSpace(line), decoration)

	if m := markerPattern.FindStringSubmatch(strings.TrimRight(t, decoration)); m != nil {
		for i, h := range headings {
			if string(h.ID) == m[1] {
				return i, markerLine, ""
			}
		}
		return -1, plainLine, ""
	}

	t = strings.TrimLeft(numberingPattern.ReplaceAllString(t, ""), decoration)
	for i, h := range headings {
		if len(t) < len(h.Label) || !strings.EqualFold(t[:len(h.Label)], h.Label) {
			continue
		}
		rest := strings.TrimLeft(t[len(h.Label):], decoration)
		if rest == "" {
			return i, headingLine, ""
		}
		if rest[0] == ':' {
			return i, headingLine, strings.TrimSpace(strings.TrimLeft(rest[1:], decoration))
		}
	}
	return -1, plainLine, ""
}

// Split partitions an analysis response into the given headings.
//
// Each line is checked for a [[SECTION:<id>]] marker or a heading line such as
// "2. Key Strengths:". The first occurrence of a heading opens its section and
// later occurrences are kept as body text. A heading line directly after its
// own marker belongs to the marker. Headings that never appear are returned
// with StatusAbsent.
func Split(text string, headings []Heading) *Sections {
	found := make([]bool, len(headings))
	heads := make([][]string, len(headings))
	bodies := make([][]string, len(headings))
	var preamble []string

	current := -1
	awaitingHeading := false

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		idx, kind, inline := classify(line, headings)

		switch {
		case kind == headingLine && awaitingHeading && idx == current:
			heads[idx] = append(heads[idx], line)
			if inline != "" {
				bodies[idx] = append(bodies[idx], inline)
			}
			awaitingHeading = false
			continue
		case kind != plainLine && !found[idx]:
			found[idx] = true
			current = idx
			heads[idx] = []string{line}
			awaitingHeading = kind == markerLine
			if inline != "" {
				bodies[idx] = append(bodies[idx], inline)
			}
			continue
		}

		if strings.TrimSpace(line) != "" {
			awaitingHeading = false
		}
		if current < 0 {
			preamble = append(preamble, line)
		} else {
			bodies[current] = append(bodies[current], line)
		}
	}

	result := &Sections{
		Preamble: strings.TrimSpace(strings.Join(preamble, "\n")),
		Items:    make([]Section, len(headings)),
	}
	for i, h := range headings {
		section := Section{Heading: h, Status: StatusAbsent}
		if found[i] {
			section.Status = StatusPresent
			section.Body = strings.TrimSpace(strings.Join(bodies[i], "\n"))
			section.Lines = heads[i]
		}
		result.Items[i] = section
	}
	return result
}
