// Package observability provides formatted console output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/career-omni/internal/analysis"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// previewLines is the number of lines shown in text previews
	previewLines = 5
)

// Printer handles formatted console output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content, wrapping long lines
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, inner) {
			fmt.Fprintf(p.out, "│ %s │\n", pad(wrapped, inner))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad right-pads s with spaces to width runes.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// wrap splits line on word boundaries so no piece exceeds width runes.
// Words longer than width are hard-split.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	if len(indent) > width/2 {
		indent = ""
	}
	var lines []string
	current := indent
	for _, word := range strings.Fields(line) {
		for utf8.RuneCountInString(word) > width-len(indent) {
			if strings.TrimSpace(current) != "" {
				lines = append(lines, current)
				current = indent
			}
			runes := []rune(word)
			cut := width - len(indent)
			lines = append(lines, indent+string(runes[:cut]))
			word = string(runes[cut:])
		}
		switch {
		case strings.TrimSpace(current) == "":
			current = indent + word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = indent + word
		}
	}
	if strings.TrimSpace(current) != "" {
		lines = append(lines, current)
	}
	return lines
}

// PrintSections outputs one box per critique section. Absent sections show
// the fallback message.
func (p *Printer) PrintSections(sections *analysis.Sections) {
	if sections == nil {
		return
	}

	for _, section := range sections.Items {
		title := fmt.Sprintf("%d. %s", section.Index, strings.ToUpper(section.Label))
		body := section.Display()
		if section.Status == analysis.StatusAbsent {
			body = "⚠ " + body
		}
		p.printBox(title, body)
	}
}

// PrintExtraction outputs a summary and short preview of extracted résumé text.
func (p *Printer) PrintExtraction(filename, text string) {
	lines := strings.Split(text, "\n")

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File:        %s\n", filename))
	sb.WriteString(fmt.Sprintf("Characters:  %d\n", utf8.RuneCountInString(text)))
	sb.WriteString(fmt.Sprintf("Lines:       %d\n", len(lines)))
	sb.WriteString("\n")

	count := min(len(lines), previewLines)
	for i := 0; i < count; i++ {
		sb.WriteString(lines[i])
		sb.WriteString("\n")
	}
	if len(lines) > previewLines {
		sb.WriteString(fmt.Sprintf("... and %d more lines\n", len(lines)-previewLines))
	}

	p.printBox("EXTRACTED RESUME TEXT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGeneratedResume outputs the generated résumé in full.
func (p *Printer) PrintGeneratedResume(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	p.printBox("GENERATED RESUME", text)
}

// PrintWarning outputs a single-line warning box.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintWarning(message string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	for _, line := range wrap("⚠ "+message, boxWidth-4) {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}
