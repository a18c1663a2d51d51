package generation

import (
	"fmt"
	"strings"
)

// Format is a download label for the generated résumé.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// ContentType is served for every download. The payload is always plain text
// regardless of the file extension.
const ContentType = "text/plain; charset=utf-8"

// File is a named download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Formats lists the supported download formats.
func Formats() []Format {
	return []Format{FormatDOCX, FormatPDF}
}

// ParseFormat accepts "docx" or "pdf" in any case, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported download format %q", s)
}

// Download labels the generated text as generated_resume.<format>.
func Download(text string, format Format) (*File, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	return &File{
		Name:        "generated_resume." + string(format),
		ContentType: ContentType,
		Data:        []byte(text),
	}, nil
}
