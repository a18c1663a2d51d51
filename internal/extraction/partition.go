package extraction

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Partitioner splits a document on disk into textual elements.
type Partitioner interface {
	Partition(ctx context.Context, path string) ([]string, error)
}

// PartitionerFunc adapts a function to the Partitioner interface.
type PartitionerFunc func(ctx context.Context, path string) ([]string, error)

// Partition calls f.
func (f PartitionerFunc) Partition(ctx context.Context, path string) ([]string, error) {
	return f(ctx, path)
}

// PDFPartitioner yields one element per page that has text.
type PDFPartitioner struct{}

// Partition reads the PDF at path.
func (PDFPartitioner) Partition(ctx context.Context, path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	var elements []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			elements = append(elements, text)
		}
	}
	return elements, nil
}

var (
	docxTab  = regexp.MustCompile(`<w:tab\s*/>`)
	docxTags = regexp.MustCompile(`<[^>]+>`)
)

// DOCXPartitioner yields one element per non-empty paragraph.
type DOCXPartitioner struct{}

// Partition reads the DOCX at path.
func (DOCXPartitioner) Partition(_ context.Context, path string) ([]string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer func() { _ = doc.Close() }()

	return docxParagraphs(doc.Editable().GetContent()), nil
}

// docxParagraphs turns word/document.xml content into paragraph strings.
func docxParagraphs(content string) []string {
	var elements []string
	for _, para := range strings.Split(content, "</w:p>") {
		para = docxTab.ReplaceAllString(para, "\t")
		para = html.UnescapeString(docxTags.ReplaceAllString(para, ""))
		if strings.TrimSpace(para) != "" {
			elements = append(elements, para)
		}
	}
	return elements
}
