// Package pdfextract extracts body text from a PDF, discarding elements
// that are not part of the document's substantive content (tables of
// contents, headers/footers, figure/table lists, bibliographies, and any
// segment too short to carry plagiarism signal).
package pdfextract

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

const minSegmentChars = 200

var discardPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^table of contents$`),
	regexp.MustCompile(`(?i)^contents$`),
	regexp.MustCompile(`(?i)^list of figures$`),
	regexp.MustCompile(`(?i)^list of tables$`),
	regexp.MustCompile(`(?i)^bibliography$`),
	regexp.MustCompile(`(?i)^references$`),
}

// Segment is one classified block of extracted text.
type Segment struct {
	Text  string
	Page  int
	Kind  string // "body", "toc", "header" (running headers and footers), "figures", "tables", "bibliography", "short"
}

// Extract reads a PDF from r and returns its classified segments.
func Extract(r io.Reader) ([]Segment, error) {
	tmp, err := os.CreateTemp("", "plagiscan-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var segments []Segment
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, block := range splitBlocks(text) {
			segments = append(segments, classify(block, i))
		}
	}
	return segments, nil
}

// Body concatenates the "body" segments in page/position order, which is
// the text handed to the standard ingest path.
func Body(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Kind != "body" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

func splitBlocks(text string) []string {
	raw := strings.Split(text, "\n\n")
	var blocks []string
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			blocks = append(blocks, r)
		}
	}
	return blocks
}

func classify(block string, page int) Segment {
	trimmed := strings.TrimSpace(block)
	firstLine := trimmed
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		firstLine = trimmed[:idx]
	}

	for _, p := range discardPatterns {
		if p.MatchString(strings.TrimSpace(firstLine)) {
			return Segment{Text: trimmed, Page: page, Kind: kindFor(p)}
		}
	}
	if looksLikeHeaderFooter(trimmed) {
		return Segment{Text: trimmed, Page: page, Kind: "header"}
	}
	if len(trimmed) < minSegmentChars {
		return Segment{Text: trimmed, Page: page, Kind: "short"}
	}
	return Segment{Text: trimmed, Page: page, Kind: "body"}
}

func kindFor(p *regexp.Regexp) string {
	switch {
	case strings.Contains(p.String(), "figures"):
		return "figures"
	case strings.Contains(p.String(), "tables"):
		return "tables"
	case strings.Contains(p.String(), "bibliography") || strings.Contains(p.String(), "references"):
		return "bibliography"
	default:
		return "toc"
	}
}

// looksLikeHeaderFooter flags very short single-line blocks that are
// mostly numeric (page numbers) or all-caps running titles.
func looksLikeHeaderFooter(block string) bool {
	if strings.Contains(block, "\n") {
		return false
	}
	if len(block) > 80 {
		return false
	}
	digits := 0
	for _, r := range block {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if len(block) > 0 && digits*2 >= len(block) {
		return true
	}
	return block == strings.ToUpper(block) && len(strings.Fields(block)) <= 6 && len(block) > 0
}
