package questiongenerator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// DocumentMetadata describes an extracted document.
type DocumentMetadata struct {
	FileName  string `json:"file_name"`
	PageCount int    `json:"page_count,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
}

// DocumentExtractor turns a document file into plain text plus
// metadata. Extraction is a collaborator of the pipeline, not part of
// it; implementations for other formats plug in here.
type DocumentExtractor interface {
	Extract(path string) (string, DocumentMetadata, error)
}

// ExtractorFor picks an extractor by file extension.
func ExtractorFor(path string) DocumentExtractor {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return &PDFExtractor{}
	}
	return &TextExtractor{}
}

// TextExtractor reads plain-text documents (.txt, .md) verbatim.
type TextExtractor struct{}

func (e *TextExtractor) Extract(path string) (string, DocumentMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", DocumentMetadata{}, fmt.Errorf("document not found at %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", DocumentMetadata{}, fmt.Errorf("failed to read document: %w", err)
	}
	meta := DocumentMetadata{
		FileName:  filepath.Base(path),
		SizeBytes: info.Size(),
	}
	return string(data), meta, nil
}

// PDFExtractor pulls text out of PDF page content streams. It decodes
// the text-showing operators (Tj/TJ) and joins pages with blank lines;
// scanned PDFs without a text layer yield empty text.
type PDFExtractor struct{}

// pdfString matches parenthesized string operands, honoring escapes.
var pdfString = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*(?:Tj|'|")|\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)

var pdfInnerString = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)

func (e *PDFExtractor) Extract(path string) (string, DocumentMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", DocumentMetadata{}, fmt.Errorf("document not found at %s: %w", path, err)
	}

	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return "", DocumentMetadata{}, fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return "", DocumentMetadata{}, fmt.Errorf("failed to extract page %d: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", DocumentMetadata{}, fmt.Errorf("failed to read page %d content: %w", pageNr, err)
		}
		page := decodeTextOperators(string(content))
		if page != "" {
			sb.WriteString(page)
			sb.WriteString("\n\n")
		}
	}

	meta := DocumentMetadata{
		FileName:  filepath.Base(path),
		PageCount: ctx.PageCount,
		SizeBytes: info.Size(),
	}
	return sb.String(), meta, nil
}

// decodeTextOperators collects the string operands of Tj/TJ operators
// from one content stream.
func decodeTextOperators(content string) string {
	var sb strings.Builder
	for _, m := range pdfString.FindAllStringSubmatch(content, -1) {
		if m[1] != "" {
			sb.WriteString(unescapePDFString(m[1]))
			sb.WriteByte(' ')
			continue
		}
		// TJ arrays interleave strings with kerning numbers.
		for _, inner := range pdfInnerString.FindAllStringSubmatch(m[2], -1) {
			sb.WriteString(unescapePDFString(inner[1]))
		}
		sb.WriteByte(' ')
	}
	return strings.TrimSpace(sb.String())
}

func unescapePDFString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 >= len(s) {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r', 't', 'b', 'f':
			sb.WriteByte(' ')
		case '(', ')', '\\':
			sb.WriteByte(s[i])
		default:
			// Octal codes and unknown escapes are dropped.
			for i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7' {
				i++
			}
		}
	}
	return sb.String()
}
