package interview

import (
	"path/filepath"
	"strings"
)

// Format is a résumé document format the extractor understands.
type Format string

const (
	FormatUnknown Format = ""
	// FormatPDF is the page-based format.
	FormatPDF Format = "pdf"
	// FormatDOCX is the paragraph-based format.
	FormatDOCX Format = "docx"
)

// Document is an uploaded résumé as received from the presentation layer.
type Document struct {
	Name string
	Data []byte
}

// Format detects the document format from the file name extension.
func (d Document) Format() Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(d.Name))) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	default:
		return FormatUnknown
	}
}
