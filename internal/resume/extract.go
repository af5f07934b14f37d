// Package resume turns uploaded résumé documents into plain text.
package resume

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/mock-interview/internal/interview"
)

// Extractor implements interview.TextExtractor for PDF and DOCX documents.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractText returns the concatenated text of doc, page or paragraph order preserved.
func (e *Extractor) ExtractText(ctx context.Context, doc interview.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)

	format := doc.Format()
	switch format {
	case interview.FormatPDF:
		text, err = extractPDF(doc.Data)
	case interview.FormatDOCX:
		text, err = extractDOCX(doc.Data)
	default:
		return "", fmt.Errorf("%w: %q", interview.ErrUnsupportedFormat, doc.Name)
	}

	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", interview.ErrExtraction, doc.Name, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s has no text layer", interview.ErrExtraction, doc.Name)
	}

	e.logger.Debug("resume text extracted",
		zap.String("name", doc.Name),
		zap.String("format", string(format)),
		zap.Int("bytes", len(doc.Data)),
		zap.Int("characters", utf8.RuneCountInString(text)),
	)

	return text, nil
}

// Load reads a résumé from disk.
func Load(path string) (interview.Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return interview.Document{}, fmt.Errorf("resume path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return interview.Document{}, fmt.Errorf("reading resume %q: %w", path, err)
	}

	return interview.Document{Name: filepath.Base(path), Data: data}, nil
}
