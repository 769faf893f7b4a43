package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// TextExtractor is stage 1 of the pipeline: source file -> text. The OCR
// engine behind it is an external collaborator; implementations only have to
// satisfy this contract.
type TextExtractor interface {
	Extract(ctx context.Context, sourceLocation string) (Result, error)
}

type Result struct {
	Text       string
	Confidence float64 // 0.0 - 1.0
	Pages      int
	Warnings   []string
}

// FileExtractor reads plain-text source files directly. It stands in for a
// real OCR engine in development and tests; scanned formats are handled by
// whatever TextExtractor implementation is wired in at startup.
type FileExtractor struct{}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

func (e *FileExtractor) Extract(ctx context.Context, sourceLocation string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	raw, err := os.ReadFile(sourceLocation)
	if err != nil {
		return Result{}, fmt.Errorf("reading source file: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	return Result{
		Text:       text,
		Confidence: textConfidence(text),
		Pages:      1 + strings.Count(text, "\f"),
	}, nil
}

// textConfidence estimates extraction quality from the ratio of printable
// word characters to total length. Plain text files score close to 1.0;
// binary garbage scores near zero.
func textConfidence(text string) float64 {
	if len(text) == 0 {
		return 0
	}

	printable := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) {
			printable++
		}
	}
	return float64(printable) / float64(len([]rune(text)))
}
