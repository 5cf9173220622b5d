package document

import (
	"context"
	"fmt"

	"github.com/kirillkom/docclass/internal/core/domain"
)

// Extractor dispatches raw bytes to the parser of the declared format.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, format domain.Format, content []byte) (string, error) {
	switch format {
	case domain.FormatPDF:
		text, err := extractPDF(content)
		if err != nil {
			return "", domain.WrapError(domain.ErrExtraction, "extract pdf", err)
		}
		return text, nil
	case domain.FormatDOCX:
		text, err := extractDOCX(content)
		if err != nil {
			return "", domain.WrapError(domain.ErrExtraction, "extract docx", err)
		}
		return text, nil
	default:
		return "", domain.WrapError(domain.ErrExtraction, "extract", fmt.Errorf("unsupported format %q", format))
	}
}
