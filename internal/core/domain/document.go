package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// SupportedFormats lists the formats accepted by the extractor.
func SupportedFormats() []Format {
	return []Format{FormatPDF, FormatDOCX}
}

func (f Format) Supported() bool {
	return f == FormatPDF || f == FormatDOCX
}

// FormatFromFilename infers the declared format from the file extension.
// The boolean is false for any extension other than .pdf or .docx.
func FormatFromFilename(name string) (Format, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	f := Format(ext)
	if !f.Supported() {
		return "", false
	}
	return f, true
}

// RawDocument is a caller-owned document payload. The pipeline never mutates Content.
type RawDocument struct {
	Filename string
	Format   Format
	Content  []byte
}

// NormalizedText is the outcome of text normalization. Fallback is set when
// normalization could not run to completion and Tokens holds the lowercased,
// whitespace-collapsed input instead of stemmed tokens.
type NormalizedText struct {
	Tokens         []string
	Fallback       bool
	FallbackReason string
}

type ClassificationResult struct {
	Category         string             `json:"category"`
	Confidence       float64            `json:"confidence"`
	ProcessingTime   float64            `json:"processing_time"`
	AllProbabilities map[string]float64 `json:"all_probabilities"`

	Duration time.Duration `json:"-"`
	Degraded bool          `json:"-"`
}

// EvaluationSample is one labelled validation text and its outcome.
type EvaluationSample struct {
	Text       string  `json:"text" yaml:"text"`
	Expected   string  `json:"expected" yaml:"expected"`
	Predicted  string  `json:"predicted" yaml:"-"`
	Confidence float64 `json:"confidence" yaml:"-"`
	Correct    bool    `json:"correct" yaml:"-"`
}

type EvaluationReport struct {
	Accuracy           float64            `json:"accuracy"`
	CorrectPredictions int                `json:"correct_predictions"`
	TotalPredictions   int                `json:"total_predictions"`
	Samples            []EvaluationSample `json:"test_samples"`
}

// ClassifyRequest is an asynchronous classification job. Content is base64
// in its JSON form.
type ClassifyRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Filename  string `json:"filename"`
	Content   []byte `json:"content"`
}

// ClassifiedEvent is published after an asynchronous classification completes.
type ClassifiedEvent struct {
	RequestID string                `json:"request_id"`
	Filename  string                `json:"filename"`
	Result    *ClassificationResult `json:"result,omitempty"`
	ErrorKind string                `json:"error_kind,omitempty"`
	Error     string                `json:"error,omitempty"`
}
