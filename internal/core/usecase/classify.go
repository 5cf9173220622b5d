package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/core/ports"
)

// MinTextRunes is the shortest trimmed text that is worth classifying.
const MinTextRunes = 10

type ClassifyUseCase struct {
	extractor  ports.TextExtractor
	normalizer ports.TextNormalizer
	features   ports.FeatureModel
	classifier ports.ProbabilisticClassifier
	observer   ports.ClassificationObserver
}

func NewClassifyUseCase(
	extractor ports.TextExtractor,
	normalizer ports.TextNormalizer,
	features ports.FeatureModel,
	classifier ports.ProbabilisticClassifier,
	observer ports.ClassificationObserver,
) (*ClassifyUseCase, error) {
	if classifier.NumClasses() != domain.NumCategories {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "new classify use case",
			fmt.Errorf("classifier has %d classes, want %d", classifier.NumClasses(), domain.NumCategories))
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &ClassifyUseCase{
		extractor:  extractor,
		normalizer: normalizer,
		features:   features,
		classifier: classifier,
		observer:   observer,
	}, nil
}

// Classify extracts text from doc and classifies it. Content is only read.
func (uc *ClassifyUseCase) Classify(ctx context.Context, doc domain.RawDocument) (*domain.ClassificationResult, error) {
	started := time.Now()
	result, err := uc.classifyDocument(ctx, doc, started)
	uc.observer.ObserveClassification(result, time.Since(started), err)
	return result, err
}

// ClassifyText skips extraction and classifies already extracted text.
func (uc *ClassifyUseCase) ClassifyText(_ context.Context, text string) (*domain.ClassificationResult, error) {
	started := time.Now()
	result, err := uc.classifyText(text, started)
	uc.observer.ObserveClassification(result, time.Since(started), err)
	return result, err
}

func (uc *ClassifyUseCase) classifyDocument(ctx context.Context, doc domain.RawDocument, started time.Time) (*domain.ClassificationResult, error) {
	if !doc.Format.Supported() {
		return nil, domain.WrapError(domain.ErrExtraction, "classify", fmt.Errorf("unsupported format %q", doc.Format))
	}
	text, err := uc.extractor.Extract(ctx, doc.Format, doc.Content)
	if err != nil {
		if domain.IsKind(err, domain.ErrExtraction) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrExtraction, "extract "+string(doc.Format), err)
	}
	return uc.classifyText(text, started)
}

func (uc *ClassifyUseCase) classifyText(text string, started time.Time) (*domain.ClassificationResult, error) {
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < MinTextRunes {
		return nil, domain.WrapError(domain.ErrInsufficientText, "classify",
			fmt.Errorf("extracted %d characters, need at least %d", n, MinTextRunes))
	}

	normalized := uc.normalizer.Normalize(text)
	vector := uc.features.Transform(normalized.Tokens)
	idx, probs := uc.classifier.Predict(vector)

	category, err := domain.CategoryFromIndex(idx)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if len(probs) != domain.NumCategories {
		return nil, fmt.Errorf("classify: classifier returned %d probabilities, want %d", len(probs), domain.NumCategories)
	}

	all := make(map[string]float64, domain.NumCategories)
	for _, c := range domain.Categories() {
		all[c.String()] = round3(probs[c.Index()])
	}

	elapsed := time.Since(started)
	return &domain.ClassificationResult{
		Category:         category.String(),
		Confidence:       round3(probs[idx]),
		ProcessingTime:   round3(elapsed.Seconds()),
		AllProbabilities: all,
		Duration:         elapsed,
		Degraded:         normalized.Fallback,
	}, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

type noopObserver struct{}

func (noopObserver) ObserveClassification(*domain.ClassificationResult, time.Duration, error) {}
