package ports

import (
	"context"

	"github.com/kirillkom/docclass/internal/core/domain"
)

// DocumentClassifier is the inbound contract for synchronous document classification.
type DocumentClassifier interface {
	Classify(ctx context.Context, doc domain.RawDocument) (*domain.ClassificationResult, error)
	ClassifyText(ctx context.Context, text string) (*domain.ClassificationResult, error)
}

// ModelEvaluator scores the loaded model against a labelled validation set.
type ModelEvaluator interface {
	Evaluate(ctx context.Context) (*domain.EvaluationReport, error)
}
