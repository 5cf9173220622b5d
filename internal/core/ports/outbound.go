package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/docclass/internal/core/domain"
)

// TextExtractor turns raw document bytes of a declared format into flat text.
type TextExtractor interface {
	Extract(ctx context.Context, format domain.Format, content []byte) (string, error)
}

// TextNormalizer produces the canonical token stream. It never fails; a
// degraded result is reported through NormalizedText.Fallback.
type TextNormalizer interface {
	Normalize(text string) domain.NormalizedText
}

// FeatureModel projects tokens into the fixed feature space it was fitted on.
type FeatureModel interface {
	Transform(tokens []string) []float64
	Dimension() int
}

// ProbabilisticClassifier maps a feature vector to a class index and a
// distribution aligned with the fixed category order.
type ProbabilisticClassifier interface {
	Predict(vector []float64) (int, []float64)
	NumClasses() int
}

// ArtifactStorage stores model artifact files under string keys.
type ArtifactStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ResultPublisher announces finished classifications to other services.
type ResultPublisher interface {
	PublishClassified(ctx context.Context, event domain.ClassifiedEvent) error
}

// ClassificationObserver receives one observation per classification call.
type ClassificationObserver interface {
	ObserveClassification(result *domain.ClassificationResult, duration time.Duration, err error)
}
