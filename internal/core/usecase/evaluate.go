package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/core/ports"
)

// EvaluateUseCase scores the active model against a fixed set of labelled
// validation texts.
type EvaluateUseCase struct {
	classifier ports.DocumentClassifier
	samples    []domain.EvaluationSample
}

func NewEvaluateUseCase(classifier ports.DocumentClassifier, samples []domain.EvaluationSample) *EvaluateUseCase {
	return &EvaluateUseCase{
		classifier: classifier,
		samples:    append([]domain.EvaluationSample(nil), samples...),
	}
}

func (uc *EvaluateUseCase) Evaluate(ctx context.Context) (*domain.EvaluationReport, error) {
	if len(uc.samples) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "evaluate", errors.New("no validation samples"))
	}

	report := &domain.EvaluationReport{
		TotalPredictions: len(uc.samples),
		Samples:          make([]domain.EvaluationSample, 0, len(uc.samples)),
	}
	for _, sample := range uc.samples {
		result, err := uc.classifier.ClassifyText(ctx, sample.Text)
		if err != nil {
			return nil, fmt.Errorf("evaluate %q: %w", sample.Text, err)
		}
		sample.Predicted = result.Category
		sample.Confidence = result.Confidence
		sample.Correct = result.Category == sample.Expected
		if sample.Correct {
			report.CorrectPredictions++
		}
		report.Samples = append(report.Samples, sample)
	}
	report.Accuracy = round3(float64(report.CorrectPredictions) / float64(report.TotalPredictions))
	return report, nil
}
