package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/core/ports"
)

// ProcessRequestUseCase runs queued classification jobs. Failures are
// reported inside the returned event rather than as errors, so every
// request gets an answer.
type ProcessRequestUseCase struct {
	classifier ports.DocumentClassifier
	timeout    time.Duration
}

func NewProcessRequestUseCase(classifier ports.DocumentClassifier, timeout time.Duration) *ProcessRequestUseCase {
	return &ProcessRequestUseCase{classifier: classifier, timeout: timeout}
}

func (uc *ProcessRequestUseCase) Process(ctx context.Context, req domain.ClassifyRequest) (domain.ClassifiedEvent, error) {
	event := domain.ClassifiedEvent{RequestID: req.RequestID, Filename: req.Filename}
	if event.RequestID == "" {
		event.RequestID = uuid.NewString()
	}

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	format, _ := domain.FormatFromFilename(req.Filename)
	result, err := uc.classifyWithin(ctx, domain.RawDocument{
		Filename: req.Filename,
		Format:   format,
		Content:  req.Content,
	})
	if err != nil {
		event.ErrorKind = domain.ErrorKind(err)
		event.Error = err.Error()
		return event, err
	}
	event.Result = result
	return event, nil
}

// classifyWithin abandons the call once ctx expires. The pipeline has no
// cancellation points, so the goroutine finishes on its own.
func (uc *ProcessRequestUseCase) classifyWithin(ctx context.Context, doc domain.RawDocument) (*domain.ClassificationResult, error) {
	type outcome struct {
		result *domain.ClassificationResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("classify panic: %v", r)}
			}
		}()
		result, err := uc.classifier.Classify(ctx, doc)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, domain.WrapError(domain.ErrTemporary, "classify", ctx.Err())
	}
}
