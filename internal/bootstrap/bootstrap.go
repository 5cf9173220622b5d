package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/docclass/internal/config"
	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/core/ports"
	"github.com/kirillkom/docclass/internal/core/usecase"
	"github.com/kirillkom/docclass/internal/infrastructure/extractor/document"
	"github.com/kirillkom/docclass/internal/infrastructure/modelstore"
	"github.com/kirillkom/docclass/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docclass/internal/infrastructure/resilience"
	"github.com/kirillkom/docclass/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docclass/internal/infrastructure/textproc"
	"github.com/kirillkom/docclass/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Store *modelstore.Store
	Model *modelstore.Pair

	ClassifyUC *usecase.ClassifyUseCase
	EvaluateUC *usecase.EvaluateUseCase
	ProcessUC  *usecase.ProcessRequestUseCase
}

// NewModelStore returns the artifact store for cfg.ModelDir backed by the
// embedded seed corpus. Nothing is loaded or trained until it is asked to.
func NewModelStore(cfg config.Config, normalizer ports.TextNormalizer, logger *slog.Logger) (*modelstore.Store, error) {
	corpus, err := modelstore.DefaultSeedCorpus()
	if err != nil {
		return nil, fmt.Errorf("load seed corpus: %w", err)
	}
	return modelstore.New(
		localfs.New(cfg.ModelDir),
		normalizer,
		modelstore.WithSeedCorpus(corpus),
		modelstore.WithLogger(logger),
	), nil
}

// New builds the classification pipeline. Artifacts are loaded from
// cfg.ModelDir or bootstrapped from the seed corpus; a pair that could not be
// persisted is still served. registerer may be nil.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, registerer prometheus.Registerer, service string) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	normalizer := textproc.NewNormalizer(logger)
	store, err := NewModelStore(cfg, normalizer, logger)
	if err != nil {
		return nil, err
	}

	pair, err := store.LoadOrBootstrap(ctx)
	switch {
	case pair == nil:
		return nil, fmt.Errorf("load model: %w", err)
	case domain.IsKind(err, domain.ErrPersistence):
		logger.Warn("model_not_persisted", "model_dir", cfg.ModelDir, "error", err)
	case err != nil:
		return nil, fmt.Errorf("load model: %w", err)
	}

	var observer ports.ClassificationObserver
	if registerer != nil {
		observer = metrics.NewClassificationMetrics(service, registerer)
	}
	classifyUC, err := usecase.NewClassifyUseCase(
		document.NewExtractor(),
		normalizer,
		pair.Vectorizer,
		pair.Classifier,
		observer,
	)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	logger.Info("model_ready",
		"source", pair.Source,
		"features", pair.Vectorizer.Dimension(),
		"classes", pair.Classifier.NumClasses(),
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Model:      pair,
		ClassifyUC: classifyUC,
		EvaluateUC: usecase.NewEvaluateUseCase(classifyUC, corpus.Validation),
		ProcessUC:  usecase.NewProcessRequestUseCase(classifyUC, cfg.ClassifyTimeout()),
	}, nil
}

// NewQueue connects to NATS with retries and a circuit breaker around
// result publishing.
func NewQueue(cfg config.Config, logger *slog.Logger) (*nats.Queue, error) {
	queue, err := nats.NewWithOptions(cfg.NATSURL, nats.Subjects{
		Classify:   cfg.NATSClassifySubject,
		Result:     cfg.NATSResultSubject,
		QueueGroup: cfg.NATSQueueGroup,
	}, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.PublishConfig(), logger),
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	return queue, nil
}
