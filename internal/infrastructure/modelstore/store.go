package modelstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/core/ports"
	"github.com/kirillkom/docclass/internal/infrastructure/ml/forest"
	"github.com/kirillkom/docclass/internal/infrastructure/ml/tfidf"
)

type Source string

const (
	SourceLoaded    Source = "loaded"
	SourceBootstrap Source = "bootstrap"
)

// Pair is a feature model and the classifier fitted on its output. Both are
// immutable and safe to share across goroutines.
type Pair struct {
	Vectorizer *tfidf.Vectorizer
	Classifier *forest.Forest
	Source     Source
}

type Option func(*Store)

// WithSeedCorpus replaces the embedded bootstrap corpus.
func WithSeedCorpus(corpus *SeedCorpus) Option {
	return func(s *Store) { s.seed = corpus }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store owns the process-wide model pair. The first LoadOrBootstrap call
// loads the artifacts or bootstraps a replacement; every later call returns
// the cached outcome without touching disk.
type Store struct {
	storage    ports.ArtifactStorage
	normalizer ports.TextNormalizer
	seed       *SeedCorpus
	logger     *slog.Logger

	once sync.Once
	pair *Pair
	err  error

	bootstraps atomic.Int64
}

func New(storage ports.ArtifactStorage, normalizer ports.TextNormalizer, opts ...Option) *Store {
	s := &Store{storage: storage, normalizer: normalizer, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// LoadOrBootstrap returns the cached pair. A non-nil pair may come with an
// ErrPersistence error: the bootstrapped model is usable but was not saved.
// A nil pair always comes with ErrModelUnavailable.
func (s *Store) LoadOrBootstrap(ctx context.Context) (*Pair, error) {
	s.once.Do(func() {
		s.pair, s.err = s.loadOrBootstrap(ctx)
	})
	return s.pair, s.err
}

// Rebuild bootstraps and persists a fresh pair regardless of what is on
// disk. The cached pair of LoadOrBootstrap is not replaced.
func (s *Store) Rebuild(ctx context.Context) (*Pair, error) {
	return s.bootstrapAndPersist(ctx)
}

// Bootstraps reports how many bootstrap fits this store has run.
func (s *Store) Bootstraps() int64 {
	return s.bootstraps.Load()
}

func (s *Store) loadOrBootstrap(ctx context.Context) (*Pair, error) {
	started := time.Now()
	pair, err := loadPair(ctx, s.storage)
	if err == nil {
		s.logger.Info("model_loaded",
			"features", pair.Vectorizer.Dimension(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return pair, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("model_artifacts_missing", "error", err)
	} else {
		s.logger.Warn("model_artifacts_unusable", "error", err)
	}
	return s.bootstrapAndPersist(ctx)
}

func (s *Store) bootstrapAndPersist(ctx context.Context) (*Pair, error) {
	pair, err := s.bootstrap()
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "bootstrap model", err)
	}
	if err := savePair(ctx, s.storage, pair); err != nil {
		s.logger.Warn("model_persist_failed", "error", err)
		return pair, domain.WrapError(domain.ErrPersistence, "persist model", err)
	}
	s.logger.Info("model_bootstrapped", "features", pair.Vectorizer.Dimension())
	return pair, nil
}

func (s *Store) bootstrap() (*Pair, error) {
	s.bootstraps.Add(1)

	corpus := s.seed
	if corpus == nil {
		var err error
		if corpus, err = DefaultSeedCorpus(); err != nil {
			return nil, err
		}
	} else if err := corpus.Validate(); err != nil {
		return nil, err
	}

	texts, labels := corpus.Labeled()
	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = s.normalizer.Normalize(text).Tokens
	}

	vectorizer, err := tfidf.Fit(docs, tfidf.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	x := make([][]float64, len(docs))
	for i, doc := range docs {
		x[i] = vectorizer.Transform(doc)
	}
	classifier, err := forest.Fit(x, labels, domain.NumCategories, forest.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	return &Pair{Vectorizer: vectorizer, Classifier: classifier, Source: SourceBootstrap}, nil
}
