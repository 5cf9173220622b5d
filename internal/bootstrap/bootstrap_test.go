package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/docclass/internal/config"
	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/infrastructure/modelstore"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewBootstrapsThenLoadsPersistedModel(t *testing.T) {
	cfg := config.Config{ModelDir: t.TempDir(), ClassifyTimeoutSeconds: 5}

	first, err := New(context.Background(), cfg, quietLogger(), prometheus.NewRegistry(), "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if first.Model.Source != modelstore.SourceBootstrap {
		t.Fatalf("expected bootstrap on empty dir, got %s", first.Model.Source)
	}
	for _, name := range []string{modelstore.VectorizerFile, modelstore.ClassifierFile} {
		if _, err := os.Stat(filepath.Join(cfg.ModelDir, name)); err != nil {
			t.Fatalf("artifact %s not written: %v", name, err)
		}
	}

	second, err := New(context.Background(), cfg, quietLogger(), nil, "test")
	if err != nil {
		t.Fatalf("New() second error = %v", err)
	}
	if second.Model.Source != modelstore.SourceLoaded {
		t.Fatalf("expected persisted model to load, got %s", second.Model.Source)
	}

	text := "The quarterly financial report shows revenue growth and budget allocation."
	a, err := first.ClassifyUC.ClassifyText(context.Background(), text)
	if err != nil {
		t.Fatalf("ClassifyText() error = %v", err)
	}
	b, err := second.ClassifyUC.ClassifyText(context.Background(), text)
	if err != nil {
		t.Fatalf("ClassifyText() error = %v", err)
	}
	if a.Category != b.Category || a.Confidence != b.Confidence {
		t.Fatalf("reloaded model disagrees: %+v vs %+v", a, b)
	}
}

func TestNewServesModelWhenDirectoryIsUnwritable(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(parent, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg := config.Config{ModelDir: filepath.Join(parent, "model"), ClassifyTimeoutSeconds: 5}

	app, err := New(context.Background(), cfg, quietLogger(), nil, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	report, err := app.EvaluateUC.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if report.TotalPredictions != 5 {
		t.Fatalf("expected 5 validation samples, got %d", report.TotalPredictions)
	}
}

func TestProcessUseCaseIsWired(t *testing.T) {
	app, err := New(context.Background(), config.Config{ModelDir: t.TempDir(), ClassifyTimeoutSeconds: 5}, quietLogger(), nil, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	event, err := app.ProcessUC.Process(context.Background(), domain.ClassifyRequest{Filename: "notes.txt", Content: []byte("x")})
	if err == nil || event.ErrorKind == "" {
		t.Fatalf("expected rejected request, got %+v, %v", event, err)
	}
}
