package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/docclass/internal/config"
	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/core/ports"
	"github.com/kirillkom/docclass/internal/observability/metrics"
)

const serviceName = "docclass-api"

type Router struct {
	cfg        config.Config
	classifier ports.DocumentClassifier
	metrics    *metrics.HTTPServerMetrics
	openAPI    []byte
	now        func() time.Time
}

// NewRouter fails only if the embedded API contract is invalid. A nil
// classifier serves /status with model_loaded=false and answers /classify
// with 503.
func NewRouter(cfg config.Config, classifier ports.DocumentClassifier, httpMetrics *metrics.HTTPServerMetrics) (*Router, error) {
	_, rendered, err := loadOpenAPIDocument()
	if err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 16 << 20
	}
	return &Router{
		cfg:        cfg,
		classifier: classifier,
		metrics:    httpMetrics,
		openAPI:    rendered,
		now:        time.Now,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, accessLogMiddleware)
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(serviceName, next)
		})
	}
	r.Use(corsMiddleware(rt.cfg.CORSAllowedOrigins))
	r.Use(func(next http.Handler) http.Handler {
		return rateLimitMiddleware(next, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	})
	r.Use(func(next http.Handler) http.Handler {
		wait := time.Duration(rt.cfg.APIBackpressureWaitMS) * time.Millisecond
		return backpressureMiddleware(next, rt.cfg.APIMaxInFlight, wait)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/status", rt.status)
	r.Get("/categories", rt.categories)
	r.Get("/openapi.json", rt.openAPISpec)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}
	r.Group(func(r chi.Router) {
		r.Use(bearerAuthMiddleware(rt.cfg.APIToken))
		r.Post("/classify", rt.classify)
	})
	return r
}

func (rt *Router) status(w http.ResponseWriter, _ *http.Request) {
	formats := make([]string, 0, len(domain.SupportedFormats()))
	for _, f := range domain.SupportedFormats() {
		formats = append(formats, string(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"timestamp":         float64(rt.now().UnixMilli()) / 1000,
		"model_loaded":      rt.classifier != nil,
		"supported_formats": formats,
		"categories":        domain.CategoryNames(),
	})
}

func (rt *Router) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": domain.CategoryNames()})
}

func (rt *Router) openAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rt.openAPI)
}

type classifyResponse struct {
	*domain.ClassificationResult
	Filename string `json:"filename"`
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(rt.cfg.MaxUploadBytes); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, rt.tooLargeMessage())
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}
	format, ok := domain.FormatFromFilename(header.Filename)
	if !ok {
		writeError(w, http.StatusBadRequest, "File type not supported. Allowed: "+strings.Join(allowedExtensions(), ", "))
		return
	}
	if rt.classifier == nil {
		writeDomainError(w, domain.WrapError(domain.ErrModelUnavailable, "classify", errors.New("model not loaded")))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, string(format), int64(len(content)))
	}

	filename := sanitizeFilename(header.Filename)
	result, err := rt.classifier.Classify(r.Context(), domain.RawDocument{
		Filename: filename,
		Format:   format,
		Content:  content,
	})
	if err != nil {
		slog.Warn("classification_failed",
			"request_id", requestIDFromContext(r.Context()),
			"filename", filename,
			"error_kind", domain.ErrorKind(err),
			"error", err,
		)
		writeDomainError(w, err)
		return
	}

	slog.Info("classification_complete",
		"request_id", requestIDFromContext(r.Context()),
		"filename", filename,
		"category", result.Category,
		"confidence", result.Confidence,
		"degraded", result.Degraded,
	)
	writeJSON(w, http.StatusOK, classifyResponse{ClassificationResult: result, Filename: filename})
}

func (rt *Router) tooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size: %dMB", rt.cfg.MaxUploadBytes>>20)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func allowedExtensions() []string {
	out := make([]string, 0, len(domain.SupportedFormats()))
	for _, f := range domain.SupportedFormats() {
		out = append(out, string(f))
	}
	return out
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	base = strings.TrimLeft(base, ".")
	if base == "" {
		return "document.bin"
	}
	return base
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
