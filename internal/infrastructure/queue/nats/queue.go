package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/infrastructure/resilience"
)

// ClassifyHandler turns one request into its outcome. It must not panic and
// always returns an event, with ErrorKind set on failure.
type ClassifyHandler func(ctx context.Context, req domain.ClassifyRequest) domain.ClassifiedEvent

type Queue struct {
	conn     *nats.Conn
	subjects Subjects
	executor *resilience.Executor
	logger   *slog.Logger
}

type Subjects struct {
	Classify   string
	Result     string
	QueueGroup string
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url string, subjects Subjects) (*Queue, error) {
	return NewWithOptions(url, subjects, Options{})
}

func NewWithOptions(url string, subjects Subjects, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docclass-worker"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subjects: subjects.withDefaults(),
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (s Subjects) withDefaults() Subjects {
	if s.Classify == "" {
		s.Classify = "documents.classify"
	}
	if s.Result == "" {
		s.Result = "documents.classified"
	}
	if s.QueueGroup == "" {
		s.QueueGroup = "classifiers"
	}
	return s
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishClassified announces an outcome on the result subject.
func (q *Queue) PublishClassified(ctx context.Context, event domain.ClassifiedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode classified event: %w", err)
	}
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subjects.Result, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish_classified", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeClassify serves classify requests in the configured queue group
// until ctx is cancelled, then drains in-flight messages.
func (q *Queue) SubscribeClassify(ctx context.Context, handler ClassifyHandler) error {
	sub, err := q.conn.QueueSubscribe(q.subjects.Classify, q.subjects.QueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		event := handleClassifyMessage(handlerCtx, msg.Data, handler)
		if msg.Reply != "" {
			if err := respond(msg, event); err != nil {
				q.logger.Error("nats_reply_failed", "request_id", event.RequestID, "error", err)
			}
		}
		if err := q.PublishClassified(handlerCtx, event); err != nil {
			q.logger.Warn("classified_event_publish_failed", "request_id", event.RequestID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// RequestClassify submits a document and waits for the worker's reply.
func (q *Queue) RequestClassify(ctx context.Context, req domain.ClassifyRequest) (*domain.ClassifiedEvent, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode classify request: %w", err)
	}
	msg, err := q.conn.RequestWithContext(ctx, q.subjects.Classify, payload)
	if err != nil {
		return nil, wrapTemporaryIfNeeded(fmt.Errorf("nats request: %w", err))
	}
	var event domain.ClassifiedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return nil, fmt.Errorf("decode classify reply: %w", err)
	}
	return &event, nil
}

func respond(msg *nats.Msg, event domain.ClassifiedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	return msg.Respond(payload)
}

// handleClassifyMessage decodes a request and runs handler. Malformed
// payloads are answered with an invalid_input event instead of being dropped.
func handleClassifyMessage(ctx context.Context, data []byte, handler ClassifyHandler) domain.ClassifiedEvent {
	var req domain.ClassifyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		err = domain.WrapError(domain.ErrInvalidInput, "decode classify request", err)
		return domain.ClassifiedEvent{ErrorKind: domain.ErrorKind(err), Error: err.Error()}
	}
	if req.Filename == "" {
		err := domain.WrapError(domain.ErrInvalidInput, "decode classify request", errors.New("filename is required"))
		return domain.ClassifiedEvent{RequestID: req.RequestID, ErrorKind: domain.ErrorKind(err), Error: err.Error()}
	}
	return handler(ctx, req)
}
