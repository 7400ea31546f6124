// internal/inference/engine.go
package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/SyedDaiam9101/classifier-service/internal/backend"
	"github.com/SyedDaiam9101/classifier-service/internal/metrics"
	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
	"github.com/SyedDaiam9101/classifier-service/internal/topk"
)

const tracerName = "github.com/SyedDaiam9101/classifier-service/internal/inference"

var (
	// ErrNotInitialized is returned by Classify before a successful Init.
	ErrNotInitialized = errors.New("engine not initialized")
	// ErrAlreadyInitialized is returned by Init once a backend is active.
	ErrAlreadyInitialized = errors.New("engine already initialized")
)

// BackendFactory creates an unloaded backend of the given kind.
type BackendFactory func(backend.Kind) (backend.Backend, error)

// Engine owns exactly one loaded backend, chosen once by Init.
// Classify calls are serialized with a mutex because neither native runtime
// guarantees a reentrant session.
type Engine struct {
	mu         sync.Mutex
	impl       backend.Backend
	newBackend BackendFactory
	log        *zap.Logger
	tracer     trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. It is also handed to the backend
// unless Init receives one explicitly.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithBackendFactory replaces backend.New, mainly for tests.
func WithBackendFactory(f BackendFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.newBackend = f
		}
	}
}

// NewEngine returns an uninitialized engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		newBackend: backend.New,
		log:        zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init selects the backend named by name ("onnx", "libtorch" or "torch",
// case-insensitive) and loads modelPath into it.
//
// Unknown names fail with backend.ErrUnknownBackend. Load failures, including
// a variant compiled out of the binary, are returned as *backend.LoadError.
// A second Init on an initialized engine fails with ErrAlreadyInitialized and
// leaves the active backend in place.
func (e *Engine) Init(name, modelPath string, opts backend.Options) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.impl != nil {
		return fmt.Errorf("%w with %s backend", ErrAlreadyInitialized, e.impl.Kind())
	}

	kind, err := backend.ParseKind(name)
	if err != nil {
		return err
	}

	impl, err := e.newBackend(kind)
	if err != nil {
		return &backend.LoadError{Kind: kind, Path: modelPath, Err: err}
	}

	if opts.Logger == nil {
		opts.Logger = e.log
	}

	start := time.Now()
	if err := impl.Load(modelPath, opts); err != nil {
		if closeErr := impl.Close(); closeErr != nil {
			e.log.Warn("failed to release backend after load error", zap.Error(closeErr))
		}
		var loadErr *backend.LoadError
		if !errors.As(err, &loadErr) {
			err = &backend.LoadError{Kind: kind, Path: modelPath, Err: err}
		}
		return err
	}

	e.impl = impl
	metrics.SetBackendLoaded(kind.String(), true)
	e.log.Info("inference engine initialized",
		zap.String("backend", kind.String()),
		zap.String("model", modelPath),
		zap.Int("threads", opts.Threads),
		zap.Duration("load_time", time.Since(start)))
	return nil
}

// Initialized reports whether a backend is active.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.impl != nil
}

// Backend returns the active backend name, or "" before Init.
func (e *Engine) Backend() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.impl == nil {
		return ""
	}
	return e.impl.Kind().String()
}

// Classify preprocesses img to the 224x224 ImageNet tensor, runs the active
// backend and returns the k highest scores.
func (e *Engine) Classify(ctx context.Context, img preprocess.Image, k int) (res topk.Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.impl == nil {
		return topk.Result{}, ErrNotInitialized
	}
	name := e.impl.Kind().String()

	ctx, span := e.tracer.Start(ctx, "inference.Classify", trace.WithAttributes(
		attribute.String("backend", name),
		attribute.Int("k", k),
		attribute.Int("image.width", img.Width),
		attribute.Int("image.height", img.Height),
	))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.RecordClassification(name, outcome)
		span.End()
	}()

	if k <= 0 {
		return topk.Result{}, fmt.Errorf("%w: k=%d", topk.ErrInvalidArgument, k)
	}

	_, prepSpan := e.tracer.Start(ctx, "preprocess")
	prepStart := time.Now()
	tensor, err := preprocess.ImageNet(img)
	metrics.RecordPreprocessLatency(time.Since(prepStart).Seconds())
	prepSpan.End()
	if err != nil {
		return topk.Result{}, err
	}

	_, inferSpan := e.tracer.Start(ctx, "infer")
	inferStart := time.Now()
	scores, err := e.impl.Infer(tensor)
	inferDuration := time.Since(inferStart)
	metrics.RecordInferenceLatency(name, inferDuration.Seconds())
	inferSpan.End()
	if err != nil {
		return topk.Result{}, err
	}

	res, err = topk.Select(scores, k)
	if err != nil {
		return topk.Result{}, err
	}

	e.log.Debug("classified image",
		zap.String("backend", name),
		zap.Int("classes", len(scores)),
		zap.Ints("top_indices", res.Indices),
		zap.Duration("inference", inferDuration))
	return res, nil
}

// Close releases the backend. Classify fails with ErrNotInitialized afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.impl == nil {
		return nil
	}
	kind := e.impl.Kind()
	err := e.impl.Close()
	e.impl = nil
	metrics.SetBackendLoaded(kind.String(), false)
	if err != nil {
		return fmt.Errorf("failed to close %s backend: %w", kind, err)
	}
	return nil
}

// Ensure Engine implements Classifier at compile time
var _ Classifier = (*Engine)(nil)
