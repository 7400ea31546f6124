// internal/handler/handler.go
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/SyedDaiam9101/classifier-service/internal/cache"
	"github.com/SyedDaiam9101/classifier-service/internal/imageio"
	"github.com/SyedDaiam9101/classifier-service/internal/inference"
	"github.com/SyedDaiam9101/classifier-service/internal/labels"
	"github.com/SyedDaiam9101/classifier-service/internal/metrics"
	"github.com/SyedDaiam9101/classifier-service/internal/middleware"
	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
	"github.com/SyedDaiam9101/classifier-service/internal/topk"
)

// DefaultTopK is used when a request does not choose k.
const DefaultTopK = 5

// ResultCache stores top-k results keyed by cache.Key.
// *cache.Cache implements it.
type ResultCache interface {
	GetResult(ctx context.Context, key string) (topk.Result, bool, error)
	SetResult(ctx context.Context, key string, res topk.Result, ttl time.Duration) error
}

// Prediction is the response body of a successful classification.
type Prediction struct {
	TopIndices []int     `json:"top_indices"`
	TopScores  []float32 `json:"top_scores"`
	TopLabels  []string  `json:"top_labels"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves classification requests for the HTTP and gRPC surfaces.
// It uses the Classifier interface for flexibility and testability.
type Handler struct {
	classifier inference.Classifier
	labels     []string
	cache      ResultCache
	ttl        time.Duration
	log        *zap.Logger
	decode     func(path string) (preprocess.Image, error)
}

// New creates a new Handler. cache may be nil to disable result caching.
func New(classifier inference.Classifier, labelNames []string, cache ResultCache, ttl time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		classifier: classifier,
		labels:     labelNames,
		cache:      cache,
		ttl:        ttl,
		log:        log,
		decode:     imageio.Decode,
	}
}

// Predict handles POST /predict?file=<path>[&k=<n>].
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	query := r.URL.Query()
	k := DefaultTopK
	if raw := query.Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "k must be an integer"})
			return
		}
		k = n
	}

	pred, err := h.classify(r.Context(), query.Get("file"), k)
	if err != nil {
		writeJSON(w, httpStatus(err), errorResponse{Error: httpMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// Health always answers 200 while the process is up.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready answers 200 once a backend is active and 503 before.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if h.classifier == nil || !h.classifier.Initialized() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "backend": h.classifier.Backend()})
}

// classify decodes the image at path and returns its labelled top-k classes,
// consulting the result cache when one is configured.
func (h *Handler) classify(ctx context.Context, path string, k int) (*Prediction, error) {
	start := time.Now()

	requestID := middleware.GetRequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	log := h.log.With(zap.String("request_id", requestID))

	if path == "" {
		return nil, errMissingFile
	}
	if h.classifier == nil {
		return nil, inference.ErrNotInitialized
	}

	img, err := h.decode(path)
	if err != nil {
		log.Warn("image decode failed", zap.String("file", path), zap.Error(err))
		return nil, err
	}

	var key string
	if h.cache != nil {
		key = cache.Key(h.classifier.Backend(), img, k)
		res, ok, err := h.cache.GetResult(ctx, key)
		switch {
		case err != nil:
			metrics.RecordCacheError()
			log.Warn("cache lookup failed", zap.Error(err))
		case ok:
			metrics.RecordCacheHit()
			log.Debug("cache hit", zap.String("file", path), zap.Int("k", k))
			return h.prediction(res), nil
		default:
			metrics.RecordCacheMiss()
		}
	}

	res, err := h.classifier.Classify(ctx, img, k)
	if err != nil {
		log.Error("classification failed", zap.String("file", path), zap.Int("k", k), zap.Error(err))
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetResult(ctx, key, res, h.ttl); err != nil {
			log.Warn("cache store failed", zap.Error(err))
		}
	}

	log.Info("classified",
		zap.String("file", path),
		zap.Int("k", k),
		zap.Ints("top_indices", res.Indices),
		zap.Duration("latency", time.Since(start)))

	return h.prediction(res), nil
}

func (h *Handler) prediction(res topk.Result) *Prediction {
	return &Prediction{
		TopIndices: res.Indices,
		TopScores:  res.Scores,
		TopLabels:  labels.Names(h.labels, res.Indices),
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
