// internal/backend/backend.go
package backend

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
)

// Kind identifies one of the two native runtime variants.
type Kind int

const (
	// Graph executes ONNX graphs through ONNX Runtime.
	Graph Kind = iota + 1
	// Script executes serialized network programs through the OpenCV DNN module.
	Script
)

func (k Kind) String() string {
	switch k {
	case Graph:
		return "onnx"
	case Script:
		return "libtorch"
	default:
		return fmt.Sprintf("backend(%d)", int(k))
	}
}

var (
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrNotBuilt           = errors.New("backend not built")
	ErrModelNotFound      = errors.New("model file not found")
	ErrInvalidModel       = errors.New("invalid model")
	ErrRuntimeUnavailable = errors.New("native runtime unavailable")
	ErrAlreadyLoaded      = errors.New("model already loaded")
	ErrNotLoaded          = errors.New("model not loaded")
	ErrShapeMismatch      = errors.New("tensor shape mismatch")
	ErrInfer              = errors.New("inference failed")
)

// LoadError describes a failed model load. Err wraps one of the sentinel
// errors above so callers can tell a bad path from a missing runtime or a
// corrupt model file with errors.Is.
type LoadError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s model %q: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Options are load-time hints passed to a backend.
type Options struct {
	// Threads is the intra-op parallelism hint. Values <= 0 leave the runtime default.
	Threads int
	// UseCUDA requests GPU execution where the runtime supports it.
	UseCUDA bool
	// LibraryPath overrides the location of the ONNX Runtime shared library.
	LibraryPath string
	Logger      *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Backend is a single loaded model bound to one native runtime.
//
// Both variants expect a model with exactly one input of shape
// [1, 3, H, W] and exactly one float output holding the class scores.
// Implementations are not safe for concurrent use.
type Backend interface {
	Kind() Kind
	// Load reads the model at modelPath. Failures are returned as *LoadError.
	Load(modelPath string, opts Options) error
	// Infer runs a forward pass and returns the flattened output scores.
	Infer(t preprocess.Tensor) ([]float32, error)
	// Close releases the loaded model. It is safe to call more than once.
	Close() error
}

// ParseKind maps a backend name to its Kind, ignoring case and surrounding space.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "onnx":
		return Graph, nil
	case "libtorch", "torch":
		return Script, nil
	default:
		return 0, fmt.Errorf("%w %q (expected onnx or libtorch)", ErrUnknownBackend, name)
	}
}

// New returns an unloaded backend of the given kind.
func New(kind Kind) (Backend, error) {
	if !Has(kind) {
		if kind != Graph && kind != Script {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, kind)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotBuilt, kind)
	}
	switch kind {
	case Graph:
		return newGraph(), nil
	default:
		return newScript(), nil
	}
}

func checkModelFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrModelNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return fmt.Errorf("%w: %w", ErrModelNotFound, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidModel, path)
	}
	return nil
}

// checkShape compares a tensor against the model's declared input
// dimensions; negative dimensions are dynamic and match anything.
func checkShape(declared []int64, t preprocess.Tensor) error {
	got := t.Shape()
	if len(declared) != len(got) {
		return fmt.Errorf("%w: model expects rank %d, got %v", ErrShapeMismatch, len(declared), got)
	}
	for i, d := range declared {
		if d >= 0 && d != got[i] {
			return fmt.Errorf("%w: model expects %v, got %v", ErrShapeMismatch, declared, got)
		}
	}
	if want := t.Channels * t.Height * t.Width; len(t.Data) != want {
		return fmt.Errorf("%w: tensor holds %d values, expected %d", ErrShapeMismatch, len(t.Data), want)
	}
	return nil
}
