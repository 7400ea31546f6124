// internal/backend/mock.go
package backend

import (
	"fmt"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
)

// Mock is a Backend for tests. It returns Scores from every Infer call
// without touching a native runtime.
type Mock struct {
	// KindValue is reported by Kind
	KindValue Kind
	// Scores is returned (copied) by Infer
	Scores []float32
	// LoadErr, when set, is returned by Load wrapped in a *LoadError
	LoadErr error
	// ShouldError makes Infer fail with ErrorMessage
	ShouldError  bool
	ErrorMessage string

	Loaded      bool
	Closed      bool
	LoadCount   int
	InferCount  int
	LastPath    string
	LastOptions Options
	LastTensor  preprocess.Tensor
}

// NewMock creates a Mock of the given kind returning scores.
func NewMock(kind Kind, scores []float32) *Mock {
	return &Mock{KindValue: kind, Scores: scores}
}

func (m *Mock) Kind() Kind { return m.KindValue }

func (m *Mock) Load(modelPath string, opts Options) error {
	m.LoadCount++
	m.LastPath = modelPath
	m.LastOptions = opts
	if m.LoadErr != nil {
		return &LoadError{Kind: m.KindValue, Path: modelPath, Err: m.LoadErr}
	}
	if m.Loaded {
		return &LoadError{Kind: m.KindValue, Path: modelPath, Err: ErrAlreadyLoaded}
	}
	m.Loaded = true
	return nil
}

func (m *Mock) Infer(t preprocess.Tensor) ([]float32, error) {
	m.InferCount++
	m.LastTensor = t
	if !m.Loaded {
		return nil, fmt.Errorf("%w: mock", ErrNotLoaded)
	}
	if m.ShouldError {
		if m.ErrorMessage != "" {
			return nil, fmt.Errorf("%w: %s", ErrInfer, m.ErrorMessage)
		}
		return nil, fmt.Errorf("%w: mock inference error", ErrInfer)
	}
	return append([]float32(nil), m.Scores...), nil
}

func (m *Mock) Close() error {
	m.Loaded = false
	m.Closed = true
	return nil
}

// SetError configures Infer to fail with msg.
func (m *Mock) SetError(msg string) {
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error.
func (m *Mock) ClearError() {
	m.ShouldError = false
	m.ErrorMessage = ""
}

var _ Backend = (*Mock)(nil)
