// internal/inference/mock.go
package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
	"github.com/SyedDaiam9101/classifier-service/internal/topk"
)

// MockClassifier is a mock implementation of Classifier for testing.
// It returns deterministic top-k results without requiring a native runtime.
type MockClassifier struct {
	mu sync.Mutex

	// Scores are the raw class scores the mock "model" produces
	Scores []float32
	// BackendName is returned by Backend
	BackendName string
	// NotReady makes Initialized report false
	NotReady bool
	// Err, when set, is returned by Classify unchanged
	Err error
	// ShouldError if true, Classify will return an error built from ErrorMessage
	ShouldError  bool
	ErrorMessage string
	// CallCount tracks the number of times Classify was called
	CallCount int
	// LastK is the k of the most recent call
	LastK int
}

// NewMock creates a new MockClassifier with scores [0.1, 0.5, 0.2, 0.9, 0.05, 0.3]
func NewMock() *MockClassifier {
	return &MockClassifier{
		Scores:      []float32{0.1, 0.5, 0.2, 0.9, 0.05, 0.3},
		BackendName: "mock",
	}
}

// NewMockWithScores creates a MockClassifier with custom scores
func NewMockWithScores(scores []float32) *MockClassifier {
	return &MockClassifier{
		Scores:      scores,
		BackendName: "mock",
	}
}

// Classify validates the image like the real engine does and selects the
// top k of Scores.
func (m *MockClassifier) Classify(_ context.Context, img preprocess.Image, k int) (topk.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastK = k

	if m.Err != nil {
		return topk.Result{}, m.Err
	}
	if m.ShouldError {
		if m.ErrorMessage != "" {
			return topk.Result{}, fmt.Errorf("%s", m.ErrorMessage)
		}
		return topk.Result{}, fmt.Errorf("mock inference error")
	}
	if err := img.Validate(); err != nil {
		return topk.Result{}, err
	}
	return topk.Select(m.Scores, k)
}

// Backend returns BackendName
func (m *MockClassifier) Backend() string {
	return m.BackendName
}

// Initialized reports !NotReady
func (m *MockClassifier) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.NotReady
}

// Close is a no-op for the mock implementation
func (m *MockClassifier) Close() error {
	return nil
}

// SetError configures the mock to return an error on the next Classify call
func (m *MockClassifier) SetError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *MockClassifier) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = false
	m.ErrorMessage = ""
	m.Err = nil
}

// Calls returns CallCount under the lock
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Ensure MockClassifier implements Classifier at compile time
var _ Classifier = (*MockClassifier)(nil)
