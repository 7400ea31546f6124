// internal/inference/interface.go
package inference

import (
	"context"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
	"github.com/SyedDaiam9101/classifier-service/internal/topk"
)

// Classifier defines the interface for classifying a single decoded image.
// This abstraction allows for easy mocking in tests and swapping implementations.
type Classifier interface {
	// Classify preprocesses img, runs the model and returns the k best classes.
	Classify(ctx context.Context, img preprocess.Image, k int) (topk.Result, error)

	// Backend returns the name of the active backend, or "" before initialization.
	Backend() string

	// Initialized reports whether a backend is loaded and Classify can succeed.
	Initialized() bool

	// Close releases any resources held by the classifier.
	Close() error
}
