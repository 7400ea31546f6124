// internal/backend/notbuilt.go
package backend

import (
	"fmt"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
)

// notBuilt stands in for a variant that was compiled out of the binary.
type notBuilt struct {
	kind Kind
}

func (n notBuilt) Kind() Kind { return n.kind }

func (n notBuilt) Load(modelPath string, _ Options) error {
	return &LoadError{Kind: n.kind, Path: modelPath, Err: ErrNotBuilt}
}

func (n notBuilt) Infer(preprocess.Tensor) ([]float32, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotBuilt, n.kind)
}

func (n notBuilt) Close() error { return nil }
