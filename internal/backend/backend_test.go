// internal/backend/backend_test.go
package backend

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"onnx":     Graph,
		"ONNX":     Graph,
		" Onnx ":   Graph,
		"libtorch": Script,
		"LibTorch": Script,
		"torch":    Script,
		"TORCH":    Script,
	}
	for name, want := range cases {
		got, err := ParseKind(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestParseKind_Unknown(t *testing.T) {
	for _, name := range []string{"tensorrt", "", "onnxruntime", "tf"} {
		_, err := ParseKind(name)
		assert.ErrorIs(t, err, ErrUnknownBackend, name)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "onnx", Graph.String())
	assert.Equal(t, "libtorch", Script.String())
	assert.Equal(t, "backend(9)", Kind(9).String())
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(Kind(42))
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNew_MatchesAvailability(t *testing.T) {
	for _, k := range []Kind{Graph, Script} {
		b, err := New(k)
		if Has(k) {
			require.NoError(t, err)
			assert.Equal(t, k, b.Kind())
			assert.Contains(t, Available(), k.String())
		} else {
			assert.ErrorIs(t, err, ErrNotBuilt)
			assert.NotContains(t, Available(), k.String())
		}
	}
}

func TestLoad_MissingModel(t *testing.T) {
	for _, k := range []Kind{Graph, Script} {
		if !Has(k) {
			continue
		}
		b, err := New(k)
		require.NoError(t, err)

		err = b.Load(filepath.Join(t.TempDir(), "missing.onnx"), Options{Threads: 1})
		require.Error(t, err)

		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, k, loadErr.Kind)
		assert.ErrorIs(t, err, ErrModelNotFound)
		assert.NoError(t, b.Close())
	}
}

func TestLoad_DirectoryIsInvalid(t *testing.T) {
	for _, k := range []Kind{Graph, Script} {
		if !Has(k) {
			continue
		}
		b, err := New(k)
		require.NoError(t, err)
		err = b.Load(t.TempDir(), Options{})
		assert.ErrorIs(t, err, ErrInvalidModel)
	}
}

func TestInfer_BeforeLoad(t *testing.T) {
	tensor := preprocess.Tensor{Channels: 3, Height: 2, Width: 2, Data: make([]float32, 12)}
	for _, k := range []Kind{Graph, Script} {
		if !Has(k) {
			continue
		}
		b, err := New(k)
		require.NoError(t, err)
		_, err = b.Infer(tensor)
		assert.ErrorIs(t, err, ErrNotLoaded)
	}
}

func TestNotBuilt(t *testing.T) {
	nb := notBuilt{kind: Script}
	err := nb.Load("model.pt", Options{})
	assert.ErrorIs(t, err, ErrNotBuilt)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "model.pt", loadErr.Path)

	_, err = nb.Infer(preprocess.Tensor{})
	assert.ErrorIs(t, err, ErrNotBuilt)
	assert.NoError(t, nb.Close())
}

func TestLoadErrorMessage(t *testing.T) {
	err := &LoadError{Kind: Graph, Path: "m.onnx", Err: ErrInvalidModel}
	assert.True(t, strings.HasPrefix(err.Error(), `load onnx model "m.onnx"`))
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestCheckShape(t *testing.T) {
	tensor := preprocess.Tensor{Channels: 3, Height: 4, Width: 4, Data: make([]float32, 48)}

	assert.NoError(t, checkShape([]int64{1, 3, 4, 4}, tensor))
	assert.NoError(t, checkShape([]int64{-1, 3, -1, -1}, tensor))
	assert.ErrorIs(t, checkShape([]int64{1, 3, 224, 224}, tensor), ErrShapeMismatch)
	assert.ErrorIs(t, checkShape([]int64{1, 3, 4}, tensor), ErrShapeMismatch)

	tensor.Data = tensor.Data[:10]
	assert.ErrorIs(t, checkShape([]int64{1, 3, 4, 4}, tensor), ErrShapeMismatch)
}

func TestMock(t *testing.T) {
	m := NewMock(Graph, []float32{0.1, 0.9})

	_, err := m.Infer(preprocess.Tensor{})
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, m.Load("model.onnx", Options{Threads: 4}))
	assert.Equal(t, 4, m.LastOptions.Threads)
	assert.ErrorIs(t, m.Load("model.onnx", Options{}), ErrAlreadyLoaded)

	scores, err := m.Infer(preprocess.Tensor{})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.9}, scores)

	m.SetError("boom")
	_, err = m.Infer(preprocess.Tensor{})
	assert.ErrorIs(t, err, ErrInfer)
	assert.Contains(t, err.Error(), "boom")

	m.ClearError()
	require.NoError(t, m.Close())
	assert.True(t, m.Closed)
}
