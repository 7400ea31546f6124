//go:build !noort

// internal/backend/graph_ort.go
package backend

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
)

const graphEnabled = true

// The ONNX Runtime environment is process-wide in onnxruntime_go; each
// loaded graph backend holds one reference and the last release tears it down.
var (
	envMu   sync.Mutex
	envRefs int
)

func acquireEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 && !ort.IsInitialized() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("%w: failed to initialize ONNX environment: %w", ErrRuntimeUnavailable, err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		return nil
	}
	envRefs--
	if envRefs == 0 && ort.IsInitialized() {
		return ort.DestroyEnvironment()
	}
	return nil
}

// graphBackend runs an ONNX model through a DynamicAdvancedSession.
type graphBackend struct {
	session *ort.DynamicAdvancedSession
	input   ort.InputOutputInfo
	output  ort.InputOutputInfo
	log     *zap.Logger
}

func newGraph() Backend {
	return &graphBackend{log: zap.NewNop()}
}

func (g *graphBackend) Kind() Kind { return Graph }

// Load creates the session. The model must declare one 4-D float input and
// one output; their names are read from the model instead of being assumed.
func (g *graphBackend) Load(modelPath string, opts Options) (err error) {
	fail := func(err error) error {
		return &LoadError{Kind: Graph, Path: modelPath, Err: err}
	}

	if g.session != nil {
		return fail(ErrAlreadyLoaded)
	}
	if err := checkModelFile(modelPath); err != nil {
		return fail(err)
	}

	g.log = opts.logger().With(zap.String("backend", Graph.String()))

	if err := acquireEnvironment(opts.LibraryPath); err != nil {
		return fail(err)
	}
	defer func() {
		if err != nil {
			if relErr := releaseEnvironment(); relErr != nil {
				g.log.Warn("failed to release ONNX environment", zap.Error(relErr))
			}
		}
	}()

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrInvalidModel, err))
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return fail(fmt.Errorf("%w: expected 1 input and 1 output, got %d and %d",
			ErrInvalidModel, len(inputs), len(outputs)))
	}
	in, out := inputs[0], outputs[0]
	if len(in.Dimensions) != 4 {
		return fail(fmt.Errorf("%w: expected 4-D input %q, got %v", ErrInvalidModel, in.Name, in.Dimensions))
	}
	if in.DataType != ort.TensorElementDataTypeFloat || out.DataType != ort.TensorElementDataTypeFloat {
		return fail(fmt.Errorf("%w: expected float input and output", ErrInvalidModel))
	}

	sessionOptions, err := ort.NewSessionOptions()
	if err != nil {
		return fail(fmt.Errorf("%w: failed to create session options: %w", ErrRuntimeUnavailable, err))
	}
	defer sessionOptions.Destroy()

	if opts.Threads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(opts.Threads); err != nil {
			return fail(fmt.Errorf("%w: failed to set intra-op threads: %w", ErrRuntimeUnavailable, err))
		}
	}
	if opts.UseCUDA {
		g.configureCUDA(sessionOptions)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{in.Name}, []string{out.Name}, sessionOptions)
	if err != nil {
		return fail(fmt.Errorf("%w: failed to create ONNX session: %w", ErrInvalidModel, err))
	}

	g.session = session
	g.input = in
	g.output = out
	g.log.Info("model loaded",
		zap.String("path", modelPath),
		zap.String("input", in.Name),
		zap.Stringer("input_shape", in.Dimensions),
		zap.String("output", out.Name),
		zap.Int("threads", opts.Threads))
	return nil
}

// configureCUDA appends the CUDA execution provider. Failures are not fatal:
// ONNX Runtime keeps running on the CPU provider.
func (g *graphBackend) configureCUDA(sessionOptions *ort.SessionOptions) {
	warnIfNoGPU(g.log, "cpu execution provider")

	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		g.log.Warn("CUDA provider unavailable, using CPU", zap.Error(err))
		return
	}
	defer cudaOptions.Destroy()

	if err := sessionOptions.AppendExecutionProviderCUDA(cudaOptions); err != nil {
		g.log.Warn("failed to enable CUDA provider, using CPU", zap.Error(err))
	}
}

func (g *graphBackend) Infer(t preprocess.Tensor) ([]float32, error) {
	if g.session == nil {
		return nil, fmt.Errorf("%w: %s session is nil", ErrNotLoaded, Graph)
	}
	if err := checkShape(g.input.Dimensions, t); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(t.Shape()...), t.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create input tensor: %w", ErrInfer, err)
	}
	defer inputTensor.Destroy()

	// A nil output is allocated by the session with whatever shape the model produces.
	outputs := []ort.ArbitraryTensor{nil}
	if err := g.session.Run([]ort.ArbitraryTensor{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInfer, err)
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: output %q is not a float32 tensor", ErrInfer, g.output.Name)
	}

	// The tensor's memory is released by Destroy, so hand back a copy.
	scores := make([]float32, len(outputTensor.GetData()))
	copy(scores, outputTensor.GetData())
	return scores, nil
}

func (g *graphBackend) Close() error {
	if g.session == nil {
		return nil
	}
	err := g.session.Destroy()
	g.session = nil
	if relErr := releaseEnvironment(); relErr != nil && err == nil {
		err = relErr
	}
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
