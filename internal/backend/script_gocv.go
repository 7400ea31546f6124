//go:build gocv && !gotch

// internal/backend/script_gocv.go
package backend

import (
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
)

const scriptEnabled = true

// scriptBackend runs a serialized network through the OpenCV DNN module.
// It reads the formats cv::dnn::readNet accepts (ONNX, Caffe, TensorFlow,
// Darknet, OpenVINO), not TorchScript; build with -tags gotch for .pt programs.
//
// OpenCV imports networks for inference only: dropout layers become
// identities and batch-norm uses its stored statistics, so the loaded
// program is always in evaluation mode.
type scriptBackend struct {
	net    gocv.Net
	loaded bool
	log    *zap.Logger
}

func newScript() Backend {
	return &scriptBackend{log: zap.NewNop()}
}

func (s *scriptBackend) Kind() Kind { return Script }

func (s *scriptBackend) Load(modelPath string, opts Options) error {
	fail := func(err error) error {
		return &LoadError{Kind: Script, Path: modelPath, Err: err}
	}

	if s.loaded {
		return fail(ErrAlreadyLoaded)
	}
	if err := checkModelFile(modelPath); err != nil {
		return fail(err)
	}

	s.log = opts.logger().With(zap.String("backend", Script.String()))

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		net.Close()
		return fail(fmt.Errorf("%w: OpenCV could not read %s", ErrInvalidModel, modelPath))
	}

	backendType, target := gocv.NetBackendDefault, gocv.NetTargetCPU
	if opts.UseCUDA {
		warnIfNoGPU(s.log, "opencv cpu target")
		backendType, target = gocv.NetBackendCUDA, gocv.NetTargetCUDA
	}
	errBackend := net.SetPreferableBackend(backendType)
	errTarget := net.SetPreferableTarget(target)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fail(fmt.Errorf("%w: failed to set preferable backend or target", ErrRuntimeUnavailable))
	}

	if opts.Threads > 1 {
		s.log.Debug("thread hint ignored, OpenCV manages its own pool", zap.Int("threads", opts.Threads))
	}

	s.net = net
	s.loaded = true
	s.log.Info("model loaded", zap.String("path", modelPath))
	return nil
}

func (s *scriptBackend) Infer(t preprocess.Tensor) ([]float32, error) {
	if !s.loaded {
		return nil, fmt.Errorf("%w: %s network is nil", ErrNotLoaded, Script)
	}
	if err := checkShape([]int64{1, preprocess.Channels, -1, -1}, t); err != nil {
		return nil, err
	}

	blob := gocv.NewMatWithSizes([]int{1, t.Channels, t.Height, t.Width}, gocv.MatTypeCV32F)
	defer blob.Close()

	blobData, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create input blob: %w", ErrInfer, err)
	}
	copy(blobData, t.Data)

	s.net.SetInput(blob, "")
	out := s.net.Forward("")
	defer out.Close()
	if out.Empty() {
		return nil, fmt.Errorf("%w: empty output", ErrInfer)
	}

	outData, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: output is not a float32 tensor: %w", ErrInfer, err)
	}
	scores := make([]float32, len(outData))
	copy(scores, outData)
	return scores, nil
}

func (s *scriptBackend) Close() error {
	if !s.loaded {
		return nil
	}
	s.loaded = false
	if err := s.net.Close(); err != nil {
		return fmt.Errorf("failed to close network: %w", err)
	}
	return nil
}
