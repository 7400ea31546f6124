//go:build gotch

// internal/backend/script_gotch.go
package backend

import (
	"fmt"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/ts"
	"go.uber.org/zap"

	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
)

const scriptEnabled = true

// scriptBackend runs a TorchScript program through libtorch.
type scriptBackend struct {
	module *ts.CModule
	device gotch.Device
	log    *zap.Logger
}

func newScript() Backend {
	return &scriptBackend{device: gotch.CPU, log: zap.NewNop()}
}

func (s *scriptBackend) Kind() Kind { return Script }

// Load reads a TorchScript module and switches it to evaluation mode.
func (s *scriptBackend) Load(modelPath string, opts Options) error {
	fail := func(err error) error {
		return &LoadError{Kind: Script, Path: modelPath, Err: err}
	}

	if s.module != nil {
		return fail(ErrAlreadyLoaded)
	}
	if err := checkModelFile(modelPath); err != nil {
		return fail(err)
	}

	s.log = opts.logger().With(zap.String("backend", Script.String()))

	device := gotch.CPU
	if opts.UseCUDA {
		warnIfNoGPU(s.log, "libtorch cpu device")
		device = gotch.CudaIfAvailable()
	}

	module, err := ts.ModuleLoadOnDevice(modelPath, device)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrInvalidModel, err))
	}
	module.SetEval()

	if opts.Threads > 1 {
		s.log.Debug("thread hint left to libtorch defaults", zap.Int("threads", opts.Threads))
	}

	s.module = module
	s.device = device
	s.log.Info("model loaded",
		zap.String("path", modelPath),
		zap.String("device", device.Name))
	return nil
}

func (s *scriptBackend) Infer(t preprocess.Tensor) ([]float32, error) {
	if s.module == nil {
		return nil, fmt.Errorf("%w: %s module is nil", ErrNotLoaded, Script)
	}
	if err := checkShape([]int64{1, preprocess.Channels, -1, -1}, t); err != nil {
		return nil, err
	}

	input, err := ts.NewTensorFromData(t.Data, t.Shape())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create input tensor: %w", ErrInfer, err)
	}
	if s.device != gotch.CPU {
		moved, err := input.To(s.device, true)
		if err != nil {
			input.MustDrop()
			return nil, fmt.Errorf("%w: failed to move input to %s: %w", ErrInfer, s.device.Name, err)
		}
		input = moved
	}
	defer input.MustDrop()

	var out *ts.Tensor
	ts.NoGrad(func() {
		out, err = s.module.Forward(input)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInfer, err)
	}
	defer out.MustDrop()

	host := out
	if s.device != gotch.CPU {
		host, err = out.To(gotch.CPU, false)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to copy output to host: %w", ErrInfer, err)
		}
		defer host.MustDrop()
	}

	values := host.Float64Values()
	scores := make([]float32, len(values))
	for i, v := range values {
		scores[i] = float32(v)
	}
	return scores, nil
}

func (s *scriptBackend) Close() error {
	if s.module == nil {
		return nil
	}
	s.module.Drop()
	s.module = nil
	return nil
}
