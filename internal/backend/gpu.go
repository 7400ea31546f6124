// internal/backend/gpu.go
package backend

import (
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
)

// gpuProbePaths are the files whose presence indicates an NVIDIA driver.
var gpuProbePaths = defaultGPUProbePaths()

func defaultGPUProbePaths() []string {
	if runtime.GOOS == "windows" {
		return []string{filepath.Join(os.Getenv("SystemRoot"), "System32", "nvcuda.dll")}
	}
	return []string{
		"/dev/nvidiactl",
		"/proc/driver/nvidia/version",
	}
}

// GPUAvailable reports whether an NVIDIA driver is visible on this host.
func GPUAvailable() bool {
	for _, p := range gpuProbePaths {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// warnIfNoGPU logs a warning when GPU execution was requested on a host
// without a visible driver. Loading continues either way.
func warnIfNoGPU(log *zap.Logger, fallback string) bool {
	if GPUAvailable() {
		return false
	}
	log.Warn("CUDA execution requested but no GPU driver was detected",
		zap.String("fallback", fallback))
	return true
}
