// internal/backend/gpu_test.go
package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func withProbePaths(t *testing.T, paths ...string) {
	t.Helper()
	saved := gpuProbePaths
	gpuProbePaths = paths
	t.Cleanup(func() { gpuProbePaths = saved })
}

func TestGPUAvailable(t *testing.T) {
	dir := t.TempDir()
	driver := filepath.Join(dir, "nvidiactl")

	withProbePaths(t, driver)
	assert.False(t, GPUAvailable())

	assert.NoError(t, os.WriteFile(driver, nil, 0o644))
	assert.True(t, GPUAvailable())
}

func TestWarnIfNoGPU(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	withProbePaths(t, filepath.Join(t.TempDir(), "missing"))
	assert.True(t, warnIfNoGPU(log, "cpu"))

	entries := logs.FilterMessage("CUDA execution requested but no GPU driver was detected").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "cpu", entries[0].ContextMap()["fallback"])
	}
}

func TestWarnIfNoGPU_DriverPresent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	driver := filepath.Join(t.TempDir(), "nvidiactl")
	assert.NoError(t, os.WriteFile(driver, nil, 0o644))
	withProbePaths(t, driver)

	assert.False(t, warnIfNoGPU(zap.New(core), "cpu"))
	assert.Zero(t, logs.Len())
}
