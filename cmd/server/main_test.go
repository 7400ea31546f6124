// cmd/server/main_test.go
package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SyedDaiam9101/classifier-service/internal/topk"
)

func TestPrintResult(t *testing.T) {
	res := topk.Result{Indices: []int{3, 1}, Scores: []float32{0.9, 0.5}}

	var buf bytes.Buffer
	printResult(&buf, 2, res, []string{"a", "b"})
	assert.Equal(t, "Top-2 indices: 3 1 \nScores: 0.9 0.5 \nLabels: class_3 | b | \n", buf.String())
}

func TestPrintResult_NoLabels(t *testing.T) {
	res := topk.Result{Indices: []int{0}, Scores: []float32{0.123456789}}

	var buf bytes.Buffer
	printResult(&buf, 1, res, nil)
	assert.Equal(t, "Top-1 indices: 0 \nScores: 0.123457 \n", buf.String())
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"--help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "--backend")
	assert.Contains(t, stdout.String(), "--serve")
}

func TestRun_Failures(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.onnx")

	tests := map[string][]string{
		"unknown flag":    {"--nope"},
		"invalid topk":    {"--topk", "0"},
		"unknown backend": {"--backend", "tensorflow", "--model", missing, "--log-level", "error"},
		"missing model":   {"--model", missing, "--log-level", "error"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 1, run(args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}
