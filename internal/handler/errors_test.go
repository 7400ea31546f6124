// internal/handler/errors_test.go
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SyedDaiam9101/classifier-service/internal/backend"
	"github.com/SyedDaiam9101/classifier-service/internal/imageio"
	"github.com/SyedDaiam9101/classifier-service/internal/inference"
	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
	"github.com/SyedDaiam9101/classifier-service/internal/topk"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err      error
		httpCode int
		grpcCode codes.Code
	}{
		{errMissingFile, http.StatusBadRequest, codes.InvalidArgument},
		{fmt.Errorf("%w: /tmp/x.jpg", imageio.ErrDecode), http.StatusBadRequest, codes.InvalidArgument},
		{fmt.Errorf("%w: expected 3 channels", preprocess.ErrInvalidInput), http.StatusBadRequest, codes.InvalidArgument},
		{fmt.Errorf("%w: k=0", topk.ErrInvalidArgument), http.StatusBadRequest, codes.InvalidArgument},
		{inference.ErrNotInitialized, http.StatusServiceUnavailable, codes.FailedPrecondition},
		{fmt.Errorf("%w: onnx", backend.ErrNotLoaded), http.StatusServiceUnavailable, codes.FailedPrecondition},
		{fmt.Errorf("%w: run", backend.ErrInfer), http.StatusInternalServerError, codes.Internal},
		{fmt.Errorf("%w: rank", backend.ErrShapeMismatch), http.StatusInternalServerError, codes.Internal},
		{errors.New("anything else"), http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.httpCode, httpStatus(tt.err))
			assert.Equal(t, tt.grpcCode, status.Code(grpcError(tt.err)))
		})
	}

	assert.Equal(t, http.StatusOK, httpStatus(nil))
	assert.NoError(t, grpcError(nil))
}

func TestHTTPMessage_HidesDecodePath(t *testing.T) {
	err := fmt.Errorf("%w /secret/path.jpg: unknown format", imageio.ErrDecode)
	assert.Equal(t, msgDecodeImage, httpMessage(err))
	assert.Equal(t, "boom", httpMessage(errors.New("boom")))
}
