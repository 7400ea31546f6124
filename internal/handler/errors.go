// internal/handler/errors.go
package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SyedDaiam9101/classifier-service/internal/backend"
	"github.com/SyedDaiam9101/classifier-service/internal/imageio"
	"github.com/SyedDaiam9101/classifier-service/internal/inference"
	"github.com/SyedDaiam9101/classifier-service/internal/preprocess"
	"github.com/SyedDaiam9101/classifier-service/internal/topk"
)

// Client-facing messages for the two request errors every surface shares.
const (
	msgMissingFile = "use ?file=path"
	msgDecodeImage = "failed to load image"
)

// errMissingFile is returned when a request names no image.
var errMissingFile = errors.New(msgMissingFile)

// httpStatus maps classification errors to HTTP status codes
func httpStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errMissingFile),
		errors.Is(err, imageio.ErrDecode),
		errors.Is(err, preprocess.ErrInvalidInput),
		errors.Is(err, topk.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, inference.ErrNotInitialized),
		errors.Is(err, backend.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// httpMessage returns the error text sent to HTTP clients. Decode failures
// hide the server-side path.
func httpMessage(err error) string {
	if errors.Is(err, imageio.ErrDecode) {
		return msgDecodeImage
	}
	return err.Error()
}

// grpcError maps classification errors to gRPC status errors
func grpcError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, errMissingFile):
		return invalidArgumentError("file is required")
	case errors.Is(err, imageio.ErrDecode):
		return invalidArgumentError(msgDecodeImage)
	case errors.Is(err, preprocess.ErrInvalidInput),
		errors.Is(err, topk.ErrInvalidArgument):
		return invalidArgumentError("%v", err)
	case errors.Is(err, inference.ErrNotInitialized),
		errors.Is(err, backend.ErrNotLoaded):
		return failedPreconditionError("inference engine not initialized")
	case errors.Is(err, backend.ErrInfer):
		return internalError("inference execution failed: %v", err)
	default:
		return internalError("internal error: %v", err)
	}
}

// invalidArgumentError creates an InvalidArgument gRPC error
func invalidArgumentError(format string, args ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// failedPreconditionError creates a FailedPrecondition gRPC error
func failedPreconditionError(format string, args ...interface{}) error {
	return status.Errorf(codes.FailedPrecondition, format, args...)
}

// internalError creates an Internal gRPC error
func internalError(format string, args ...interface{}) error {
	return status.Errorf(codes.Internal, format, args...)
}
