// internal/middleware/middleware_test.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/SyedDaiam9101/classifier-service/internal/metrics"
)

func TestUnaryRequestIDInterceptor_GeneratesID(t *testing.T) {
	interceptor := UnaryRequestIDInterceptor()

	var capturedCtx context.Context
	mockHandler := func(ctx context.Context, req interface{}) (interface{}, error) {
		capturedCtx = ctx
		return "response", nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Method"}
	_, err := interceptor(context.Background(), nil, info, mockHandler)
	require.NoError(t, err)

	requestID := GetRequestID(capturedCtx)
	// UUID format: 36 chars with dashes
	assert.Len(t, requestID, 36)
}

func TestUnaryRequestIDInterceptor_PreservesExistingID(t *testing.T) {
	interceptor := UnaryRequestIDInterceptor()
	existingID := "test-request-id-12345"

	var capturedCtx context.Context
	mockHandler := func(ctx context.Context, req interface{}) (interface{}, error) {
		capturedCtx = ctx
		return "response", nil
	}

	md := metadata.Pairs(RequestIDHeader, existingID)
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Method"}

	_, err := interceptor(ctx, nil, info, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, existingID, GetRequestID(capturedCtx))
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestRequestID_HTTP(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestUnaryMetricsInterceptor_RecordsCode(t *testing.T) {
	interceptor := UnaryMetricsInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Metrics"}

	before := testutil.CollectAndCount(metrics.GRPCServerHandlingSeconds)

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "bad")
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, errors.New("plain")
	})
	assert.Error(t, err)

	// one series per distinct code
	assert.Equal(t, before+2, testutil.CollectAndCount(metrics.GRPCServerHandlingSeconds))
}

func TestMetrics_HTTPStatus(t *testing.T) {
	h := Metrics("/teapot")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, uint64(1), sampleCount(t, http.MethodGet, "/teapot", "418"))
}

func TestMetrics_UnknownPathsShareOneSeries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/known", func(w http.ResponseWriter, r *http.Request) {})
	h := Metrics("/known")(mux)

	before := testutil.CollectAndCount(metrics.HTTPServerHandlingSeconds)
	for i := 0; i < 200; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, fmt.Sprintf("/junk/%d", i), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/known", nil))

	// one "other" series for every 404 plus one for the known route
	assert.Equal(t, before+2, testutil.CollectAndCount(metrics.HTTPServerHandlingSeconds))
	assert.Equal(t, uint64(200), sampleCount(t, http.MethodPut, "other", "404"))
}

// sampleCount returns how many requests one HTTP latency series observed.
func sampleCount(t *testing.T, method, route, code string) uint64 {
	t.Helper()
	observer, err := metrics.HTTPServerHandlingSeconds.GetMetricWithLabelValues(method, route, code)
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, observer.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}
