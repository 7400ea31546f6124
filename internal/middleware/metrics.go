// internal/middleware/metrics.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/SyedDaiam9101/classifier-service/internal/metrics"
)

// UnaryMetricsInterceptor records Prometheus histogram metrics for gRPC unary calls.
// It measures the duration of each call and records it with method and status code labels.
func UnaryMetricsInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		// status.Code maps nil to OK and non-status errors to Unknown
		code := status.Code(err).String()
		metrics.RecordGRPCLatency(info.FullMethod, code, time.Since(start).Seconds())

		return resp, err
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// otherRoute labels requests for paths outside the registered routes.
const otherRoute = "other"

// Metrics returns middleware recording request latency per method, route and
// status code. Paths not listed in routes share the "other" label so the
// number of series stays bounded.
func Metrics(routes ...string) func(http.Handler) http.Handler {
	known := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		known[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := otherRoute
			if _, ok := known[r.URL.Path]; ok {
				route = r.URL.Path
			}
			metrics.RecordHTTPLatency(r.Method, route, strconv.Itoa(rec.status), time.Since(start).Seconds())
		})
	}
}
