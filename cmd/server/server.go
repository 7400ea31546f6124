// cmd/server/server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/SyedDaiam9101/classifier-service/internal/cache"
	"github.com/SyedDaiam9101/classifier-service/internal/config"
	"github.com/SyedDaiam9101/classifier-service/internal/handler"
	"github.com/SyedDaiam9101/classifier-service/internal/inference"
	"github.com/SyedDaiam9101/classifier-service/internal/metrics"
	"github.com/SyedDaiam9101/classifier-service/internal/middleware"
)

// drainDelay gives load balancers time to observe NOT_SERVING.
const drainDelay = 5 * time.Second

// serve runs the HTTP and gRPC surfaces until SIGINT or SIGTERM.
func serve(cfg *config.Config, engine *inference.Engine, labelNames []string, log *zap.Logger) error {
	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		var err error
		tracerShutdown, err = initTracer(cfg.OTELEndpoint, log)
		if err != nil {
			log.Warn("failed to initialize tracer", zap.Error(err))
		} else {
			log.Info("OpenTelemetry tracing enabled", zap.String("endpoint", cfg.OTELEndpoint))
		}
	}

	// Result cache is optional
	var resultCache handler.ResultCache
	if cfg.Redis != "" {
		log.Info("connecting to Redis", zap.String("addr", cfg.Redis))
		c, err := cache.New(cfg.Redis)
		if err != nil {
			log.Warn("failed to connect to Redis, continuing without cache", zap.Error(err))
		} else {
			defer c.Close()
			resultCache = c
		}
	}

	h := handler.New(engine, labelNames, resultCache, cfg.CacheTTL, log)
	healthServer := health.NewServer()
	errCh := make(chan error, 2)

	var httpServer *http.Server
	if cfg.Serve > 0 {
		httpServer = newHTTPServer(cfg.Serve, h)
		go func() {
			log.Info("HTTP server listening",
				zap.String("addr", httpServer.Addr),
				zap.String("usage", "POST /predict?file="+cfg.Input))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	var grpcServer *grpc.Server
	if cfg.GRPCPort > 0 {
		interceptors := []grpc.UnaryServerInterceptor{
			middleware.UnaryRequestIDInterceptor(),
			middleware.UnaryMetricsInterceptor(),
		}
		var opts []grpc.ServerOption
		if cfg.OTELEnabled {
			opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
		}
		opts = append(opts, grpc.ChainUnaryInterceptor(interceptors...))
		grpcServer = grpc.NewServer(opts...)

		handler.RegisterClassifierServer(grpcServer, handler.NewGRPCServer(h))
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		reflection.Register(grpcServer)

		addr := fmt.Sprintf(":%d", cfg.GRPCPort)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			if httpServer != nil {
				_ = httpServer.Close()
			}
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		go func() {
			log.Info("gRPC server listening", zap.String("addr", addr))
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	healthServer.SetServingStatus(handler.ClassifierServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING) // Overall health
	metrics.SetHealthy()
	log.Info(serviceName+" is ready to accept requests", zap.String("backend", engine.Backend()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var serveErr error
	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down gracefully", zap.String("signal", sig.String()))
		healthServer.SetServingStatus(handler.ClassifierServiceDesc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		metrics.SetUnhealthy()
		time.Sleep(drainDelay)
	case serveErr = <-errCh:
		metrics.SetUnhealthy()
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn("HTTP server shutdown failed", zap.Error(err))
		}
	}
	if tracerShutdown != nil {
		if err := tracerShutdown(ctx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}

	log.Info("server shutdown complete")
	return serveErr
}

// newHTTPServer builds the REST surface. Every route goes through the
// request-id and latency middleware.
func newHTTPServer(port int, h *handler.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", h.Predict)
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)
	mux.Handle("/metrics", promhttp.Handler())
	routes := []string{"/predict", "/healthz", "/readyz", "/metrics"}

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           middleware.RequestID(middleware.Metrics(routes...)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func initTracer(endpoint string, log *zap.Logger) (func(context.Context) error, error) {
	if endpoint != "" {
		// TODO: switch to otlptracegrpc once a collector is part of the deployment
		log.Info("using stdout trace exporter", zap.String("otlp_endpoint", endpoint))
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Create resource with service information
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
