// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultServePort is used when --serve is given without a value.
const DefaultServePort = 8080

// Config holds all configuration for the service
type Config struct {
	// Classification
	Backend string `mapstructure:"backend"`
	Model   string `mapstructure:"model"`
	Labels  string `mapstructure:"labels"`
	Input   string `mapstructure:"input"`
	TopK    int    `mapstructure:"topk"`
	Threads int    `mapstructure:"threads"`

	// Runtime tuning
	ORTLibrary string `mapstructure:"ort_library"`
	UseCUDA    bool   `mapstructure:"use_cuda"`

	// Server configuration; a zero port disables the surface
	Serve    int           `mapstructure:"serve"`
	GRPCPort int           `mapstructure:"grpc_port"`
	Redis    string        `mapstructure:"redis"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// flagKeys maps flag names to viper keys.
var flagKeys = map[string]string{
	"backend":       "backend",
	"model":         "model",
	"labels":        "labels",
	"input":         "input",
	"topk":          "topk",
	"threads":       "threads",
	"ort-library":   "ort_library",
	"use-cuda":      "use_cuda",
	"serve":         "serve",
	"grpc-port":     "grpc_port",
	"redis":         "redis",
	"cache-ttl":     "cache_ttl",
	"otel":          "otel_enabled",
	"otel-endpoint": "otel_endpoint",
	"log-level":     "log_level",
	"log-format":    "log_format",
}

// Flags defines the command-line flags. Their defaults double as the
// configuration defaults.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.String("config", "", "Path to config file (optional)")
	fs.String("backend", "onnx", "Backend: onnx|libtorch (libtorch needs a -tags gotch build)")
	fs.String("labels", "assets/imagenet_labels.txt", "Path to labels (.txt, 1 per line)")
	fs.String("model", "models/squeezenet1.1.onnx", "Path to model file (.onnx for onnx, TorchScript .pt for libtorch)")
	fs.String("input", "assets/sample.jpg", "Path to input image (jpg/png)")
	fs.Int("topk", 5, "Top-K predictions")
	fs.Int("threads", 1, "Intra-op threads")
	fs.String("ort-library", "", "Path to the onnxruntime shared library")
	fs.Bool("use-cuda", false, "Request GPU execution")
	fs.Int("serve", 0, "Start REST server on given port")
	fs.Lookup("serve").NoOptDefVal = fmt.Sprint(DefaultServePort)
	fs.Int("grpc-port", 0, "Start gRPC server on given port (0 = disabled)")
	fs.String("redis", "", "Redis address for the result cache (empty = disabled)")
	fs.Duration("cache-ttl", 10*time.Minute, "Result cache TTL")
	fs.Bool("otel", false, "Enable OpenTelemetry tracing")
	fs.String("otel-endpoint", "", "OpenTelemetry collector endpoint")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "console", "Log format (console, json)")

	return fs
}

// Load merges configuration from flags, environment variables, and an optional config file.
// Priority (highest to lowest): flags > env vars > config file > defaults
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("flag %q not defined", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	// Environment variable configuration
	v.SetEnvPrefix("CLASSIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Also read OTEL standard env vars
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" && !fs.Changed("otel-endpoint") {
		v.SetDefault("otel_endpoint", endpoint)
		v.SetDefault("otel_enabled", true)
	}

	configFile, _ := fs.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/classifier-service/")
		v.AddConfigPath("$HOME/.classifier-service")
	}

	// Read config file if present (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model path is required")
	}
	if c.TopK < 1 {
		return fmt.Errorf("invalid topk: %d", c.TopK)
	}
	if c.Threads < 1 {
		return fmt.Errorf("invalid threads: %d", c.Threads)
	}
	if c.Serve < 0 || c.Serve > 65535 {
		return fmt.Errorf("invalid serve port: %d", c.Serve)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.GRPCPort)
	}
	if c.Serve != 0 && c.Serve == c.GRPCPort {
		return fmt.Errorf("serve and grpc_port must be different")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache_ttl: %s", c.CacheTTL)
	}
	// a zero TTL would store entries without expiry
	if c.Redis != "" && c.CacheTTL == 0 {
		return fmt.Errorf("cache_ttl must be positive when redis is set")
	}
	return nil
}

// Serving reports whether any network surface is enabled.
func (c *Config) Serving() bool {
	return c.Serve > 0 || c.GRPCPort > 0
}
