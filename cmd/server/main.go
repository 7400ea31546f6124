// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/SyedDaiam9101/classifier-service/internal/backend"
	"github.com/SyedDaiam9101/classifier-service/internal/config"
	"github.com/SyedDaiam9101/classifier-service/internal/imageio"
	"github.com/SyedDaiam9101/classifier-service/internal/inference"
	"github.com/SyedDaiam9101/classifier-service/internal/labels"
	"github.com/SyedDaiam9101/classifier-service/internal/logging"
	"github.com/SyedDaiam9101/classifier-service/internal/topk"
)

const serviceName = "classifier-service"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := config.Flags(serviceName)
	fs.SetOutput(stderr)
	help := fs.BoolP("help", "h", false, "Show help")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *help {
		fmt.Fprintf(stdout, "Usage of %s:\n%s", serviceName, fs.FlagUsages())
		return 0
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("backend", cfg.Backend),
		zap.String("model", cfg.Model),
		zap.String("available_backends", backend.Available()),
		zap.Int("threads", cfg.Threads))

	labelNames, err := labels.Load(cfg.Labels)
	if err != nil {
		log.Warn("failed to read labels", zap.Error(err), zap.Int("loaded", len(labelNames)))
	}
	if len(labelNames) == 0 {
		log.Warn("no labels loaded, using class_<index> names", zap.String("path", cfg.Labels))
	}

	engine := inference.NewEngine(inference.WithLogger(log))
	err = engine.Init(cfg.Backend, cfg.Model, backend.Options{
		Threads:     cfg.Threads,
		UseCUDA:     cfg.UseCUDA,
		LibraryPath: cfg.ORTLibrary,
		Logger:      log,
	})
	if err != nil {
		log.Error("failed to initialize inference engine", zap.Error(err))
		fmt.Fprintln(stderr, "Failed to initialize inference engine")
		return 1
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Warn("failed to close inference engine", zap.Error(err))
		}
	}()

	if cfg.Serving() {
		if err := serve(cfg, engine, labelNames, log); err != nil {
			log.Error("server failed", zap.Error(err))
			return 1
		}
		return 0
	}

	img, err := imageio.Decode(cfg.Input)
	if err != nil {
		log.Debug("image decode failed", zap.Error(err))
		fmt.Fprintf(stderr, "Failed to load image: %s\n", cfg.Input)
		return 1
	}

	res, err := engine.Classify(context.Background(), img, cfg.TopK)
	if err != nil {
		log.Error("classification failed", zap.Error(err))
		fmt.Fprintf(stderr, "Classification failed: %v\n", err)
		return 1
	}

	printResult(stdout, cfg.TopK, res, labelNames)
	return 0
}

// printResult writes the single-shot report. The Labels line is only
// printed when a label file was loaded.
func printResult(w io.Writer, k int, res topk.Result, labelNames []string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Top-%d indices: ", k)
	for _, idx := range res.Indices {
		sb.WriteString(strconv.Itoa(idx))
		sb.WriteByte(' ')
	}
	sb.WriteString("\nScores: ")
	for _, s := range res.Scores {
		sb.WriteString(strconv.FormatFloat(float64(s), 'g', 6, 32))
		sb.WriteByte(' ')
	}
	sb.WriteByte('\n')

	if len(labelNames) > 0 {
		sb.WriteString("Labels: ")
		sb.WriteString(labels.Join(labels.Names(labelNames, res.Indices)))
		sb.WriteByte('\n')
	}

	_, _ = io.WriteString(w, sb.String())
}
