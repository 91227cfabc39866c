package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/venue-scout/internal/crawling"
	"github.com/jonathan/venue-scout/internal/metrics"
	"github.com/jonathan/venue-scout/internal/pipeline"
	"github.com/jonathan/venue-scout/internal/schemas"
	"github.com/jonathan/venue-scout/internal/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a venue's official website and extract its dates",
	Long: "Finds and verifies the official website of a venue or event, crawls it for opening " +
		"hours and event dates, and writes the result as JSON.",
	RunE: runResolve,
}

var (
	resolveName        string
	resolveDescription string
	resolveLocation    string
	resolveTags        []string
	resolveLinks       []string
	resolveOut         string
	resolveMetricsAddr string
)

func init() {
	resolveCmd.Flags().StringVarP(&resolveName, "name", "n", "", "Venue or event name (required)")
	resolveCmd.Flags().StringVarP(&resolveDescription, "description", "d", "", "Short description used for verification")
	resolveCmd.Flags().StringVar(&resolveLocation, "location", "", "Town or city, added to search queries")
	resolveCmd.Flags().StringSliceVar(&resolveTags, "tag", nil, "Entity tag, e.g. cinema (repeatable)")
	resolveCmd.Flags().StringSliceVar(&resolveLinks, "link", nil, "Known candidate URL (repeatable)")
	resolveCmd.Flags().StringVarP(&resolveOut, "out", "o", "", "Output file (default: stdout)")
	resolveCmd.Flags().StringVar(&resolveMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	if err := resolveCmd.MarkFlagRequired("name"); err != nil {
		panic(fmt.Sprintf("failed to mark name flag as required: %v", err))
	}

	rootCmd.AddCommand(resolveCmd)
}

func entityFromFlags() *types.Entity {
	return &types.Entity{
		Name:        resolveName,
		Description: resolveDescription,
		Tags:        resolveTags,
		KnownLinks:  resolveLinks,
		Location:    resolveLocation,
	}
}

func runResolve(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	entity := entityFromFlags()
	if err := entity.Validate(); err != nil {
		return fmt.Errorf("invalid entity: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if resolveMetricsAddr != "" {
		shutdown := serveMetrics(resolveMetricsAddr, logger)
		defer shutdown()
	}

	// Console summaries must not interleave with JSON on stdout.
	var console io.Writer = os.Stdout
	if resolveOut == "" {
		console = os.Stderr
	}

	comps, err := buildComponents(ctx, cfg, logger, metrics.Default(), console)
	if err != nil {
		return err
	}
	defer comps.Close()

	result, runErr := comps.pipeline.Run(ctx, entity)
	if result != nil {
		if err := writeResult(result, resolveOut, os.Stdout); err != nil {
			return err
		}
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, pipeline.ErrNoOfficialURL), errors.Is(runErr, crawling.ErrNoPagesFetched):
		_, _ = fmt.Fprintf(os.Stderr, "No dates: %v\n", runErr)
		return nil
	default:
		return runErr
	}
}

// writeResult validates the result against the contract schema and writes indented JSON to
// path, or to stdout when path is empty.
func writeResult(result *types.Result, path string, stdout io.Writer) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := schemas.ValidateResultJSON(data); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result file %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(os.Stdout, "Result: %s\n", path)
	return nil
}

// serveMetrics exposes /metrics on addr until the returned function is called.
func serveMetrics(addr string, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
