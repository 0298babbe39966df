package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/parcelscore/internal/api"
	"github.com/ppiankov/parcelscore/internal/pipeline"
	"github.com/ppiankov/parcelscore/internal/store"
	"github.com/ppiankov/parcelscore/internal/telemetry"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes aggregation, match scoring, ranking and preference
management over HTTP.

Example:
  parcelscore serve
  parcelscore serve --port 9090
  PARCELSCORE_STORE_BACKEND=redis parcelscore serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "listen address")
	serveCmd.Flags().Int("port", 8080, "listen port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	if p.Registry().Len() == 0 {
		logger.Warn("no data sources configured; every aggregation category will report an error")
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	prefs, err := store.Open(ctx, cfg.Store, catalog)
	if err != nil {
		return fmt.Errorf("open preferences store: %w", err)
	}
	defer func() {
		if err := prefs.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	server := api.NewServer(cfg.Server, p, prefs, logger)
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting parcelscore",
		"version", version,
		"addr", httpServer.Addr,
		"sources", p.Registry().Categories(),
		"store", cfg.Store.Backend,
		"narrative", p.NarrativeEnabled(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully...")

	grace := cfg.Server.ShutdownTimeout
	if grace <= 0 {
		grace = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("parcelscore stopped")
	return nil
}
