package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/api"
	"github.com/xraph/taxledger/audit_hook"
	"github.com/xraph/taxledger/observability"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the settlement worker and HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(nil, ""))
	audit := audithook.New(audithook.RecorderFunc(func(_ context.Context, ev *audithook.AuditEvent) error {
		slog.Info("audit",
			"action", ev.Action,
			"resource", ev.Resource,
			"resource_id", ev.ResourceID,
			"outcome", ev.Outcome,
			"severity", ev.Severity,
		)
		return nil
	}))

	eng, cfg, stop, err := startEngine(ctx,
		taxledger.WithPlugin(metrics),
		taxledger.WithPlugin(audit),
	)
	if err != nil {
		return err
	}
	defer stop()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.HTTP.Addr
	}
	opts := []api.Option{api.WithBasePath(cfg.HTTP.BasePath), api.WithLogger(slog.Default())}
	if cfg.HTTP.Metrics {
		opts = append(opts, api.WithMetrics(nil))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(eng, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("taxledger listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
