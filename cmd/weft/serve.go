package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/weft/internal/cli"
	"github.com/aretw0/weft/internal/presentation/tui"
	httpAdapter "github.com/aretw0/weft/pkg/adapters/http"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/observability"
	"github.com/aretw0/weft/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves graph analysis and asynchronous node test runs over HTTP.
Runs are kept in the configured store and can be followed over SSE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			a.cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hooks := []domain.LifecycleHooks{observability.AuditHooks(a.logger)}
		var opts []httpAdapter.Option
		if a.cfg.Server.Metrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := observability.NewMetrics(reg)
			if err != nil {
				return err
			}
			hooks = append(hooks, metrics.Hooks())
			opts = append(opts, httpAdapter.WithMetrics(reg))
		}

		engine, err := cli.NewEngine(a.cfg, a.logger, hooks...)
		if err != nil {
			return err
		}
		if loader, err := cli.NewLoader(a.cfg, a.graph); err == nil {
			opts = append(opts, httpAdapter.WithGraphLoader(loader))
		}
		opts = append(opts, httpAdapter.WithLogger(a.logger))

		store, closeStore, err := cli.NewStore(ctx, a.cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		sessions := session.NewManager(store, engine, session.WithLogger(a.logger))

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
			Handler:           httpAdapter.NewHandler(engine, sessions, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		tui.PrintBanner(cmd.ErrOrStderr())
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			a.logger.Info("http server listening", "address", srv.Addr, "store", a.cfg.Store.Driver, "graph", a.graph)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			a.logger.Info("shutting down", "timeout", shutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			var errs []error
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("graceful shutdown did not complete: %w", err), srv.Close())
			}
			if err := sessions.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("runs still active: %w", err))
			}
			return errors.Join(errs...)
		})
		if err := g.Wait(); err != nil {
			return err
		}
		a.logger.Info("weft server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides server.port)")
}
