package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/triage/internal/cli"
	httpAdapter "github.com/aretw0/triage/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP host API",
	Long: `Serves the triage sessions over HTTP (JSON + SSE). With --metrics-addr the
Prometheus endpoint is served on its own listener; otherwise /metrics is
mounted on the API router when metrics are enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Listen, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("metrics") {
			cfg.Metrics, _ = cmd.Flags().GetBool("metrics")
		}
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
		if app.Intake != nil {
			opts = append(opts, httpAdapter.WithIntake(app.Intake, app.Links))
		}
		if cfg.Metrics && metricsAddr == "" {
			opts = append(opts, httpAdapter.WithMetrics(app.Metrics.Handler()))
		}

		servers := []*http.Server{{Addr: cfg.Listen, Handler: httpAdapter.NewHandler(app.Manager, opts...)}}
		if metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", app.Metrics.Handler())
			servers = append(servers, &http.Server{Addr: metricsAddr, Handler: mux})
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		g, ctx := errgroup.WithContext(sigCtx)

		for _, srv := range servers {
			g.Go(func() error {
				logger.Info("listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		}

		g.Go(func() error {
			<-ctx.Done()
			logger.Info("shutting down", "signal", sigCtx.Signal())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			var errs []error
			for _, srv := range servers {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("graceful shutdown did not complete", "addr", srv.Addr, "err", err)
					errs = append(errs, srv.Close())
				}
			}
			return errors.Join(errs...)
		})

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics")
	serveCmd.Flags().String("metrics-addr", "", "Serve metrics on a separate address (implies --metrics)")
}
