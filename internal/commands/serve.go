package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nholding/tenor/internal/api"
	"github.com/nholding/tenor/internal/cache"
	"github.com/nholding/tenor/internal/scheduler"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the daily roll job",
		Long: `Start the REST API. When schedule.roll_cron and a watch list are configured the
daily roll job runs in the same process.

Endpoints:
  GET  /api/health
  GET  /api/contracts/{code}
  GET  /api/contracts/{code}/mappings?from=&to=
  POST /api/contracts/{code}/mappings?from=&to=
  GET  /api/reference?date=&granularity=
  GET  /api/labels/{label}?date=&market=&product=
  GET  /api/periods/{id}

Example:
  tenor serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}

			rc, err := cache.New(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer rc.Close()

			h := api.NewHandler(a.svc, rc, a.log)
			server := api.NewServer(a.cfg.HTTP, api.NewRouter(h, a.cfg.HTTP))

			if !noScheduler && a.cfg.Schedule.RollCron != "" && len(a.cfg.Watch) > 0 {
				sched := scheduler.New(ctx, a.svc, a.log, a.cfg.Watch, a.cfg.Schedule.User)
				if err := sched.Register(a.cfg.Schedule.RollCron); err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.WithFields(map[string]interface{}{
					"addr":  a.cfg.HTTP.Addr,
					"env":   a.cfg.Env,
					"cache": rc.Enabled(),
				}).Info("API server started")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			a.log.Info("Server exited")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "do not run the roll job")
	return cmd
}
