package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crateview/docquery/internal/adapters/driving/httpapi"
	"github.com/crateview/docquery/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		api := httpapi.NewServer(a.ingest, a.query, a.documents, a.history, a.log)
		srv := &http.Server{
			Addr:              a.cfg.Server.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Optional hot folder alongside the API.
		if dir := a.cfg.Watch.Dir; dir != "" {
			w := watcher.New(a.ingest, a.log,
				watcher.WithDebounce(time.Duration(a.cfg.Watch.DebounceMillis)*time.Millisecond))
			go func() {
				if err := w.Watch(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
					a.log.Error("watcher stopped", zap.Error(err))
				}
			}()
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("server listening", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
