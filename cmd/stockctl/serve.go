// cmd/stockctl/serve.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"stock-backoffice/internal/stock"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newMux serves health, readiness, metrics and the search cache stats.
func newMux(app *App) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		_, authorized := app.gate.Credential()
		ready := app.stock.State() == stock.StateReady && authorized
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not ready", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{
			"status":           status,
			"reauthenticating": app.gate.Reauthenticating(),
			"inFlight":         app.client.InFlight(),
			"time":             time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/cache", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, app.cache.Stats())
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the listing warm and expose health and metrics endpoints",
		Long: `serve loads the listing once, then runs the maintenance jobs (request
map sweep, search cache sweep, unread counter poll) and serves /health,
/ready, /cache and /metrics until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, app *App) error {
			ctx := cmd.Context()
			if address == "" {
				address = app.cfg.Metrics.Address
			}

			app.stock.Initialize(ctx)
			app.feed.RefreshUnread(ctx)
			if err := app.scheduleMaintenance(); err != nil {
				return err
			}
			app.jobs.Start()

			server := &http.Server{
				Addr:              address,
				Handler:           newMux(app),
				ReadHeaderTimeout: 5 * time.Second,
			}
			serveErr := make(chan error, 1)
			go func() {
				app.log.Info("health/metrics server listening", map[string]interface{}{"address": address})
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			var runErr error
			select {
			case <-ctx.Done():
				app.log.Info("shutdown signal received, stopping jobs", nil)
			case runErr = <-serveErr:
				if runErr != nil {
					app.log.Error("health/metrics server failed", map[string]interface{}{"error": runErr.Error()})
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			app.jobs.Stop(shutdownCtx)
			app.feed.FlushReads()
			if err := server.Shutdown(shutdownCtx); err != nil {
				app.log.Error("error stopping health/metrics server", map[string]interface{}{"error": err.Error()})
			}

			app.log.Info("stockctl stopped gracefully", nil)
			return runErr
		}),
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (default: metrics.address)")
	return cmd
}
