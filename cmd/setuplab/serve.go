package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/setuplab/internal/application"
	"github.com/sawpanic/setuplab/internal/data/store"
	httpapi "github.com/sawpanic/setuplab/internal/interfaces/http"
	"github.com/sawpanic/setuplab/internal/interfaces/http/handlers"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only HTTP API",
		Long:  "Starts the HTTP server with /health, /labels, /scenarios/... and /metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := root.loadConfig()
			if err != nil {
				return err
			}
			if host != "" {
				config.HTTP.Host = host
			}
			if port != 0 {
				config.HTTP.Port = port
			}
			return runServe(cmd.Context(), config)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides http.host)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides http.port)")
	return cmd
}

func runServe(ctx context.Context, config *application.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := httpapi.NewMetricsRegistry(reg)

	rt, err := newRuntime(ctx, config, config.GroupingConfig(), true, application.WithRecorder(metrics))
	if err != nil {
		return err
	}
	defer rt.Close()

	opts := []handlers.Option{
		handlers.WithVersion(version),
		handlers.WithCircuits(rt.store),
		handlers.WithHistoryLimit(config.Refresh.HistorySize),
	}
	if rt.db != nil {
		opts = append(opts, handlers.WithDatabase(rt.db))
	}

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:           config.HTTP.Host,
		Port:           config.HTTP.Port,
		ReadTimeout:    config.HTTP.ReadTimeout,
		WriteTimeout:   config.HTTP.WriteTimeout,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: config.HTTP.RequestTimeout,
	}, handlers.NewHandlers(rt.service, opts...), metrics)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Refresh.Enabled || config.Refresh.WatchStore {
		var (
			schedule string
			watcher  store.Watcher
		)
		if config.Refresh.Enabled {
			schedule = config.Refresh.Schedule
		}
		if config.Refresh.WatchStore {
			watcher = rt.store
		}
		refresher := application.NewRefresher(rt.service, schedule, watcher)
		if err := refresher.Start(ctx); err != nil {
			return err
		}
		defer refresher.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
