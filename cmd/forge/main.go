// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command forge runs the worker-fleet coordination core as a
// standalone process: it loads the YAML configuration document of §6,
// builds a forge.Core, and blocks until an interrupt signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/luxfi/forge/config"
	forgelog "github.com/luxfi/forge/log"

	"github.com/luxfi/forge"
)

func main() {
	configPath := flag.String("config", "", "path to a forge YAML config document (defaults built in if omitted)")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on (empty disables it)")
	flag.Parse()

	logger := forgelog.FromSlog(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		os.Exit(1)
	}

	promReg := prometheus.NewRegistry()

	core, err := forge.New(cfg, promReg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge: %v\n", err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server exited", "error", err)
			}
		}()
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go core.Run(ctx)

	<-ctx.Done()
	logger.Info("shutting down")
	if err := core.Close(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "forge: close: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := config.Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config.Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
