// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bom-repo-server serves a content-addressed repository of CycloneDX
// software bills of materials over HTTP: store, retrieve, and delete
// BOM documents across the XML, JSON, and Protobuf wire formats, with
// content negotiation across schema versions 1.0 through 1.4 and a
// background retention sweeper.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bomrepo/bom-repo-server/internal/bomhttp"
	"github.com/bomrepo/bom-repo-server/internal/bomstore"
	"github.com/bomrepo/bom-repo-server/internal/repoconfig"
	"github.com/bomrepo/bom-repo-server/internal/repository"
	"github.com/bomrepo/bom-repo-server/internal/retention"
	"github.com/bomrepo/bom-repo-server/lib/clock"
	"github.com/bomrepo/bom-repo-server/lib/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bom-repo-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var listenPort int
	pflag.StringVar(&configPath, "config", "", "path to a YAML configuration file (overridden by environment variables)")
	pflag.IntVar(&listenPort, "listen", 0, "HTTP listen port (overrides the config file and LISTEN__PORT)")
	pflag.Parse()

	cfg, err := repoconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if listenPort != 0 {
		cfg.Listen.Port = listenPort
	}

	logger := service.NewLogger()

	store, err := bomstore.Open(cfg.Directory)
	if err != nil {
		return fmt.Errorf("opening store at %s: %w", cfg.Directory, err)
	}

	sweeper := retention.New(store, retention.Policy{
		MaxVersionsPerSerial: cfg.Retention.MaxVersions,
		MaxAgeDays:           cfg.Retention.MaxAgeDays,
	}, clock.Real(), logger)

	metaRoot := filepath.Join(cfg.Directory, ".metadata")
	metaService, err := repository.New(store, sweeper, metaRoot, logger)
	if err != nil {
		return fmt.Errorf("starting metadata service: %w", err)
	}

	handler := bomhttp.New(store, metaService, cfg, logger)

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address: fmt.Sprintf(":%d", cfg.Listen.Port),
		Handler: handler,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go metaService.Run(ctx)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- httpServer.Serve(ctx)
	}()

	select {
	case <-httpServer.Ready():
		logger.Info("bom repository server ready",
			"address", httpServer.Addr().String(),
			"directory", cfg.Directory,
			"allowedMethods", cfg.AllowedMethods,
		)
	case err := <-serveDone:
		if err != nil {
			return fmt.Errorf("starting http server: %w", err)
		}
		return nil
	}

	if err := <-serveDone; err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("bom repository server stopped")
	return nil
}
