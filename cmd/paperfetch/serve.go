// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/paperfetch/internal/archive"
	"github.com/pdiddy/paperfetch/internal/fetch"
	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/internal/server"
	"github.com/pdiddy/paperfetch/internal/source"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP retrieval service",
	Long: `Serve runs the HTTP API consumed by the browser client: health, topic
search, single PDF download, and batch archive download. The server holds no
state between requests; the client resubmits paper data for downloads.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5000)")
	serveCmd.Flags().String("backend", "", "metadata source: scholar, arxiv, openalex, semantic_scholar")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Search.Backend = backend
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	backend, err := source.New(cfg.Search, httputil.NewClient(cfg.Search.Timeout))
	if err != nil {
		return err
	}
	fetcher := fetch.New(cfg.Fetch)
	builder := archive.New(fetcher, cfg.Archive)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("starting paperfetch", "version", version, "backend", backend.Name())
	return server.New(cfg, backend, fetcher, builder, log).Run(ctx)
}
