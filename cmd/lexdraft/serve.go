// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexdraft/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve templates, questionnaires, and documents over HTTP",
	Long: `Serve starts the JSON API. Questionnaire sessions live in memory;
documents and signatures go to the SQLite store, and partial answers are
checkpointed to the configured backend. SIGINT or SIGTERM shuts the server
down gracefully.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	cps, err := openCheckpoints(ctx, cfg)
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Catalog:     e.catalog,
		Source:      e.source,
		Validator:   e.validator,
		Generator:   e.generator,
		Store:       s,
		Checkpoints: cps,
	}, cfg.Session.Timeout, log.New(os.Stderr, "", log.LstdFlags))

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
