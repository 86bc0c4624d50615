// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/lexdraft/internal/catalog"
	"github.com/pdiddy/lexdraft/internal/checkpoint"
	"github.com/pdiddy/lexdraft/internal/generate"
	"github.com/pdiddy/lexdraft/internal/questionnaire"
	"github.com/pdiddy/lexdraft/internal/secrets"
	"github.com/pdiddy/lexdraft/internal/store"
	"github.com/pdiddy/lexdraft/internal/validate"
	"github.com/pdiddy/lexdraft/pkg/types"
)

func setDefaults() {
	viper.SetDefault("catalog.timeout", 30*time.Second)
	viper.SetDefault("catalog.max_retries", 5)
	viper.SetDefault("store.path", "data/lexdraft.db")
	viper.SetDefault("store.default_ip", "127.0.0.1")
	viper.SetDefault("generation.fallback_template", generate.DefaultFallbackTemplate)
	viper.SetDefault("session.timeout", questionnaire.DefaultTimeout)
	viper.SetDefault("checkpoint.backend", string(types.CheckpointFile))
	viper.SetDefault("checkpoint.dir", "data/checkpoints")
	viper.SetDefault("checkpoint.redis_addr", "localhost:6379")
	viper.SetDefault("checkpoint.ttl", 24*time.Hour)
	viper.SetDefault("server.addr", ":8080")
}

// loadConfig builds the settings from viper and applies loaded secrets.
func loadConfig() types.Config {
	cfg := types.Config{
		Catalog: types.CatalogConfig{
			File:       viper.GetString("catalog.file"),
			URL:        viper.GetString("catalog.url"),
			Timeout:    viper.GetDuration("catalog.timeout"),
			MaxRetries: viper.GetInt("catalog.max_retries"),
		},
		Store: types.StoreConfig{
			Path:             viper.GetString("store.path"),
			DefaultIPAddress: viper.GetString("store.default_ip"),
		},
		Generation: types.GenerationConfig{
			SectionsFile:     viper.GetString("generation.sections_file"),
			FallbackTemplate: viper.GetString("generation.fallback_template"),
			Strict:           viper.GetBool("generation.strict"),
		},
		Validation: types.ValidationConfig{
			ExemptHiddenRequired: viper.GetBool("validation.exempt_hidden_required"),
		},
		Session: types.SessionConfig{
			Timeout: viper.GetDuration("session.timeout"),
		},
		Checkpoint: types.CheckpointConfig{
			Backend:   types.CheckpointBackend(viper.GetString("checkpoint.backend")),
			Dir:       viper.GetString("checkpoint.dir"),
			RedisAddr: viper.GetString("checkpoint.redis_addr"),
			TTL:       viper.GetDuration("checkpoint.ttl"),
		},
		Server: types.ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg
}

// openCatalog returns the template directory and the question source. The
// source is the remote API when catalog.url is set.
func openCatalog(cfg types.CatalogConfig) (*catalog.Catalog, catalog.Source, error) {
	var (
		c   *catalog.Catalog
		err error
	)
	if cfg.File != "" {
		c, err = catalog.Load(cfg.File)
	} else {
		c, err = catalog.Default()
	}
	if err != nil {
		return nil, nil, err
	}
	if cfg.URL != "" {
		return c, catalog.NewRemote(cfg), nil
	}
	return c, c, nil
}

// engine bundles the collaborators most commands need.
type engine struct {
	cfg       types.Config
	catalog   *catalog.Catalog
	source    catalog.Source
	validator *validate.Validator
	generator *generate.Generator
}

func newEngine(cfg types.Config) (*engine, error) {
	c, src, err := openCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	g, err := generate.New(cfg.Generation, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &engine{
		cfg:       cfg,
		catalog:   c,
		source:    src,
		validator: &validate.Validator{Source: src, ExemptHidden: cfg.Validation.ExemptHiddenRequired},
		generator: g,
	}, nil
}

func (e *engine) controller(templateID string, initial types.Answers) *questionnaire.Controller {
	return questionnaire.New(templateID, questionnaire.Deps{
		Source:    e.source,
		Validator: e.validator,
		Generator: e.generator,
	}, questionnaire.WithInitialAnswers(initial), questionnaire.WithTimeout(e.cfg.Session.Timeout))
}

func openStore(cfg types.Config) (*store.Store, error) {
	return store.Open(cfg.Store)
}

func openCheckpoints(ctx context.Context, cfg types.Config) (checkpoint.Store, error) {
	return checkpoint.Open(ctx, cfg.Checkpoint)
}
