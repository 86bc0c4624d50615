// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CatalogConfig selects where question catalogs come from.
type CatalogConfig struct {
	// File is a YAML catalog path. Empty uses the built-in catalog.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// URL is the base URL of a remote catalog API. When set, question
	// lookups go to the remote source instead of File.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Timeout is the HTTP request timeout for the remote source.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries bounds retries on throttled remote responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Token is sent as a bearer token to the remote source. It is read from
	// .secrets/catalog-token, never from config.
	Token string `json:"-" yaml:"-"`
}

// StoreConfig holds settings for the document and signature store.
type StoreConfig struct {
	// Path is the SQLite database file (e.g. "data/lexdraft.db").
	Path string `json:"path" yaml:"path"`

	// DefaultIPAddress is recorded on signatures whose request carries no
	// originating address.
	DefaultIPAddress string `json:"default_ip" yaml:"default_ip"`
}

// GenerationConfig holds settings for content generation.
type GenerationConfig struct {
	// SectionsFile is a YAML file of section templates. Empty uses the
	// built-in set.
	SectionsFile string `json:"sections_file,omitempty" yaml:"sections_file,omitempty"`

	// FallbackTemplate is used for template ids without sections
	// (default "rental-agreement").
	FallbackTemplate string `json:"fallback_template" yaml:"fallback_template"`

	// Strict turns a missing section template into an error instead of a
	// fallback.
	Strict bool `json:"strict" yaml:"strict"`
}

// ValidationConfig holds answer validation settings.
type ValidationConfig struct {
	// ExemptHiddenRequired lifts the required rule from questions hidden by
	// an unsatisfied dependency. Off by default.
	ExemptHiddenRequired bool `json:"exempt_hidden_required" yaml:"exempt_hidden_required"`
}

// SessionConfig holds questionnaire session settings.
type SessionConfig struct {
	// Timeout bounds each validation and generation call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// CheckpointBackend selects where partial answers are saved.
type CheckpointBackend string

const (
	CheckpointNone  CheckpointBackend = "none"
	CheckpointFile  CheckpointBackend = "file"
	CheckpointRedis CheckpointBackend = "redis"
)

// CheckpointConfig holds settings for saving partial answers.
type CheckpointConfig struct {
	Backend CheckpointBackend `json:"backend" yaml:"backend"`

	// Dir holds YAML checkpoints for the file backend.
	Dir string `json:"dir" yaml:"dir"`

	// RedisAddr is host:port for the redis backend.
	RedisAddr string `json:"redis_addr" yaml:"redis_addr"`

	// RedisPassword is read from .secrets/redis-password, never from config.
	RedisPassword string `json:"-" yaml:"-"`

	// TTL expires redis checkpoints (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// Config groups all settings for the CLI and server.
type Config struct {
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Session    SessionConfig    `json:"session" yaml:"session"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}
