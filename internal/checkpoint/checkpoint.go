// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint saves partial questionnaire answers so an interrupted
// session can resume where it stopped.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lexdraft/pkg/types"
)

// ErrNotFound is returned when no checkpoint exists for a key.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is the saved state of a questionnaire.
type Checkpoint struct {
	TemplateID string        `json:"templateId" yaml:"template_id"`
	Step       int           `json:"step" yaml:"step"`
	Answers    types.Answers `json:"answers" yaml:"answers"`
	SavedAt    time.Time     `json:"savedAt" yaml:"saved_at"`
}

// Store saves and loads checkpoints by key.
type Store interface {
	Save(ctx context.Context, key string, cp Checkpoint) error
	Load(ctx context.Context, key string) (*Checkpoint, error)
	Delete(ctx context.Context, key string) error
}

// Open returns the store selected by cfg. The none backend returns a nil
// Store and no error.
func Open(ctx context.Context, cfg types.CheckpointConfig) (Store, error) {
	switch cfg.Backend {
	case "", types.CheckpointFile:
		dir := cfg.Dir
		if dir == "" {
			dir = defaultDir
		}
		return NewFileStore(dir), nil
	case types.CheckpointRedis:
		s, err := NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case types.CheckpointNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
}

const defaultDir = "data/checkpoints"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileStore keeps one YAML file per key in a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// the first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".yaml")
}

// Save writes the checkpoint, replacing any previous one for key.
func (s *FileStore) Save(ctx context.Context, key string, cp Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}
	data, err := yaml.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load reads the checkpoint for key.
func (s *FileStore) Load(ctx context.Context, key string) (*Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", key, err)
	}
	return &cp, nil
}

// Delete removes the checkpoint for key. Deleting a missing key is not an
// error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
)
