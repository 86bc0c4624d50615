// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists drafted documents and their electronic signatures
// in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lexdraft/pkg/types"
)

// ErrNotFound is returned for unknown document or signature ids.
var ErrNotFound = errors.New("not found")

const (
	defaultPath = "data/lexdraft.db"
	defaultIP   = "127.0.0.1"
	timeLayout  = time.RFC3339Nano
)

// Store manages the document SQLite database.
type Store struct {
	db        *sql.DB
	defaultIP string

	// Now is the clock for created, updated, and signed timestamps.
	Now func() time.Time
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ip := cfg.DefaultIPAddress
	if ip == "" {
		ip = defaultIP
	}

	s := &Store{db: db, defaultIP: ip, Now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			title TEXT NOT NULL,
			jurisdiction TEXT,
			risk_level TEXT,
			status TEXT NOT NULL,
			content TEXT,
			answers TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status)`,
		`CREATE TABLE IF NOT EXISTS signatures (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			signer_id TEXT,
			name TEXT NOT NULL,
			email TEXT,
			role TEXT,
			signature_data TEXT,
			ip_address TEXT,
			signed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signatures_document_id ON signatures(document_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) now() string {
	return s.Now().UTC().Format(timeLayout)
}

// Create stores doc under a new id. An empty status becomes draft. The
// stored document is returned.
func (s *Store) Create(ctx context.Context, doc types.Document) (*types.Document, error) {
	if doc.Status == "" {
		doc.Status = types.StatusDraft
	}
	if !doc.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", doc.Status)
	}
	doc.ID = uuid.NewString()
	ts := s.now()

	content, err := json.Marshal(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("encoding content: %w", err)
	}
	answers, err := json.Marshal(doc.Answers)
	if err != nil {
		return nil, fmt.Errorf("encoding answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, template_id, title, jurisdiction, risk_level, status, content, answers, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.TemplateID, doc.Title, doc.Jurisdiction, string(doc.RiskLevel),
		string(doc.Status), string(content), string(answers), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	return s.Get(ctx, doc.ID)
}

const documentColumns = `id, template_id, title, jurisdiction, risk_level, status, content, answers, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*types.Document, error) {
	var (
		d                    types.Document
		jurisdiction, risk   sql.NullString
		content, answers     sql.NullString
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&d.ID, &d.TemplateID, &d.Title, &jurisdiction, &risk, &status,
		&content, &answers, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.Jurisdiction = jurisdiction.String
	d.RiskLevel = types.RiskLevel(risk.String)
	d.Status = types.DocumentStatus(status)
	if content.String != "" {
		if err := json.Unmarshal([]byte(content.String), &d.Content); err != nil {
			return nil, fmt.Errorf("decoding content of %s: %w", d.ID, err)
		}
	}
	if answers.String != "" && answers.String != "null" {
		if err := json.Unmarshal([]byte(answers.String), &d.Answers); err != nil {
			return nil, fmt.Errorf("decoding answers of %s: %w", d.ID, err)
		}
	}
	d.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	d.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &d, nil
}

// Get returns the document with id.
func (s *Store) Get(ctx context.Context, id string) (*types.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", id, err)
	}
	return d, nil
}

// List returns documents newest first. An empty status lists all of them.
func (s *Store) List(ctx context.Context, status types.DocumentStatus) ([]types.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs := []types.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// Update applies the non-nil fields of patch and bumps UpdatedAt.
func (s *Store) Update(ctx context.Context, id string, patch types.DocumentPatch) (*types.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	d, err := scanDocument(tx.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", id, err)
	}

	if patch.Title != nil {
		d.Title = *patch.Title
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("invalid status %q", *patch.Status)
		}
		d.Status = *patch.Status
	}
	if patch.Jurisdiction != nil {
		d.Jurisdiction = *patch.Jurisdiction
	}
	if patch.Content != nil {
		d.Content = *patch.Content
	}
	if patch.Answers != nil {
		d.Answers = patch.Answers.Clone()
	}

	content, err := json.Marshal(d.Content)
	if err != nil {
		return nil, fmt.Errorf("encoding content: %w", err)
	}
	answers, err := json.Marshal(d.Answers)
	if err != nil {
		return nil, fmt.Errorf("encoding answers: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET title = ?, status = ?, jurisdiction = ?, content = ?, answers = ?, updated_at = ?
		 WHERE id = ?`,
		d.Title, string(d.Status), d.Jurisdiction, string(content), string(answers), s.now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating document %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a document and its signatures.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	return affected(res, "document", id)
}

// Duplicate copies a document as a new draft titled "<title> (Copy)".
// Signatures are not copied.
func (s *Store) Duplicate(ctx context.Context, id string) (*types.Document, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Title += " (Copy)"
	d.Status = types.StatusDraft
	return s.Create(ctx, *d)
}

func affected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
