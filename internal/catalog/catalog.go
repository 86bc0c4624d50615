// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog provides the ordered question catalogs and the template
// directory that questionnaires are built from. Catalogs are read-only once
// loaded; every lookup returns a copy.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lexdraft/pkg/types"
)

// ErrNotFound is returned when a template has no catalog entry.
var ErrNotFound = errors.New("not found")

//go:embed data/catalog.yaml
var defaultCatalog []byte

// Source returns the ordered questions for a template.
type Source interface {
	Questions(ctx context.Context, templateID string) ([]types.Question, error)
}

// File is the on-disk catalog format.
type File struct {
	Templates []types.Template `json:"templates" yaml:"templates"`
}

// Catalog is an in-memory, YAML-backed template directory.
type Catalog struct {
	templates []types.Template
	byID      map[string]int
}

// Default parses the built-in catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("parsing built-in catalog: %w", err)
	}
	return c, nil
}

// Load reads a catalog YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and checks catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return New(f.Templates)
}

// New builds a catalog from templates after checking each one.
func New(templates []types.Template) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(templates))}
	for _, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template with empty id")
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template %q", t.ID)
		}
		if err := checkQuestions(t.Questions); err != nil {
			return nil, fmt.Errorf("template %s: %w", t.ID, err)
		}
		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, cloneTemplate(t))
	}
	return c, nil
}

func checkQuestions(questions []types.Question) error {
	ids := make(map[string]bool, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("question with empty id")
		}
		if ids[q.ID] {
			return fmt.Errorf("duplicate question %q", q.ID)
		}
		ids[q.ID] = true

		if !q.Type.Valid() {
			return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
		}
		if q.Type.HasOptions() && len(q.Options) == 0 {
			return fmt.Errorf("question %s: %s requires options", q.ID, q.Type)
		}
		if !q.Type.HasOptions() && len(q.Options) > 0 {
			return fmt.Errorf("question %s: %s does not take options", q.ID, q.Type)
		}
		if !q.PastDate.Valid() {
			return fmt.Errorf("question %s: unknown past_date policy %q", q.ID, q.PastDate)
		}
	}
	for _, q := range questions {
		if q.DependsOn == nil {
			continue
		}
		d := q.DependsOn
		if !ids[d.QuestionID] {
			return fmt.Errorf("question %s depends on unknown question %q", q.ID, d.QuestionID)
		}
		if d.QuestionID == q.ID {
			return fmt.Errorf("question %s depends on itself", q.ID)
		}
		if !d.Operator.Valid() {
			return fmt.Errorf("question %s: unknown operator %q", q.ID, d.Operator)
		}
	}
	return nil
}

// Questions returns a copy of the template's ordered questions.
func (c *Catalog) Questions(ctx context.Context, templateID string) ([]types.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := c.byID[templateID]
	if !ok || len(c.templates[i].Questions) == 0 {
		return nil, fmt.Errorf("questions for template %q: %w", templateID, ErrNotFound)
	}
	return cloneQuestions(c.templates[i].Questions), nil
}

// Templates returns every template without its questions, in file order.
func (c *Catalog) Templates() []types.Template {
	out := make([]types.Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, summary(t))
	}
	return out
}

// Template returns one template including its questions.
func (c *Catalog) Template(id string) (types.Template, error) {
	i, ok := c.byID[id]
	if !ok {
		return types.Template{}, fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	return cloneTemplate(c.templates[i]), nil
}

// ByCategory returns the templates in category, compared exactly.
func (c *Catalog) ByCategory(category string) []types.Template {
	var out []types.Template
	for _, t := range c.templates {
		if t.Category == category {
			out = append(out, summary(t))
		}
	}
	return out
}

// Search matches query case-insensitively against name, description, and
// category. An empty query matches everything.
func (c *Catalog) Search(query string) []types.Template {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []types.Template
	for _, t := range c.templates {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.Category), q) {
			out = append(out, summary(t))
		}
	}
	return out
}

func summary(t types.Template) types.Template {
	t.Questions = nil
	return t
}

func cloneTemplate(t types.Template) types.Template {
	t.Questions = cloneQuestions(t.Questions)
	return t
}

func cloneQuestions(qs []types.Question) []types.Question {
	out := make([]types.Question, len(qs))
	for i, q := range qs {
		q.Options = slices.Clone(q.Options)
		if q.DependsOn != nil {
			d := *q.DependsOn
			d.Values = slices.Clone(d.Values)
			q.DependsOn = &d
		}
		out[i] = q
	}
	return out
}
