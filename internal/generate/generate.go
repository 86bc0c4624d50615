// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate turns a completed answer set into document sections by
// substituting answers into fixed section templates. Generation is
// deterministic apart from the GeneratedAt timestamp.
package generate

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lexdraft/pkg/types"
)

// DefaultFallbackTemplate is used for unknown template ids unless
// configured otherwise.
const DefaultFallbackTemplate = "rental-agreement"

// ErrUnknownTemplate is returned in strict mode when a template id has no
// section template.
var ErrUnknownTemplate = errors.New("unknown template")

//go:embed data/sections.yaml
var defaultSections []byte

// tokenPattern matches {{key}} and {{key|fallback}}.
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*(?:\|([^}]*))?\}\}`)

// DocumentTemplate is the section layout for one template id.
type DocumentTemplate struct {
	ID       string          `yaml:"id"`
	Title    string          `yaml:"title"`
	Sections []types.Section `yaml:"sections"`
}

// SectionsFile is the on-disk section template format.
type SectionsFile struct {
	Documents []DocumentTemplate `yaml:"documents"`
}

// LoadSections reads a section template file.
func LoadSections(path string) (*SectionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sections: %w", err)
	}
	return parseSections(data)
}

func parseSections(data []byte) (*SectionsFile, error) {
	var f SectionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sections: %w", err)
	}
	return &f, nil
}

// Generator produces documents from section templates.
type Generator struct {
	docs     map[string]DocumentTemplate
	fallback string
	strict   bool

	// Now is the clock stamped on generated documents.
	Now func() time.Time

	// Log receives a line whenever the fallback template is used.
	Log io.Writer
}

// New builds a Generator from cfg. Section templates come from
// cfg.SectionsFile, or the built-in set when it is empty.
func New(cfg types.GenerationConfig, log io.Writer) (*Generator, error) {
	var (
		f   *SectionsFile
		err error
	)
	if cfg.SectionsFile != "" {
		f, err = LoadSections(cfg.SectionsFile)
	} else {
		f, err = parseSections(defaultSections)
	}
	if err != nil {
		return nil, err
	}

	g := &Generator{
		docs:     make(map[string]DocumentTemplate, len(f.Documents)),
		fallback: cfg.FallbackTemplate,
		strict:   cfg.Strict,
		Now:      time.Now,
		Log:      log,
	}
	if g.fallback == "" {
		g.fallback = DefaultFallbackTemplate
	}
	if g.Log == nil {
		g.Log = io.Discard
	}
	for _, d := range f.Documents {
		if d.ID == "" {
			return nil, fmt.Errorf("section template with empty id")
		}
		if _, dup := g.docs[d.ID]; dup {
			return nil, fmt.Errorf("duplicate section template %q", d.ID)
		}
		g.docs[d.ID] = d
	}
	if _, ok := g.docs[g.fallback]; !ok && !g.strict {
		return nil, fmt.Errorf("fallback template %q has no sections", g.fallback)
	}
	return g, nil
}

// Has reports whether templateID has its own section template.
func (g *Generator) Has(templateID string) bool {
	_, ok := g.docs[templateID]
	return ok
}

// Generate fills the section template for templateID from answers. Missing
// answers never fail generation; they render as the token's fallback or a
// bracketed placeholder.
func (g *Generator) Generate(ctx context.Context, templateID string, answers types.Answers) (*types.GeneratedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpl, ok := g.docs[templateID]
	fallback := false
	if !ok {
		if g.strict {
			return nil, fmt.Errorf("generating %s: %w", templateID, ErrUnknownTemplate)
		}
		tmpl = g.docs[g.fallback]
		fallback = true
		fmt.Fprintf(g.Log, "warning: no sections for template %q, using %q\n", templateID, g.fallback)
	}

	sections := make([]types.Section, len(tmpl.Sections))
	for i, s := range tmpl.Sections {
		sections[i] = types.Section{
			Title:   s.Title,
			Content: Fill(s.Content, answers),
		}
	}

	return &types.GeneratedDocument{
		TemplateID:  tmpl.ID,
		Title:       tmpl.Title,
		Sections:    sections,
		GeneratedAt: g.Now().UTC(),
		Fallback:    fallback,
	}, nil
}

// Fill substitutes every token in body.
func Fill(body string, answers types.Answers) string {
	return tokenPattern.ReplaceAllStringFunc(body, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		key, alt := m[1], m[2]
		if v, ok := answers.Get(key); ok && !v.IsEmpty() {
			return v.String()
		}
		if strings.Contains(tok, "|") {
			return alt
		}
		return Placeholder(key)
	})
}

// Placeholder derives a bracketed label from a camelCase or snake_case key:
// tenantName becomes [TENANT NAME].
func Placeholder(key string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteByte(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToUpper(r))
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return "[" + strings.Join(strings.Fields(b.String()), " ") + "]"
}
