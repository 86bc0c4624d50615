// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexdraft/internal/generate"
	"github.com/pdiddy/lexdraft/pkg/types"
)

// defaultJurisdiction is recorded when the answers name none.
const defaultJurisdiction = "California"

var generateCmd = &cobra.Command{
	Use:   "generate <template> <answers.yaml>",
	Short: "Generate a document from an answers file",
	Long: `Generate fills the template's sections from the answers file without
running the questionnaire. Unanswered fields render as placeholders. The
document is printed as Markdown unless --output names a file; --save also
stores it as a draft.`,
	Args: cobra.ExactArgs(2),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")

	answers, err := readAnswers(args[1])
	if err != nil {
		return err
	}
	cfg := loadConfig()
	e, err := newEngine(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Session.Timeout)
	defer cancel()
	doc, err := e.generator.Generate(ctx, args[0], answers)
	if err != nil {
		return err
	}

	if err := emitDocument(doc, output); err != nil {
		return err
	}
	if save {
		return saveDocument(cfg, e, args[0], doc, answers)
	}
	return nil
}

func emitDocument(doc *types.GeneratedDocument, output string) error {
	if output == "" {
		return generate.WriteMarkdown(os.Stdout, doc)
	}
	if err := generate.ExportMarkdown(output, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", output)
	return nil
}

// saveDocument stores a generated document as a draft titled after the
// template and generation date.
func saveDocument(cfg types.Config, e *engine, templateID string, doc *types.GeneratedDocument, answers types.Answers) error {
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	title := doc.Title
	var risk types.RiskLevel
	if t, err := e.catalog.Template(templateID); err == nil {
		title = t.Name
		risk = t.RiskLevel
	}
	jurisdiction := defaultJurisdiction
	if v, ok := answers.Get("jurisdiction"); ok && !v.IsEmpty() {
		jurisdiction = v.String()
	}

	saved, err := s.Create(context.Background(), types.Document{
		TemplateID:   templateID,
		Title:        fmt.Sprintf("%s - %s", title, doc.GeneratedAt.Format(time.DateOnly)),
		Jurisdiction: jurisdiction,
		RiskLevel:    risk,
		Status:       types.StatusDraft,
		Content:      *doc,
		Answers:      answers,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved document %s\n", saved.ID)
	return nil
}

func init() {
	generateCmd.Flags().StringP("output", "o", "", "write Markdown to this file instead of stdout")
	generateCmd.Flags().Bool("save", false, "store the document as a draft")
	rootCmd.AddCommand(generateCmd)
}
