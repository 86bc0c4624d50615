// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexdraft/internal/steps"
	"github.com/pdiddy/lexdraft/pkg/types"
)

var templatesCmd = &cobra.Command{
	Use:   "templates [query]",
	Short: "List or search document templates",
	Long: `Templates lists the document templates in the catalog. A query matches
template names and descriptions case-insensitively; --category narrows the
list to one category.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTemplates,
}

func runTemplates(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	c, _, err := openCatalog(loadConfig().Catalog)
	if err != nil {
		return err
	}

	var list []types.Template
	switch {
	case len(args) == 1:
		list = c.Search(args[0])
	case category != "":
		list = c.ByCategory(category)
	default:
		list = c.Templates()
	}
	if category != "" && len(args) == 1 {
		filtered := list[:0]
		for _, t := range list {
			if t.Category == category {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}

	return formatTemplates(os.Stdout, list, jsonOutput)
}

func formatTemplates(w io.Writer, list []types.Template, jsonOutput bool) error {
	if jsonOutput {
		if list == nil {
			list = []types.Template{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "No templates found.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-30s  %-12s  %s\n", "ID", "Name", "Category", "Risk")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, t := range list {
		fmt.Fprintf(w, "%-20s  %-30s  %-12s  %s\n",
			t.ID, truncate(t.Name, 30), truncate(t.Category, 12), t.RiskLevel)
	}
	fmt.Fprintf(w, "\n%d templates\n", len(list))
	return nil
}

var questionsCmd = &cobra.Command{
	Use:   "questions <template>",
	Short: "Show a template's questions grouped by step",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestions,
}

func runQuestions(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	e, err := newEngine(loadConfig())
	if err != nil {
		return err
	}
	qs, err := e.source.Questions(context.Background(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(qs)
	}

	total := steps.Total(qs)
	for i := 0; i < total; i++ {
		fmt.Fprintf(os.Stdout, "Step %d of %d\n", i+1, total)
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 40))
		for _, q := range steps.ForStep(qs, i) {
			fmt.Fprintf(os.Stdout, "  %s\n", describeQuestion(q))
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

func describeQuestion(q types.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %-9s %s", q.ID, q.Type, q.Text)
	if q.Required {
		b.WriteString(" *")
	}
	if len(q.Options) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(q.Options, ", "))
	}
	if q.DependsOn != nil {
		fmt.Fprintf(&b, " (when %s %s %q)", q.DependsOn.QuestionID, q.DependsOn.Operator, q.DependsOn.Value)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	templatesCmd.Flags().String("category", "", "only list templates in this category")
	templatesCmd.Flags().Bool("json", false, "output JSON")
	questionsCmd.Flags().Bool("json", false, "output JSON")

	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(questionsCmd)
}
