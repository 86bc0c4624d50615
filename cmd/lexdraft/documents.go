// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexdraft/internal/generate"
	"github.com/pdiddy/lexdraft/pkg/types"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage stored documents (list, show, status, export)",
	Long: `Documents manages the local document store. Documents are created by
fill --save, generate --save, or the HTTP API.`,
}

// --- list subcommand ---

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents, newest first",
	RunE:  runDocumentsList,
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st := types.DocumentStatus(status)
	if st != "" && !st.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	docs, err := s.List(context.Background(), st)
	if err != nil {
		return err
	}
	return formatDocuments(os.Stdout, docs, jsonOutput)
}

func formatDocuments(w io.Writer, docs []types.Document, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-40s  %-10s  %s\n", "ID", "Title", "Status", "Updated")
	fmt.Fprintln(w, strings.Repeat("-", 108))
	for _, d := range docs {
		fmt.Fprintf(w, "%-36s  %-40s  %-10s  %s\n",
			d.ID, truncate(d.Title, 40), d.Status, d.UpdatedAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(w, "\n%d documents\n", len(docs))
	return nil
}

// --- show subcommand ---

var documentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored document as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := s.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	fmt.Fprintf(os.Stdout, "Title:        %s\n", doc.Title)
	fmt.Fprintf(os.Stdout, "Template:     %s\n", doc.TemplateID)
	fmt.Fprintf(os.Stdout, "Status:       %s\n", doc.Status)
	fmt.Fprintf(os.Stdout, "Jurisdiction: %s\n", doc.Jurisdiction)
	if doc.RiskLevel != "" {
		fmt.Fprintf(os.Stdout, "Risk:         %s\n", doc.RiskLevel)
	}
	fmt.Fprintln(os.Stdout)
	return generate.WriteMarkdown(os.Stdout, &doc.Content)
}

// --- status subcommand ---

var documentsStatusCmd = &cobra.Command{
	Use:   "status <id> <draft|review|signed|completed>",
	Short: "Change a document's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentsStatus,
}

func runDocumentsStatus(cmd *cobra.Command, args []string) error {
	st := types.DocumentStatus(args[1])
	if !st.Valid() {
		return fmt.Errorf("unknown status %q", args[1])
	}

	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := s.Update(context.Background(), args[0], types.DocumentPatch{Status: &st})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s is now %s\n", doc.ID, doc.Status)
	return nil
}

// --- duplicate subcommand ---

var documentsDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Copy a document into a new draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDuplicate,
}

func runDocumentsDuplicate(cmd *cobra.Command, args []string) error {
	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := s.Duplicate(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Created %s (%s)\n", doc.ID, doc.Title)
	return nil
}

// --- delete subcommand ---

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document and its signatures",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted %s\n", args[0])
	return nil
}

// --- export subcommand ---

var documentsExportCmd = &cobra.Command{
	Use:   "export <id> <file.md>",
	Short: "Write a stored document to a Markdown file",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentsExport,
}

func runDocumentsExport(cmd *cobra.Command, args []string) error {
	s, err := openStore(loadConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := s.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	if err := generate.ExportMarkdown(args[1], &doc.Content); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Exported %s to %s\n", doc.ID, args[1])
	return nil
}

func init() {
	documentsListCmd.Flags().String("status", "", "only list documents with this status")
	documentsListCmd.Flags().Bool("json", false, "output JSON")
	documentsShowCmd.Flags().Bool("json", false, "output JSON")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsStatusCmd)
	documentsCmd.AddCommand(documentsDuplicateCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(documentsExportCmd)
	rootCmd.AddCommand(documentsCmd)
}
