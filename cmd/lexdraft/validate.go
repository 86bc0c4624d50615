// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lexdraft/internal/steps"
	"github.com/pdiddy/lexdraft/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate <template> <answers.yaml>",
	Short: "Validate an answers file against a template",
	Long: `Validate checks the file against every question of the template. A
missing required answer or a malformed email is an error and makes the
command fail. Non-numeric numbers, unlisted options, past dates, and answers
to questions hidden by their dependency are reported as warnings.`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	answers, err := readAnswers(args[1])
	if err != nil {
		return err
	}
	e, err := newEngine(loadConfig())
	if err != nil {
		return err
	}

	result, err := e.validateAll(context.Background(), args[0], answers)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(os.Stdout, result)
	}
	if !result.IsValid {
		return fmt.Errorf("%d validation error(s)", len(result.Errors))
	}
	return nil
}

// validateAll checks answers against every question of the template, so an
// omitted answer is treated as empty.
func (e *engine) validateAll(ctx context.Context, templateID string, answers types.Answers) (types.ValidationResult, error) {
	questions, err := e.source.Questions(ctx, templateID)
	if err != nil {
		return types.ValidationResult{}, err
	}
	return e.validator.ValidateWithContext(ctx, templateID, answers.Subset(steps.IDs(questions)), answers)
}

func printResult(w io.Writer, result types.ValidationResult) {
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  error    %-18s %s\n", e.QuestionID, e.Message)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "  warning  %-18s %s\n", warn.QuestionID, warn.Message)
	}
	if result.IsValid {
		fmt.Fprintln(w, "Answers are valid.")
	}
}

// readAnswers loads a YAML mapping of question id to a string or a list of
// strings.
func readAnswers(path string) (types.Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answers: %w", err)
	}
	var answers types.Answers
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parsing answers %s: %w", path, err)
	}
	if answers == nil {
		answers = types.Answers{}
	}
	return answers, nil
}

func init() {
	validateCmd.Flags().Bool("json", false, "output JSON")
	rootCmd.AddCommand(validateCmd)
}
