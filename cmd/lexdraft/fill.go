// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexdraft/internal/checkpoint"
	"github.com/pdiddy/lexdraft/internal/questionnaire"
	"github.com/pdiddy/lexdraft/pkg/types"
)

var fillCmd = &cobra.Command{
	Use:   "fill <template>",
	Short: "Answer a template's questionnaire interactively",
	Long: `Fill asks the template's questions three at a time. Each step is
validated before moving on; the last step submits the answers and generates
the document. If generation fails, progress is saved and the last step is
asked again.

At any prompt, an empty line keeps the current answer. Enter :back to return
to the previous step, :quit to save progress and exit, or :cancel to discard
everything. Saved progress is resumed the next time fill runs with the same
checkpoint key.`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

// fillOutcome is how an interactive session ended.
type fillOutcome int

const (
	fillCompleted fillOutcome = iota
	fillQuit
	fillCancelled
)

// filler drives a questionnaire controller from line-oriented input.
type filler struct {
	ctl         *questionnaire.Controller
	in          *bufio.Scanner
	out         io.Writer
	checkpoints checkpoint.Store
	key         string
}

func runFill(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	key, _ := cmd.Flags().GetString("checkpoint")
	fresh, _ := cmd.Flags().GetBool("fresh")

	templateID := args[0]
	if key == "" {
		key = templateID
	}

	ctx := context.Background()
	cfg := loadConfig()
	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	cps, err := openCheckpoints(ctx, cfg)
	if err != nil {
		return err
	}

	var resume *checkpoint.Checkpoint
	if cps != nil && !fresh {
		cp, err := cps.Load(ctx, key)
		switch {
		case err == nil && cp.TemplateID == templateID:
			resume = cp
		case err != nil && !errors.Is(err, checkpoint.ErrNotFound):
			fmt.Fprintf(os.Stderr, "warning: loading checkpoint %s: %v\n", key, err)
		}
	}

	var initial types.Answers
	if resume != nil {
		initial = resume.Answers
	}
	ctl := e.controller(templateID, initial)
	if err := ctl.Load(ctx); err != nil {
		return err
	}

	f := &filler{ctl: ctl, in: bufio.NewScanner(os.Stdin), out: os.Stdout, checkpoints: cps, key: key}
	if resume != nil {
		f.resumeAt(ctx, resume.Step, resume.SavedAt)
	}

	outcome, err := f.run(ctx)
	if err != nil {
		return err
	}
	switch outcome {
	case fillQuit:
		fmt.Fprintf(os.Stdout, "Progress saved. Run lexdraft fill %s to continue.\n", templateID)
		return nil
	case fillCancelled:
		fmt.Fprintln(os.Stdout, "Cancelled.")
		return nil
	}

	doc := ctl.Document()
	if err := emitDocument(doc, output); err != nil {
		return err
	}
	if save {
		return saveDocument(cfg, e, templateID, doc, ctl.Answers())
	}
	return nil
}

// resumeAt advances through already-answered steps up to step. It stops at
// the first step whose answers no longer validate.
func (f *filler) resumeAt(ctx context.Context, step int, savedAt time.Time) {
	fmt.Fprintf(f.out, "Resuming progress saved %s.\n", savedAt.Local().Format(time.DateTime))
	for f.ctl.Step() < step {
		res, err := f.ctl.Advance(ctx)
		if err != nil || !res.IsValid {
			return
		}
	}
}

// run asks questions until the questionnaire completes or the user quits.
func (f *filler) run(ctx context.Context) (fillOutcome, error) {
	for {
		total := f.ctl.TotalSteps()
		fmt.Fprintf(f.out, "\nStep %d of %d (%.0f%%)\n", f.ctl.Step()+1, total, f.ctl.Progress())
		fmt.Fprintln(f.out, strings.Repeat("-", 40))

		cmd, err := f.askStep()
		if err != nil {
			return 0, err
		}
		switch cmd {
		case ":back":
			if err := f.ctl.Retreat(); err != nil {
				return 0, err
			}
			continue
		case ":quit":
			return fillQuit, f.save(ctx)
		case ":cancel":
			if err := f.ctl.Cancel(); err != nil {
				return 0, err
			}
			if f.checkpoints != nil {
				if err := f.checkpoints.Delete(ctx, f.key); err != nil {
					fmt.Fprintf(f.out, "warning: clearing checkpoint: %v\n", err)
				}
			}
			return fillCancelled, nil
		}

		if f.ctl.Step() < total-1 {
			res, err := f.ctl.Advance(ctx)
			if err != nil {
				return 0, err
			}
			f.report(res)
			if err := f.save(ctx); err != nil {
				fmt.Fprintf(f.out, "warning: saving checkpoint: %v\n", err)
			}
			continue
		}

		res, err := f.ctl.Submit(ctx)
		if errors.Is(err, questionnaire.ErrGeneration) {
			fmt.Fprintf(f.out, "  ! %v\n", err)
			if err := f.save(ctx); err != nil {
				fmt.Fprintf(f.out, "warning: saving checkpoint: %v\n", err)
			}
			continue
		}
		if err != nil {
			return 0, err
		}
		f.report(res)
		if !res.IsValid {
			continue
		}
		if f.checkpoints != nil {
			if err := f.checkpoints.Delete(ctx, f.key); err != nil {
				fmt.Fprintf(f.out, "warning: clearing checkpoint: %v\n", err)
			}
		}
		return fillCompleted, nil
	}
}

// askStep prompts for each visible question on the current step. Visibility
// is rechecked before every prompt so earlier answers on the same step can
// reveal later questions. It returns a navigation command if one was typed.
func (f *filler) askStep() (string, error) {
	for _, q := range f.ctl.StepQuestions() {
		if !q.Visible(f.ctl.Answers()) {
			continue
		}
		for {
			line, ok := f.prompt(q)
			if !ok {
				return ":quit", nil
			}
			switch line {
			case ":back", ":quit", ":cancel":
				return line, nil
			case "":
				if q.Type.Multi() {
					if _, set := f.ctl.Answers().Get(q.ID); !set {
						if err := f.ctl.Answer(q.ID, types.List()); err != nil {
							return "", err
						}
					}
				}
			default:
				if err := f.ctl.Answer(q.ID, parseInput(q, line)); err != nil {
					if errors.Is(err, questionnaire.ErrValueShape) {
						fmt.Fprintf(f.out, "  %v\n", err)
						continue
					}
					return "", err
				}
			}
			break
		}
	}
	return "", nil
}

func (f *filler) prompt(q types.Question) (string, bool) {
	label := q.Text
	if q.Required {
		label += " *"
	}
	fmt.Fprintf(f.out, "%s\n", label)
	if q.HelpText != "" {
		fmt.Fprintf(f.out, "  %s\n", q.HelpText)
	}
	for i, opt := range q.Options {
		fmt.Fprintf(f.out, "  %d) %s\n", i+1, opt)
	}
	if v, ok := f.ctl.Answers().Get(q.ID); ok && !v.IsEmpty() {
		fmt.Fprintf(f.out, "[%s] ", v.String())
	}
	fmt.Fprint(f.out, "> ")

	if !f.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(f.in.Text()), true
}

func (f *filler) report(res types.ValidationResult) {
	for _, e := range res.Errors {
		fmt.Fprintf(f.out, "  ! %s: %s\n", e.QuestionID, e.Message)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(f.out, "  ~ %s: %s\n", w.QuestionID, w.Message)
	}
}

func (f *filler) save(ctx context.Context) error {
	if f.checkpoints == nil {
		return nil
	}
	return f.checkpoints.Save(ctx, f.key, checkpoint.Checkpoint{
		TemplateID: f.ctl.TemplateID(),
		Step:       f.ctl.Step(),
		Answers:    f.ctl.Answers(),
		SavedAt:    time.Now().UTC(),
	})
}

// parseInput turns a typed line into an answer. Option questions accept a
// 1-based index or the option text; checkbox answers are comma-separated.
func parseInput(q types.Question, line string) types.Value {
	if !q.Type.HasOptions() {
		return types.Text(line)
	}
	if !q.Type.Multi() {
		return types.Text(resolveOption(q.Options, line))
	}
	var items []string
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		items = append(items, resolveOption(q.Options, part))
	}
	return types.List(items...)
}

func resolveOption(options []string, s string) string {
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	for _, opt := range options {
		if strings.EqualFold(opt, s) {
			return opt
		}
	}
	return s
}

func init() {
	fillCmd.Flags().StringP("output", "o", "", "write Markdown to this file instead of stdout")
	fillCmd.Flags().Bool("save", false, "store the finished document as a draft")
	fillCmd.Flags().String("checkpoint", "", "checkpoint key for saved progress (default: the template id)")
	fillCmd.Flags().Bool("fresh", false, "ignore saved progress")
	rootCmd.AddCommand(fillCmd)
}
