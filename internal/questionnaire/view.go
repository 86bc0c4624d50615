// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package questionnaire

import (
	"slices"

	"github.com/pdiddy/lexdraft/internal/steps"
	"github.com/pdiddy/lexdraft/pkg/types"
)

// Snapshot is a point-in-time copy of a session, suitable for JSON output
// and checkpoints.
type Snapshot struct {
	TemplateID string                   `json:"templateId"`
	State      State                    `json:"state"`
	Step       int                      `json:"step"`
	TotalSteps int                      `json:"totalSteps"`
	Progress   float64                  `json:"progress"`
	Questions  []types.Question         `json:"questions"`
	Answers    types.Answers            `json:"answers"`
	Errors     []types.Issue            `json:"errors"`
	Warnings   []types.Issue            `json:"warnings"`
	Document   *types.GeneratedDocument `json:"document,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// TemplateID returns the template the session drafts.
func (c *Controller) TemplateID() string { return c.templateID }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Step returns the zero-based current step.
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// TotalSteps returns the number of steps in the loaded catalog.
func (c *Controller) TotalSteps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return steps.Total(c.questions)
}

// Questions returns the full catalog in order.
func (c *Controller) Questions() []types.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.questions)
}

// StepQuestions returns every question on the current step, hidden or not.
func (c *Controller) StepQuestions() []types.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(steps.ForStep(c.questions, c.step))
}

// VisibleQuestions returns the current step's questions whose dependencies
// hold for the current answers.
func (c *Controller) VisibleQuestions() []types.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible()
}

func (c *Controller) visible() []types.Question {
	return steps.Visible(steps.ForStep(c.questions, c.step), c.answers)
}

// Answers returns a copy of the collected answers.
func (c *Controller) Answers() types.Answers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Clone()
}

// Errors returns the errors from the last validation still outstanding.
func (c *Controller) Errors() []types.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.result.Errors)
}

// Warnings returns the warnings from the last validation.
func (c *Controller) Warnings() []types.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.result.Warnings)
}

// Document returns the generated document once the session is completed.
func (c *Controller) Document() *types.GeneratedDocument {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

// Err returns the catalog error that failed the session, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Progress returns the current step as a percentage of the total.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return steps.Progress(c.step, steps.Total(c.questions))
}

// Snapshot copies the session state. Questions holds the visible questions
// of the current step.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		TemplateID: c.templateID,
		State:      c.state,
		Step:       c.step,
		TotalSteps: steps.Total(c.questions),
		Progress:   steps.Progress(c.step, steps.Total(c.questions)),
		Questions:  c.visible(),
		Answers:    c.answers.Clone(),
		Errors:     slices.Clone(c.result.Errors),
		Warnings:   slices.Clone(c.result.Warnings),
		Document:   c.document,
	}
	if s.Questions == nil {
		s.Questions = []types.Question{}
	}
	if s.Errors == nil {
		s.Errors = []types.Issue{}
	}
	if s.Warnings == nil {
		s.Warnings = []types.Issue{}
	}
	if c.err != nil {
		s.Error = c.err.Error()
	}
	return s
}
