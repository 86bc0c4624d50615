// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package questionnaire drives one drafting session: it loads a template's
// catalog, walks the user through fixed-size steps, validates each step
// before advancing, and hands the frozen answers to a generator on submit.
//
// A Controller is safe for concurrent use. Advance, Submit, and Cancel are
// mutually exclusive; a call made while another is in flight fails with
// ErrBusy instead of queueing.
package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pdiddy/lexdraft/internal/catalog"
	"github.com/pdiddy/lexdraft/internal/steps"
	"github.com/pdiddy/lexdraft/pkg/types"
)

// DefaultTimeout bounds each catalog, validation, and generation call.
const DefaultTimeout = 30 * time.Second

var (
	// ErrBusy is returned when an operation is already in flight.
	ErrBusy = errors.New("operation in progress")

	// ErrInvalidState is returned when an operation is not allowed in the
	// current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrLastStep is returned by Advance on the final step; use Submit.
	ErrLastStep = errors.New("already on the last step")

	// ErrGeneration wraps a failed document generation.
	ErrGeneration = errors.New("document generation failed")

	// ErrUnknownQuestion is returned for answers to ids outside the catalog.
	ErrUnknownQuestion = errors.New("unknown question")

	// ErrValueShape is returned when a value does not fit the field type.
	ErrValueShape = errors.New("value does not match field type")
)

// State is the controller lifecycle position.
type State int

const (
	StateLoading State = iota
	StateActive
	StateSubmitting
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Validator checks a subset of answers, resolving dependencies against all.
type Validator interface {
	ValidateWithContext(ctx context.Context, templateID string, subset, all types.Answers) (types.ValidationResult, error)
}

// Generator produces a document from a frozen answer set.
type Generator interface {
	Generate(ctx context.Context, templateID string, answers types.Answers) (*types.GeneratedDocument, error)
}

// Deps are the collaborators a Controller calls.
type Deps struct {
	Source    catalog.Source
	Validator Validator
	Generator Generator
}

// Option configures a Controller.
type Option func(*Controller)

// WithInitialAnswers seeds answers, e.g. from a checkpoint. Ids that are not
// in the catalog are dropped on Load.
func WithInitialAnswers(a types.Answers) Option {
	return func(c *Controller) { c.initial = a.Clone() }
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Controller owns the state of one questionnaire session.
type Controller struct {
	templateID string
	deps       Deps
	timeout    time.Duration
	initial    types.Answers

	mu        sync.Mutex
	busy      bool
	state     State
	step      int
	questions []types.Question
	byID      map[string]types.Question
	answers   types.Answers
	result    types.ValidationResult
	document  *types.GeneratedDocument
	err       error
}

// New returns a controller in StateLoading. Call Load before anything else.
func New(templateID string, deps Deps, opts ...Option) *Controller {
	c := &Controller{
		templateID: templateID,
		deps:       deps,
		timeout:    DefaultTimeout,
		state:      StateLoading,
		answers:    types.Answers{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// begin claims the controller for an operation allowed in want.
func (c *Controller) begin(want State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if c.state != want {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	c.busy = true
	return nil
}

// Load fetches the question catalog. Failure is terminal: the state becomes
// StateFailed and the error is kept for Err.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.begin(StateLoading); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	questions, err := c.deps.Source.Questions(ctx, c.templateID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.state = StateFailed
		c.err = fmt.Errorf("loading questions for %s: %w", c.templateID, err)
		return c.err
	}

	c.questions = questions
	c.byID = make(map[string]types.Question, len(questions))
	for _, q := range questions {
		c.byID[q.ID] = q
	}
	for id, v := range c.initial {
		q, ok := c.byID[id]
		if !ok || q.CheckValue(v) != nil {
			continue
		}
		c.answers[id] = v
	}
	c.initial = nil
	c.step = 0
	c.state = StateActive
	return nil
}

// Answer records a value for a question in the catalog and clears that
// question's error. Warnings are kept until the next validation.
func (c *Controller) Answer(id string, v types.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if c.state != StateActive {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	q, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	if q.Type.Multi() && !v.IsList() && v.IsEmpty() {
		v = types.List()
	}
	if err := q.CheckValue(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValueShape, err)
	}
	c.answers[id] = v
	c.result.Errors = slices.DeleteFunc(slices.Clone(c.result.Errors), func(i types.Issue) bool {
		return i.QuestionID == id
	})
	c.result.IsValid = len(c.result.Errors) == 0
	return nil
}

// Advance validates the current step and moves to the next one when it has
// no errors. The returned result carries the step's errors and warnings.
func (c *Controller) Advance(ctx context.Context) (types.ValidationResult, error) {
	if err := c.begin(StateActive); err != nil {
		return types.ValidationResult{}, err
	}

	c.mu.Lock()
	if c.step >= steps.Total(c.questions)-1 {
		c.busy = false
		c.mu.Unlock()
		return types.ValidationResult{}, ErrLastStep
	}
	subset := c.answers.Subset(steps.IDs(steps.ForStep(c.questions, c.step)))
	all := c.answers.Clone()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	result, err := c.deps.Validator.ValidateWithContext(ctx, c.templateID, subset, all)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		return types.ValidationResult{}, fmt.Errorf("validating step %d: %w", c.step+1, err)
	}
	c.result = result
	if result.IsValid {
		c.step++
	}
	return result, nil
}

// Retreat moves back one step without validating. It is a no-op on the
// first step.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if c.state != StateActive {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	if c.step > 0 {
		c.step--
	}
	return nil
}

// Submit validates the whole form from the last step. An invalid form keeps
// the controller on the last step and returns the result with every error.
// A valid form is frozen and generated exactly once; on success the state is
// StateCompleted, on failure the controller returns to the last step with
// answers intact and the error wraps ErrGeneration.
func (c *Controller) Submit(ctx context.Context) (types.ValidationResult, error) {
	if err := c.begin(StateActive); err != nil {
		return types.ValidationResult{}, err
	}

	c.mu.Lock()
	if c.step != steps.Total(c.questions)-1 {
		c.busy = false
		c.mu.Unlock()
		return types.ValidationResult{}, fmt.Errorf("%w: submit from step %d of %d", ErrInvalidState, c.step+1, steps.Total(c.questions))
	}
	subset := c.answers.Subset(steps.IDs(c.questions))
	all := c.answers.Clone()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.deps.Validator.ValidateWithContext(ctx, c.templateID, subset, all)
	if err != nil {
		c.release()
		return types.ValidationResult{}, fmt.Errorf("validating form: %w", err)
	}

	c.mu.Lock()
	c.result = result
	if !result.IsValid {
		c.busy = false
		c.mu.Unlock()
		return result, nil
	}
	c.state = StateSubmitting
	frozen := c.answers.Clone()
	c.mu.Unlock()

	doc, err := c.deps.Generator.Generate(ctx, c.templateID, frozen)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.state = StateActive
		return result, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	c.document = doc
	c.state = StateCompleted
	return result, nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Cancel discards the answers and ends the session.
func (c *Controller) Cancel() error {
	if err := c.begin(StateActive); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.answers = types.Answers{}
	c.result = types.ValidationResult{}
	c.state = StateCancelled
	return nil
}
