// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package questionnaire

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lexdraft/internal/catalog"
	"github.com/pdiddy/lexdraft/internal/generate"
	"github.com/pdiddy/lexdraft/internal/steps"
	"github.com/pdiddy/lexdraft/internal/validate"
	"github.com/pdiddy/lexdraft/pkg/types"
)

// leaseQuestions is a seven-question catalog: steps of 3, 3, and 1.
func leaseQuestions() []types.Question {
	return []types.Question{
		{ID: "landlordName", Text: "Landlord", Type: types.FieldText, Required: true},
		{ID: "tenantName", Text: "Tenant", Type: types.FieldText, Required: true},
		{ID: "tenantEmail", Text: "Tenant email", Type: types.FieldEmail},
		{ID: "petsAllowed", Text: "Pets?", Type: types.FieldRadio, Options: []string{"yes", "no"}},
		{ID: "petDeposit", Text: "Pet deposit", Type: types.FieldNumber, Required: true,
			DependsOn: &types.Dependency{QuestionID: "petsAllowed", Value: types.Text("yes")}},
		{ID: "utilities", Text: "Utilities", Type: types.FieldCheckbox, Options: []string{"water", "power"}},
		{ID: "notes", Text: "Notes", Type: types.FieldTextarea},
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]types.Template{{ID: "lease", Name: "Lease", Questions: leaseQuestions()}})
	require.NoError(t, err)
	return c
}

type stubGenerator struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func (g *stubGenerator) Generate(ctx context.Context, templateID string, answers types.Answers) (*types.GeneratedDocument, error) {
	g.calls.Add(1)
	if g.started != nil {
		close(g.started)
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &types.GeneratedDocument{TemplateID: templateID, Title: "LEASE"}, nil
}

// newController validates with hidden required questions exempt, so the
// required petDeposit only applies once petsAllowed is yes.
func newController(t *testing.T, gen Generator, opts ...Option) *Controller {
	t.Helper()
	src := testCatalog(t)
	v := &validate.Validator{Source: src, ExemptHidden: true}
	c := New("lease", Deps{Source: src, Validator: v, Generator: gen}, opts...)
	require.NoError(t, c.Load(context.Background()))
	return c
}

// walkToLastStep answers every required question and advances to the end.
func walkToLastStep(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.Answer("landlordName", types.Text("Acme")))
	require.NoError(t, c.Answer("tenantName", types.Text("Bob")))
	for c.Step() < c.TotalSteps()-1 {
		r, err := c.Advance(context.Background())
		require.NoError(t, err)
		require.True(t, r.IsValid, "%v", r.Errors)
	}
}

func TestLoadAndPaging(t *testing.T) {
	c := newController(t, &stubGenerator{})
	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, 3, c.TotalSteps())
	assert.Equal(t, 0, c.Step())
	assert.Equal(t, []string{"landlordName", "tenantName", "tenantEmail"}, steps.IDs(c.StepQuestions()))
	assert.InDelta(t, 33.33, c.Progress(), 0.01)
}

func TestLoadFailureIsTerminal(t *testing.T) {
	src := testCatalog(t)
	c := New("missing", Deps{Source: src, Validator: validate.New(src), Generator: &stubGenerator{}})
	err := c.Load(context.Background())
	require.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, StateFailed, c.State())
	assert.ErrorIs(t, c.Err(), catalog.ErrNotFound)

	assert.ErrorIs(t, c.Load(context.Background()), ErrInvalidState, "no retry")
	assert.ErrorIs(t, c.Answer("landlordName", types.Text("x")), ErrInvalidState)
	assert.NotEmpty(t, c.Snapshot().Error)
}

func TestInitialAnswersDropUnknownIDs(t *testing.T) {
	c := newController(t, &stubGenerator{}, WithInitialAnswers(types.Answers{
		"landlordName": types.Text("Acme"),
		"bogus":        types.Text("x"),
		"utilities":    types.Text("water"),
	}))
	assert.Equal(t, types.Answers{"landlordName": types.Text("Acme")}, c.Answers())
}

func TestAnswer(t *testing.T) {
	c := newController(t, &stubGenerator{})

	assert.ErrorIs(t, c.Answer("bogus", types.Text("x")), ErrUnknownQuestion)
	assert.ErrorIs(t, c.Answer("utilities", types.Text("water")), ErrValueShape)
	assert.ErrorIs(t, c.Answer("notes", types.List("a")), ErrValueShape)
	require.NoError(t, c.Answer("utilities", types.List("water", "power")))
	require.NoError(t, c.Answer("utilities", types.Text("")), "an empty scalar clears a checkbox")
	assert.Equal(t, types.List(), c.Answers()["utilities"])
}

func TestAdvanceBlockedByErrors(t *testing.T) {
	c := newController(t, &stubGenerator{})
	require.NoError(t, c.Answer("tenantEmail", types.Text("not-an-email")))

	r, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.False(t, r.IsValid)
	assert.Equal(t, 0, c.Step())
	assert.Len(t, c.Errors(), 3)

	require.NoError(t, c.Answer("landlordName", types.Text("Acme")))
	assert.Len(t, c.Errors(), 2, "answering clears that question's error")

	require.NoError(t, c.Answer("tenantName", types.Text("Bob")))
	require.NoError(t, c.Answer("tenantEmail", types.Text("bob@example.com")))
	r, err = c.Advance(context.Background())
	require.NoError(t, err)
	assert.True(t, r.IsValid)
	assert.Equal(t, 1, c.Step())
}

func TestAdvanceValidatesCurrentStepOnly(t *testing.T) {
	c := newController(t, &stubGenerator{})
	require.NoError(t, c.Answer("landlordName", types.Text("Acme")))
	require.NoError(t, c.Answer("tenantName", types.Text("Bob")))
	_, err := c.Advance(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, c.Step())

	// petDeposit is required only once petsAllowed is yes.
	r, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.True(t, r.IsValid)
	require.NoError(t, c.Retreat())

	require.NoError(t, c.Answer("petsAllowed", types.Text("yes")))
	assert.Equal(t, []string{"petsAllowed", "petDeposit", "utilities"}, steps.IDs(c.VisibleQuestions()))
	r, err = c.Advance(context.Background())
	require.NoError(t, err)
	assert.False(t, r.IsValid)
	msg, ok := r.ErrorFor("petDeposit")
	assert.True(t, ok)
	assert.Equal(t, "Pet deposit is required", msg)
}

func TestHiddenRequiredBlocksAdvanceByDefault(t *testing.T) {
	src := testCatalog(t)
	c := New("lease", Deps{Source: src, Validator: validate.New(src), Generator: &stubGenerator{}})
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Answer("landlordName", types.Text("Acme")))
	require.NoError(t, c.Answer("tenantName", types.Text("Bob")))
	_, err := c.Advance(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Answer("petsAllowed", types.Text("no")))
	assert.NotContains(t, steps.IDs(c.VisibleQuestions()), "petDeposit")
	r, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.False(t, r.IsValid)
	_, ok := r.ErrorFor("petDeposit")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Step())
}

func TestHiddenQuestionWarning(t *testing.T) {
	c := newController(t, &stubGenerator{})
	walkToLastStep(t, c)
	require.NoError(t, c.Answer("petsAllowed", types.Text("no")))
	require.NoError(t, c.Answer("petDeposit", types.Text("500")))

	r, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, r.IsValid)
	require.Len(t, c.Warnings(), 1)
	assert.Equal(t, "petDeposit", c.Warnings()[0].QuestionID)
	assert.Equal(t, StateCompleted, c.State())
}

func TestRetreat(t *testing.T) {
	c := newController(t, &stubGenerator{})
	require.NoError(t, c.Retreat())
	assert.Equal(t, 0, c.Step(), "no-op on the first step")

	walkToLastStep(t, c)
	require.NoError(t, c.Answer("landlordName", types.Text("")))
	require.NoError(t, c.Retreat())
	assert.Equal(t, 1, c.Step(), "retreat does not validate")
}

func TestAdvanceOnLastStep(t *testing.T) {
	c := newController(t, &stubGenerator{})
	walkToLastStep(t, c)
	_, err := c.Advance(context.Background())
	assert.ErrorIs(t, err, ErrLastStep)
	assert.Equal(t, StateActive, c.State())
}

func TestSubmitOnlyFromLastStep(t *testing.T) {
	gen := &stubGenerator{}
	c := newController(t, gen)
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, gen.calls.Load())
}

func TestSubmitInvalidReportsAllSteps(t *testing.T) {
	gen := &stubGenerator{}
	c := newController(t, gen)
	walkToLastStep(t, c)
	require.NoError(t, c.Answer("landlordName", types.Text("")))
	require.NoError(t, c.Answer("tenantEmail", types.Text("nope")))

	r, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, r.IsValid)
	assert.Equal(t, []string{"landlordName", "tenantEmail"}, []string{r.Errors[0].QuestionID, r.Errors[1].QuestionID})
	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, 2, c.Step())
	assert.Zero(t, gen.calls.Load())
}

func TestSubmitSuccess(t *testing.T) {
	src := testCatalog(t)
	g, err := generate.New(types.GenerationConfig{}, nil)
	require.NoError(t, err)
	c := New("lease", Deps{Source: src, Validator: validate.New(src), Generator: g})
	require.NoError(t, c.Load(context.Background()))
	walkToLastStep(t, c)

	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, c.State())
	doc := c.Document()
	require.NotNil(t, doc)
	assert.True(t, doc.Fallback, "lease has no section template")
	assert.Contains(t, doc.Sections[0].Content, "Acme")

	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("boom")}
	c := newController(t, gen)
	walkToLastStep(t, c)
	before := c.Answers()

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, 2, c.Step())
	assert.Equal(t, before, c.Answers())
	assert.Nil(t, c.Document())

	gen.err = nil
	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, c.State())
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	gen := &stubGenerator{started: make(chan struct{}), release: make(chan struct{})}
	c := newController(t, gen)
	walkToLastStep(t, c)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = c.Submit(context.Background())
	}()
	<-gen.started

	assert.Equal(t, StateSubmitting, c.State())
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.Advance(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.Cancel(), ErrBusy)
	assert.ErrorIs(t, c.Answer("notes", types.Text("late")), ErrBusy)

	close(gen.release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, StateCompleted, c.State())
}

func TestSubmitTimeout(t *testing.T) {
	gen := &stubGenerator{started: make(chan struct{}), release: make(chan struct{})}
	c := newController(t, gen, WithTimeout(20*time.Millisecond))
	walkToLastStep(t, c)

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateActive, c.State())
}

func TestCancel(t *testing.T) {
	c := newController(t, &stubGenerator{})
	require.NoError(t, c.Answer("landlordName", types.Text("Acme")))
	require.NoError(t, c.Cancel())
	assert.Equal(t, StateCancelled, c.State())
	assert.Empty(t, c.Answers())
	assert.ErrorIs(t, c.Cancel(), ErrInvalidState)
}

func TestSnapshot(t *testing.T) {
	c := newController(t, &stubGenerator{})
	require.NoError(t, c.Answer("landlordName", types.Text("Acme")))
	s := c.Snapshot()
	assert.Equal(t, "lease", s.TemplateID)
	assert.Equal(t, StateActive, s.State)
	assert.Equal(t, 3, s.TotalSteps)
	assert.Len(t, s.Questions, 3)
	assert.Equal(t, types.Text("Acme"), s.Answers["landlordName"])
	assert.Empty(t, s.Errors)

	s.Answers["landlordName"] = types.Text("changed")
	assert.Equal(t, types.Text("Acme"), c.Answers()["landlordName"])
}

func TestStateString(t *testing.T) {
	text, err := StateSubmitting.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "submitting", string(text))
	assert.Equal(t, "state(42)", State(42).String())
}
