// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks questionnaire answers against their catalog.
// Validation failures are returned as data in a ValidationResult; the error
// return of Validator methods is reserved for catalog failures.
package validate

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/lexdraft/internal/catalog"
	"github.com/pdiddy/lexdraft/pkg/types"
)

const (
	msgNotApplicable = "This field may not be applicable based on your previous answer"
	msgInvalidEmail  = "Please enter a valid email address"
	msgPastDate      = "The selected date is in the past"
	msgNotNumber     = "Please enter a number"
	msgNotOption     = "Please choose one of the listed options"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// dateLayouts are tried in order when reading a date answer.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006"}

// Options tune a Check call.
type Options struct {
	// Context supplies controlling answers for dependencies whose question
	// is outside the validated subset.
	Context types.Answers

	// Now is the clock for the past-date rule (default time.Now).
	Now func() time.Time

	// ExemptHidden lifts the required rule from questions hidden by an
	// unsatisfied dependency. Off by default: a required question is
	// required whether or not it is shown.
	ExemptHidden bool
}

// Check validates the questions whose ids are keys of subset, in catalog
// order. Questions outside the subset are ignored. The required, dependency
// and type rules run independently, so one question can collect both an
// error and a warning. Inputs are not modified.
func Check(questions []types.Question, subset types.Answers, opts Options) types.ValidationResult {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	result := types.ValidationResult{
		Errors:   []types.Issue{},
		Warnings: []types.Issue{},
	}

	for _, q := range questions {
		v, inScope := subset[q.ID]
		if !inScope {
			continue
		}

		applicable := true
		if q.DependsOn != nil {
			ctl, ok := controlling(q.DependsOn.QuestionID, subset, opts.Context)
			applicable = q.DependsOn.Satisfied(ctl, ok)
		}

		if q.Required && v.IsEmpty() && (applicable || !opts.ExemptHidden) {
			result.Errors = append(result.Errors, types.Issue{QuestionID: q.ID, Message: q.Text + " is required"})
		}

		if v.IsEmpty() {
			continue
		}

		if !applicable {
			result.Warnings = append(result.Warnings, types.Issue{QuestionID: q.ID, Message: msgNotApplicable})
		}

		if issue, fatal := checkType(q, v, now); issue != "" {
			if fatal {
				result.Errors = append(result.Errors, types.Issue{QuestionID: q.ID, Message: issue})
			} else {
				result.Warnings = append(result.Warnings, types.Issue{QuestionID: q.ID, Message: issue})
			}
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// checkType applies the per-type rule to a non-empty value. It returns the
// message and whether it is an error rather than a warning.
func checkType(q types.Question, v types.Value, now func() time.Time) (string, bool) {
	switch q.Type {
	case types.FieldEmail:
		if !emailPattern.MatchString(v.String()) {
			return msgInvalidEmail, true
		}
	case types.FieldDate:
		if q.PastDate == types.PastDateAllow {
			return "", false
		}
		if d, ok := parseDate(v.String()); ok && isPast(d, now()) {
			return msgPastDate, false
		}
	case types.FieldNumber:
		if _, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v.String()), ",", ""), 64); err != nil {
			return msgNotNumber, false
		}
	case types.FieldSelect, types.FieldRadio, types.FieldCheckbox:
		for _, item := range v.Items() {
			if !slices.Contains(q.Options, item) {
				return msgNotOption, false
			}
		}
	case types.FieldText, types.FieldTextarea:
	}
	return "", false
}

func controlling(id string, subset, all types.Answers) (types.Value, bool) {
	if v, ok := subset[id]; ok && !v.IsEmpty() {
		return v, true
	}
	if v, ok := all[id]; ok {
		return v, true
	}
	return subset.Get(id)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isPast compares calendar days for date-only values, so today is not past.
func isPast(d, now time.Time) bool {
	if d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 && d.Nanosecond() == 0 {
		y, m, day := now.Date()
		today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		return d.Before(today)
	}
	return d.Before(now)
}

// Validator validates answers for a template looked up in a catalog.
type Validator struct {
	Source catalog.Source
	Now    func() time.Time

	// ExemptHidden is passed through to Options.ExemptHidden.
	ExemptHidden bool
}

// New returns a Validator backed by src.
func New(src catalog.Source) *Validator {
	return &Validator{Source: src}
}

// Validate checks subset against the template's full catalog. Only keys
// present in subset are inspected, so the same call serves one step or the
// whole form.
func (v *Validator) Validate(ctx context.Context, templateID string, subset types.Answers) (types.ValidationResult, error) {
	return v.ValidateWithContext(ctx, templateID, subset, nil)
}

// ValidateWithContext is Validate with the full answer set available for
// resolving dependencies on questions outside subset.
func (v *Validator) ValidateWithContext(ctx context.Context, templateID string, subset, all types.Answers) (types.ValidationResult, error) {
	questions, err := v.Source.Questions(ctx, templateID)
	if err != nil {
		return types.ValidationResult{}, err
	}
	return Check(questions, subset, Options{Context: all, Now: v.Now, ExemptHidden: v.ExemptHidden}), nil
}
