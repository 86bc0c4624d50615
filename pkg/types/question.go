// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// FieldType is the input kind of a question. The set is closed: every switch
// over FieldType in this module handles all eight values.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
)

// FieldTypes lists every field type in declaration order.
var FieldTypes = []FieldType{
	FieldText, FieldEmail, FieldNumber, FieldDate,
	FieldTextarea, FieldSelect, FieldRadio, FieldCheckbox,
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldDate, FieldTextarea,
		FieldSelect, FieldRadio, FieldCheckbox:
		return true
	}
	return false
}

// HasOptions reports whether questions of this type carry an options list.
func (t FieldType) HasOptions() bool {
	switch t {
	case FieldSelect, FieldRadio, FieldCheckbox:
		return true
	case FieldText, FieldEmail, FieldNumber, FieldDate, FieldTextarea:
		return false
	}
	return false
}

// Multi reports whether answers of this type are lists.
func (t FieldType) Multi() bool {
	return t == FieldCheckbox
}

// PastDatePolicy controls how a date question treats dates before today.
type PastDatePolicy string

const (
	// PastDateWarn emits a non-fatal warning for past dates. It is the
	// behavior when the policy is left empty.
	PastDateWarn PastDatePolicy = "warn"

	// PastDateAllow accepts past dates silently (birth dates, historical events).
	PastDateAllow PastDatePolicy = "allow"
)

// Valid reports whether p is empty or a known policy.
func (p PastDatePolicy) Valid() bool {
	return p == "" || p == PastDateWarn || p == PastDateAllow
}

// Operator is the comparison a Dependency applies to its controlling answer.
type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not_equals"
	OpOneOf     Operator = "one_of"
)

// Valid reports whether o is empty (equals) or a known operator.
func (o Operator) Valid() bool {
	switch o {
	case "", OpEquals, OpNotEquals, OpOneOf:
		return true
	}
	return false
}

// Dependency makes a question's visibility conditional on another answer.
type Dependency struct {
	// QuestionID is the controlling question.
	QuestionID string `json:"questionId" yaml:"question_id"`

	// Operator selects the predicate; empty means equals.
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty"`

	// Value is the operand for equals and not_equals.
	Value Value `json:"value" yaml:"value"`

	// Values are the operands for one_of.
	Values []Value `json:"values,omitempty" yaml:"values,omitempty"`
}

// Satisfied evaluates the predicate against the controlling answer. An
// absent answer never equals anything, so equals and one_of fail and
// not_equals holds.
func (d Dependency) Satisfied(answer Value, present bool) bool {
	switch d.Operator {
	case "", OpEquals:
		return present && answer.Equal(d.Value)
	case OpNotEquals:
		return !present || !answer.Equal(d.Value)
	case OpOneOf:
		if !present {
			return false
		}
		for _, v := range d.Values {
			if answer.Equal(v) {
				return true
			}
		}
		return false
	}
	return false
}

// Question is one catalog entry describing a field to collect.
type Question struct {
	// ID is unique within the template.
	ID string `json:"id" yaml:"id"`

	// Text is the prompt shown to the user.
	Text string `json:"text" yaml:"text"`

	// Type is the field kind.
	Type FieldType `json:"type" yaml:"type"`

	// Required marks the question as mandatory while it is visible.
	Required bool `json:"required" yaml:"required"`

	// Options lists the choices for select, radio, and checkbox questions.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	// HelpText is optional guidance rendered below the field.
	HelpText string `json:"helpText,omitempty" yaml:"help_text,omitempty"`

	// DependsOn hides the question unless the predicate holds.
	DependsOn *Dependency `json:"dependsOn,omitempty" yaml:"depends_on,omitempty"`

	// PastDate configures the past-date rule for date questions.
	PastDate PastDatePolicy `json:"pastDate,omitempty" yaml:"past_date,omitempty"`
}

// Visible reports whether the question is shown given the current answers.
func (q Question) Visible(answers Answers) bool {
	if q.DependsOn == nil {
		return true
	}
	v, ok := answers.Get(q.DependsOn.QuestionID)
	return q.DependsOn.Satisfied(v, ok)
}

// CheckValue reports whether v has the shape q's type expects.
func (q Question) CheckValue(v Value) error {
	if q.Type.Multi() != v.IsList() {
		if q.Type.Multi() {
			return fmt.Errorf("question %s expects a list of options", q.ID)
		}
		return fmt.Errorf("question %s expects a single value", q.ID)
	}
	return nil
}
