// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Issue is a validation finding attached to one question.
type Issue struct {
	QuestionID string `json:"questionId" yaml:"question_id"`
	Message    string `json:"message" yaml:"message"`
}

// ValidationResult is produced fresh on every validation call. Errors block
// progress; warnings never affect IsValid.
type ValidationResult struct {
	IsValid  bool    `json:"isValid" yaml:"is_valid"`
	Errors   []Issue `json:"errors" yaml:"errors"`
	Warnings []Issue `json:"warnings" yaml:"warnings"`
}

// HasErrors reports whether any error was recorded.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ErrorFor returns the first error message for questionID, if any.
func (r ValidationResult) ErrorFor(questionID string) (string, bool) {
	for _, e := range r.Errors {
		if e.QuestionID == questionID {
			return e.Message, true
		}
	}
	return "", false
}
