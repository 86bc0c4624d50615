// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package steps partitions an ordered question list into fixed-size pages
// and decides which questions on a page are currently visible.
package steps

import "github.com/pdiddy/lexdraft/pkg/types"

// PerStep is the number of questions shown together.
const PerStep = 3

// Total returns ceil(len(questions)/PerStep). The last step holds the
// remainder; there is never a trailing empty step.
func Total(questions []types.Question) int {
	return (len(questions) + PerStep - 1) / PerStep
}

// ForStep returns the contiguous slice of questions for step i, or nil when
// i is out of range.
func ForStep(questions []types.Question, i int) []types.Question {
	if i < 0 || i >= Total(questions) {
		return nil
	}
	start := i * PerStep
	end := min(start+PerStep, len(questions))
	return questions[start:end:end]
}

// IDs returns the question ids in order.
func IDs(questions []types.Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

// Visible filters out questions whose dependency is not satisfied by the
// current answers. It is evaluated fresh on every call; values stored for
// hidden questions are left in place.
func Visible(questions []types.Question, answers types.Answers) []types.Question {
	var out []types.Question
	for _, q := range questions {
		if q.Visible(answers) {
			out = append(out, q)
		}
	}
	return out
}

// Stale returns the ids of hidden questions that still hold a value.
func Stale(questions []types.Question, answers types.Answers) []string {
	var out []string
	for _, q := range questions {
		if q.Visible(answers) {
			continue
		}
		if v, ok := answers.Get(q.ID); ok && !v.IsEmpty() {
			out = append(out, q.ID)
		}
	}
	return out
}

// Progress returns completion of step out of total as a percentage.
func Progress(step, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(step+1) / float64(total) * 100
}
