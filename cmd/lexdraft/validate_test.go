// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lexdraft/internal/catalog"
	"github.com/pdiddy/lexdraft/pkg/types"
)

func TestValidateAllChecksOmittedQuestions(t *testing.T) {
	e := testEngine(t)

	result, err := e.validateAll(context.Background(), "lease", types.Answers{})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "landlordName", result.Errors[0].QuestionID)
	assert.Equal(t, "tenantName", result.Errors[1].QuestionID)

	result, err = e.validateAll(context.Background(), "lease", types.Answers{
		"landlordName": types.Text("Acme"),
		"tenantName":   types.Text("Jo"),
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	_, err = e.validateAll(context.Background(), "missing", types.Answers{})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestReadAnswers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("landlordName: Acme\npetDeposit: 1500000\nutilities: [Water, Gas]\n"), 0o644))

	answers, err := readAnswers(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme", answers["landlordName"].String())
	assert.Equal(t, "1500000", answers["petDeposit"].String())
	assert.True(t, answers["utilities"].Equal(types.List("Water", "Gas")))

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	answers, err = readAnswers(empty)
	require.NoError(t, err)
	assert.NotNil(t, answers)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, types.ValidationResult{
		Errors:   []types.Issue{{QuestionID: "tenantName", Message: "Tenant name is required"}},
		Warnings: []types.Issue{{QuestionID: "petDeposit", Message: "Please enter a number"}},
	})
	assert.Contains(t, buf.String(), "error    tenantName")
	assert.Contains(t, buf.String(), "warning  petDeposit")
	assert.NotContains(t, buf.String(), "Answers are valid.")
}
