package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/branchless/internal/compiler"
)

func TestValidateValidSpecs(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), testSpecsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All specs valid (3 program(s))")
}

func TestValidateValidSpecsJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), testSpecsDir)
	require.NoError(t, err)

	status, result, _ := decodeData[ValidationResult](t, out)
	assert.Equal(t, "ok", status)
	assert.True(t, result.Valid)
	assert.Equal(t, 3, result.Programs)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/path")
	assert.Equal(t, ExitCommandError, exitCode(t, err))
	assert.Contains(t, out, "specs directory not found")
}

func TestValidateSemanticErrors(t *testing.T) {
	dir := writeSpecs(t, `package specs

program: spin: {
	construct: "while"
	limit:     10
	step:      0
}

program: wide: {
	construct: "for"
	width:     8
	limit:     300
}
`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), dir)
	assert.Equal(t, ExitFailure, exitCode(t, err))

	status, result, cliErr := decodeData[ValidationResult](t, out)
	assert.Equal(t, "error", status)
	require.NotNil(t, cliErr)
	assert.False(t, result.Valid)

	codes := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		codes[i] = e.Code
	}
	assert.Contains(t, codes, compiler.ErrZeroStep)
	assert.Contains(t, codes, compiler.ErrValueOutOfRange)
}

func TestValidateReportsCompileErrors(t *testing.T) {
	dir := writeSpecs(t, `package specs

program: broken: {
	construct: "for"
	limit:     1.5
}
`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), dir)
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, ErrCodeInvalidType)
}

func TestValidateSpecsDir(t *testing.T) {
	errs, err := ValidateSpecsDir(testSpecsDir)
	require.NoError(t, err)
	assert.Empty(t, errs)

	_, err = ValidateSpecsDir("/nonexistent/path")
	require.Error(t, err)

	dir := writeSpecs(t, `package specs

program: bad: {
	construct: "goto"
	limit:     1
}
`)
	errs, err = ValidateSpecsDir(dir)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, compiler.ErrInvalidConstruct, errs[0].Code)
}
