package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcer_PassesWithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, uint(1), q.Guard(1), "evaluation %d should pass", i)
	}
	assert.NoError(t, q.Check("run-1", "p"))
	assert.Equal(t, int64(3), q.Current())
	assert.Equal(t, int64(3), q.MaxSteps())
}

func TestQuotaEnforcer_ForcesTerminateAtLimit(t *testing.T) {
	q := NewQuotaEnforcer(2)

	assert.Equal(t, uint(1), q.Guard(1))
	assert.Equal(t, uint(1), q.Guard(1))
	assert.Equal(t, uint(0), q.Guard(1), "third evaluation is over quota")

	err := q.Check("run-1", "spin")
	require.Error(t, err)

	var se *StepsExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "run-1", se.RunToken)
	assert.Equal(t, "spin", se.Program)
	assert.Equal(t, int64(3), se.Steps)
	assert.Equal(t, int64(2), se.Limit)
}

func TestQuotaEnforcer_FalseConditionAtLimitIsNotExceeded(t *testing.T) {
	q := NewQuotaEnforcer(2)

	q.Guard(1)
	q.Guard(1)
	assert.Equal(t, uint(0), q.Guard(0))
	assert.NoError(t, q.Check("run-1", "p"), "loop ended on its own")
}

func TestQuotaEnforcer_Reset(t *testing.T) {
	q := NewQuotaEnforcer(0)
	q.Guard(1)
	require.Error(t, q.Check("", "p"))

	q.Reset()
	assert.Equal(t, int64(0), q.Current())
	assert.NoError(t, q.Check("", "p"))
}

func TestStepsExceededError_Message(t *testing.T) {
	err := &StepsExceededError{RunToken: "tok", Program: "spin", Steps: 11, Limit: 10}
	assert.Equal(t, "program spin exceeded max steps quota: 11 steps > 10 limit (run=tok)", err.Error())
}

func TestIsQuotaError(t *testing.T) {
	steps := &StepsExceededError{Program: "p", Steps: 2, Limit: 1}
	assert.True(t, IsQuotaError(steps))
	assert.True(t, IsQuotaError(fmt.Errorf("wrapped: %w", steps)))
	assert.True(t, IsQuotaError(&RuntimeError{Code: ErrCodeQuotaExceeded}))
	assert.False(t, IsQuotaError(unknownRelation("p", "lte")))
	assert.False(t, IsQuotaError(fmt.Errorf("plain")))

	assert.True(t, IsStepsExceededError(fmt.Errorf("wrapped: %w", steps)))
	assert.False(t, IsStepsExceededError(&RuntimeError{Code: ErrCodeQuotaExceeded}))
}
