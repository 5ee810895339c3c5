package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/branchless/internal/mask"
)

// QuotaEnforcer bounds the number of loop iterations a run may take.
//
// It sits between the program's condition and the loop combinator. Each
// condition evaluation passes through Guard, which lets the condition
// through while evaluations remain and forces termination afterwards.
// Guard itself does not branch.
//
// One enforcer serves one run.
type QuotaEnforcer struct {
	maxSteps int64 // Continuing decisions allowed
	current  int64 // Condition evaluations so far
	tripped  int64 // Nonzero once a decision was forced to terminate
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int64) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Guard filters one condition result c (0 or 1). Evaluation n may
// continue only while n < maxSteps.
func (q *QuotaEnforcer) Guard(c uint) uint {
	n := q.current
	q.current++
	q.tripped |= mask.SelGE(n, q.maxSteps, int64(c), 0)
	return uint(mask.SelLT(n, q.maxSteps, int64(c), 0))
}

// Check returns StepsExceededError if Guard ever overrode a condition.
func (q *QuotaEnforcer) Check(runToken, program string) error {
	if q.tripped != 0 {
		return &StepsExceededError{
			RunToken: runToken,
			Program:  program,
			Steps:    q.current,
			Limit:    q.maxSteps,
		}
	}
	return nil
}

// Reset clears the counters.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
	q.tripped = 0
}

// Current returns the number of condition evaluations so far.
func (q *QuotaEnforcer) Current() int64 {
	return q.current
}

// MaxSteps returns the limit.
func (q *QuotaEnforcer) MaxSteps() int64 {
	return q.maxSteps
}

// StepsExceededError is returned when a run exceeds the max steps quota.
// The run terminates at the quota and is not recorded.
type StepsExceededError struct {
	RunToken string // The run's token
	Program  string // The program that ran away
	Steps    int64  // Condition evaluations taken
	Limit    int64  // Maximum continuing decisions
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("program %s exceeded max steps quota: %d steps > %d limit (run=%s)",
		e.Program, e.Steps, e.Limit, e.RunToken)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
