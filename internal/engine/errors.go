package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while interpreting a program.
//
// Runtime errors include:
//   - Unknown construct or relation in a program that skipped validation
//   - Unsupported width
//   - Quota exceeded: the program wanted more iterations than allowed
//   - Replay mismatch: a stored run no longer reproduces
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunToken identifies the invocation the run belongs to.
	RunToken string

	// Program is the program name.
	Program string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	ErrCodeUnknownConstruct RuntimeErrorCode = "UNKNOWN_CONSTRUCT"
	ErrCodeUnknownRelation  RuntimeErrorCode = "UNKNOWN_RELATION"
	ErrCodeInvalidWidth     RuntimeErrorCode = "INVALID_WIDTH"
	ErrCodeQuotaExceeded    RuntimeErrorCode = "QUOTA_EXCEEDED"
	ErrCodeReplayMismatch   RuntimeErrorCode = "REPLAY_MISMATCH"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.RunToken != "" && e.Program != "" {
		return fmt.Sprintf("%s: %s (run=%s, program=%s)", e.Code, e.Message, e.RunToken, e.Program)
	}
	if e.Program != "" {
		return fmt.Sprintf("%s: %s (program=%s)", e.Code, e.Message, e.Program)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}

// HasCode reports whether err wraps a RuntimeError with the given code.
func HasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == code
}

func unknownConstruct(program, construct string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownConstruct,
		Message: fmt.Sprintf("unknown construct %q", construct),
		Program: program,
	}
}

func unknownRelation(program, relation string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownRelation,
		Message: fmt.Sprintf("unknown relation %q", relation),
		Program: program,
	}
}

func invalidWidth(program string, width int, signed bool) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidWidth,
		Message: fmt.Sprintf("unsupported width %d", width),
		Program: program,
		Details: map[string]string{
			"width":  fmt.Sprintf("%d", width),
			"signed": fmt.Sprintf("%t", signed),
		},
	}
}

// ErrorCode classifies err. A StepsExceededError reports
// ErrCodeQuotaExceeded; errors that are not runtime errors report "".
func ErrorCode(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	if IsStepsExceededError(err) {
		return ErrCodeQuotaExceeded
	}
	return ""
}
