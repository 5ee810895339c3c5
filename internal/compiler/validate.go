package compiler

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/branchless/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrProgramNameEmpty = "E101" // name is required
	ErrInvalidConstruct = "E102" // construct not one of if/while/do_while/for
	ErrInvalidRelation  = "E103" // relation not one of lt/le/gt/ge/eq/ne
	ErrInvalidWidth     = "E104" // width not one of 8/16/32/64
	ErrValueOutOfRange  = "E105" // init/limit/step does not fit the width
	ErrZeroStep         = "E106" // loop with step 0
	ErrDuplicateProgram = "E107" // program name declared twice
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled program. All errors are returned, not just
// the first.
func Validate(p *ir.Program) []ValidationError {
	var errs []ValidationError

	// E101: name is required
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "program name is required",
			Code:    ErrProgramNameEmpty,
		})
	}

	// E102: construct
	if !ir.ValidConstructs[p.Construct] {
		errs = append(errs, ValidationError{
			Field:   "construct",
			Message: fmt.Sprintf("unknown construct %q: must be one of %s", p.Construct, listConstructs()),
			Code:    ErrInvalidConstruct,
		})
	}

	// E103: relation
	if !ir.ValidRelations[p.Relation] {
		errs = append(errs, ValidationError{
			Field:   "relation",
			Message: fmt.Sprintf("unknown relation %q: must be one of lt, le, gt, ge, eq, ne", p.Relation),
			Code:    ErrInvalidRelation,
		})
	}

	// E104: width. Range checks need a valid width.
	if !ir.ValidWidths[p.Width] {
		errs = append(errs, ValidationError{
			Field:   "width",
			Message: fmt.Sprintf("unsupported width %d: must be 8, 16, 32 or 64", p.Width),
			Code:    ErrInvalidWidth,
		})
		return errs
	}

	// E105: values must be representable at the declared width
	lo, hi := Bounds(p.Width, p.Signed)
	for _, f := range []struct {
		name string
		val  int64
	}{{"init", p.Init}, {"limit", p.Limit}} {
		if f.val < lo || f.val > hi {
			errs = append(errs, ValidationError{
				Field:   f.name,
				Message: fmt.Sprintf("%s %d does not fit %s (range %d..%d)", f.name, f.val, p.TypeName(), lo, hi),
				Code:    ErrValueOutOfRange,
			})
		}
	}

	// Steps may be negative for either signedness; unsigned steps wrap.
	stepLo, _ := Bounds(p.Width, true)
	_, stepHi := Bounds(p.Width, false)
	if p.Step < stepLo || p.Step > stepHi {
		errs = append(errs, ValidationError{
			Field:   "step",
			Message: fmt.Sprintf("step %d does not fit %d bits", p.Step, p.Width),
			Code:    ErrValueOutOfRange,
		})
	}

	// E106: a loop that never moves
	if p.Construct != ir.ConstructIf && p.Step == 0 {
		errs = append(errs, ValidationError{
			Field:   "step",
			Message: "step must be nonzero for loop constructs",
			Code:    ErrZeroStep,
		})
	}

	return errs
}

// ValidateAll validates each program and rejects duplicate names.
func ValidateAll(progs []ir.Program) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i := range progs {
		p := &progs[i]
		for _, e := range Validate(p) {
			e.Field = fmt.Sprintf("program.%s.%s", p.Name, e.Field)
			errs = append(errs, e)
		}
		// E107: duplicate program name
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("program.%s", p.Name),
				Message: fmt.Sprintf("duplicate program name: %q", p.Name),
				Code:    ErrDuplicateProgram,
			})
		}
		seen[p.Name] = true
	}
	return errs
}

// Bounds returns the representable range of a width and signedness,
// clamped to int64. Unsigned 64-bit values above MaxInt64 are not
// expressible in a program spec.
func Bounds(width int, signed bool) (lo, hi int64) {
	if signed {
		if width == 64 {
			return math.MinInt64, math.MaxInt64
		}
		return -(1 << (width - 1)), 1<<(width-1) - 1
	}
	if width == 64 {
		return 0, math.MaxInt64
	}
	return 0, 1<<width - 1
}

func listConstructs() string {
	names := make([]string, 0, len(ir.ValidConstructs))
	for c := range ir.ValidConstructs {
		names = append(names, c)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
