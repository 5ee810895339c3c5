package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/branchless/internal/ir"
)

func validProgram() ir.Program {
	return ir.Program{
		Name:      "count",
		Construct: ir.ConstructFor,
		Width:     32,
		Signed:    true,
		Relation:  ir.RelLT,
		Limit:     10,
		Step:      1,
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	p := validProgram()
	assert.Empty(t, Validate(&p))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	p := validProgram()
	p.Name = " "
	p.Construct = "switch"
	p.Relation = "lte"

	errs := Validate(&p)
	assert.Equal(t, []string{ErrProgramNameEmpty, ErrInvalidConstruct, ErrInvalidRelation}, codes(errs))
	assert.Contains(t, errs[1].Message, "do_while, for, if, while")
}

func TestValidateWidth(t *testing.T) {
	p := validProgram()
	p.Width = 12
	p.Limit = 1 << 40

	// Range checks are skipped when the width itself is bad.
	errs := Validate(&p)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvalidWidth, errs[0].Code)
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		signed bool
		init   int64
		limit  int64
		ok     bool
	}{
		{"int8 max", 8, true, -128, 127, true},
		{"int8 over", 8, true, 0, 128, false},
		{"int8 under", 8, true, -129, 0, false},
		{"uint8 max", 8, false, 0, 255, true},
		{"uint8 negative", 8, false, -1, 10, false},
		{"uint8 over", 8, false, 0, 256, false},
		{"uint16 max", 16, false, 0, 65535, true},
		{"int32 min", 32, true, math.MinInt32, 0, true},
		{"uint32 over", 32, false, 0, 1 << 32, false},
		{"int64 extremes", 64, true, math.MinInt64, math.MaxInt64, true},
		{"uint64 negative", 64, false, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProgram()
			p.Width, p.Signed, p.Init, p.Limit = tt.width, tt.signed, tt.init, tt.limit

			errs := Validate(&p)
			if tt.ok {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.Equal(t, ErrValueOutOfRange, errs[0].Code)
			assert.Contains(t, errs[0].Message, p.TypeName())
		})
	}
}

func TestValidateStep(t *testing.T) {
	p := validProgram()
	p.Width, p.Signed = 8, false

	p.Step = -1
	assert.Empty(t, Validate(&p), "unsigned loops may count down by wrapping")

	p.Step = 255
	assert.Empty(t, Validate(&p))

	p.Step = 256
	assert.Equal(t, []string{ErrValueOutOfRange}, codes(Validate(&p)))

	p.Step = -129
	assert.Equal(t, []string{ErrValueOutOfRange}, codes(Validate(&p)))
}

func TestValidateZeroStep(t *testing.T) {
	p := validProgram()
	p.Step = 0
	assert.Equal(t, []string{ErrZeroStep}, codes(Validate(&p)))

	p.Construct = ir.ConstructIf
	assert.Empty(t, Validate(&p), "if programs ignore step")
}

func TestValidateAllDuplicates(t *testing.T) {
	a := validProgram()
	b := validProgram()
	b.Relation = "bogus"

	errs := ValidateAll([]ir.Program{a, b})
	assert.Equal(t, []string{ErrInvalidRelation, ErrDuplicateProgram}, codes(errs))
	assert.Equal(t, "program.count.relation", errs[0].Field)
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "width", Message: "bad", Code: ErrInvalidWidth}
	assert.Equal(t, "[E104] width: bad", e.Error())

	e.Line = 7
	assert.Equal(t, "[E104] line 7: width: bad", e.Error())
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds(8, true)
	assert.Equal(t, int64(-128), lo)
	assert.Equal(t, int64(127), hi)

	lo, hi = Bounds(32, false)
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(math.MaxUint32), hi)

	lo, hi = Bounds(64, false)
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(math.MaxInt64), hi)
}
