package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/branchless/internal/ir"
)

// Defaults applied when a field is omitted.
const (
	DefaultWidth    = 32
	DefaultSigned   = true
	DefaultRelation = ir.RelLT
	DefaultStep     = 1
)

// CompileProgram parses a CUE value into a Program.
// The value is the program struct itself; its name is the last path label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`program: count: { construct: "for", limit: 10 }`)
//	p, err := CompileProgram(v.LookupPath(cue.ParsePath("program.count")))
func CompileProgram(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &ir.Program{
		Width:    DefaultWidth,
		Signed:   DefaultSigned,
		Relation: DefaultRelation,
		Step:     DefaultStep,
	}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		p.Name = labels[len(labels)-1].String()
	}

	construct, err := requiredString(v, "construct")
	if err != nil {
		return nil, err
	}
	p.Construct = construct

	if p.Limit, err = requiredInt(v, "limit"); err != nil {
		return nil, err
	}

	if desc, ok, err := optionalString(v, "description"); err != nil {
		return nil, err
	} else if ok {
		p.Description = desc
	}

	if rel, ok, err := optionalString(v, "relation"); err != nil {
		return nil, err
	} else if ok {
		p.Relation = ir.Relation(rel)
	}

	if w, ok, err := optionalInt(v, "width"); err != nil {
		return nil, err
	} else if ok {
		p.Width = int(w)
	}

	if s := v.LookupPath(cue.ParsePath("signed")); s.Exists() {
		b, err := s.Bool()
		if err != nil {
			return nil, &CompileError{Field: "signed", Message: "signed must be a bool", Pos: s.Pos()}
		}
		p.Signed = b
	}

	if p.Init, _, err = optionalInt(v, "init"); err != nil {
		return nil, err
	}

	if step, ok, err := optionalInt(v, "step"); err != nil {
		return nil, err
	} else if ok {
		p.Step = step
	}

	return p, nil
}

// CompilePrograms compiles every program under the "program" label of v,
// in declaration order. A value without programs yields an empty slice.
func CompilePrograms(v cue.Value) ([]ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	progs := v.LookupPath(cue.ParsePath("program"))
	if !progs.Exists() {
		return nil, nil
	}

	iter, err := progs.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.Program
	for iter.Next() {
		p, err := CompileProgram(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", iter.Selector().String(), err)
		}
		out = append(out, *p)
	}
	return out, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	s, ok, err := optionalString(v, field)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", false, nil
	}
	s, err := f.String()
	if err != nil {
		return "", false, &CompileError{Field: field, Message: field + " must be a string", Pos: f.Pos()}
	}
	return s, true, nil
}

func requiredInt(v cue.Value, field string) (int64, error) {
	n, ok, err := optionalInt(v, field)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	return n, nil
}

// optionalInt reads an integer field. Floats are rejected outright.
func optionalInt(v cue.Value, field string) (int64, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return 0, false, nil
	}
	switch f.IncompleteKind() {
	case cue.IntKind:
	case cue.FloatKind, cue.NumberKind:
		return 0, false, &CompileError{
			Field:   field,
			Message: "float values are forbidden - use int instead",
			Pos:     f.Pos(),
		}
	default:
		return 0, false, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must be an int, got %v", field, f.IncompleteKind()),
			Pos:     f.Pos(),
		}
	}
	n, err := f.Int64()
	if err != nil {
		// Concrete ints that overflow int64, or non-concrete constraints.
		return 0, false, &CompileError{Field: field, Message: err.Error(), Pos: f.Pos()}
	}
	return n, true, nil
}
