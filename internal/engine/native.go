package engine

import (
	"slices"

	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/mask"
)

// NativeResult is the outcome of running a program with ordinary Go
// control flow.
type NativeResult struct {
	BodyCount int64
	Final     int64
	Outcome   string
	Visited   []int64
}

type nativeExecutor func(p ir.Program, maxSteps int64) (NativeResult, error)

var nativeExecutors = map[widthKey]nativeExecutor{
	{8, true}:   native[int8],
	{8, false}:  native[uint8],
	{16, true}:  native[int16],
	{16, false}: native[uint16],
	{32, true}:  native[int32],
	{32, false}: native[uint32],
	{64, true}:  native[int64],
	{64, false}: native[uint64],
}

// RunNative runs prog with native loops and comparison operators. It is
// the reference for the branchless path: for any valid program both must
// agree on body count, final value, outcome and visited values. The
// engine's step quota applies with the same counting.
func (e *Engine) RunNative(prog ir.Program) (*NativeResult, error) {
	run, ok := nativeExecutors[widthKey{prog.Width, prog.Signed}]
	if !ok {
		return nil, invalidWidth(prog.Name, prog.Width, prog.Signed)
	}
	res, err := run(prog, e.maxSteps)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func native[T mask.Integer](p ir.Program, maxSteps int64) (NativeResult, error) {
	holds, ok := comparison[T](p.Relation)
	if !ok {
		return NativeResult{}, unknownRelation(p.Name, string(p.Relation))
	}

	var r NativeResult
	start, limit, step := T(p.Init), T(p.Limit), T(p.Step)
	i := start

	visit := func() {
		r.Visited = append(r.Visited, int64(i))
		r.BodyCount++
	}

	var evals int64
	check := func() (bool, error) {
		h := holds(i, limit)
		n := evals
		evals++
		if h && n >= maxSteps {
			return false, &StepsExceededError{Program: p.Name, Steps: evals, Limit: maxSteps}
		}
		return h, nil
	}

	switch p.Construct {
	case ir.ConstructIf:
		if holds(start, limit) {
			r.Outcome = ir.OutcomeThen
		} else {
			r.Outcome = ir.OutcomeElse
		}
		visit()
		r.Final = int64(i)
		return r, nil

	case ir.ConstructFor:
		for i = start; ; i += step {
			ok, err := check()
			if err != nil {
				return NativeResult{}, err
			}
			if !ok {
				break
			}
			visit()
		}

	case ir.ConstructWhile:
		for {
			ok, err := check()
			if err != nil {
				return NativeResult{}, err
			}
			if !ok {
				break
			}
			visit()
			i += step
		}

	case ir.ConstructDoWhile:
		for {
			visit()
			i += step
			ok, err := check()
			if err != nil {
				return NativeResult{}, err
			}
			if !ok {
				break
			}
		}

	default:
		return NativeResult{}, unknownConstruct(p.Name, p.Construct)
	}

	r.Outcome = ir.OutcomeTerminate
	r.Final = int64(i)
	return r, nil
}

func comparison[T mask.Integer](rel ir.Relation) (func(x, y T) bool, bool) {
	switch rel {
	case ir.RelLT:
		return func(x, y T) bool { return x < y }, true
	case ir.RelLE:
		return func(x, y T) bool { return x <= y }, true
	case ir.RelGT:
		return func(x, y T) bool { return x > y }, true
	case ir.RelGE:
		return func(x, y T) bool { return x >= y }, true
	case ir.RelEQ:
		return func(x, y T) bool { return x == y }, true
	case ir.RelNE:
		return func(x, y T) bool { return x != y }, true
	}
	return nil, false
}

// Matches reports whether a branchless run and a native run agree.
func (r *NativeResult) Matches(res *Result) bool {
	return r.BodyCount == res.Run.BodyCount &&
		r.Final == res.Run.Final &&
		r.Outcome == res.Run.Outcome &&
		slices.Equal(r.Visited, res.Visited)
}
