package engine

import (
	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/mask"
)

type widthKey struct {
	width  int
	signed bool
}

// execution is the width-independent outcome of interpreting a program.
type execution struct {
	bodyCount int64
	final     int64
	visited   []int64
	decisions []decision
}

// decision is an observed transition plus the induction value at the time.
type decision struct {
	transition control.Transition
	value      int64
}

type executor func(p ir.Program, mode control.Mode, quota *QuotaEnforcer) (execution, error)

var executors = map[widthKey]executor{
	{8, true}:   execute[int8],
	{8, false}:  execute[uint8],
	{16, true}:  execute[int16],
	{16, false}: execute[uint16],
	{32, true}:  execute[int32],
	{32, false}: execute[uint32],
	{64, true}:  execute[int64],
	{64, false}: execute[uint64],
}

// execute interprets p with T as the induction type. Conditions are
// Sel<REL>(i, limit, 1, 0) reduced through CondOf; the machine turns
// each one into a table index.
func execute[T mask.Integer](p ir.Program, mode control.Mode, quota *QuotaEnforcer) (execution, error) {
	rel, ok := selector[T](p.Relation)
	if !ok {
		return execution{}, unknownRelation(p.Name, string(p.Relation))
	}

	var ex execution
	var i T
	start, limit, step := T(p.Init), T(p.Limit), T(p.Step)

	m := control.New(
		control.WithMode(mode),
		control.WithObserver(control.ObserverFunc(func(t control.Transition) {
			ex.decisions = append(ex.decisions, decision{transition: t, value: int64(i)})
		})),
	)

	visit := func() {
		ex.visited = append(ex.visited, int64(i))
		ex.bodyCount++
	}
	advance := func() { i += step }
	visitAndAdvance := func() {
		visit()
		advance()
	}
	cond := control.CondOf(func() T { return rel(i, limit, 1, 0) })
	guarded := func() uint { return quota.Guard(cond()) }

	switch p.Construct {
	case ir.ConstructIf:
		i = start
		m.If(uint(rel(start, limit, 1, 0)), visit, visit)
	case ir.ConstructFor:
		m.For(func() { i = start }, guarded, advance, visit)
	case ir.ConstructWhile:
		i = start
		m.While(guarded, visitAndAdvance)
	case ir.ConstructDoWhile:
		i = start
		m.DoWhile(guarded, visitAndAdvance)
	default:
		return execution{}, unknownConstruct(p.Name, p.Construct)
	}

	ex.final = int64(i)
	return ex, nil
}

// selector maps a relation to its branch-free select.
func selector[T mask.Integer](rel ir.Relation) (func(x, y, a, b T) T, bool) {
	switch rel {
	case ir.RelLT:
		return mask.SelLT[T], true
	case ir.RelLE:
		return mask.SelLE[T], true
	case ir.RelGT:
		return mask.SelGT[T], true
	case ir.RelGE:
		return mask.SelGE[T], true
	case ir.RelEQ:
		return mask.SelEQ[T], true
	case ir.RelNE:
		return mask.SelNE[T], true
	}
	return nil, false
}
