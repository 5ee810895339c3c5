package control

import "github.com/roach88/branchless/internal/mask"

// frame carries one loop's procedures through its state transitions.
type frame struct {
	construct Construct
	cond      Cond
	step      Proc
	body      Proc
	observer  Observer

	// iter counts completed body executions.
	iter uint64
}

// decide evaluates the condition once and returns the selected target.
func (f *frame) decide() Target {
	msk := mask.Nonzero(f.cond())
	target := Target(mask.Bit(msk))
	f.observer.Transition(Transition{
		Construct: f.construct,
		Iteration: f.iter,
		Mask:      msk,
		Target:    target,
	})
	return target
}

func (f *frame) iterate() {
	f.body()
	f.step()
	f.iter++
}

// stateFn is a trampoline state. It returns the state to run next, or nil
// once the loop has terminated.
type stateFn func(*frame) stateFn

func trampoline(f *frame) {
	for state := f.next(); state != nil; {
		state = state(f)
	}
}

func (f *frame) next() stateFn {
	states := [2]stateFn{terminateState, continueState}
	return states[f.decide()&1]
}

func continueState(f *frame) stateFn {
	f.iterate()
	return f.next()
}

func terminateState(*frame) stateFn {
	return nil
}

// recursive selects the next state and calls it directly. Every
// iteration adds a frame to the stack.
func recursive(f *frame) {
	states := [2]func(*frame){terminateCall, continueCall}
	states[f.decide()&1](f)
}

func continueCall(f *frame) {
	f.iterate()
	recursive(f)
}

func terminateCall(*frame) {}
