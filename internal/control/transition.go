package control

import "fmt"

// Construct identifies the combinator that made a decision.
type Construct uint8

const (
	ConstructIf Construct = iota
	ConstructWhile
	ConstructDoWhile
	ConstructFor
)

var constructNames = [4]string{"if", "while", "do_while", "for"}

func (c Construct) String() string {
	return constructNames[c&3]
}

// ParseConstruct maps a construct name back to its Construct.
func ParseConstruct(s string) (Construct, error) {
	for i, name := range constructNames {
		if name == s {
			return Construct(i), nil
		}
	}
	return 0, fmt.Errorf("unknown construct %q", s)
}

// Target is the table index a decision selected. For loops 0 is Terminate
// and 1 is Continue; for If 0 is the else arm and 1 the then arm.
type Target uint8

const (
	Terminate Target = 0
	Continue  Target = 1

	Else Target = 0
	Then Target = 1
)

// outcomeNames is indexed by construct, then target.
var outcomeNames = [4][2]string{
	{"else", "then"},
	{"terminate", "continue"},
	{"terminate", "continue"},
	{"terminate", "continue"},
}

// Transition records one decision.
type Transition struct {
	Construct Construct
	// Iteration is the number of body executions completed before the
	// decision. Always 0 for If.
	Iteration uint64
	// Mask is the nonzero mask of the condition: 0 or all-ones.
	Mask   uint
	Target Target
}

// Outcome names the selected target in terms of the construct.
func (t Transition) Outcome() string {
	return outcomeNames[t.Construct&3][t.Target&1]
}

func (t Transition) String() string {
	return fmt.Sprintf("%s#%d mask=%#x -> %s", t.Construct, t.Iteration, t.Mask, t.Outcome())
}

// Observer is notified of every decision a Machine makes.
type Observer interface {
	Transition(Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

// Transition calls fn(t).
func (fn ObserverFunc) Transition(t Transition) { fn(t) }

// Recorder is an Observer that keeps every transition in order.
type Recorder struct {
	Transitions []Transition
}

// Transition appends t.
func (r *Recorder) Transition(t Transition) {
	r.Transitions = append(r.Transitions, t)
}

// Outcomes returns the outcome names of the recorded transitions.
func (r *Recorder) Outcomes() []string {
	out := make([]string, len(r.Transitions))
	for i, t := range r.Transitions {
		out[i] = t.Outcome()
	}
	return out
}

type nopObserver struct{}

func (nopObserver) Transition(Transition) {}

// Mode selects how loop states are driven.
type Mode uint8

const (
	// Trampoline drives states from a loop with constant stack depth.
	Trampoline Mode = iota
	// Recursive calls each next state directly, one stack frame per
	// iteration.
	Recursive
)

var modeNames = [2]string{"trampoline", "recursive"}

func (m Mode) String() string {
	return modeNames[m&1]
}

// ParseMode maps a mode name back to its Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q: must be trampoline or recursive", s)
}
