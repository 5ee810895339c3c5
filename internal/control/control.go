package control

import "github.com/roach88/branchless/internal/mask"

// Proc is a zero-argument procedure: a body, a step, an init or an arm of
// an if.
type Proc func()

// Cond is a loop condition. Nonzero continues the loop, zero ends it.
type Cond func() uint

// CondOf adapts a condition of any integer width. Only zero versus nonzero
// matters, so the result is reduced to 0 or 1.
func CondOf[T mask.Integer](f func() T) Cond {
	return func() uint {
		return uint(mask.Bit(mask.Nonzero(f())))
	}
}

// Nop is the empty procedure.
func Nop() {}

// Machine runs control-flow combinators with a fixed driver mode and
// observer.
type Machine struct {
	mode     Mode
	observer Observer
}

// Option configures a Machine.
type Option func(*Machine)

// WithMode selects the loop driver.
func WithMode(m Mode) Option {
	return func(mc *Machine) {
		mc.mode = m
	}
}

// WithObserver installs an observer that is notified of every decision.
// A nil observer leaves the default no-op observer in place.
func WithObserver(o Observer) Option {
	return func(mc *Machine) {
		if o != nil {
			mc.observer = o
		}
	}
}

// New creates a Machine. The default is the trampoline driver with no
// observer.
func New(opts ...Option) *Machine {
	m := &Machine{
		mode:     Trampoline,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mode returns the driver mode of the machine.
func (m *Machine) Mode() Mode {
	return m.mode
}

// If runs then when c is nonzero and els otherwise. Exactly one of the two
// procedures is called.
func (m *Machine) If(c uint, then, els Proc) {
	msk := mask.Nonzero(c)
	target := Target(mask.Bit(msk))
	m.observer.Transition(Transition{
		Construct: ConstructIf,
		Mask:      msk,
		Target:    target,
	})
	arms := [2]Proc{els, then}
	arms[target&1]()
}

// While evaluates cond before every iteration, including the first.
func (m *Machine) While(cond Cond, body Proc) {
	f := m.frame(ConstructWhile, cond, Nop, body)
	m.drive(f)
}

// DoWhile runs body once, then behaves like While.
func (m *Machine) DoWhile(cond Cond, body Proc) {
	f := m.frame(ConstructDoWhile, cond, Nop, body)
	f.body()
	f.iter++
	m.drive(f)
}

// For runs init once, then evaluates cond before every iteration. Each
// iteration runs body followed by step.
func (m *Machine) For(init Proc, cond Cond, step Proc, body Proc) {
	f := m.frame(ConstructFor, cond, step, body)
	init()
	m.drive(f)
}

func (m *Machine) frame(c Construct, cond Cond, step, body Proc) *frame {
	return &frame{
		construct: c,
		cond:      cond,
		step:      step,
		body:      body,
		observer:  m.observer,
	}
}

func (m *Machine) drive(f *frame) {
	drivers := [2]func(*frame){trampoline, recursive}
	drivers[m.mode&1](f)
}

var std = New()

// If runs then when c is nonzero and els otherwise.
func If(c uint, then, els Proc) { std.If(c, then, els) }

// While loops body while cond is nonzero, checking before each iteration.
func While(cond Cond, body Proc) { std.While(cond, body) }

// DoWhile runs body, then loops while cond is nonzero.
func DoWhile(cond Cond, body Proc) { std.DoWhile(cond, body) }

// For runs init, then loops body and step while cond is nonzero.
func For(init Proc, cond Cond, step Proc, body Proc) { std.For(init, cond, step, body) }
