// Package demo prints the classic walkthrough of the combinators: both arms
// of an if, then each loop form next to the native Go loop it replaces.
package demo

import (
	"fmt"
	"io"

	"github.com/roach88/branchless/internal/control"
	"github.com/roach88/branchless/internal/mask"
)

// counter is the shared induction variable of the walkthrough.
type counter struct {
	w   io.Writer
	m   *control.Machine
	i   int32
	err error
}

func (c *counter) printf(format string, args ...any) {
	if c.err != nil {
		return
	}
	_, c.err = fmt.Fprintf(c.w, format, args...)
}

func (c *counter) init() { c.i = 0 }

func (c *counter) expr() { c.i++ }

// native is the plain comparison the branchless cond replaces.
func (c *counter) native() bool { return c.i < 10 }

func (c *counter) cond() uint {
	return uint(mask.SelLT(c.i, 10, 1, 0))
}

func (c *counter) body() {
	c.printf("%d, ", c.i)
	c.i++
}

// endLine prints the value the loop left behind and ends the line.
func (c *counter) endLine() {
	c.printf("%d, \n", c.i)
}

// Run writes the walkthrough to w using a machine in the given mode.
// Each pair of loop lines is identical: the combinator and the native
// loop visit the same values and leave i at the same place.
func Run(w io.Writer, mode control.Mode) error {
	c := &counter{w: w, m: control.New(control.WithMode(mode))}

	f1 := func() { c.printf("f1 (success clause) executed.\n") }
	f2 := func() { c.printf("f2 (else clause) executed.\n") }
	c.m.If(0, f1, f2)
	c.m.If(1, f1, f2)

	c.init()
	c.m.DoWhile(c.cond, c.body)
	c.endLine()

	c.init()
	for {
		c.body()
		if !c.native() {
			break
		}
	}
	c.endLine()

	c.init()
	c.m.While(c.cond, c.body)
	c.endLine()

	c.init()
	for c.native() {
		c.body()
	}
	c.endLine()

	for c.init(); c.native(); c.expr() {
		c.body()
	}
	c.endLine()

	c.m.For(c.init, c.cond, c.expr, c.body)
	c.endLine()

	c.printf("done\n")
	return c.err
}
