// Package sweep checks the branch-free selectors against Go's own
// comparison operators.
//
// For 8-bit types every operand pair is checked. Wider types use a fixed
// sample built from powers of two, their neighbours and their negations,
// which covers the sign boundary, the extremes and every carry position.
package sweep

import (
	"fmt"
	"slices"

	"github.com/roach88/branchless/internal/mask"
)

// Widths lists the widths Run accepts.
var Widths = []int{8, 16, 32, 64}

// Result is the outcome for one adapter at one type.
type Result struct {
	Type    string `json:"type"`
	Adapter string `json:"adapter"`
	Checked int    `json:"checked"`
	Failed  int    `json:"failed"`
	// Example describes the first failing case. Empty when Failed is 0.
	Example string `json:"example,omitempty"`
}

// Report collects the results of a sweep.
type Report struct {
	Results []Result `json:"results"`
	Checked int      `json:"checked"`
	Failed  int      `json:"failed"`
}

// Pass reports whether every check agreed with the native operator.
func (r *Report) Pass() bool {
	return r.Failed == 0
}

type sweeper func() []Result

var sweepers = map[int][2]sweeper{
	8:  {sweepType[int8], sweepType[uint8]},
	16: {sweepType[int16], sweepType[uint16]},
	32: {sweepType[int32], sweepType[uint32]},
	64: {sweepType[int64], sweepType[uint64]},
}

// Run sweeps the signed and unsigned types of each width, in the order
// given. A nil or empty widths sweeps all of Widths.
func Run(widths []int) (*Report, error) {
	if len(widths) == 0 {
		widths = Widths
	}
	report := &Report{}
	for _, w := range widths {
		pair, ok := sweepers[w]
		if !ok {
			return nil, fmt.Errorf("unsupported width %d: must be one of %v", w, Widths)
		}
		for _, sw := range pair {
			for _, r := range sw() {
				report.Results = append(report.Results, r)
				report.Checked += r.Checked
				report.Failed += r.Failed
			}
		}
	}
	return report, nil
}

type binaryAdapter[T mask.Integer] struct {
	name   string
	sel    func(x, y, a, b T) T
	native func(x, y T) bool
}

type unaryAdapter[T mask.Integer] struct {
	name   string
	sel    func(x, a, b T) T
	native func(x T) bool
}

func binaryAdapters[T mask.Integer]() []binaryAdapter[T] {
	return []binaryAdapter[T]{
		{"lt", mask.SelLT[T], func(x, y T) bool { return x < y }},
		{"le", mask.SelLE[T], func(x, y T) bool { return x <= y }},
		{"gt", mask.SelGT[T], func(x, y T) bool { return x > y }},
		{"ge", mask.SelGE[T], func(x, y T) bool { return x >= y }},
		{"eq", mask.SelEQ[T], func(x, y T) bool { return x == y }},
		{"ne", mask.SelNE[T], func(x, y T) bool { return x != y }},
	}
}

func unaryAdapters[T mask.Integer]() []unaryAdapter[T] {
	top := mask.Width[T]() - 1
	return []unaryAdapter[T]{
		{"nez", mask.SelNEZ[T], func(x T) bool { return x != 0 }},
		// ltz reads the top bit, for unsigned types too.
		{"ltz", mask.SelLTZ[T], func(x T) bool { return x>>top != 0 }},
	}
}

// arms are the (a, b) pairs each adapter must choose between.
func arms[T mask.Integer]() [][2]T {
	return [][2]T{{1, 0}, {mask.Ones[T](), 0x5a}}
}

func sweepType[T mask.Integer]() []Result {
	values := samples[T]()
	var out []Result
	for _, ad := range binaryAdapters[T]() {
		out = append(out, checkBinary(ad, values))
	}
	for _, ad := range unaryAdapters[T]() {
		out = append(out, checkUnary(ad, values))
	}
	for _, s := range []mask.Strategy{mask.XOR, mask.Additive} {
		out = append(out, checkMux[T](s, values))
	}
	return out
}

func checkBinary[T mask.Integer](ad binaryAdapter[T], values []T) Result {
	r := Result{Type: typeName[T](), Adapter: ad.name}
	for _, x := range values {
		for _, y := range values {
			for _, arm := range arms[T]() {
				want := arm[1]
				if ad.native(x, y) {
					want = arm[0]
				}
				got := ad.sel(x, y, arm[0], arm[1])
				r.Checked++
				if got != want {
					r.fail(fmt.Sprintf("%s(%v, %v, %v, %v) = %v, want %v", ad.name, x, y, arm[0], arm[1], got, want))
				}
			}
		}
	}
	return r
}

func checkUnary[T mask.Integer](ad unaryAdapter[T], values []T) Result {
	r := Result{Type: typeName[T](), Adapter: ad.name}
	for _, x := range values {
		for _, arm := range arms[T]() {
			want := arm[1]
			if ad.native(x) {
				want = arm[0]
			}
			got := ad.sel(x, arm[0], arm[1])
			r.Checked++
			if got != want {
				r.fail(fmt.Sprintf("%s(%v, %v, %v) = %v, want %v", ad.name, x, arm[0], arm[1], got, want))
			}
		}
	}
	return r
}

// checkMux runs a multiplexer strategy over both valid masks and every
// pair of sample values.
func checkMux[T mask.Integer](s mask.Strategy, values []T) Result {
	r := Result{Type: typeName[T](), Adapter: "mux_" + s.String()}
	for _, m := range []T{0, mask.Ones[T]()} {
		for _, a := range values {
			for _, b := range values {
				want := b
				if m != 0 {
					want = a
				}
				got := mask.Select(s, m, a, b)
				r.Checked++
				if got != want {
					r.fail(fmt.Sprintf("mux_%s(%#x, %v, %v) = %v, want %v", s, m, a, b, got, want))
				}
			}
		}
	}
	return r
}

func (r *Result) fail(example string) {
	if r.Failed == 0 {
		r.Example = example
	}
	r.Failed++
}

// samples returns every value of an 8-bit type, or the boundary sample
// for wider types. The order is deterministic.
func samples[T mask.Integer]() []T {
	w := mask.Width[T]()
	var out []T
	if w == 8 {
		for k := 0; k < 256; k++ {
			out = append(out, T(k))
		}
		return out
	}

	add := func(v T) {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	add(0)
	add(mask.Ones[T]())
	for k := uint(0); k < w; k++ {
		p := T(1) << k
		add(p)
		add(p - 1)
		add(p + 1)
		add(-p)
		add(-p - 1)
		add(^p)
	}
	return out
}

func typeName[T mask.Integer]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
