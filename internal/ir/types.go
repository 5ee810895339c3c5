package ir

import "fmt"

// Construct names. They match control.Construct.String().
const (
	ConstructIf      = "if"
	ConstructWhile   = "while"
	ConstructDoWhile = "do_while"
	ConstructFor     = "for"
)

// ValidConstructs defines the allowed program constructs.
var ValidConstructs = map[string]bool{
	ConstructIf:      true,
	ConstructWhile:   true,
	ConstructDoWhile: true,
	ConstructFor:     true,
}

// Relation is the comparison a program applies as "value REL limit".
type Relation string

const (
	RelLT Relation = "lt"
	RelLE Relation = "le"
	RelGT Relation = "gt"
	RelGE Relation = "ge"
	RelEQ Relation = "eq"
	RelNE Relation = "ne"
)

// ValidRelations defines the allowed relations.
var ValidRelations = map[Relation]bool{
	RelLT: true,
	RelLE: true,
	RelGT: true,
	RelGE: true,
	RelEQ: true,
	RelNE: true,
}

// ValidWidths defines the allowed operand widths in bits.
var ValidWidths = map[int]bool{8: true, 16: true, 32: true, 64: true}

// Program is a compiled control-flow program.
//
// Loops keep an induction value v of the declared width. Init sets v,
// the condition is "v Relation Limit", and each iteration adds Step to v.
// For "for" the step runs after the body; for "while" and "do_while" the
// body itself advances v. An "if" program evaluates the relation once on
// (Init, Limit) and runs one of its two arms.
type Program struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Construct   string   `json:"construct"`
	Width       int      `json:"width"`
	Signed      bool     `json:"signed"`
	Relation    Relation `json:"relation"`
	Init        int64    `json:"init"`
	Limit       int64    `json:"limit"`
	Step        int64    `json:"step"`
}

// TypeName returns the Go type name of the program's operand width,
// e.g. "int32" or "uint8".
func (p Program) TypeName() string {
	if p.Signed {
		return fmt.Sprintf("int%d", p.Width)
	}
	return fmt.Sprintf("uint%d", p.Width)
}

// canonicalMap is the hashed form of a program. Description is
// documentation and does not affect identity.
func (p Program) canonicalMap() map[string]any {
	return map[string]any{
		"name":      p.Name,
		"construct": p.Construct,
		"width":     p.Width,
		"signed":    p.Signed,
		"relation":  string(p.Relation),
		"init":      p.Init,
		"limit":     p.Limit,
		"step":      p.Step,
	}
}

// Outcome values recorded on runs and transitions.
const (
	OutcomeThen      = "then"
	OutcomeElse      = "else"
	OutcomeContinue  = "continue"
	OutcomeTerminate = "terminate"
)

// Run is one execution of a program.
type Run struct {
	ID            string  `json:"id"`        // Content-addressed hash
	RunToken      string  `json:"run_token"` // Correlates runs of one invocation
	Program       Program `json:"program"`
	ProgramHash   string  `json:"program_hash"`
	Mode          string  `json:"mode"` // "trampoline" | "recursive"
	Seq           int64   `json:"seq"`  // Logical clock at run start
	BodyCount     int64   `json:"body_count"`
	Final         int64   `json:"final"`   // Induction value after the run, converted to int64
	Outcome       string  `json:"outcome"` // Last decision: then/else/terminate
	EngineVersion string  `json:"engine_version"`
	IRVersion     string  `json:"ir_version"`
}

// Transition is one recorded decision of a run.
type Transition struct {
	RunID     string `json:"run_id"`
	Seq       int64  `json:"seq"`
	Iteration int64  `json:"iteration"`
	Mask      string `json:"mask"` // Hex, truncated to the program width
	Outcome   string `json:"outcome"`
	Value     int64  `json:"value"` // Induction value when the decision was made
}

// FormatMask renders a mask at the given width, e.g. FormatMask(^uint64(0), 8) == "0xff".
func FormatMask(m uint64, width int) string {
	return fmt.Sprintf("%#x", m<<(64-width)>>(64-width))
}
