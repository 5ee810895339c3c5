package queryir

import "fmt"

// kind is the storage class of a log column.
type kind int

const (
	kindText kind = iota
	kindInt
)

func (k kind) String() string {
	if k == kindInt {
		return "integer"
	}
	return "text"
}

// schema lists the filterable columns of each table.
var schema = map[Table]map[string]kind{
	TableRuns: {
		"id":             kindText,
		"run_token":      kindText,
		"program_name":   kindText,
		"program_hash":   kindText,
		"mode":           kindText,
		"seq":            kindInt,
		"body_count":     kindInt,
		"final":          kindInt,
		"outcome":        kindText,
		"engine_version": kindText,
		"ir_version":     kindText,
	},
	TableTransitions: {
		"run_id":    kindText,
		"seq":       kindInt,
		"iteration": kindInt,
		"mask":      kindText,
		"outcome":   kindText,
		"value":     kindInt,
	},
}

// Validate checks q against the log schema. All problems are returned,
// not just the first; an empty result means q is valid.
//
// Validate is a pure function with no side effects.
func Validate(q Query) []error {
	v := &validator{}
	v.validateQuery(q)
	return v.errs
}

// validator accumulates errors during traversal.
type validator struct {
	columns map[string]kind
	table   Table
	errs    []error
}

func (v *validator) addError(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addError("nil query")
			return
		}
		v.validateSelect(*query)
	default:
		v.addError("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	columns, ok := schema[sel.From]
	if !ok {
		v.addError("unknown table %q", sel.From)
		return
	}
	v.columns, v.table = columns, sel.From
	v.validatePredicate(sel.Filter)
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case AtLeast:
		v.validateField(pred.Field, kindInt, "AtLeast")
	case *AtLeast:
		v.validateField(pred.Field, kindInt, "AtLeast")
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addError("unknown predicate type %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	switch eq.Value.(type) {
	case string:
		v.validateField(eq.Field, kindText, "string value")
	case int64:
		v.validateField(eq.Field, kindInt, "int64 value")
	case nil:
		v.addError("field %q compared to nil: NULL is never stored in the log", eq.Field)
	default:
		v.addError("field %q: unsupported value type %T (use string or int64)", eq.Field, eq.Value)
	}
}

func (v *validator) validateField(field string, want kind, use string) {
	got, ok := v.columns[field]
	if !ok {
		v.addError("unknown field %q in table %s", field, v.table)
		return
	}
	if got != want {
		v.addError("field %q is %s, %s needs %s", field, got, use, want)
	}
}

func (v *validator) validateAnd(and And) {
	for _, p := range and.Predicates {
		v.validatePredicate(p)
	}
}
