package queryir

// Query is a query over the run log. Only types in this package
// implement it.
type Query interface {
	queryNode()
}

// Predicate is a filter condition. Only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Table names a table of the run log.
type Table string

const (
	TableRuns        Table = "runs"
	TableTransitions Table = "transitions"
)

// Select reads the rows of From that satisfy Filter, in log order.
//
//	Select{
//	  From: TableRuns,
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "program_name", Value: "count_to_ten"},
//	    AtLeast{Field: "seq", Value: 100},
//	  }},
//	}
//
// reads as
//
//	FROM runs WHERE program_name = ? AND seq >= ? ORDER BY seq ASC, id COLLATE BINARY ASC
type Select struct {
	From   Table
	Filter Predicate // nil = every row
}

func (Select) queryNode() {}

// Equals holds when Field equals Value. Value is a string or an int64.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// AtLeast holds when the integer Field is greater than or equal to Value.
type AtLeast struct {
	Field string
	Value int64
}

func (AtLeast) predicateNode() {}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where builds the conjunction of the given predicates, dropping nils.
// It returns nil when nothing is left, so callers can build a filter
// from optional flags.
func Where(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

// EqualsIf returns Equals{field, value}, or nil when value is empty.
func EqualsIf(field, value string) Predicate {
	if value == "" {
		return nil
	}
	return Equals{Field: field, Value: value}
}
