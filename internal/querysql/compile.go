// Package querysql compiles queryir queries to parameterized SQLite.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/branchless/internal/queryir"
)

// orderKeys is the stable order of each table: log order by seq, with the
// row key as a tiebreaker under binary collation.
var orderKeys = map[queryir.Table]string{
	queryir.TableRuns:        "seq ASC, id COLLATE BINARY ASC",
	queryir.TableTransitions: "seq ASC, run_id COLLATE BINARY ASC",
}

// Compile validates q and renders everything after the column list:
//
//	FROM runs WHERE mode = ? ORDER BY seq ASC, id COLLATE BINARY ASC
//
// Every query is ordered. Values are always passed as parameters, never
// interpolated into the SQL text.
func Compile(q queryir.Query) (string, []any, error) {
	if errs := queryir.Validate(q); len(errs) > 0 {
		return "", nil, fmt.Errorf("invalid query: %w", errors.Join(errs...))
	}

	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		sel = *query
	}

	var b strings.Builder
	b.WriteString("FROM ")
	b.WriteString(string(sel.From))

	var params []any
	if sel.Filter != nil {
		where, whereParams := compilePredicate(sel.Filter)
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = whereParams
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(orderKeys[sel.From])
	return b.String(), params, nil
}

// compilePredicate renders a validated predicate. Field names come from
// the schema whitelist, so only values need parameters.
func compilePredicate(p queryir.Predicate) (string, []any) {
	switch pred := p.(type) {
	case queryir.Equals:
		return pred.Field + " = ?", []any{pred.Value}
	case *queryir.Equals:
		return pred.Field + " = ?", []any{pred.Value}
	case queryir.AtLeast:
		return pred.Field + " >= ?", []any{pred.Value}
	case *queryir.AtLeast:
		return pred.Field + " >= ?", []any{pred.Value}
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "1 = 1", nil
	}
}

func compileAnd(and queryir.And) (string, []any) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil // Vacuous truth
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, p := range and.Predicates {
		sql, ps := compilePredicate(p)
		if _, nested := p.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params
}
