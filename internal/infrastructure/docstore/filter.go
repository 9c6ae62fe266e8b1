package docstore

import "strings"

// Op is a filter clause operator.
type Op string

const (
	// OpContains matches when the text field contains the value as a
	// case-insensitive substring.
	OpContains Op = "contains"

	// OpEquals matches when the numeric field equals the value.
	OpEquals Op = "eq"
)

// Clause is a single field predicate.
type Clause struct {
	Field string
	Op    Op
	Value any
}

// Filter is a disjunction of clauses. An empty filter matches everything.
type Filter struct {
	Any []Clause
}

// Contains appends a case-insensitive substring clause.
func (f Filter) Contains(field, term string) Filter {
	f.Any = append(f.Any, Clause{Field: field, Op: OpContains, Value: term})
	return f
}

// Equals appends a numeric equality clause.
func (f Filter) Equals(field string, n float64) Filter {
	f.Any = append(f.Any, Clause{Field: field, Op: OpEquals, Value: n})
	return f
}

// Matches evaluates the filter against a document. Adapters that cannot
// push the filter down to the store use this after fetching.
func (f Filter) Matches(doc Document) bool {
	if len(f.Any) == 0 {
		return true
	}
	for _, c := range f.Any {
		if c.matches(doc) {
			return true
		}
	}
	return false
}

func (c Clause) matches(doc Document) bool {
	v, ok := doc[c.Field]
	if !ok {
		return false
	}
	switch c.Op {
	case OpContains:
		s, ok := v.(string)
		if !ok {
			return false
		}
		term, ok := c.Value.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(term))
	case OpEquals:
		n, ok := asNumber(v)
		if !ok {
			return false
		}
		want, ok := asNumber(c.Value)
		if !ok {
			return false
		}
		return n == want
	}
	return false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
