// Package query defines the backend-agnostic boolean query tree produced by
// the classic phrase translator. Leaf nodes are supplied by the search
// backend (see internal/index); this package only owns the combinators.
package query

// Query is an immutable boolean expression tree. QueryNode is a marker
// method: implementations outside this package act as leaf match nodes
// and are opaque to the translator.
type Query interface {
	QueryNode()
}

// MatchAll is the universal identity query: conjunction with it yields the
// other operand, disjunction with it matches everything.
type MatchAll struct{}

// BoolAnd is the conjunction of two subqueries.
type BoolAnd struct {
	Left, Right Query
}

// BoolOr is the disjunction of two subqueries.
type BoolOr struct {
	Left, Right Query
}

// BoolNot negates a subquery.
type BoolNot struct {
	Sub Query
}

func (MatchAll) QueryNode() {}
func (BoolAnd) QueryNode()  {}
func (BoolOr) QueryNode()   {}
func (BoolNot) QueryNode()  {}

// And combines two queries conjunctively. MatchAll is the identity.
func And(a, b Query) Query {
	if isMatchAll(a) {
		return b
	}
	if isMatchAll(b) {
		return a
	}
	return BoolAnd{Left: a, Right: b}
}

// Or combines two queries disjunctively. MatchAll absorbs: anything OR-ed
// with the universal query still matches everything.
func Or(a, b Query) Query {
	if isMatchAll(a) || isMatchAll(b) {
		return MatchAll{}
	}
	return BoolOr{Left: a, Right: b}
}

// Not negates a query.
func Not(q Query) Query {
	return BoolNot{Sub: q}
}

func isMatchAll(q Query) bool {
	_, ok := q.(MatchAll)
	return ok
}
