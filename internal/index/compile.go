package index

import (
	"fmt"
	"strings"

	"github.com/ID2797370/arxiv-search/internal/classic"
	"github.com/ID2797370/arxiv-search/internal/query"
)

// fieldColumns maps each classic field to the tsvector source columns it
// searches. AllFields is the union of every indexed column.
var fieldColumns = map[classic.Field][]string{
	classic.Author:           {"authors"},
	classic.Comment:          {"comments"},
	classic.JournalReference: {"journal_ref"},
	classic.ReportNumber:     {"report_num"},
	classic.SubjectCategory:  {"categories"},
	classic.Title:            {"title"},
	classic.AllFields: {
		"title", "abstract", "authors", "comments",
		"journal_ref", "report_num", "categories",
	},
}

// Compiled is a query tree lowered to a SQL condition with positional
// placeholders.
type Compiled struct {
	Cond string
	Args []any
}

type compiler struct {
	args []any
}

// Compile lowers a query tree into a WHERE condition over the papers
// table. Boolean combinators map onto SQL AND/OR/NOT; leaves map onto
// tsvector matches (or an exact paper_id comparison for the Identifier
// field); the universal query maps onto TRUE.
func Compile(q query.Query) (Compiled, error) {
	c := &compiler{}
	cond, err := c.compile(q)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{Cond: cond, Args: c.args}, nil
}

func (c *compiler) compile(q query.Query) (string, error) {
	switch node := q.(type) {
	case query.MatchAll:
		return "TRUE", nil
	case query.BoolAnd:
		return c.binary(node.Left, node.Right, "AND")
	case query.BoolOr:
		return c.binary(node.Left, node.Right, "OR")
	case query.BoolNot:
		sub, err := c.compile(node.Sub)
		if err != nil {
			return "", err
		}
		return "NOT " + sub, nil
	case FieldMatch:
		return c.leaf(node)
	default:
		return "", fmt.Errorf("unknown query node %T", q)
	}
}

func (c *compiler) binary(left, right query.Query, op string) (string, error) {
	l, err := c.compile(left)
	if err != nil {
		return "", err
	}
	r, err := c.compile(right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", l, op, r), nil
}

func (c *compiler) leaf(match FieldMatch) (string, error) {
	if match.Field == classic.Identifier {
		return fmt.Sprintf("paper_id = %s", c.placeholder(match.Value)), nil
	}
	columns, ok := fieldColumns[match.Field]
	if !ok {
		return "", fmt.Errorf("no index columns for field %q", match.Field)
	}
	ph := c.placeholder(match.Value)
	conds := make([]string, len(columns))
	for i, col := range columns {
		conds[i] = fmt.Sprintf(
			"to_tsvector('english', coalesce(%s, '')) @@ plainto_tsquery('english', %s)",
			col, ph,
		)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return "(" + strings.Join(conds, " OR ") + ")", nil
}

// placeholder appends an argument and returns its $n marker. The same
// value passed twice still gets two placeholders; lib/pq has no named
// parameters.
func (c *compiler) placeholder(value any) string {
	c.args = append(c.args, value)
	return fmt.Sprintf("$%d", len(c.args))
}

// PositiveTerms collects the leaf values of q that are not under a NOT,
// for use in headline generation and ranking. Negated terms never appear
// in matched documents, so highlighting them would be noise.
func PositiveTerms(q query.Query) []string {
	var terms []string
	var walk func(q query.Query, negated bool)
	walk = func(q query.Query, negated bool) {
		switch node := q.(type) {
		case query.BoolAnd:
			walk(node.Left, negated)
			walk(node.Right, negated)
		case query.BoolOr:
			walk(node.Left, negated)
			walk(node.Right, negated)
		case query.BoolNot:
			walk(node.Sub, !negated)
		case FieldMatch:
			if !negated {
				terms = append(terms, node.Value)
			}
		}
	}
	walk(q, false)
	return terms
}
