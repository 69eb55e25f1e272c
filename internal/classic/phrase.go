// Package classic implements the legacy arXiv API query representation: a
// recursive boolean Phrase of fielded terms, and its translation into the
// boolean query tree consumed by the search backend.
package classic

import (
	"fmt"
	"strings"
)

// Field enumerates the searchable attributes of the classic API.
type Field int

const (
	Author Field = iota
	Comment
	Identifier
	JournalReference
	ReportNumber
	SubjectCategory
	Title
	AllFields
)

var fieldNames = map[Field]string{
	Author:           "author",
	Comment:          "comment",
	Identifier:       "id",
	JournalReference: "journal_ref",
	ReportNumber:     "report_num",
	SubjectCategory:  "category",
	Title:            "title",
	AllFields:        "all",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// Operator enumerates the boolean connectives of the classic grammar.
// ANDNOT is conjunction with a negated right operand.
type Operator int

const (
	OpAND Operator = iota
	OpOR
	OpANDNOT
)

func (op Operator) String() string {
	switch op {
	case OpAND:
		return "AND"
	case OpOR:
		return "OR"
	case OpANDNOT:
		return "ANDNOT"
	}
	return "unknown"
}

// Token is one element of a Phrase: an Operator, a Term, or a nested
// Phrase. The closed set makes malformed shapes a type-switch default
// instead of a runtime guess.
type Token interface {
	isToken()
}

// Term is a leaf search condition: a value scoped to a single field.
type Term struct {
	Field Field
	Value string
}

// Phrase is an ordered token sequence. A well-formed phrase alternates
// operands and operators, but the translator tolerates any ordering: an
// operator applies to all following operands until superseded.
type Phrase []Token

func (Operator) isToken() {}
func (Term) isToken()     {}
func (Phrase) isToken()   {}

func (t Term) String() string {
	return t.Field.String() + ":" + t.Value
}

// String renders the phrase in a canonical parenthesized form, used for
// logging and cache keys.
func (p Phrase) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, token := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v", token)
	}
	b.WriteByte(')')
	return b.String()
}
