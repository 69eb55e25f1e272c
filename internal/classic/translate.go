package classic

import (
	"fmt"

	"github.com/ID2797370/arxiv-search/internal/query"
)

// Builder constructs a backend-specific leaf query for one field value.
type Builder func(value string) query.Query

// FieldBuilders maps every Field to its leaf builder. It is assembled once
// at startup by the search backend and never mutated afterwards.
type FieldBuilders map[Field]Builder

// MalformedPhraseError reports a phrase token whose shape is not part of
// the grammar. It is a client-input fault.
type MalformedPhraseError struct {
	Token Token
}

func (e *MalformedPhraseError) Error() string {
	if e.Token == nil {
		return "malformed phrase: empty phrase"
	}
	return fmt.Sprintf("malformed phrase: invalid component %#v", e.Token)
}

// UnsupportedFieldError reports a term whose field has no registered
// builder. A correctly provisioned mapping covers the whole Field
// enumeration, so this is a configuration fault.
type UnsupportedFieldError struct {
	Field Field
}

func (e *UnsupportedFieldError) Error() string {
	return fmt.Sprintf("no query builder registered for field %q", e.Field)
}

// Translator converts classic Phrases into backend query trees.
type Translator struct {
	builders FieldBuilders
}

// NewTranslator creates a Translator over an immutable builder mapping.
func NewTranslator(builders FieldBuilders) *Translator {
	return &Translator{builders: builders}
}

// Translate converts a Phrase into a query tree. The phrase is scanned
// left to right with a current combinator, initially AND, and an
// accumulator, initially the universal query: operator tokens replace the
// combinator for all subsequent operands, operand tokens are translated
// and folded in. Translation is pure; the returned tree is owned by the
// caller.
func (t *Translator) Translate(phrase Phrase) (query.Query, error) {
	if len(phrase) == 0 {
		return nil, &MalformedPhraseError{}
	}

	// A phrase that is a bare term delegates straight to leaf translation.
	if len(phrase) == 1 {
		if term, ok := phrase[0].(Term); ok {
			return t.leaf(term)
		}
	}

	var acc query.Query = query.MatchAll{}
	current := OpAND

	for _, token := range phrase {
		var operand query.Query
		var err error

		switch tok := token.(type) {
		case Operator:
			current = tok
			continue
		case Term:
			operand, err = t.leaf(tok)
		case Phrase:
			operand, err = t.Translate(tok)
		default:
			return nil, &MalformedPhraseError{Token: token}
		}
		if err != nil {
			return nil, err
		}

		switch current {
		case OpAND:
			acc = query.And(acc, operand)
		case OpOR:
			acc = query.Or(acc, operand)
		case OpANDNOT:
			acc = query.And(acc, query.Not(operand))
		}
	}
	return acc, nil
}

func (t *Translator) leaf(term Term) (query.Query, error) {
	builder, ok := t.builders[term.Field]
	if !ok {
		return nil, &UnsupportedFieldError{Field: term.Field}
	}
	return builder(term.Value), nil
}
