package classic

import (
	"fmt"
	"strings"
)

// fieldPrefixes are the classic API search_query prefixes.
var fieldPrefixes = map[string]Field{
	"au":  Author,
	"co":  Comment,
	"id":  Identifier,
	"jr":  JournalReference,
	"rn":  ReportNumber,
	"cat": SubjectCategory,
	"ti":  Title,
	"all": AllFields,
}

// ParseError reports a search_query string that cannot be turned into a
// Phrase. It is a client-input fault.
type ParseError struct {
	Query string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse query %q: %s", e.Query, e.Msg)
}

// ParseQuery parses a classic API search_query string into a Phrase.
//
// The grammar is the legacy prefix form, e.g.
//
//	au:del_maestro AND ti:"quantum criticality" ANDNOT cat:cond-mat
//
// Bare words without a prefix search all fields. Parenthesized groups
// become nested phrases. Values may be double-quoted to include spaces.
func ParseQuery(raw string) (Phrase, error) {
	tokens, err := lexQuery(raw)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &ParseError{Query: raw, Msg: "empty query"}
	}
	phrase, rest, err := parseGroup(raw, tokens, false)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, &ParseError{Query: raw, Msg: "unbalanced closing parenthesis"}
	}
	return phrase, nil
}

// lexQuery splits the raw query into words, parentheses, and quoted
// strings. Quotes group spaces into a single token and are stripped.
func lexQuery(raw string) ([]string, error) {
	var tokens []string
	var buf strings.Builder
	inQuotes := false

	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, buf.String())
			buf.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case inQuotes:
			buf.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		case c == '(' || c == ')':
			flush()
			tokens = append(tokens, string(c))
		default:
			buf.WriteByte(c)
		}
	}
	if inQuotes {
		return nil, &ParseError{Query: raw, Msg: "unterminated quote"}
	}
	flush()
	return tokens, nil
}

// parseGroup consumes tokens until the end of input or, when nested, the
// matching close paren. It returns the remaining tokens after the group.
func parseGroup(raw string, tokens []string, nested bool) (Phrase, []string, error) {
	var phrase Phrase

	for len(tokens) > 0 {
		tok := tokens[0]
		tokens = tokens[1:]

		switch tok {
		case "(":
			sub, rest, err := parseGroup(raw, tokens, true)
			if err != nil {
				return nil, nil, err
			}
			phrase = append(phrase, sub)
			tokens = rest
		case ")":
			if !nested {
				return phrase, append([]string{")"}, tokens...), nil
			}
			if len(phrase) == 0 {
				return nil, nil, &ParseError{Query: raw, Msg: "empty group"}
			}
			return phrase, tokens, nil
		case "AND":
			phrase = append(phrase, OpAND)
		case "OR":
			phrase = append(phrase, OpOR)
		case "ANDNOT":
			phrase = append(phrase, OpANDNOT)
		default:
			term, err := parseTerm(raw, tok)
			if err != nil {
				return nil, nil, err
			}
			phrase = append(phrase, term)
		}
	}

	if nested {
		return nil, nil, &ParseError{Query: raw, Msg: "unbalanced opening parenthesis"}
	}
	if len(phrase) == 0 {
		return nil, nil, &ParseError{Query: raw, Msg: "empty query"}
	}
	return phrase, nil, nil
}

func parseTerm(raw, tok string) (Term, error) {
	prefix, value, found := strings.Cut(tok, ":")
	if !found {
		// Unprefixed words search across all fields.
		return Term{Field: AllFields, Value: tok}, nil
	}
	field, ok := fieldPrefixes[strings.ToLower(prefix)]
	if !ok {
		return Term{}, &ParseError{Query: raw, Msg: fmt.Sprintf("unknown field prefix %q", prefix)}
	}
	if value == "" {
		return Term{}, &ParseError{Query: raw, Msg: fmt.Sprintf("empty value for field %q", prefix)}
	}
	return Term{Field: field, Value: value}, nil
}
