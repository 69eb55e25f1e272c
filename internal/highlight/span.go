// Package highlight renders bounded-length, markup-safe previews of
// highlighted search results. Abstracts returned by the index carry inline
// TeX math ($...$), HTML-like tags, and the highlight tag pair wrapped
// around matched terms; truncation must never split any of them.
package highlight

import (
	"iter"
	"strings"
)

// SpanKind classifies a protected text range.
type SpanKind int

const (
	// SpanTeX is an inline math span delimited by a $ and the next
	// unescaped $.
	SpanTeX SpanKind = iota
	// SpanTag is an HTML-like tag from < to the next >, including the
	// highlight tag literals.
	SpanTag
)

// Span is a half-open byte range [Start, End) that must not be split when
// truncating.
type Span struct {
	Start int
	End   int
	Kind  SpanKind
}

// Spans returns the protected spans of text in order of start offset.
// Spans never overlap. An opening $ or < with no closer before the end of
// text yields no span. The sequence is lazy and restartable; offsets are
// byte offsets.
func Spans(text, startTag, endTag string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		pos := 0
		for pos < len(text) {
			span, next, ok := nextSpan(text, startTag, endTag, pos)
			if !ok {
				return
			}
			if !yield(span) {
				return
			}
			pos = next
		}
	}
}

// nextSpan finds the first span at or after pos. It reports false when no
// further span exists.
func nextSpan(text, startTag, endTag string, pos int) (Span, int, bool) {
	for i := pos; i < len(text); i++ {
		// Highlight tag literals first: the caller's tags are tags even
		// when they would not scan as <...> (e.g. bare markers).
		if startTag != "" && strings.HasPrefix(text[i:], startTag) {
			end := i + len(startTag)
			return Span{Start: i, End: end, Kind: SpanTag}, end, true
		}
		if endTag != "" && strings.HasPrefix(text[i:], endTag) {
			end := i + len(endTag)
			return Span{Start: i, End: end, Kind: SpanTag}, end, true
		}

		switch text[i] {
		case '$':
			if close := findClosingDollar(text, i+1); close >= 0 {
				return Span{Start: i, End: close + 1, Kind: SpanTeX}, close + 1, true
			}
			// Unterminated math: no span for this occurrence.
		case '<':
			if close := strings.IndexByte(text[i+1:], '>'); close >= 0 {
				end := i + 1 + close + 1
				return Span{Start: i, End: end, Kind: SpanTag}, end, true
			}
		}
	}
	return Span{}, 0, false
}

// findClosingDollar returns the index of the next unescaped $ at or after
// from, or -1.
func findClosingDollar(text string, from int) int {
	for i := from; i < len(text); i++ {
		if text[i] == '$' && text[i-1] != '\\' {
			return i
		}
	}
	return -1
}
