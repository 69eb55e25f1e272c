package highlight

import "strings"

// DefaultTolerance is the overrun Preview permits when extending a cut
// past the end of a span instead of backing off before its start.
const DefaultTolerance = 1

// SafeEnd returns a truncation offset for text that is never strictly
// inside a protected span. A desiredEnd that falls inside a span snaps to
// the span's start, unless the span ends within tolerance bytes of
// desiredEnd, in which case it snaps to the span's end: a small overrun
// beats cutting mid-construct. desiredEnd is clamped to [0, len(text)].
func SafeEnd(text string, desiredEnd int, startTag, endTag string, tolerance int) int {
	if desiredEnd < 0 {
		return 0
	}
	if desiredEnd > len(text) {
		desiredEnd = len(text)
	}
	for span := range Spans(text, startTag, endTag) {
		if span.Start >= desiredEnd {
			break
		}
		if desiredEnd < span.End {
			if span.End-desiredEnd <= tolerance {
				return span.End
			}
			return span.Start
		}
	}
	return desiredEnd
}

// Preview truncates a highlighted text to at most fragmentSize bytes,
// modulo the tolerance slack and any closing tags appended to keep
// highlight spans balanced. The cut never splits a TeX span, a tag, or a
// highlight marker.
func Preview(text string, fragmentSize int, startTag, endTag string) string {
	end := SafeEnd(text, fragmentSize, startTag, endTag, DefaultTolerance)
	snippet := text[:end]
	if balance := TagBalance(snippet, startTag, endTag); balance > 0 {
		snippet += strings.Repeat(endTag, balance)
	}
	return snippet
}

// TagBalance returns the net number of unclosed highlight spans in text:
// occurrences of startTag minus occurrences of endTag. It is a plain
// counter, not a nesting matcher; ordering of the tags is ignored.
func TagBalance(text, startTag, endTag string) int {
	return strings.Count(text, startTag) - strings.Count(text, endTag)
}
