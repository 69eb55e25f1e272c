package highlight

import (
	"reflect"
	"testing"
)

func collectSpans(text string) []Span {
	var out []Span
	for span := range Spans(text, openTag, closeTag) {
		out = append(out, span)
	}
	return out
}

func TestSpansMixedText(t *testing.T) {
	got := collectSpans(sampleAbstract)
	wantPrefix := []Span{
		{Start: 50, End: 62, Kind: SpanTeX},
		{Start: 76, End: 109, Kind: SpanTeX},
		{Start: 213, End: 217, Kind: SpanTag},
		{Start: 217, End: 268, Kind: SpanTeX},
		{Start: 268, End: 273, Kind: SpanTag},
	}
	if len(got) < len(wantPrefix) {
		t.Fatalf("got %d spans, want at least %d: %v", len(got), len(wantPrefix), got)
	}
	if !reflect.DeepEqual(got[:len(wantPrefix)], wantPrefix) {
		t.Errorf("leading spans = %v, want %v", got[:len(wantPrefix)], wantPrefix)
	}
}

func TestSpansOrderedAndDisjoint(t *testing.T) {
	spans := collectSpans(sampleAbstract)
	for i := 1; i < len(spans); i++ {
		if spans[i].Start < spans[i-1].End {
			t.Errorf("span %d overlaps previous: %v then %v", i, spans[i-1], spans[i])
		}
	}
	for _, span := range spans {
		if span.Start >= span.End {
			t.Errorf("empty or inverted span %v", span)
		}
	}
}

func TestSpansEscapedDollar(t *testing.T) {
	// The \$ inside the math span does not terminate it.
	text := `price is $x \$ 5$ total`
	got := collectSpans(text)
	want := []Span{{Start: 9, End: 17, Kind: SpanTeX}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %v, want %v", got, want)
	}
}

func TestSpansUnterminated(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"lone dollar", "an amount of $100 total"},
		{"lone angle bracket", "for x < y always"},
		{"trailing open tag start", "text ends with <em"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collectSpans(tt.text); got != nil {
				t.Errorf("Spans(%q) = %v, want none", tt.text, got)
			}
		})
	}
}

func TestSpansSkipsUnterminatedMath(t *testing.T) {
	// An unclosed $ yields no span, but scanning continues past it.
	text := "odd $ then <em>late</em>"
	got := collectSpans(text)
	want := []Span{
		{Start: 11, End: 15, Kind: SpanTag},
		{Start: 19, End: 24, Kind: SpanTag},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %v, want %v", got, want)
	}
}

func TestSpansBareMarkerTags(t *testing.T) {
	// Highlight markers need not look like HTML tags to be protected.
	text := "aaa [[match]] bbb"
	var got []Span
	for span := range Spans(text, "[[", "]]") {
		got = append(got, span)
	}
	want := []Span{
		{Start: 4, End: 6, Kind: SpanTag},
		{Start: 11, End: 13, Kind: SpanTag},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %v, want %v", got, want)
	}
}

func TestSpansRestartable(t *testing.T) {
	seq := Spans(sampleAbstract, openTag, closeTag)
	first := func() []Span {
		var out []Span
		for span := range seq {
			out = append(out, span)
		}
		return out
	}
	a, b := first(), first()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("second iteration differs: %v vs %v", a, b)
	}
}

func TestSpansEarlyStop(t *testing.T) {
	var got []Span
	for span := range Spans(sampleAbstract, openTag, closeTag) {
		got = append(got, span)
		if len(got) == 2 {
			break
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %d spans after early break, want 2", len(got))
	}
}
