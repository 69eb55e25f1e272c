package highlight

import (
	"strings"
	"testing"
)

// sampleAbstract is a highlighted abstract mixing TeX math spans, an
// <em>-highlighted region, and plain prose. Byte offsets of interest:
// the first TeX span is [50,62), the highlight tag <em> is [213,217),
// and the closing </em> is [268,273).
const sampleAbstract = `A search for the standard model (SM) Higgs boson ($\mathrm{H}$) decaying to $\mathrm{b}\overline{\mathrm{b}}$ when produced in association with an electroweak vector boson is reported for the following processes: <em>$\mathrm{b}\overline{\mathrm{b}}(\nu\nu)\mathrm{H}$</em>, $\mathrm{W}(\mu\nu)\mathrm{H}$, $\mathrm{W}(\mathrm{e} \nu)\mathrm{H}$, $\mathrm{Z}(\mu\mu)\mathrm{H}$, and $\mathrm{Z}(\mathrm{e}\mathrm{e})\mathrm{H}$.`

const (
	openTag  = "<em>"
	closeTag = "</em>"
)

func TestSafeEnd(t *testing.T) {
	tests := []struct {
		name    string
		desired int
		want    int
	}{
		{"no boundary nearby", 45, 45},
		{"backs off before TeX span", 55, 50},
		{"backs off before tag", 215, 213},
		{"between spans, unchanged", 275, 275},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeEnd(sampleAbstract, tt.desired, openTag, closeTag, DefaultTolerance)
			if got != tt.want {
				t.Errorf("SafeEnd(%d) = %d, want %d", tt.desired, got, tt.want)
			}
		})
	}
}

func TestSafeEndTolerance(t *testing.T) {
	// Desired end 215 is inside the <em> tag [213,217). With tolerance 2
	// the cut extends to the tag's end instead of backing off.
	if got := SafeEnd(sampleAbstract, 215, openTag, closeTag, 2); got != 217 {
		t.Errorf("SafeEnd(215, tolerance=2) = %d, want 217", got)
	}
	if got := SafeEnd(sampleAbstract, 215, openTag, closeTag, 1); got != 213 {
		t.Errorf("SafeEnd(215, tolerance=1) = %d, want 213", got)
	}
}

func TestSafeEndClamps(t *testing.T) {
	if got := SafeEnd(sampleAbstract, -5, openTag, closeTag, 0); got != 0 {
		t.Errorf("negative desired end: got %d, want 0", got)
	}
	if got := SafeEnd(sampleAbstract, len(sampleAbstract)+100, openTag, closeTag, 0); got != len(sampleAbstract) {
		t.Errorf("oversized desired end: got %d, want %d", got, len(sampleAbstract))
	}
	if got := SafeEnd("", 40, openTag, closeTag, 0); got != 0 {
		t.Errorf("empty text: got %d, want 0", got)
	}
}

// SafeEnd must never land strictly inside a scanner-reported span, for any
// desired end.
func TestSafeEndNeverSplitsSpan(t *testing.T) {
	for desired := 0; desired <= len(sampleAbstract); desired++ {
		end := SafeEnd(sampleAbstract, desired, openTag, closeTag, DefaultTolerance)
		for span := range Spans(sampleAbstract, openTag, closeTag) {
			if span.Start < end && end < span.End {
				t.Fatalf("SafeEnd(%d) = %d splits span [%d,%d)", desired, end, span.Start, span.End)
			}
		}
	}
}

func TestPreviewEndsAtSafeOffsets(t *testing.T) {
	tests := []struct {
		fragmentSize int
		wantLen      int
	}{
		{45, 45},
		{55, 50},
		{215, 213},
		{275, 275},
	}

	for _, tt := range tests {
		got := Preview(sampleAbstract, tt.fragmentSize, openTag, closeTag)
		if len(got) != tt.wantLen {
			t.Errorf("Preview(fragmentSize=%d) has length %d, want %d",
				tt.fragmentSize, len(got), tt.wantLen)
		}
		if !strings.HasPrefix(sampleAbstract, got) {
			t.Errorf("Preview(fragmentSize=%d) is not a prefix of the input", tt.fragmentSize)
		}
	}
}

func TestPreviewClosesOpenHighlight(t *testing.T) {
	// Fragment size 250 falls inside the TeX span [217,268) that sits
	// between <em> and </em>; the cut backs off to 217, leaving one
	// unclosed highlight that Preview must close.
	got := Preview(sampleAbstract, 250, openTag, closeTag)
	want := sampleAbstract[:217] + closeTag
	if got != want {
		t.Errorf("Preview(250) = %q, want %q", got, want)
	}
	if TagBalance(got, openTag, closeTag) != 0 {
		t.Errorf("Preview(250) left unbalanced highlight tags: %q", got)
	}
}

func TestPreviewLengthBound(t *testing.T) {
	// Result length is bounded by fragmentSize plus the tolerance slack
	// plus appended closing tags.
	for fragmentSize := 0; fragmentSize <= len(sampleAbstract)+10; fragmentSize++ {
		got := Preview(sampleAbstract, fragmentSize, openTag, closeTag)
		bound := fragmentSize + DefaultTolerance + len(closeTag)
		if len(got) > bound {
			t.Fatalf("Preview(fragmentSize=%d) length %d exceeds bound %d",
				fragmentSize, len(got), bound)
		}
	}
}

func TestTagBalance(t *testing.T) {
	o, c := openTag, closeTag
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"unrelated tags only", "something <tag> or </closetag> but not important", 0},
		{"three opens", strings.Repeat(o, 3), 3},
		{"three closes", strings.Repeat(c, 3), -3},
		{"open open close", o + o + c, 1},
		{"open close close", o + c + c, -1},
		{"nested", o + o + c + c, 0},
		{"sequential", o + c + o + c, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TagBalance(tt.text, o, c); got != tt.want {
				t.Errorf("TagBalance(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func BenchmarkPreview(b *testing.B) {
	text := strings.Repeat(sampleAbstract+" ", 10)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = Preview(text, 400, openTag, closeTag)
	}
}
