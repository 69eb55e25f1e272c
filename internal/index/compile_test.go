package index

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ID2797370/arxiv-search/internal/classic"
	"github.com/ID2797370/arxiv-search/internal/query"
)

func mustCompile(t *testing.T, q query.Query) Compiled {
	t.Helper()
	compiled, err := Compile(q)
	if err != nil {
		t.Fatalf("Compile(%#v) failed: %v", q, err)
	}
	return compiled
}

func TestCompileMatchAll(t *testing.T) {
	compiled := mustCompile(t, query.MatchAll{})
	if compiled.Cond != "TRUE" {
		t.Errorf("Cond = %q, want TRUE", compiled.Cond)
	}
	if len(compiled.Args) != 0 {
		t.Errorf("Args = %v, want none", compiled.Args)
	}
}

func TestCompileSingleColumnLeaf(t *testing.T) {
	compiled := mustCompile(t, FieldMatch{Field: classic.Title, Value: "electron"})
	want := "to_tsvector('english', coalesce(title, '')) @@ plainto_tsquery('english', $1)"
	if compiled.Cond != want {
		t.Errorf("Cond = %q, want %q", compiled.Cond, want)
	}
	if !reflect.DeepEqual(compiled.Args, []any{"electron"}) {
		t.Errorf("Args = %v, want [electron]", compiled.Args)
	}
}

func TestCompileIdentifierLeaf(t *testing.T) {
	compiled := mustCompile(t, FieldMatch{Field: classic.Identifier, Value: "1702.00123"})
	if compiled.Cond != "paper_id = $1" {
		t.Errorf("Cond = %q, want paper_id equality", compiled.Cond)
	}
	if !reflect.DeepEqual(compiled.Args, []any{"1702.00123"}) {
		t.Errorf("Args = %v, want [1702.00123]", compiled.Args)
	}
}

func TestCompileAllFieldsSpansEveryColumn(t *testing.T) {
	compiled := mustCompile(t, FieldMatch{Field: classic.AllFields, Value: "lattice"})
	for _, col := range []string{
		"title", "abstract", "authors", "comments",
		"journal_ref", "report_num", "categories",
	} {
		if !strings.Contains(compiled.Cond, "coalesce("+col+",") {
			t.Errorf("all-fields condition misses column %q: %s", col, compiled.Cond)
		}
	}
	// One shared placeholder for the value, repeated per column.
	if len(compiled.Args) != 7 {
		t.Errorf("Args = %v, want 7 repetitions", compiled.Args)
	}
}

func TestCompileBooleanNesting(t *testing.T) {
	q := query.BoolAnd{
		Left: query.BoolOr{
			Left:  FieldMatch{Field: classic.Title, Value: "spinor"},
			Right: FieldMatch{Field: classic.Title, Value: "monopole"},
		},
		Right: query.BoolNot{Sub: FieldMatch{Field: classic.SubjectCategory, Value: "hep-th"}},
	}
	compiled := mustCompile(t, q)

	if !reflect.DeepEqual(compiled.Args, []any{"spinor", "monopole", "hep-th"}) {
		t.Errorf("Args = %v, want placeholders in visit order", compiled.Args)
	}
	for i := 1; i <= 3; i++ {
		ph := "$" + string(rune('0'+i))
		if !strings.Contains(compiled.Cond, ph) {
			t.Errorf("condition misses placeholder %s: %s", ph, compiled.Cond)
		}
	}
	if !strings.Contains(compiled.Cond, "NOT ") {
		t.Errorf("condition misses negation: %s", compiled.Cond)
	}
	// OR group stays inside the AND's left operand.
	if !strings.HasPrefix(compiled.Cond, "((") {
		t.Errorf("condition lost grouping: %s", compiled.Cond)
	}
}

func TestCompileUnknownNode(t *testing.T) {
	if _, err := Compile(alienNode{}); err == nil {
		t.Error("Compile accepted a node type it cannot lower")
	}
}

type alienNode struct{}

func (alienNode) QueryNode() {}

func TestPositiveTerms(t *testing.T) {
	q := query.BoolAnd{
		Left: query.BoolOr{
			Left:  FieldMatch{Field: classic.Title, Value: "spinor"},
			Right: FieldMatch{Field: classic.Title, Value: "monopole"},
		},
		Right: query.BoolNot{Sub: FieldMatch{Field: classic.SubjectCategory, Value: "hep-th"}},
	}
	got := PositiveTerms(q)
	want := []string{"spinor", "monopole"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PositiveTerms = %v, want %v", got, want)
	}
}

func TestPositiveTermsDoubleNegation(t *testing.T) {
	q := query.BoolNot{Sub: query.BoolNot{Sub: FieldMatch{Field: classic.Title, Value: "x"}}}
	got := PositiveTerms(q)
	want := []string{"x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PositiveTerms = %v, want %v", got, want)
	}
}

func TestPositiveTermsMatchAll(t *testing.T) {
	if got := PositiveTerms(query.MatchAll{}); got != nil {
		t.Errorf("PositiveTerms(MatchAll) = %v, want none", got)
	}
}

func TestNewFieldBuildersCoversAllFields(t *testing.T) {
	builders := NewFieldBuilders()
	for _, field := range []classic.Field{
		classic.Author, classic.Comment, classic.Identifier,
		classic.JournalReference, classic.ReportNumber,
		classic.SubjectCategory, classic.Title, classic.AllFields,
	} {
		builder, ok := builders[field]
		if !ok {
			t.Errorf("no builder for field %v", field)
			continue
		}
		leaf := builder("v")
		match, ok := leaf.(FieldMatch)
		if !ok {
			t.Errorf("builder for %v returned %T, want FieldMatch", field, leaf)
			continue
		}
		if match.Field != field || match.Value != "v" {
			t.Errorf("builder for %v produced %#v", field, match)
		}
	}
}
