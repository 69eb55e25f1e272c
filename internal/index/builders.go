// Package index executes translated queries against the PostgreSQL
// full-text index. It owns the leaf query nodes, the mapping from classic
// fields to leaf builders, and the compilation of query trees into SQL.
package index

import (
	"github.com/ID2797370/arxiv-search/internal/classic"
	"github.com/ID2797370/arxiv-search/internal/query"
)

// FieldMatch is the leaf node of the query tree: a full-text match of a
// value against one classic field. Its shape is owned by this package;
// the translator treats it as opaque.
type FieldMatch struct {
	Field classic.Field
	Value string
}

// QueryNode marks FieldMatch as a query.Query leaf.
func (FieldMatch) QueryNode() {}

// NewFieldBuilders returns the builder mapping injected into the classic
// translator. One builder per field variant; the mapping is built once at
// startup and treated as read-only.
func NewFieldBuilders() classic.FieldBuilders {
	builders := make(classic.FieldBuilders, 8)
	for _, field := range []classic.Field{
		classic.Author,
		classic.Comment,
		classic.Identifier,
		classic.JournalReference,
		classic.ReportNumber,
		classic.SubjectCategory,
		classic.Title,
		classic.AllFields,
	} {
		builders[field] = newBuilder(field)
	}
	return builders
}

func newBuilder(field classic.Field) classic.Builder {
	return func(value string) query.Query {
		return FieldMatch{Field: field, Value: value}
	}
}
