package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ID2797370/arxiv-search/internal/query"
	"github.com/ID2797370/arxiv-search/pkg/config"
	pkgerrors "github.com/ID2797370/arxiv-search/pkg/errors"
	"github.com/ID2797370/arxiv-search/pkg/postgres"
)

// Paper is a row of the papers table.
type Paper struct {
	PaperID     string    `json:"paper_id"`
	Title       string    `json:"title"`
	Abstract    string    `json:"abstract"`
	Authors     string    `json:"authors"`
	Comments    string    `json:"comments,omitempty"`
	JournalRef  string    `json:"journal_ref,omitempty"`
	ReportNum   string    `json:"report_num,omitempty"`
	Categories  string    `json:"categories"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Hit is one search result: the paper plus its highlighted fields and
// rank. Highlighted fields carry the configured highlight tag pair around
// matched terms; preview truncation happens downstream.
type Hit struct {
	Paper
	HighlightedTitle    string  `json:"highlighted_title"`
	HighlightedAbstract string  `json:"highlighted_abstract"`
	Rank                float64 `json:"rank"`
}

// SearchResult is the executed result set for one query.
type SearchResult struct {
	TotalHits int   `json:"total_hits"`
	Hits      []Hit `json:"hits"`
}

// Store executes compiled queries against PostgreSQL.
type Store struct {
	db     *postgres.Client
	cfg    config.SearchConfig
	logger *slog.Logger
}

func NewStore(db *postgres.Client, cfg config.SearchConfig) *Store {
	return &Store{
		db:     db,
		cfg:    cfg,
		logger: slog.Default().With("component", "index-store"),
	}
}

// Search runs a query tree and returns ranked hits with highlighted title
// and abstract, plus the total match count.
func (s *Store) Search(ctx context.Context, q query.Query, limit, offset int) (*SearchResult, error) {
	compiled, err := Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compiling query: %w", err)
	}

	args := compiled.Args
	terms := PositiveTerms(q)

	// Headline and rank expressions need the positive terms as one
	// tsquery. A pure-negation or match-all query has none; fall back to
	// the raw columns and submission order.
	hlTitle, hlAbstract, rank := "title", "abstract", "0::float4"
	if len(terms) > 0 {
		args = append(args, strings.Join(terms, " "))
		tsq := fmt.Sprintf("plainto_tsquery('english', $%d)", len(args))
		args = append(args, fmt.Sprintf("StartSel=%s, StopSel=%s, HighlightAll=true",
			s.cfg.HighlightStartTag, s.cfg.HighlightEndTag))
		opts := fmt.Sprintf("$%d", len(args))
		hlTitle = fmt.Sprintf("ts_headline('english', title, %s, %s)", tsq, opts)
		hlAbstract = fmt.Sprintf("ts_headline('english', abstract, %s, %s)", tsq, opts)
		rank = fmt.Sprintf(
			"ts_rank(to_tsvector('english', title || ' ' || abstract), %s)", tsq)
	}

	args = append(args, limit, offset)
	stmt := fmt.Sprintf(`
		SELECT paper_id, title, abstract, authors,
		       coalesce(comments, ''), coalesce(journal_ref, ''),
		       coalesce(report_num, ''), categories, submitted_at,
		       %s, %s, %s,
		       count(*) OVER ()
		FROM papers
		WHERE %s
		ORDER BY 12 DESC, submitted_at DESC
		LIMIT $%d OFFSET $%d`,
		hlTitle, hlAbstract, rank, compiled.Cond, len(args)-1, len(args))

	rows, err := s.db.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	total := 0
	for rows.Next() {
		var h Hit
		if err := rows.Scan(
			&h.PaperID, &h.Title, &h.Abstract, &h.Authors,
			&h.Comments, &h.JournalRef, &h.ReportNum, &h.Categories,
			&h.SubmittedAt, &h.HighlightedTitle, &h.HighlightedAbstract,
			&h.Rank, &total,
		); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	s.logger.Debug("search executed", "total", total, "returned", len(hits))
	return &SearchResult{TotalHits: total, Hits: hits}, nil
}

// GetPaper returns the metadata row for an identifier. A trailing version
// tag (e.g. 2101.00123v3) is stripped: the table stores the latest
// version only.
func (s *Store) GetPaper(ctx context.Context, id string) (*Paper, error) {
	var p Paper
	err := s.db.DB.QueryRowContext(ctx, `
		SELECT paper_id, title, abstract, authors,
		       coalesce(comments, ''), coalesce(journal_ref, ''),
		       coalesce(report_num, ''), categories, submitted_at
		FROM papers
		WHERE paper_id = $1`,
		stripVersion(id),
	).Scan(
		&p.PaperID, &p.Title, &p.Abstract, &p.Authors,
		&p.Comments, &p.JournalRef, &p.ReportNum, &p.Categories,
		&p.SubmittedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrPaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching paper %s: %w", id, err)
	}
	return &p, nil
}

func stripVersion(id string) string {
	if i := strings.LastIndexByte(id, 'v'); i > 0 {
		if _, err := strconv.Atoi(id[i+1:]); err == nil {
			return id[:i]
		}
	}
	return id
}
