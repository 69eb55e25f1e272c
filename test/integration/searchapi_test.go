// Package integration contains tests that exercise the query pipeline
// end-to-end against a real PostgreSQL database: parsing, translation, SQL
// compilation, ts_headline highlighting, and preview rendering through the
// HTTP router. Redis and Kafka are left out; the handler runs without them.
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ID2797370/arxiv-search/internal/api"
	"github.com/ID2797370/arxiv-search/internal/classic"
	"github.com/ID2797370/arxiv-search/internal/index"
	"github.com/ID2797370/arxiv-search/pkg/config"
	"github.com/ID2797370/arxiv-search/pkg/health"
	"github.com/ID2797370/arxiv-search/pkg/postgres"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "arxiv_search_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "arxiv_search"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func seedPapers(t *testing.T, db *postgres.Client) {
	t.Helper()
	exec := func(stmt string, args ...any) {
		t.Helper()
		if _, err := db.DB.Exec(stmt, args...); err != nil {
			t.Fatalf("seed statement failed: %v", err)
		}
	}

	exec(`CREATE TABLE IF NOT EXISTS papers (
		paper_id     text PRIMARY KEY,
		title        text NOT NULL,
		abstract     text NOT NULL,
		authors      text NOT NULL,
		comments     text,
		journal_ref  text,
		report_num   text,
		categories   text NOT NULL,
		submitted_at timestamptz NOT NULL
	)`)
	exec(`TRUNCATE papers`)
	t.Cleanup(func() { db.DB.Exec(`DROP TABLE IF EXISTS papers`) })

	exec(`INSERT INTO papers
		(paper_id, title, abstract, authors, comments, journal_ref, report_num, categories, submitted_at)
		VALUES
		('1702.00123', 'Electron dynamics in graphene',
		 'We study the dynamics of electrons in monolayer graphene under strain.',
		 'A. Geim, K. Novoselov', '12 pages', NULL, NULL, 'cond-mat.mes-hall',
		 '2017-02-01T00:00:00Z'),
		('1703.04567', 'Monopole condensation and confinement',
		 'Magnetic monopole condensation is proposed as the mechanism of confinement.',
		 'P. Dirac', NULL, 'Phys. Rev. D 10, 100', 'CERN-TH-1', 'hep-th',
		 '2017-03-15T00:00:00Z')`)
}

func newServer(t *testing.T, db *postgres.Client) *httptest.Server {
	t.Helper()
	cfg := config.SearchConfig{
		DefaultLimit:      10,
		MaxResults:        100,
		FragmentSize:      400,
		HighlightStartTag: "<em>",
		HighlightEndTag:   "</em>",
	}
	store := index.NewStore(db, cfg)
	translator := classic.NewTranslator(index.NewFieldBuilders())
	h := api.New(translator, store, nil, nil, nil, nil, cfg)
	server := httptest.NewServer(api.NewRouter(h, health.NewChecker(), nil, 10*time.Second))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding %s: %v", url, err)
	}
	return resp.StatusCode
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestQueryPipeline(t *testing.T) {
	db := skipIfNoPostgres(t)
	seedPapers(t, db)
	server := newServer(t, db)

	var resp api.QueryResponse
	status := getJSON(t, server.URL+"/api/v1/query?search_query=ti:electron", &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp.TotalHits != 1 || len(resp.Results) != 1 {
		t.Fatalf("got %d/%d hits, want 1/1", resp.TotalHits, len(resp.Results))
	}
	hit := resp.Results[0]
	if hit.PaperID != "1702.00123" {
		t.Errorf("paper_id = %q", hit.PaperID)
	}
	if hit.Snippet == "" {
		t.Error("snippet is empty")
	}
}

func TestQueryBooleanOperators(t *testing.T) {
	db := skipIfNoPostgres(t)
	seedPapers(t, db)
	server := newServer(t, db)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"disjunction", "ti:electron+OR+ti:monopole", []string{"1702.00123", "1703.04567"}},
		{"andnot excludes", "all:dynamics+ANDNOT+cat:hep-th", []string{"1702.00123"}},
		{"no match", "ti:neutrino", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp api.QueryResponse
			status := getJSON(t, server.URL+"/api/v1/query?search_query="+tt.query, &resp)
			if status != http.StatusOK {
				t.Fatalf("status = %d", status)
			}
			if resp.TotalHits != len(tt.wantIDs) {
				t.Fatalf("total_hits = %d, want %d", resp.TotalHits, len(tt.wantIDs))
			}
			got := make(map[string]bool, len(resp.Results))
			for _, r := range resp.Results {
				got[r.PaperID] = true
			}
			for _, id := range tt.wantIDs {
				if !got[id] {
					t.Errorf("result set %v misses %s", resp.Results, id)
				}
			}
		})
	}
}

func TestQueryHighlighting(t *testing.T) {
	db := skipIfNoPostgres(t)
	seedPapers(t, db)
	server := newServer(t, db)

	var resp api.QueryResponse
	status := getJSON(t, server.URL+"/api/v1/query?search_query=ti:monopole", &resp)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	title := resp.Results[0].HighlightedTitle
	if title == "" || title == "Monopole condensation and confinement" {
		t.Errorf("title was not highlighted: %q", title)
	}
}

func TestPaperLookup(t *testing.T) {
	db := skipIfNoPostgres(t)
	seedPapers(t, db)
	server := newServer(t, db)

	var paper index.Paper
	status := getJSON(t, server.URL+"/api/v1/papers/1702.00123v2", &paper)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	// The version tag is stripped before lookup.
	if paper.PaperID != "1702.00123" {
		t.Errorf("paper_id = %q", paper.PaperID)
	}

	var errBody map[string]string
	status = getJSON(t, server.URL+"/api/v1/papers/9999.99999", &errBody)
	if status != http.StatusNotFound {
		t.Errorf("missing paper: status = %d, want 404", status)
	}
}
