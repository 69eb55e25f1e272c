// Package fulltext retrieves extracted full-text content for papers from
// the external fulltext service.
package fulltext

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ID2797370/arxiv-search/pkg/config"
	pkgerrors "github.com/ID2797370/arxiv-search/pkg/errors"
	"github.com/ID2797370/arxiv-search/pkg/resilience"
)

// Fulltext is the content record returned by the fulltext endpoint.
type Fulltext struct {
	Content string    `json:"content"`
	Created time.Time `json:"created"`
	Version string    `json:"version"`
}

// Client is an HTTP client for the fulltext endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	retry    resilience.RetryConfig
	logger   *slog.Logger
}

// New creates a Client for the configured endpoint. A trailing slash is
// ensured so identifiers resolve as path segments.
func New(cfg config.FulltextConfig) *Client {
	endpoint := cfg.Endpoint
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
		retry:    resilience.RetryConfig{MaxAttempts: cfg.MaxAttempts},
		logger:   slog.Default().With("component", "fulltext-client"),
	}
}

// Retrieve fetches fulltext content for a paper identifier (including
// version tag, e.g. "1234.56787v3"). An empty or malformed identifier is
// an invalid-argument fault; transport failures, non-success statuses, and
// undecodable bodies surface as ErrFulltextUnavailable. Transient failures
// are retried with backoff.
func (c *Client) Retrieve(ctx context.Context, documentID string) (*Fulltext, error) {
	if err := validateID(documentID); err != nil {
		return nil, err
	}

	target := c.endpoint + url.PathEscape(documentID)
	var ft Fulltext
	err := resilience.Retry(ctx, "fulltext-retrieve", c.retry, func() error {
		return c.fetch(ctx, target, &ft)
	})
	if err != nil {
		c.logger.Error("fulltext retrieval failed", "document_id", documentID, "error", err)
		return nil, pkgerrors.Newf(pkgerrors.ErrFulltextUnavailable,
			http.StatusServiceUnavailable, "retrieving %s: %v", documentID, err)
	}
	return &ft, nil
}

func (c *Client) fetch(ctx context.Context, target string, out *Fulltext) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching fulltext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func validateID(documentID string) error {
	if documentID == "" {
		return pkgerrors.New(pkgerrors.ErrInvalidIdentifier,
			http.StatusBadRequest, "document identifier is empty")
	}
	if strings.ContainsAny(documentID, " \t\n") {
		return pkgerrors.Newf(pkgerrors.ErrInvalidIdentifier,
			http.StatusBadRequest, "document identifier %q contains whitespace", documentID)
	}
	return nil
}
