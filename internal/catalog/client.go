// Package catalog is the Open Library client: title/author search, keyword
// search, and work-detail lookups, normalized into domain.BookRecord.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmatch/internal/domain"
	logpkg "github.com/kailas-cloud/bookmatch/internal/logger"
	"github.com/kailas-cloud/bookmatch/internal/metrics"
)

// Client issues catalog requests with a per-call deadline. Callers decide
// what to do with failures; the recommendation pipeline reduces them to
// empty results.
type Client struct {
	http          *http.Client
	baseURL       string
	coversBaseURL string
	timeout       time.Duration
	excluded      []string
	logger        *zap.Logger
}

// Config holds the catalog client settings.
type Config struct {
	BaseURL       string
	CoversBaseURL string
	Timeout       time.Duration
	// ExcludedTitleTerms are lower-case substrings; a work whose title
	// contains any of them is dropped from every result set.
	ExcludedTitleTerms []string
	Logger             *zap.Logger
}

// NewClient creates an Open Library client.
func NewClient(cfg *Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:          &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		coversBaseURL: strings.TrimRight(cfg.CoversBaseURL, "/"),
		timeout:       cfg.Timeout,
		excluded:      cfg.ExcludedTitleTerms,
		logger:        logger,
	}
}

// searchResponse mirrors the catalog's search.json payload.
type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Title            string   `json:"title"`
	Subtitle         string   `json:"subtitle"`
	AuthorName       []string `json:"author_name"`
	CoverID          int      `json:"cover_i"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	Key              string   `json:"key"`
}

// SearchByTitleAuthor runs a structured title:(+author:) query and returns
// normalized records, with derivative works filtered out.
func (c *Client) SearchByTitleAuthor(ctx context.Context, title, author string, limit int) ([]domain.BookRecord, error) {
	query := "title:" + title
	if author != "" {
		query += " author:" + author
	}
	return c.search(ctx, query, limit)
}

// SearchByKeyword runs a single bare-keyword query.
func (c *Client) SearchByKeyword(ctx context.Context, keyword string, limit int) ([]domain.BookRecord, error) {
	return c.search(ctx, keyword, limit)
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]domain.BookRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	searchURL := c.baseURL + "/search.json?" + params.Encode()

	start := time.Now()
	var resp searchResponse
	err := c.getJSON(ctx, searchURL, &resp)
	c.record("search", start, err)
	if err != nil {
		return nil, fmt.Errorf("catalog search %q: %w", query, err)
	}

	books := make([]domain.BookRecord, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		if c.isExcludedTitle(doc.Title) {
			continue
		}
		books = append(books, c.normalize(doc))
	}

	logpkg.FromContext(ctx).Debug("catalog search",
		zap.String("query", query),
		zap.Int("num_found", resp.NumFound),
		zap.Int("returned", len(books)),
	)
	return books, nil
}

// FetchWork fetches a work's detail record. The description field upstream is
// either a plain string or an object with a "value" field; both are handled.
func (c *Client) FetchWork(ctx context.Context, workKey string) (domain.WorkDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var raw struct {
		Description json.RawMessage `json:"description"`
		Subjects    []string        `json:"subjects"`
	}

	start := time.Now()
	err := c.getJSON(ctx, c.baseURL+workKey+".json", &raw)
	c.record("work", start, err)
	if err != nil {
		return domain.WorkDetail{}, fmt.Errorf("catalog work %s: %w", workKey, err)
	}

	return domain.WorkDetail{
		Description: decodeDescription(raw.Description),
		Subjects:    raw.Subjects,
	}, nil
}

// FetchDescription fetches just the description text of a work.
func (c *Client) FetchDescription(ctx context.Context, workKey string) (string, error) {
	detail, err := c.FetchWork(ctx, workKey)
	if err != nil {
		return "", err
	}
	return detail.Description, nil
}

// Ping checks catalog availability with a minimal search.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/search.json?q=the&limit=1", &resp); err != nil {
		return fmt.Errorf("catalog ping: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %w", domain.ErrCatalogUnavailable, err)
	}
	return nil
}

func (c *Client) record(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.CatalogRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.CatalogRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// isExcludedTitle reports whether the title names derivative/study material
// rather than an original work.
func (c *Client) isExcludedTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, term := range c.excluded {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// normalize maps a raw search doc onto the uniform book shape, substituting
// sentinels for absent fields.
func (c *Client) normalize(doc searchDoc) domain.BookRecord {
	book := domain.BookRecord{
		Title:            doc.Title,
		Author:           domain.UnknownAuthor,
		Description:      domain.NoDescription,
		Subtitle:         doc.Subtitle,
		PublishedYear:    domain.UnknownYear,
		WorkKey:          doc.Key,
		FirstPublishYear: doc.FirstPublishYear,
	}
	if book.Title == "" {
		book.Title = domain.UnknownTitle
	}
	if book.Subtitle == "" {
		book.Subtitle = domain.NoSubtitle
	}
	if len(doc.AuthorName) > 0 {
		book.Author = doc.AuthorName[0]
	}
	if doc.FirstPublishYear > 0 {
		book.PublishedYear = strconv.Itoa(doc.FirstPublishYear)
	}
	if len(doc.ISBN) > 0 {
		book.ISBN = doc.ISBN[0]
	}
	if doc.CoverID > 0 {
		book.CoverImageURL = fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversBaseURL, doc.CoverID)
	}
	return book
}

// decodeDescription handles both upstream description shapes.
func decodeDescription(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &typed); err == nil {
		return typed.Value
	}
	return ""
}
