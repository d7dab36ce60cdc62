package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/bookmatch/internal/domain"
)

var defaultDenyList = []string{
	"study guide", "companion", "analysis", "summary",
	"cliff notes", "sparknotes", "workbook",
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(&Config{
		BaseURL:            srv.URL,
		CoversBaseURL:      "https://covers.example.org",
		Timeout:            2 * time.Second,
		ExcludedTitleTerms: defaultDenyList,
	})
	return c, srv
}

func TestSearchByTitleAuthor_Normalization(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "title:Dune author:Herbert" {
			t.Errorf("query = %q, want %q", got, "title:Dune author:Herbert")
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q, want %q", got, "10")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"numFound": 2,
			"docs": [
				{
					"title": "Dune",
					"author_name": ["Frank Herbert", "Other"],
					"cover_i": 12345,
					"first_publish_year": 1965,
					"isbn": ["9780441013593"],
					"key": "/works/OL893415W"
				},
				{"title": "Bare Record"}
			]
		}`))
	})

	books, err := c.SearchByTitleAuthor(context.Background(), "Dune", "Herbert", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("got %d books, want 2", len(books))
	}

	dune := books[0]
	if dune.Title != "Dune" || dune.Author != "Frank Herbert" {
		t.Errorf("unexpected title/author: %q / %q", dune.Title, dune.Author)
	}
	if dune.CoverImageURL != "https://covers.example.org/b/id/12345-L.jpg" {
		t.Errorf("unexpected cover URL: %q", dune.CoverImageURL)
	}
	if dune.PublishedYear != "1965" || dune.FirstPublishYear != 1965 {
		t.Errorf("unexpected year: %q / %d", dune.PublishedYear, dune.FirstPublishYear)
	}
	if dune.ISBN != "9780441013593" || dune.WorkKey != "/works/OL893415W" {
		t.Errorf("unexpected isbn/key: %q / %q", dune.ISBN, dune.WorkKey)
	}

	bare := books[1]
	if bare.Author != domain.UnknownAuthor {
		t.Errorf("author sentinel = %q, want %q", bare.Author, domain.UnknownAuthor)
	}
	if bare.Description != domain.NoDescription {
		t.Errorf("description sentinel = %q, want %q", bare.Description, domain.NoDescription)
	}
	if bare.Subtitle != domain.NoSubtitle {
		t.Errorf("subtitle sentinel = %q, want %q", bare.Subtitle, domain.NoSubtitle)
	}
	if bare.PublishedYear != domain.UnknownYear {
		t.Errorf("year sentinel = %q, want %q", bare.PublishedYear, domain.UnknownYear)
	}
	if bare.CoverImageURL != "" || bare.ISBN != "" || bare.WorkKey != "" {
		t.Error("expected empty cover/isbn/key for bare record")
	}
}

func TestSearch_ExcludesDerivativeTitles(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"numFound": 3,
			"docs": [
				{"title": "Moby Dick: A Study Guide", "key": "/works/OL1W"},
				{"title": "Moby Dick (SparkNotes Literature Guide)", "key": "/works/OL2W"},
				{"title": "Moby Dick", "key": "/works/OL3W"}
			]
		}`))
	})

	books, err := c.SearchByKeyword(context.Background(), "moby dick", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Moby Dick" {
		t.Fatalf("exclusion filter failed, got %+v", books)
	}
}

func TestFetchDescription_BothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain string", `{"description": "A desert planet epic."}`, "A desert planet epic."},
		{"typed value", `{"description": {"type": "/type/text", "value": "A desert planet epic."}}`, "A desert planet epic."},
		{"absent", `{"subjects": ["Fiction"]}`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/works/OL893415W.json" {
					t.Errorf("path = %q", r.URL.Path)
				}
				_, _ = w.Write([]byte(tc.body))
			})

			got, err := c.FetchDescription(context.Background(), "/works/OL893415W")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("description = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFetchWork_Subjects(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"description": "d", "subjects": ["Science fiction", "Deserts"]}`))
	})

	detail, err := c.FetchWork(context.Background(), "/works/OL1W")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detail.Subjects) != 2 || detail.Subjects[0] != "Science fiction" {
		t.Errorf("unexpected subjects: %v", detail.Subjects)
	}
}

func TestSearch_UpstreamErrorIsSentinel(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.SearchByKeyword(context.Background(), "anything", 5)
	if !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestSearch_MalformedBodyIsSentinel(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"docs": not-json`))
	})

	_, err := c.SearchByKeyword(context.Background(), "anything", 5)
	if !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"numFound": 1, "docs": []}`))
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
