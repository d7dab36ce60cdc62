// Package chi is the HTTP transport: route handlers, response shapes, and
// the mapping from domain errors to status codes.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmatch/internal/domain"
	logpkg "github.com/kailas-cloud/bookmatch/internal/logger"
	healthuc "github.com/kailas-cloud/bookmatch/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/bookmatch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/bookmatch/internal/usecase/search"
)

// User-facing messages. These are part of the response contract.
const (
	msgTitleRequired = "Title is required"
	msgBookNotFound  = "Book not found"
	msgNoDescription = "Could not find a detailed description for this book"
	msgSearchFailed  = "Failed to search books"
)

// Server holds the route handlers.
type Server struct {
	recommend *recommenduc.Service
	search    *searchuc.Service
	health    *healthuc.Service
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend *recommenduc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{recommend: recommend, search: search, health: health, logger: logger}
}

// Routes mounts all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/books/similar", s.SimilarBooks)
	r.Get("/api/books/search", s.SearchBooks)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// --- Response shapes ---

type errorResponse struct {
	Error string `json:"error"`
}

// terminalResponse is a pipeline-terminal condition: not an error, just an
// empty outcome with a user-facing message.
type terminalResponse struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error"`
	Results []similarResultEntry `json:"results"`
}

type originalEntry struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

type similarResultEntry struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Description   string  `json:"description"`
	CoverImage    *string `json:"coverImage"`
	PublishedYear string  `json:"publishedYear"`
	Similarity    float64 `json:"similarity"`
	Explanation   string  `json:"explanation"`
}

type similarResponse struct {
	Success  bool                 `json:"success"`
	Original originalEntry        `json:"original"`
	Results  []similarResultEntry `json:"results"`
	Keywords []string             `json:"keywords"`
}

type searchBookEntry struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description"`
	Subtitle      string   `json:"subtitle"`
	Genres        []string `json:"genres"`
	CoverImage    *string  `json:"coverImage"`
	PublishedYear string   `json:"publishedYear"`
	ISBN          *string  `json:"isbn"`
	Key           *string  `json:"key"`
}

type searchResponse struct {
	Success bool              `json:"success"`
	Results []searchBookEntry `json:"results"`
	Total   int               `json:"total"`
}

// --- Handlers ---

// SimilarBooks handles GET /api/books/similar.
func (s *Server) SimilarBooks(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgTitleRequired})
		return
	}

	q := recommenduc.Query{
		Title:     title,
		Author:    strings.TrimSpace(r.URL.Query().Get("author")),
		Diversify: r.URL.Query().Get("diverse") == "true",
	}

	rec, err := s.recommend.Recommend(r.Context(), q)
	if err != nil {
		s.handleRecommendError(w, r, err)
		return
	}

	results := make([]similarResultEntry, len(rec.Results))
	for i, res := range rec.Results {
		results[i] = similarResultEntry{
			Title:         res.Book.Title,
			Author:        res.Book.Author,
			Description:   res.Book.Description,
			CoverImage:    nullable(res.Book.CoverImageURL),
			PublishedYear: res.Book.PublishedYear,
			Similarity:    res.Score,
			Explanation:   res.Explanation,
		}
	}

	keywords := rec.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	writeJSON(w, http.StatusOK, similarResponse{
		Success: true,
		Original: originalEntry{
			Title:       rec.Original.Title,
			Author:      rec.Original.Author,
			Description: rec.Original.Description,
		},
		Results:  results,
		Keywords: keywords,
	})
}

// SearchBooks handles GET /api/books/search.
func (s *Server) SearchBooks(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgTitleRequired})
		return
	}

	listing, err := s.search.Search(r.Context(), title, strings.TrimSpace(r.URL.Query().Get("author")))
	if err != nil {
		logpkg.FromContext(r.Context()).Error("search failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgSearchFailed})
		return
	}

	results := make([]searchBookEntry, len(listing.Results))
	for i, b := range listing.Results {
		genres := b.Genres
		if genres == nil {
			genres = []string{}
		}
		results[i] = searchBookEntry{
			Title:         b.Title,
			Author:        b.Author,
			Description:   b.Description,
			Subtitle:      b.Subtitle,
			Genres:        genres,
			CoverImage:    nullable(b.CoverImageURL),
			PublishedYear: b.PublishedYear,
			ISBN:          nullable(b.ISBN),
			Key:           nullable(b.WorkKey),
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{Success: true, Results: results, Total: listing.Total})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// handleRecommendError maps terminal pipeline conditions to their contract
// messages; anything else is an internal failure.
func (s *Server) handleRecommendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		writeTerminal(w, msgBookNotFound)
	case errors.Is(err, domain.ErrNoDescription):
		writeTerminal(w, msgNoDescription)
	default:
		logpkg.FromContext(r.Context()).Error("recommendation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgSearchFailed})
	}
}

func writeTerminal(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, terminalResponse{
		Success: false,
		Error:   message,
		Results: []similarResultEntry{},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// nullable maps the empty string onto JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
