// Package search is the plain catalog search: normalized title/author hits
// enriched with work descriptions and subjects, no scoring.
package search

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmatch/internal/domain"
	logpkg "github.com/kailas-cloud/bookmatch/internal/logger"
)

// Catalog is the book-metadata dependency.
type Catalog interface {
	SearchByTitleAuthor(ctx context.Context, title, author string, limit int) ([]domain.BookRecord, error)
	FetchWork(ctx context.Context, workKey string) (domain.WorkDetail, error)
}

// Listing is one page of enriched search hits.
type Listing struct {
	Results []domain.BookRecord
	Total   int
}

// Service runs plain searches.
type Service struct {
	catalog Catalog
	limit   int
}

// New creates a plain-search service.
func New(catalog Catalog, limit int) *Service {
	if limit <= 0 {
		limit = 10
	}
	return &Service{catalog: catalog, limit: limit}
}

// Search looks up title(+author) and enriches each hit with its work detail.
// Per-hit enrichment failures leave the sentinel description in place.
func (s *Service) Search(ctx context.Context, title, author string) (*Listing, error) {
	books, err := s.catalog.SearchByTitleAuthor(ctx, title, author, s.limit)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	var wg sync.WaitGroup
	for i := range books {
		if books[i].WorkKey == "" {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			detail, err := s.catalog.FetchWork(ctx, books[i].WorkKey)
			if err != nil {
				logpkg.FromContext(ctx).Warn("work enrichment failed",
					zap.String("work_key", books[i].WorkKey), zap.Error(err))
				return
			}
			if detail.Description != "" {
				books[i].Description = detail.Description
			}
			books[i].Genres = detail.Subjects
		}(i)
	}
	wg.Wait()

	return &Listing{Results: books, Total: len(books)}, nil
}
