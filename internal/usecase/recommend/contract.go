package recommend

import (
	"context"

	"github.com/kailas-cloud/bookmatch/internal/domain"
)

// Catalog is the book-metadata dependency of the pipeline.
type Catalog interface {
	SearchByTitleAuthor(ctx context.Context, title, author string, limit int) ([]domain.BookRecord, error)
	SearchByKeyword(ctx context.Context, keyword string, limit int) ([]domain.BookRecord, error)
	FetchDescription(ctx context.Context, workKey string) (string, error)
}

// Generator is the hosted language-model dependency: theme keywords in,
// similarity explanations out.
type Generator interface {
	ExtractKeywords(ctx context.Context, description string) ([]string, error)
	GenerateExplanation(ctx context.Context, titleA, descA, titleB, descB string) (string, error)
}
