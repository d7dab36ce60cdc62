package domain

import "errors"

// Sentinel errors shared between layers.
var (
	// ErrBookNotFound means the catalog returned no usable match for the title.
	ErrBookNotFound = errors.New("book not found")
	// ErrNoDescription means the chosen work has no description long enough to analyze.
	ErrNoDescription = errors.New("no detailed description")
	// ErrDimensionMismatch means two feature vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrCatalogUnavailable wraps catalog transport failures.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrModelUnavailable wraps language-model transport failures.
	ErrModelUnavailable = errors.New("language model unavailable")
)
