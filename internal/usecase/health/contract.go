package health

import "context"

// CatalogPinger checks book-catalog availability.
type CatalogPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks language-model provider availability.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}
