// Package recommend runs the similar-books pipeline: look up the original,
// derive theme keywords, fan out candidate searches, score by lexical
// fingerprint, and explain the top matches.
package recommend

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmatch/internal/domain"
	"github.com/kailas-cloud/bookmatch/internal/encoder"
	logpkg "github.com/kailas-cloud/bookmatch/internal/logger"
	"github.com/kailas-cloud/bookmatch/internal/similarity"
)

// fallbackExplanation is returned when the model cannot produce one.
const fallbackExplanation = "Similar themes and style."

// Query is one recommendation request.
type Query struct {
	Title  string
	Author string
	// Diversify applies era sampling to the candidate pool before scoring.
	Diversify bool
}

// Recommendation is the successful pipeline outcome. Results may be empty:
// upstream outages degrade to fewer candidates, never to a failed request.
type Recommendation struct {
	Original domain.BookRecord
	Results  []domain.SimilarityResult
	Keywords []string
}

// Options are the pipeline tunables.
type Options struct {
	SimilarityThreshold  float64
	MaxResults           int
	MaxKeywords          int
	LookupLimit          int
	KeywordSearchLimit   int
	MinDescriptionLength int
}

func (o *Options) applyDefaults() {
	if o.SimilarityThreshold == 0 {
		o.SimilarityThreshold = 0.3
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 3
	}
	if o.MaxKeywords <= 0 {
		o.MaxKeywords = 5
	}
	if o.LookupLimit <= 0 {
		o.LookupLimit = 10
	}
	if o.KeywordSearchLimit <= 0 {
		o.KeywordSearchLimit = 10
	}
	if o.MinDescriptionLength <= 0 {
		o.MinDescriptionLength = 20
	}
}

// Service orchestrates the pipeline. Stateless; safe for concurrent use.
type Service struct {
	catalog Catalog
	model   Generator
	opts    Options
	now     func() time.Time
}

// New creates a recommendation service.
func New(catalog Catalog, model Generator, opts Options) *Service {
	opts.applyDefaults()
	return &Service{catalog: catalog, model: model, opts: opts, now: time.Now}
}

// Recommend runs the pipeline. Terminal conditions surface as
// domain.ErrBookNotFound and domain.ErrNoDescription; upstream failures
// inside the pipeline degrade to safe defaults instead of erroring.
func (s *Service) Recommend(ctx context.Context, q Query) (*Recommendation, error) {
	log := logpkg.FromContext(ctx)

	matches, err := s.catalog.SearchByTitleAuthor(ctx, q.Title, q.Author, s.opts.LookupLimit)
	if err != nil {
		log.Warn("original lookup failed", zap.String("title", q.Title), zap.Error(err))
		matches = nil
	}
	if len(matches) == 0 {
		return nil, domain.ErrBookNotFound
	}
	original := matches[0]

	description := s.fetchDescription(ctx, original.WorkKey)
	if len(description) < s.opts.MinDescriptionLength {
		return nil, domain.ErrNoDescription
	}
	original.Description = description

	keywords := s.extractKeywords(ctx, description)
	log.Debug("keywords extracted",
		zap.String("title", original.Title),
		zap.Strings("keywords", keywords),
	)

	candidates := s.searchCandidates(ctx, keywords, original.WorkKey, q.Diversify)

	originalVec := encoder.Encode(description)
	scored := s.scoreCandidates(ctx, originalVec, candidates)

	top := similarity.Rank(scored, s.opts.SimilarityThreshold, s.opts.MaxResults)
	s.explain(ctx, original, top)

	return &Recommendation{Original: original, Results: top, Keywords: keywords}, nil
}

func (s *Service) fetchDescription(ctx context.Context, workKey string) string {
	if workKey == "" {
		return ""
	}
	description, err := s.catalog.FetchDescription(ctx, workKey)
	if err != nil {
		logpkg.FromContext(ctx).Warn("description fetch failed",
			zap.String("work_key", workKey), zap.Error(err))
		return ""
	}
	return description
}

// extractKeywords derives theme keywords, capped at MaxKeywords. A model
// failure yields zero keywords and therefore zero candidates downstream.
func (s *Service) extractKeywords(ctx context.Context, description string) []string {
	keywords, err := s.model.ExtractKeywords(ctx, description)
	if err != nil {
		logpkg.FromContext(ctx).Warn("keyword extraction failed", zap.Error(err))
		return []string{}
	}
	if len(keywords) > s.opts.MaxKeywords {
		keywords = keywords[:s.opts.MaxKeywords]
	}
	return keywords
}

// searchCandidates fans out one keyword search per keyword, merges the hits
// in keyword order, optionally era-samples, then dedupes by work key and
// drops the original itself. Failed searches contribute nothing.
func (s *Service) searchCandidates(ctx context.Context, keywords []string, originalKey string, diversify bool) []domain.BookRecord {
	hits := make([][]domain.BookRecord, len(keywords))

	var wg sync.WaitGroup
	for i, kw := range keywords {
		wg.Add(1)
		go func(i int, kw string) {
			defer wg.Done()
			books, err := s.catalog.SearchByKeyword(ctx, kw, s.opts.KeywordSearchLimit)
			if err != nil {
				logpkg.FromContext(ctx).Warn("keyword search failed",
					zap.String("keyword", kw), zap.Error(err))
				return
			}
			hits[i] = books
		}(i, kw)
	}
	wg.Wait()

	var merged []domain.BookRecord
	for _, books := range hits {
		merged = append(merged, books...)
	}

	if diversify {
		merged = similarity.SampleByEra(merged, s.now().Year())
	}

	seen := make(map[string]struct{}, len(merged))
	candidates := make([]domain.BookRecord, 0, len(merged))
	for _, b := range merged {
		// A candidate without a work key cannot be deduped or described.
		if b.WorkKey == "" || b.WorkKey == originalKey {
			continue
		}
		if _, ok := seen[b.WorkKey]; ok {
			continue
		}
		seen[b.WorkKey] = struct{}{}
		candidates = append(candidates, b)
	}
	return candidates
}

// scoreCandidates fetches each candidate's description concurrently, encodes
// it, and scores it against the original. Candidates whose description fetch
// fails score zero and fall below the threshold.
func (s *Service) scoreCandidates(ctx context.Context, originalVec domain.FeatureVector, candidates []domain.BookRecord) []domain.SimilarityResult {
	scored := make([]domain.SimilarityResult, len(candidates))

	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand domain.BookRecord) {
			defer wg.Done()

			description, err := s.catalog.FetchDescription(ctx, cand.WorkKey)
			if err != nil || description == "" {
				scored[i] = domain.SimilarityResult{Book: cand}
				return
			}
			cand.Description = description

			score, err := similarity.Cosine(originalVec, encoder.Encode(description))
			if err != nil {
				logpkg.FromContext(ctx).Warn("scoring failed",
					zap.String("work_key", cand.WorkKey), zap.Error(err))
			}
			scored[i] = domain.SimilarityResult{Book: cand, Score: score}
		}(i, cand)
	}
	wg.Wait()

	return scored
}

// explain fills explanations for the ranked results concurrently, falling
// back to a fixed sentence when the model call fails.
func (s *Service) explain(ctx context.Context, original domain.BookRecord, results []domain.SimilarityResult) {
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			text, err := s.model.GenerateExplanation(ctx,
				original.Title, original.Description,
				results[i].Book.Title, results[i].Book.Description,
			)
			if err != nil || text == "" {
				logpkg.FromContext(ctx).Warn("explanation failed",
					zap.String("candidate", results[i].Book.Title), zap.Error(err))
				text = fallbackExplanation
			}
			results[i].Explanation = text
		}(i)
	}
	wg.Wait()
}
