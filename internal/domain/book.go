package domain

// Sentinel values substituted when the catalog omits a field. The response
// contract never carries null for these; only cover/ISBN/work key may be null.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
	NoDescription = "No description available"
	NoSubtitle    = "No subtitle available"
	UnknownYear   = "Unknown"
)

// BookRecord is one catalog work normalized into a uniform shape.
type BookRecord struct {
	Title         string
	Author        string
	Description   string
	Subtitle      string
	Genres        []string
	CoverImageURL string // empty when the work has no cover
	PublishedYear string // four-digit year as text, or UnknownYear
	ISBN          string // empty when unknown
	WorkKey       string // catalog work identifier, e.g. "/works/OL45883W"; empty when absent

	// FirstPublishYear drives era bucketing; 0 means unknown.
	FirstPublishYear int
}

// WorkDetail is the subset of a catalog work detail record the service uses.
type WorkDetail struct {
	Description string
	Subjects    []string
}

// SimilarityResult pairs a surviving candidate with its score against the
// original work. Explanation is filled only for the top-ranked candidates.
type SimilarityResult struct {
	Book        BookRecord
	Score       float64
	Explanation string
}
