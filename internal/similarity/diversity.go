package similarity

import "github.com/kailas-cloud/bookmatch/internal/domain"

// Era buckets by first-publish year. Keyword searches skew heavily toward
// whatever period dominates the catalog's relevance ranking; capping each
// era keeps the candidate pool mixed before scoring.
type era int

const (
	eraRecent era = iota // within the last decade
	eraModern            // 1990 .. ten years ago
	eraClassic           // 1950 .. 1989
	eraVintage           // before 1950
	eraUnknown           // no first-publish year on record
)

// eraCaps bounds how many candidates each era contributes.
var eraCaps = map[era]int{
	eraRecent:  10,
	eraModern:  10,
	eraClassic: 5,
	eraVintage: 3,
	eraUnknown: 2,
}

func eraOf(year, currentYear int) era {
	switch {
	case year == 0:
		return eraUnknown
	case year >= currentYear-10:
		return eraRecent
	case year >= 1990:
		return eraModern
	case year >= 1950:
		return eraClassic
	default:
		return eraVintage
	}
}

// SampleByEra filters books down to at most the per-era caps. Relative order
// of the survivors is preserved; dropped entries are simply skipped.
func SampleByEra(books []domain.BookRecord, currentYear int) []domain.BookRecord {
	taken := make(map[era]int, len(eraCaps))
	out := make([]domain.BookRecord, 0, len(books))

	for _, b := range books {
		e := eraOf(b.FirstPublishYear, currentYear)
		if taken[e] >= eraCaps[e] {
			continue
		}
		taken[e]++
		out = append(out, b)
	}
	return out
}
