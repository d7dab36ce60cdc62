// Package encoder turns free text into a fixed-length lexical fingerprint.
// The fingerprint is deterministic and carries no semantic model: it combines
// letter frequencies with substring flags for a fixed set of theme words, then
// L2-normalizes. Good enough to rank catalog candidates, nothing more.
package encoder

import (
	"math"
	"strings"

	"github.com/kailas-cloud/bookmatch/internal/domain"
)

// Dimensions is the fingerprint width. Changing it (or the keyword list)
// changes every score, so both are compile-time constants rather than config.
const Dimensions = 384

// letterSlots 0..25 hold a-z frequency counts; keyword flags start at 26.
const letterSlots = 26

// themeKeywords are matched by substring containment against the normalized
// text, one slot each starting at dimension 26. Order is part of the contract.
var themeKeywords = []string{
	"fantasy", "adventure", "magic", "mystery", "romance", "thriller",
	"science", "fiction", "horror", "drama", "comedy", "war", "historical",
	"contemporary", "young", "adult", "children", "family", "friendship",
	"love", "death", "hero", "villain", "quest", "journey", "discovery",
}

// Encode builds the fingerprint for text. Pure and deterministic; identical
// input always yields an identical vector. An input with no Latin letters and
// no keyword hits yields the all-zero vector.
func Encode(text string) domain.FeatureVector {
	normalized := strings.ToLower(strings.TrimSpace(text))

	vec := make(domain.FeatureVector, Dimensions)

	for _, r := range normalized {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}

	for i, kw := range themeKeywords {
		if strings.Contains(normalized, kw) {
			vec[letterSlots+i] = 1
		}
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}

	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
