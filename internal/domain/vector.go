package domain

// FeatureVector is a fixed-length lexical fingerprint of a text. Vectors are
// L2-normalized (unit magnitude) unless the source text carried no signal, in
// which case every component is zero.
type FeatureVector []float64
