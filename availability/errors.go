// Package availability implements the Availability layer (spec §4.5): a
// systematic Reed-Solomon code over the scalar field 𝔽 turning the
// published commitment vector into N chunks (any k of which reconstruct
// it), a Merkle tree over the chunks, and a Fiat-Shamir-seeded sampling
// session giving a light verifier a probabilistic retrievability verdict.
package availability

import "github.com/pkg/errors"

var (
	ErrInvalidParams     = errors.New("availability: k must be >= 1 and n >= k")
	ErrWrongSourceLength = errors.New("availability: source chunk count does not match k")
	ErrInconsistentWidth = errors.New("availability: chunks do not share a common width")
	ErrNotEnoughChunks   = errors.New("availability: fewer than k chunks received, cannot decode")
	ErrChunkIndexRange   = errors.New("availability: chunk index out of range [0, n)")
	ErrBadChunkProof     = errors.New("availability: chunk failed Merkle verification against chunk_root")
	ErrSampleTimeout     = errors.New("availability: a sampled chunk was not delivered before the session deadline")
)
