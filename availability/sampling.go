package availability

import (
	"encoding/binary"

	"github.com/wienerlabs/archimedes/group"
	"github.com/wienerlabs/archimedes/hashfn"
)

// SampleIndices derives s chunk indices in [0, n) from a Fiat-Shamir
// transcript seeded by agg.point ‖ verifier_nonce (spec §4.5: "s uniformly
// random chunk indices ... derived from a Fiat-Shamir transcript seeded by
// agg.point ‖ verifier_nonce"). Distinct verifiers supplying distinct
// nonces sample independently, as required.
func SampleIndices(h hashfn.Hash, aggPoint group.Point, verifierNonce []byte, n, s int) []int {
	indices := make([]int, s)
	for i := 0; i < s; i++ {
		var ctr [8]byte
		binary.LittleEndian.PutUint64(ctr[:], uint64(i))
		digest := h.Sum32(group.DomainTranscript, aggPoint.Bytes(), verifierNonce, ctr[:])
		v := binary.LittleEndian.Uint64(digest[:8])
		indices[i] = int(v % uint64(n))
	}
	return indices
}

// Fetch retrieves chunk i and its Merkle path against chunk_root, or
// reports ok=false if no response arrived before the per-sample deadline
// (spec §4.5: "rejects if any response is missing past a per-sample
// deadline").
type Fetch func(i int) (chunk Chunk, path [][32]byte, ok bool)

// Verdict is the outcome of one sampling session.
type Verdict struct {
	Sampled   int
	Responded int
	// Accept is true only if every sampled chunk was delivered and verified
	// against chunk_root (spec §4.5, §8 "Availability soundness").
	Accept bool
}

// RunSampling drives one verifier's sampling session to a verdict: it
// derives the sample set, fetches each chunk, and verifies its Merkle path.
// A single missing or invalid chunk rejects the whole session — the
// probabilistic guarantee comes from the adversary having to survive s
// independent samples, not from partial credit within one.
func RunSampling(h hashfn.Hash, chunkRoot [32]byte, aggPoint group.Point, verifierNonce []byte, n, s int, fetch Fetch) Verdict {
	indices := SampleIndices(h, aggPoint, verifierNonce, n, s)
	v := Verdict{Sampled: len(indices), Accept: true}
	for _, idx := range indices {
		chunk, path, ok := fetch(idx)
		if !ok {
			v.Accept = false
			continue
		}
		if !VerifyChunkProof(h, chunkRoot, idx, chunk, path) {
			v.Accept = false
			continue
		}
		v.Responded++
	}
	return v
}
