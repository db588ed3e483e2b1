package availability

import (
	"github.com/wienerlabs/archimedes/commitment"
	"github.com/wienerlabs/archimedes/group"
	"github.com/wienerlabs/archimedes/hashfn"
)

// Published bundles everything a proposer computes once, alongside the
// AggregateCommitment, for the availability layer: the erasure code
// parameters, the full chunk set, and the chunk Merkle tree (spec §4.5).
type Published struct {
	Code      *Code
	Chunks    []Chunk
	ChunkRoot [32]byte
	Tree      *ChunkTree
}

// Publish flattens steps into the commitment vector, extends it with a
// systematic (k, n) Reed-Solomon code sized by redundancyNum/redundancyDen
// (e.g. 2, 1 doubles the chunk count for k/N = 1/2), and builds the chunk
// Merkle tree.
func Publish(g group.Group, h hashfn.Hash, steps []commitment.StepRecord, redundancyNum, redundancyDen int) (*Published, error) {
	source, err := VectorFromSteps(g, steps)
	if err != nil {
		return nil, err
	}
	k := len(source)
	n := k * redundancyNum / redundancyDen
	if n < k {
		n = k
	}
	code, err := NewCode(g, k, n)
	if err != nil {
		return nil, err
	}
	chunks, err := code.EncodeVector(source)
	if err != nil {
		return nil, err
	}
	tree, root, err := BuildChunkTree(h, chunks)
	if err != nil {
		return nil, err
	}
	return &Published{Code: code, Chunks: chunks, ChunkRoot: root, Tree: tree}, nil
}

// Reconstruct decodes any k received (index, chunk) pairs back into the
// commitment vector's (point, blinder) pairs, in [C1, T1, C2, T2, ...]
// order, inverting VectorFromSteps.
func Reconstruct(g group.Group, code *Code, received map[int]Chunk) ([]group.Point, []group.Scalar, error) {
	source, err := code.DecodeVector(received)
	if err != nil {
		return nil, nil, err
	}
	points := make([]group.Point, len(source))
	blinders := make([]group.Scalar, len(source))
	for i, c := range source {
		p, b, err := pointFromChunk(g, c)
		if err != nil {
			return nil, nil, err
		}
		points[i] = p
		blinders[i] = b
	}
	return points, blinders, nil
}
