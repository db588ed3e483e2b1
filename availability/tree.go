package availability

import (
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"
	merkletree "github.com/wealdtech/go-merkletree"

	"github.com/wienerlabs/archimedes/hashfn"
)

// chunkLeafTag domain-separates chunk leaves from the aggregator's
// prefix-sum leaves and every other hash use in the module.
var chunkLeafTag = []byte("ARCHIMEDES-CHUNK-LEAF-V1")

// chunkDigest hashes a chunk's field elements under its index, the same
// index-then-payload shape as hashfn.MerkleLeaf.
func chunkDigest(h hashfn.Hash, index int, c Chunk) [32]byte {
	var idxBuf [8]byte
	binary.LittleEndian.PutUint64(idxBuf[:], uint64(index))
	parts := make([][]byte, 0, len(c)+1)
	parts = append(parts, idxBuf[:])
	for _, s := range c {
		parts = append(parts, s.Bytes())
	}
	return h.Sum32(chunkLeafTag, parts...)
}

// ChunkTree is the Merkle tree over all N erasure-coded chunks (spec §4.5:
// "A Merkle tree over all N chunks yields chunk_root"), wrapping the same
// github.com/wealdtech/go-merkletree library as the aggregator's auxiliary
// tree.
type ChunkTree struct {
	tree   *merkletree.MerkleTree
	leaves [][]byte
	n      int
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// BuildChunkTree hashes each chunk into a leaf, pads with the aggregator's
// shared sentinel up to the next power of two, and builds the tree.
func BuildChunkTree(h hashfn.Hash, chunks []Chunk) (*ChunkTree, [32]byte, error) {
	n := len(chunks)
	size := nextPowerOfTwo(n)
	leaves := make([][]byte, size)
	for i, c := range chunks {
		digest := chunkDigest(h, i, c)
		leaves[i] = append([]byte(nil), digest[:]...)
	}
	for i := n; i < size; i++ {
		leaves[i] = append([]byte(nil), hashfn.Sentinel[:]...)
	}
	tree, err := merkletree.New(leaves)
	if err != nil {
		return nil, [32]byte{}, err
	}
	var root [32]byte
	copy(root[:], tree.Root())
	return &ChunkTree{tree: tree, leaves: leaves, n: n}, root, nil
}

// Proof returns the Merkle path for chunk index i.
func (t *ChunkTree) Proof(i int) ([][32]byte, error) {
	if i < 0 || i >= t.n {
		return nil, errors.Wrapf(ErrChunkIndexRange, "index %d", i)
	}
	proof, err := t.tree.GenerateProof(t.leaves[i])
	if err != nil {
		return nil, err
	}
	path := make([][32]byte, len(proof.Hashes))
	for j, hb := range proof.Hashes {
		copy(path[j][:], hb)
	}
	return path, nil
}

// VerifyChunkProof checks chunk i against chunkRoot.
func VerifyChunkProof(h hashfn.Hash, chunkRoot [32]byte, i int, c Chunk, path [][32]byte) bool {
	digest := chunkDigest(h, i, c)
	hashes := make([][]byte, len(path))
	for j := range path {
		hashes[j] = append([]byte(nil), path[j][:]...)
	}
	proof := &merkletree.Proof{Hashes: hashes, Index: uint64(i)}
	ok, err := merkletree.VerifyProof(digest[:], proof, chunkRoot[:])
	if err != nil {
		return false
	}
	return ok
}
