package aggregator

import (
	"math/bits"

	"github.com/pkg/errors"
	merkletree "github.com/wealdtech/go-merkletree"

	"github.com/wienerlabs/archimedes/group"
	"github.com/wienerlabs/archimedes/hashfn"
)

// auxLeafTag domain-separates prefix-sum leaves from every other hash use
// in the module (spec §4.2: "leaves hash(i ‖ serialize(P_i) ‖ serialize(R_i))").
var auxLeafTag = []byte("ARCHIMEDES-AUX-LEAF-V1")

// auxTree wraps github.com/wealdtech/go-merkletree, the pack's Merkle
// library (teacher go.mod direct dependency, unexercised in the retrieved
// nitro source). We control leaf content (domain-separated digest, fixed
// sentinel padding) ourselves and delegate tree construction, proof
// generation, and proof verification to the library.
type auxTree struct {
	tree   *merkletree.MerkleTree
	leaves [][]byte // leaves[k] holds the digest for prefix index k+1
}

// nextPowerOfTwo returns the smallest power of two >= n, or 1 if n <= 1
// (spec §4.2: "Leaves for i > n ... are a fixed sentinel").
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// buildAuxTree constructs the auxiliary tree over prefix sums P_1..P_n,
// R_1..R_n (P_0, R_0 are the sentinel case handled outside the tree, see
// Aggregator.Open).
func buildAuxTree(h hashfn.Hash, points []group.Point, blinders []group.Scalar) (*auxTree, [32]byte, error) {
	n := len(points) - 1
	size := nextPowerOfTwo(n)
	leaves := make([][]byte, size)
	for i := 1; i <= n; i++ {
		digest := hashfn.MerkleLeaf(h, auxLeafTag, uint64(i), points[i].Bytes(), blinders[i].Bytes())
		leaves[i-1] = append([]byte(nil), digest[:]...)
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
	return &auxTree{tree: tree, leaves: leaves}, root, nil
}

// proof returns the Merkle path for prefix index i (1-based).
func (t *auxTree) proof(i uint64) ([][32]byte, error) {
	if i == 0 || int(i) > len(t.leaves) {
		return nil, errors.Errorf("aggregator: aux tree index %d out of range", i)
	}
	leaf := t.leaves[i-1]
	proof, err := t.tree.GenerateProof(leaf)
	if err != nil {
		return nil, err
	}
	path := make([][32]byte, len(proof.Hashes))
	for j, hb := range proof.Hashes {
		copy(path[j][:], hb)
	}
	return path, nil
}

// verifyAuxProof recomputes the domain-separated leaf digest for (i, p, r)
// and checks it against auxRoot via the library's own path verification, in
// constant time with respect to the path contents (spec §4.2
// "verify_opening ... constant-time path verification").
func verifyAuxProof(h hashfn.Hash, auxRoot [32]byte, i uint64, p group.Point, r group.Scalar, path [][32]byte) bool {
	if i == 0 {
		return false
	}
	digest := hashfn.MerkleLeaf(h, auxLeafTag, i, p.Bytes(), r.Bytes())
	hashes := make([][]byte, len(path))
	for j := range path {
		hashes[j] = append([]byte(nil), path[j][:]...)
	}
	proof := &merkletree.Proof{Hashes: hashes, Index: i - 1}
	ok, err := merkletree.VerifyProof(digest[:], proof, auxRoot[:])
	if err != nil {
		return false
	}
	return ok
}
