package hashfn_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wienerlabs/archimedes/hashfn"
)

func TestSum32Deterministic(t *testing.T) {
	h := hashfn.BLAKE3{}
	a := h.Sum32([]byte("tag"), []byte("hello"))
	b := h.Sum32([]byte("tag"), []byte("hello"))
	require.Equal(t, a, b)
}

func TestSum32DomainSeparation(t *testing.T) {
	h := hashfn.BLAKE3{}
	a := h.Sum32([]byte("tag-a"), []byte("hello"))
	b := h.Sum32([]byte("tag-b"), []byte("hello"))
	require.NotEqual(t, a, b)
}

func TestMerkleLeafVariesWithIndex(t *testing.T) {
	h := hashfn.BLAKE3{}
	point := []byte("point-bytes")
	blinder := []byte("blinder-bytes")
	l0 := hashfn.MerkleLeaf(h, []byte("aux"), 0, point, blinder)
	l1 := hashfn.MerkleLeaf(h, []byte("aux"), 1, point, blinder)
	require.NotEqual(t, l0, l1)
}
