// Package hashfn provides the injected 32-byte domain-separated hash
// capability (spec §6 "Hash"), backed by BLAKE3 rather than crypto/sha256.
// In this module it hashes the Merkle leaves of the aggregator's and the
// availability layer's trees and the sampling transcript. The trees'
// internal nodes are hashed by the Merkle library itself, and hash-to-field
// goes through group.Group.HashToField, not through this package.
package hashfn

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// Hash is the injected hash capability.
type Hash interface {
	// Sum32 returns a 32-byte domain-separated digest of msg under tag.
	Sum32(tag []byte, msg ...[]byte) [32]byte
}

// BLAKE3 is the default Hash implementation.
type BLAKE3 struct{}

// Sum32 derives a keyed BLAKE3 hash using tag as the key material: BLAKE3's
// native keying is the domain-separation mechanism (distinct from simple
// prefixing, which is vulnerable to length-extension-style ambiguity across
// concatenated fields).
func (BLAKE3) Sum32(tag []byte, msg ...[]byte) [32]byte {
	var key [32]byte
	keyDigest := blake3.Sum256(tag)
	copy(key[:], keyDigest[:])
	h := blake3.New(32, key[:])
	for _, m := range msg {
		_, _ = h.Write(m)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// MerkleLeaf hashes a prefix-sum leaf: hash(i ‖ serialize(P_i) ‖ serialize(R_i))
// per spec §4.2.
func MerkleLeaf(h Hash, tag []byte, index uint64, point, blinder []byte) [32]byte {
	var idxBuf [8]byte
	binary.LittleEndian.PutUint64(idxBuf[:], index)
	return h.Sum32(tag, idxBuf[:], point, blinder)
}

// MerkleNode hashes an internal Merkle node from its two children.
func MerkleNode(h Hash, tag []byte, left, right [32]byte) [32]byte {
	return h.Sum32(tag, left[:], right[:])
}

// Sentinel is the fixed leaf value used for indices beyond n, up to the
// next power of two (spec §4.2: "Leaves for i > n ... are a fixed
// sentinel").
var Sentinel = [32]byte{}

func init() {
	d := blake3.Sum256([]byte("ARCHIMEDES-AUX-TREE-SENTINEL-V1"))
	copy(Sentinel[:], d[:])
}
