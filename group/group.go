// Package group defines the injected cryptographic primitive (spec §6
// "Group") and the Pedersen commitment algebra built on top of it
// (spec §4.1 CommitmentCore). BLS12-381 field, group, and pairing
// implementations are treated as an external collaborator: this package
// never implements curve arithmetic itself, it wraps a constant-time
// backend behind a small interface so callers (and tests) can swap it.
package group

import (
	"errors"
)

// Errors returned by CommitmentCore operations. These carry no recoverable
// state — per spec §4.1, "no recoverable errors on well-formed inputs."
var (
	ErrInvalidPoint  = errors.New("group: point not on curve or not in expected subgroup")
	ErrInvalidScalar = errors.New("group: scalar is not less than the field order")
	ErrIdentityGen   = errors.New("group: generator must not be the identity element")
)

// Scalar is an element of the scalar field 𝔽 of the pairing-friendly curve.
type Scalar interface {
	// Bytes returns the canonical big-endian encoding of the scalar.
	Bytes() []byte
	// Add returns s + other.
	Add(other Scalar) Scalar
	// Sub returns s - other.
	Sub(other Scalar) Scalar
	// IsZero reports whether the scalar is the additive identity.
	IsZero() bool
	// Equal reports whether two scalars represent the same field element.
	Equal(other Scalar) bool
}

// Point is an element of G1.
type Point interface {
	// Bytes returns the compressed encoding of the point (48 bytes for BLS12-381 G1).
	Bytes() []byte
	// Add returns p + other.
	Add(other Point) Point
	// Sub returns p - other.
	Sub(other Point) Point
	// IsIdentity reports whether p is the group identity.
	IsIdentity() bool
	// Equal reports whether two points represent the same group element.
	Equal(other Point) bool
}

// Group is the capability contract CommitmentCore, the Aggregator, and the
// Dispute engine are built against. A concrete implementation (see
// bls12381.go) MUST be constant-time on secret inputs: scalar
// multiplication and any operation touching a blinder must not branch on
// its value.
type Group interface {
	// Generators returns the two independent generators G, H used for
	// Pedersen commitments. H must have an unknown discrete-log relation to
	// G; see NewBLS12381.
	Generators() (g, h Point)

	// ScalarMul returns scalar·p. Constant-time in scalar.
	ScalarMul(p Point, scalar Scalar) Point

	// MultiScalarMul computes Σ scalars[i]·points[i]. Implementations
	// SHOULD use Pippenger's algorithm once len(points) >= 64 (spec §4.1).
	MultiScalarMul(points []Point, scalars []Scalar) (Point, error)

	// RandomScalar draws a uniform scalar in [0, field order) using the
	// given randomness source, via rejection sampling (never modular
	// reduction bias, per spec §4.1).
	RandomScalar(rnd RandSource) (Scalar, error)

	// ScalarFromBytes decodes bytes as a scalar, rejecting values >= field
	// order with ErrInvalidScalar.
	ScalarFromBytes(b []byte) (Scalar, error)

	// PointFromBytes decodes a compressed point, checking curve membership
	// and subgroup membership; rejects with ErrInvalidPoint otherwise.
	PointFromBytes(b []byte) (Point, error)

	// HashToField maps a domain-tagged message to a scalar field element
	// (spec §3 "Encoding"). The BLS12381 implementation expands the message
	// to a wide byte string and reduces it modulo the field order; it does
	// not use rejection sampling.
	HashToField(domainTag, msg []byte) (Scalar, error)

	// Identity returns the group identity element (used only for
	// initializing accumulators; never accepted as a commitment generator —
	// see ErrIdentityGen).
	Identity() Point

	// ZeroScalar returns the additive identity of 𝔽.
	ZeroScalar() Scalar
}

// RandSource is the injected randomness capability (spec §6 "Rand").
// Implementations must be cryptographically secure; tests inject
// deterministic streams per spec §5 ("Randomness source is injected").
type RandSource interface {
	Fill(buf []byte) error
}

// DomainTag disambiguates the domain-separation tags used across encode().
// Kept here (rather than in package commitment) because it is the
// vocabulary the Group.HashToField domain tag draws from.
type DomainTag []byte

var (
	// DomainStateRoot tags encode(state_root) so a state commitment input
	// can never collide with a transition commitment input (spec §3).
	DomainStateRoot = DomainTag("ARCHIMEDES-STATE-ROOT-V1")
	// DomainTransition tags encode(pre‖post‖fn_id).
	DomainTransition = DomainTag("ARCHIMEDES-TRANSITION-V1")
	// DomainRSEval tags the Reed-Solomon evaluation points (spec §9).
	DomainRSEval = DomainTag("ARCHIMEDES-RS-EVAL-V1")
	// DomainTranscript tags the Fiat-Shamir sampling transcript (spec §4.5).
	DomainTranscript = DomainTag("ARCHIMEDES-SAMPLING-TRANSCRIPT-V1")
)
