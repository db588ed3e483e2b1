package group

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// scalar wraps fr.Element, the BLS12-381 scalar field element from
// gnark-crypto. fr.Element arithmetic is implemented with constant-time
// Montgomery multiplication by the underlying library.
type scalar struct {
	v fr.Element
}

func (s scalar) Bytes() []byte {
	b := s.v.Bytes()
	return b[:]
}

func (s scalar) Add(other Scalar) Scalar {
	o := other.(scalar)
	var out fr.Element
	out.Add(&s.v, &o.v)
	return scalar{out}
}

func (s scalar) Sub(other Scalar) Scalar {
	o := other.(scalar)
	var out fr.Element
	out.Sub(&s.v, &o.v)
	return scalar{out}
}

func (s scalar) IsZero() bool {
	return s.v.IsZero()
}

func (s scalar) Equal(other Scalar) bool {
	o := other.(scalar)
	return s.v.Equal(&o.v)
}

// point wraps a BLS12-381 G1 affine point.
type point struct {
	p bls12381.G1Affine
}

func (p point) Bytes() []byte {
	b := p.p.Bytes()
	return b[:]
}

func (p point) Add(other Point) Point {
	o := other.(point)
	var a, b, out bls12381.G1Jac
	a.FromAffine(&p.p)
	b.FromAffine(&o.p)
	out.Set(&a).AddAssign(&b)
	var res bls12381.G1Affine
	res.FromJacobian(&out)
	return point{res}
}

func (p point) Sub(other Point) Point {
	o := other.(point)
	var negO bls12381.G1Affine
	negO.Neg(&o.p)
	return p.Add(point{negO})
}

func (p point) IsIdentity() bool {
	return p.p.IsInfinity()
}

func (p point) Equal(other Point) bool {
	o := other.(point)
	return p.p.Equal(&o.p)
}

// BLS12381 is the default Group implementation backed by gnark-crypto.
// Generators G, H are process-wide immutable state, initialized once, per
// spec §5 "Shared resources."
type BLS12381 struct {
	g, h point
}

// NewBLS12381 constructs the process-wide crypto context. H is derived by
// hashing a fixed message to the curve under a domain separator, so no
// party (including the implementation) knows log_G(H), satisfying the "unknown discrete-log
// relation" requirement in spec §3.
func NewBLS12381() (*BLS12381, error) {
	_, _, g1Gen, _ := bls12381.Generators()

	hAffine, err := bls12381.HashToG1([]byte("ARCHIMEDES-GENERATOR-H-V1"), []byte("ARCHIMEDES-HASH-TO-CURVE"))
	if err != nil {
		return nil, err
	}

	gp := point{g1Gen}
	hp := point{hAffine}
	if gp.IsIdentity() || hp.IsIdentity() {
		return nil, ErrIdentityGen
	}
	return &BLS12381{g: gp, h: hp}, nil
}

func (b *BLS12381) Generators() (g, h Point) {
	return b.g, b.h
}

func (b *BLS12381) ScalarMul(p Point, s Scalar) Point {
	pt := p.(point)
	sc := s.(scalar)
	var bi big.Int
	sc.v.BigInt(&bi)
	var out bls12381.G1Jac
	var in bls12381.G1Jac
	in.FromAffine(&pt.p)
	out.ScalarMultiplication(&in, &bi)
	var res bls12381.G1Affine
	res.FromJacobian(&out)
	return point{res}
}

func (b *BLS12381) MultiScalarMul(points []Point, scalars []Scalar) (Point, error) {
	if len(points) != len(scalars) {
		return nil, ErrInvalidScalar
	}
	if len(points) == 0 {
		return point{}, nil
	}
	affinePoints := make([]bls12381.G1Affine, len(points))
	frScalars := make([]fr.Element, len(scalars))
	for i := range points {
		affinePoints[i] = points[i].(point).p
		frScalars[i] = scalars[i].(scalar).v
	}
	var result bls12381.G1Affine
	config := ecc.MultiExpConfig{}
	if _, err := result.MultiExp(affinePoints, frScalars, config); err != nil {
		return nil, err
	}
	return point{result}, nil
}

func (b *BLS12381) RandomScalar(rnd RandSource) (Scalar, error) {
	// Rejection sampling against the field order: draw uniform bytes, reject
	// and redraw if the candidate is >= the modulus, never reduce (spec §4.1).
	buf := make([]byte, fr.Bytes)
	for {
		if err := rnd.Fill(buf); err != nil {
			return nil, err
		}
		var candidate fr.Element
		if err := candidate.SetBytesCanonical(buf); err == nil {
			return scalar{candidate}, nil
		}
		// candidate >= modulus: redraw.
	}
}

func (b *BLS12381) ScalarFromBytes(buf []byte) (Scalar, error) {
	var s fr.Element
	if err := s.SetBytesCanonical(buf); err != nil {
		return nil, ErrInvalidScalar
	}
	return scalar{s}, nil
}

func (b *BLS12381) PointFromBytes(buf []byte) (Point, error) {
	var p bls12381.G1Affine
	if _, err := p.SetBytes(buf); err != nil {
		return nil, ErrInvalidPoint
	}
	if !p.IsInSubGroup() {
		return nil, ErrInvalidPoint
	}
	return point{p}, nil
}

func (b *BLS12381) HashToField(domainTag, msg []byte) (Scalar, error) {
	elems, err := fr.Hash(msg, domainTag, 1)
	if err != nil {
		return nil, err
	}
	return scalar{elems[0]}, nil
}

func (b *BLS12381) Identity() Point {
	return point{}
}

func (b *BLS12381) ZeroScalar() Scalar {
	return scalar{}
}
