package availability

import (
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/wienerlabs/archimedes/group"
)

// Chunk is one element of the erasure-coded vector: a fixed-width array of
// field elements (spec §9 "Open question — erasure-code field": "chunks
// are field-element arrays of fixed width").
type Chunk []group.Scalar

func (c Chunk) clone() Chunk {
	out := make(Chunk, len(c))
	copy(out, c)
	return out
}

// toFr/fromFr round-trip a group.Scalar through its own canonical byte
// encoding into a bare gnark-crypto fr.Element. The RS code needs field
// multiplication and inversion, which group.Scalar deliberately does not
// expose (CommitmentCore only ever adds and subtracts blinders); rather
// than widen that interface for one caller, this package reaches straight
// for the already-wired gnark-crypto field type for the arithmetic, and
// converts back through group.Group.ScalarFromBytes so the rest of the
// module never sees a bare fr.Element.
func toFr(s group.Scalar) fr.Element {
	var e fr.Element
	e.SetBytesCanonical(s.Bytes())
	return e
}

func fromFr(g group.Group, e fr.Element) (group.Scalar, error) {
	b := e.Bytes()
	return g.ScalarFromBytes(b[:])
}

// evalPoints derives the n fixed Reed-Solomon evaluation points by hash-to-
// field under a dedicated domain tag (spec §9: "evaluation points fixed by
// the hash-to-field domain tag").
func evalPoints(g group.Group, n int) ([]fr.Element, error) {
	pts := make([]fr.Element, n)
	for i := 0; i < n; i++ {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		s, err := g.HashToField(group.DomainRSEval, buf[:])
		if err != nil {
			return nil, err
		}
		pts[i] = toFr(s)
	}
	return pts, nil
}

// lagrangeEval evaluates, at x, the unique polynomial of degree < len(xs)
// passing through (xs[i], ys[i]) for all i.
func lagrangeEval(xs, ys []fr.Element, x fr.Element) fr.Element {
	var acc fr.Element
	for j := range xs {
		var num, den fr.Element
		num.SetOne()
		den.SetOne()
		for m := range xs {
			if m == j {
				continue
			}
			var dn fr.Element
			dn.Sub(&x, &xs[m])
			num.Mul(&num, &dn)

			var dd fr.Element
			dd.Sub(&xs[j], &xs[m])
			den.Mul(&den, &dd)
		}
		var inv, term fr.Element
		inv.Inverse(&den)
		term.Mul(&num, &inv)
		term.Mul(&term, &ys[j])
		acc.Add(&acc, &term)
	}
	return acc
}

// Code is a systematic (k, n) Reed-Solomon code over 𝔽, fixed to a shared
// set of n evaluation points (spec §4.5: "n source chunks and N extended
// chunks using a systematic erasure code over 𝔽; any k chunks reconstruct
// the original").
type Code struct {
	g    group.Group
	k, n int
	xs   []fr.Element
}

// NewCode constructs a Code requiring any k of n chunks to reconstruct the
// source.
func NewCode(g group.Group, k, n int) (*Code, error) {
	if k < 1 || n < k {
		return nil, ErrInvalidParams
	}
	xs, err := evalPoints(g, n)
	if err != nil {
		return nil, err
	}
	return &Code{g: g, k: k, n: n, xs: xs}, nil
}

func (c *Code) K() int { return c.k }
func (c *Code) N() int { return c.n }

// EncodeVector extends k source chunks into n systematic chunks: the first
// k output chunks are the source verbatim, the remaining n-k are RS parity,
// computed independently per field-element column of the chunk.
func (c *Code) EncodeVector(source []Chunk) ([]Chunk, error) {
	if len(source) != c.k {
		return nil, ErrWrongSourceLength
	}
	width := len(source[0])
	for _, s := range source {
		if len(s) != width {
			return nil, ErrInconsistentWidth
		}
	}

	chunks := make([]Chunk, c.n)
	for i := 0; i < c.k; i++ {
		chunks[i] = source[i].clone()
	}
	for i := c.k; i < c.n; i++ {
		chunks[i] = make(Chunk, width)
	}

	for w := 0; w < width; w++ {
		ys := make([]fr.Element, c.k)
		for i := 0; i < c.k; i++ {
			ys[i] = toFr(source[i][w])
		}
		for i := c.k; i < c.n; i++ {
			v := lagrangeEval(c.xs[:c.k], ys, c.xs[i])
			sc, err := fromFr(c.g, v)
			if err != nil {
				return nil, err
			}
			chunks[i][w] = sc
		}
	}
	return chunks, nil
}

// DecodeVector reconstructs all k source chunks from any k received
// (index, chunk) pairs.
func (c *Code) DecodeVector(received map[int]Chunk) ([]Chunk, error) {
	if len(received) < c.k {
		return nil, ErrNotEnoughChunks
	}
	idxs := make([]int, 0, c.k)
	for idx := range received {
		idxs = append(idxs, idx)
		if len(idxs) == c.k {
			break
		}
	}
	width := len(received[idxs[0]])

	xs := make([]fr.Element, c.k)
	for i, idx := range idxs {
		xs[i] = c.xs[idx]
	}

	source := make([]Chunk, c.k)
	for i := range source {
		source[i] = make(Chunk, width)
	}

	for w := 0; w < width; w++ {
		ys := make([]fr.Element, c.k)
		for i, idx := range idxs {
			ys[i] = toFr(received[idx][w])
		}
		for i := 0; i < c.k; i++ {
			v := lagrangeEval(xs, ys, c.xs[i])
			sc, err := fromFr(c.g, v)
			if err != nil {
				return nil, err
			}
			source[i][w] = sc
		}
	}
	return source, nil
}
