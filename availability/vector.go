package availability

import (
	"github.com/wienerlabs/archimedes/commitment"
	"github.com/wienerlabs/archimedes/group"
)

// limbSize is the number of point bytes packed per field-element limb. A
// limb's top byte is always zeroed, which keeps the 256-bit value strictly
// below the ~255-bit BLS12-381 scalar modulus regardless of the remaining
// payload bytes, so ScalarFromBytes never rejects a well-formed limb.
const limbSize = 31

// pointLimbCount is the number of limbs needed to round-trip a compressed
// G1 point (48 bytes) through scalar-field elements.
var pointLimbCount = (48 + limbSize - 1) / limbSize

// pointToLimbs splits a compressed point's bytes into fixed-width,
// zero-topped field-element limbs (spec §9's "field-element arrays of
// fixed width" chunking).
func pointToLimbs(g group.Group, p group.Point) ([]group.Scalar, error) {
	raw := p.Bytes()
	limbs := make([]group.Scalar, pointLimbCount)
	for i := 0; i < pointLimbCount; i++ {
		start := i * limbSize
		end := start + limbSize
		if end > len(raw) {
			end = len(raw)
		}
		var padded [32]byte
		if start < len(raw) {
			copy(padded[1:1+(end-start)], raw[start:end])
		}
		s, err := g.ScalarFromBytes(padded[:])
		if err != nil {
			return nil, err
		}
		limbs[i] = s
	}
	return limbs, nil
}

// limbsToPointBytes reassembles a compressed point's raw bytes from limbs
// produced by pointToLimbs, trimming back to the original 48 bytes.
func limbsToPointBytes(limbs []group.Scalar) []byte {
	buf := make([]byte, 0, pointLimbCount*limbSize)
	for _, s := range limbs {
		b := s.Bytes()
		buf = append(buf, b[1:]...)
	}
	return buf[:48]
}

// commitmentChunk packs a commitment's point and blinder into one Chunk:
// pointLimbCount field-element limbs for the point, plus the blinder
// itself (already a field element, no chunking needed).
func commitmentChunk(g group.Group, p group.Point, blinder group.Scalar) (Chunk, error) {
	limbs, err := pointToLimbs(g, p)
	if err != nil {
		return nil, err
	}
	return append(limbs, blinder), nil
}

// pointFromChunk inverts commitmentChunk, recovering (point, blinder).
func pointFromChunk(g group.Group, c Chunk) (group.Point, group.Scalar, error) {
	p, err := g.PointFromBytes(limbsToPointBytes(c[:pointLimbCount]))
	if err != nil {
		return nil, nil, err
	}
	return p, c[pointLimbCount], nil
}

// VectorFromSteps flattens an execution log into the commitment vector
// [C1, T1, C2, T2, ...] of spec §4.5, one Chunk per commitment.
func VectorFromSteps(g group.Group, steps []commitment.StepRecord) ([]Chunk, error) {
	vec := make([]Chunk, 0, 2*len(steps))
	for _, st := range steps {
		sc, err := commitmentChunk(g, st.StateC.Point, st.StateC.Blinder)
		if err != nil {
			return nil, err
		}
		tc, err := commitmentChunk(g, st.TransC.Point, st.TransC.Blinder)
		if err != nil {
			return nil, err
		}
		vec = append(vec, sc, tc)
	}
	return vec, nil
}
