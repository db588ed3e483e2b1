package group

// Commit returns v·G + r·H (spec §4.1 commit). Both scalar multiplications
// go through Group.ScalarMul, which MUST be constant-time in the backend.
func Commit(g Group, v, r Scalar) Point {
	genG, genH := g.Generators()
	vg := g.ScalarMul(genG, v)
	rh := g.ScalarMul(genH, r)
	return vg.Add(rh)
}

// VerifyOpen recomputes commit(v, r) and compares it to C in constant time
// (Point.Equal on the underlying field representation), per spec §4.1.
func VerifyOpen(g Group, c Point, v, r Scalar) bool {
	return Commit(g, v, r).Equal(c)
}

// Add implements the group law combination of two commitments (spec §4.1).
func Add(c1, c2 Point) Point {
	return c1.Add(c2)
}

// Sub implements the group law difference of two commitments (spec §4.1).
func Sub(c1, c2 Point) Point {
	return c1.Sub(c2)
}

// CommitBatch computes a single commitment to a vector of values under a
// vector of blinders via one multi-scalar multiplication: Σ vs[i]·G + Σ rs[i]·H,
// equivalently commit_batch(vs, rs) = MSM([G,...,G,H,...,H], [vs..., rs...]).
// Spec §4.1 calls for Pippenger once |vs| >= 64; that threshold is an
// internal decision of Group.MultiScalarMul, not of this function.
func CommitBatch(g Group, vs, rs []Scalar) (Point, error) {
	if len(vs) != len(rs) {
		return nil, ErrInvalidScalar
	}
	genG, genH := g.Generators()
	points := make([]Point, 0, 2*len(vs))
	scalars := make([]Scalar, 0, 2*len(vs))
	for _, v := range vs {
		points = append(points, genG)
		scalars = append(scalars, v)
	}
	for _, r := range rs {
		points = append(points, genH)
		scalars = append(scalars, r)
	}
	return g.MultiScalarMul(points, scalars)
}
