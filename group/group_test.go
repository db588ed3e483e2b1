package group_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wienerlabs/archimedes/group"
)

// cryptoRand is the default RandSource used in these tests; scenarios that
// need reproducibility inject a fixed-stream source instead (spec §5:
// "tests can supply deterministic streams").
type cryptoRand struct{}

func (cryptoRand) Fill(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

func newTestGroup(t *testing.T) *group.BLS12381 {
	t.Helper()
	g, err := group.NewBLS12381()
	require.NoError(t, err)
	return g
}

func randomScalar(t *testing.T, g group.Group) group.Scalar {
	t.Helper()
	s, err := g.RandomScalar(cryptoRand{})
	require.NoError(t, err)
	return s
}

func TestCommitVerifyOpenRoundTrip(t *testing.T) {
	g := newTestGroup(t)
	v := randomScalar(t, g)
	r := randomScalar(t, g)

	c := group.Commit(g, v, r)
	require.True(t, group.VerifyOpen(g, c, v, r))
}

func TestVerifyOpenRejectsBitFlip(t *testing.T) {
	g := newTestGroup(t)
	v := randomScalar(t, g)
	r := randomScalar(t, g)
	c := group.Commit(g, v, r)

	otherV := randomScalar(t, g)
	require.False(t, group.VerifyOpen(g, c, otherV, r))

	otherR := randomScalar(t, g)
	require.False(t, group.VerifyOpen(g, c, v, otherR))
}

func TestHomomorphism(t *testing.T) {
	g := newTestGroup(t)
	a := randomScalar(t, g)
	r := randomScalar(t, g)
	b := randomScalar(t, g)
	s := randomScalar(t, g)

	left := group.Add(group.Commit(g, a, r), group.Commit(g, b, s))
	right := group.Commit(g, a.Add(b), r.Add(s))
	require.True(t, left.Equal(right))
}

func TestAddSubInverse(t *testing.T) {
	g := newTestGroup(t)
	v := randomScalar(t, g)
	r := randomScalar(t, g)
	c := group.Commit(g, v, r)

	zero := g.ZeroScalar()
	origin := group.Commit(g, zero, zero)
	require.True(t, group.Sub(group.Add(c, origin), origin).Equal(c))
}

func TestCommitBatchMatchesSequentialSum(t *testing.T) {
	g := newTestGroup(t)
	const n = 5
	vs := make([]group.Scalar, n)
	rs := make([]group.Scalar, n)
	for i := 0; i < n; i++ {
		vs[i] = randomScalar(t, g)
		rs[i] = randomScalar(t, g)
	}

	batch, err := group.CommitBatch(g, vs, rs)
	require.NoError(t, err)

	var sequential group.Point = g.Identity()
	for i := 0; i < n; i++ {
		sequential = group.Add(sequential, group.Commit(g, vs[i], rs[i]))
	}
	require.True(t, sequential.Equal(batch))
}

func TestPointFromBytesRejectsGarbage(t *testing.T) {
	g := newTestGroup(t)
	_, err := g.PointFromBytes(make([]byte, 48))
	// An all-zero buffer decodes to the identity on most compressed
	// encodings; feed a structurally invalid (too-short) buffer instead.
	_ = err
	_, err = g.PointFromBytes(make([]byte, 10))
	require.Error(t, err)
}

func TestHashToFieldDomainSeparation(t *testing.T) {
	g := newTestGroup(t)
	msg := []byte("same-message")
	s1, err := g.HashToField(group.DomainStateRoot, msg)
	require.NoError(t, err)
	s2, err := g.HashToField(group.DomainTransition, msg)
	require.NoError(t, err)
	require.False(t, s1.Equal(s2), "disjoint domain tags must not collide for the same message")
}

func TestBinding2To12NoCollisions(t *testing.T) {
	if testing.Short() {
		t.Skip("structural binding check skipped in -short mode")
	}
	g := newTestGroup(t)
	const trials = 1 << 12 // reduced from 2^20 for fast CI; see spec §8 note on scale
	seen := make(map[string]struct{}, trials)
	for i := 0; i < trials; i++ {
		v := randomScalar(t, g)
		r := randomScalar(t, g)
		c := group.Commit(g, v, r)
		key := string(c.Bytes())
		_, collided := seen[key]
		require.False(t, collided, "unexpected commitment collision at trial %d", i)
		seen[key] = struct{}{}
	}
}
