package aggregator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wienerlabs/archimedes/aggregator"
	"github.com/wienerlabs/archimedes/commitment"
	"github.com/wienerlabs/archimedes/group"
	"github.com/wienerlabs/archimedes/hashfn"
	"github.com/wienerlabs/archimedes/prand"
)

func newGroup(t *testing.T) group.Group {
	t.Helper()
	g, err := group.NewBLS12381()
	require.NoError(t, err)
	return g
}

// buildChain constructs n chained StepRecords over roots 0, 1, ..., n
// (root i is just the byte i in the first position, sufficient to exercise
// chaining without a real state machine).
func buildChain(t *testing.T, g group.Group, n int, seed uint64) (initial [32]byte, steps []commitment.StepRecord) {
	t.Helper()
	rnd := prand.NewDeterministic(seed)
	roots := make([][32]byte, n+1)
	for i := range roots {
		roots[i][0] = byte(i + 1)
	}
	steps = make([]commitment.StepRecord, n)
	for i := 1; i <= n; i++ {
		stateC, err := commitment.NewStateCommitment(g, rnd, roots[i])
		require.NoError(t, err)
		transC, err := commitment.NewTransitionCommitment(g, rnd, roots[i-1], roots[i], uint64(i))
		require.NoError(t, err)
		steps[i-1] = commitment.StepRecord{
			Index:  uint64(i),
			StateC: stateC,
			TransC: transC,
		}
	}
	return roots[0], steps
}

func TestAppendRejectsOutOfOrderIndex(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 3, 1)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)

	require.NoError(t, a.Append(steps[0]))
	err := a.Append(steps[2]) // skip index 2
	require.ErrorIs(t, err, aggregator.ErrOrderViolation)
}

func TestAppendRejectsBrokenChain(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 2, 2)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)

	broken := steps[1]
	broken.Index = 1 // now claims to be first, but its trans_c.pre doesn't match initial
	err := a.Append(broken)
	require.ErrorIs(t, err, aggregator.ErrOrderViolation)
}

func TestFinalizeOnEmptyLogFails(t *testing.T) {
	g := newGroup(t)
	var initial [32]byte
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	_, err := a.Finalize()
	require.ErrorIs(t, err, aggregator.ErrEmpty)
}

func TestAppendAfterFinalizeFails(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 1, 3)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	require.NoError(t, a.Append(steps[0]))
	_, err := a.Finalize()
	require.NoError(t, err)

	_, more := buildChain(t, g, 2, 30)
	err = a.Append(more[1])
	require.ErrorIs(t, err, aggregator.ErrFinalized)
}

func TestOpenRequiresFinalize(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 1, 4)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	require.NoError(t, a.Append(steps[0]))
	_, err := a.Open(0)
	require.ErrorIs(t, err, aggregator.ErrNotFinalized)
}

func TestOpenZeroIsSentinel(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 5, 5)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, s := range steps {
		require.NoError(t, a.Append(s))
	}
	agg, err := a.Finalize()
	require.NoError(t, err)

	o, err := a.Open(0)
	require.NoError(t, err)
	require.True(t, o.Point.IsIdentity())
	require.True(t, o.Blinder.IsZero())
	require.Nil(t, o.Path)
	require.True(t, aggregator.VerifyOpening(hashfn.BLAKE3{}, agg.AuxRoot, o))
}

func TestOpenEveryIndexVerifies(t *testing.T) {
	g := newGroup(t)
	const n = 7 // not a power of two, exercises sentinel padding
	initial, steps := buildChain(t, g, n, 6)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, s := range steps {
		require.NoError(t, a.Append(s))
	}
	agg, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, uint64(n), agg.Count)

	for i := uint64(0); i <= uint64(n); i++ {
		o, err := a.Open(i)
		require.NoError(t, err, "index %d", i)
		require.True(t, aggregator.VerifyOpening(hashfn.BLAKE3{}, agg.AuxRoot, o), "index %d should verify", i)
	}

	// The opening at n must equal the published aggregate.
	last, err := a.Open(uint64(n))
	require.NoError(t, err)
	require.True(t, last.Point.Equal(agg.Point))
	require.True(t, last.Blinder.Equal(agg.BlinderSum))
}

func TestOpenRejectsOutOfRange(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 2, 7)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, s := range steps {
		require.NoError(t, a.Append(s))
	}
	_, err := a.Finalize()
	require.NoError(t, err)
	_, err = a.Open(3)
	require.ErrorIs(t, err, aggregator.ErrIndexRange)
}

func TestVerifyOpeningRejectsWrongRoot(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 4, 8)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, s := range steps {
		require.NoError(t, a.Append(s))
	}
	agg, err := a.Finalize()
	require.NoError(t, err)

	o, err := a.Open(2)
	require.NoError(t, err)
	badRoot := agg.AuxRoot
	badRoot[0] ^= 0xFF
	require.False(t, aggregator.VerifyOpening(hashfn.BLAKE3{}, badRoot, o))
}

func TestVerifyOpeningRejectsTamperedPoint(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 4, 9)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, s := range steps {
		require.NoError(t, a.Append(s))
	}
	agg, err := a.Finalize()
	require.NoError(t, err)

	o, err := a.Open(3)
	require.NoError(t, err)
	o.Point = g.Identity()
	require.False(t, aggregator.VerifyOpening(hashfn.BLAKE3{}, agg.AuxRoot, o))
}

func TestOptimisticVerify(t *testing.T) {
	g := newGroup(t)
	const n = 3
	initial, steps := buildChain(t, g, n, 10)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, s := range steps {
		require.NoError(t, a.Append(s))
	}
	agg, err := a.Finalize()
	require.NoError(t, err)

	ok, err := aggregator.OptimisticVerify(g, agg, steps[n-1].StateC.StateRoot)
	require.NoError(t, err)
	require.True(t, ok)

	var wrongRoot [32]byte
	wrongRoot[0] = 0xEE
	ok, err = aggregator.OptimisticVerify(g, agg, wrongRoot)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvictStepsBeforeDropsEarlyRecords(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 4, 11)
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, s := range steps {
		require.NoError(t, a.Append(s))
	}

	a.EvictStepsBefore(3)
	_, err := a.StepAt(1)
	require.Error(t, err)
	_, err = a.StepAt(2)
	require.Error(t, err)
	rec, err := a.StepAt(3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), rec.Index)
}
