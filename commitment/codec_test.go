package commitment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wienerlabs/archimedes/commitment"
	"github.com/wienerlabs/archimedes/prand"
)

func TestStateCommitmentRoundTrip(t *testing.T) {
	g := newGroup(t)
	rnd := prand.NewDeterministic(10)
	var root [32]byte
	root[0] = 0x42
	sc, err := commitment.NewStateCommitment(g, rnd, root)
	require.NoError(t, err)

	buf := commitment.MarshalStateCommitment(sc)
	require.Len(t, buf, commitment.StateCSize)

	back, err := commitment.UnmarshalStateCommitment(g, buf)
	require.NoError(t, err)
	require.Equal(t, sc.StateRoot, back.StateRoot)
	require.True(t, sc.Point.Equal(back.Point))
	require.True(t, sc.Blinder.Equal(back.Blinder))
}

func TestTransitionCommitmentRoundTrip(t *testing.T) {
	g := newGroup(t)
	rnd := prand.NewDeterministic(11)
	var pre, post [32]byte
	pre[0] = 0x01
	post[0] = 0x02
	tc, err := commitment.NewTransitionCommitment(g, rnd, pre, post, 99)
	require.NoError(t, err)

	buf := commitment.MarshalTransitionCommitment(tc)
	require.Len(t, buf, commitment.TransCSize)

	back, err := commitment.UnmarshalTransitionCommitment(g, buf)
	require.NoError(t, err)
	require.Equal(t, tc.Pre, back.Pre)
	require.Equal(t, tc.Post, back.Post)
	require.Equal(t, tc.FnID, back.FnID)
	require.True(t, tc.Point.Equal(back.Point))
}

func TestStepRecordRoundTrip(t *testing.T) {
	g := newGroup(t)
	rnd := prand.NewDeterministic(12)
	var prev, cur [32]byte
	prev[0] = 0x00
	cur[0] = 0x01

	stateC, err := commitment.NewStateCommitment(g, rnd, cur)
	require.NoError(t, err)
	transC, err := commitment.NewTransitionCommitment(g, rnd, prev, cur, 3)
	require.NoError(t, err)

	sr := commitment.StepRecord{Index: 1, StateC: stateC, TransC: transC, WitnessDigest: [32]byte{0xAA}}

	buf := commitment.MarshalStepRecord(sr)
	require.Len(t, buf, commitment.StepRecSize)

	back, err := commitment.UnmarshalStepRecord(g, buf)
	require.NoError(t, err)
	require.Equal(t, sr.Index, back.Index)
	require.Equal(t, sr.WitnessDigest, back.WitnessDigest)
	require.True(t, sr.StateC.Point.Equal(back.StateC.Point))
	require.True(t, sr.TransC.Point.Equal(back.TransC.Point))
}

func TestUnmarshalRejectsBadLength(t *testing.T) {
	g := newGroup(t)
	_, err := commitment.UnmarshalStateCommitment(g, make([]byte, 3))
	require.Error(t, err)
}
