package dispute_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wienerlabs/archimedes/aggregator"
	"github.com/wienerlabs/archimedes/commitment"
	"github.com/wienerlabs/archimedes/dispute"
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

var transitionTag = []byte("dispute-test-transition")

func honestNext(pre [32]byte, fnID uint64) [32]byte {
	var fnBuf [8]byte
	binary.LittleEndian.PutUint64(fnBuf[:], fnID)
	return hashfn.BLAKE3{}.Sum32(transitionTag, pre[:], fnBuf[:])
}

// fnExecutor is a deterministic StepExecutor re-deriving the "correct" next
// root, independent of whatever the proposer claims in the StepRecord.
type fnExecutor struct{}

func (fnExecutor) Execute(pre [32]byte, fnID uint64, _ []byte) ([32]byte, error) {
	return honestNext(pre, fnID), nil
}

// buildChain constructs a proposer's log of n chained, executor-correct
// steps, optionally tampering the state root at faultIndex (0 = no fault)
// and every step after it (since an honest proposer chains from whatever
// root it last claimed, correct or not).
func buildChain(t *testing.T, g group.Group, n int, faultIndex int, seed uint64) (initial [32]byte, steps []commitment.StepRecord) {
	t.Helper()
	rnd := prand.NewDeterministic(seed)
	roots := make([][32]byte, n+1)
	for i := 1; i <= n; i++ {
		roots[i] = honestNext(roots[i-1], uint64(i))
		if i == faultIndex {
			roots[i][0] ^= 0xFF
		}
	}
	steps = make([]commitment.StepRecord, n)
	for i := 1; i <= n; i++ {
		stateC, err := commitment.NewStateCommitment(g, rnd, roots[i])
		require.NoError(t, err)
		transC, err := commitment.NewTransitionCommitment(g, rnd, roots[i-1], roots[i], uint64(i))
		require.NoError(t, err)
		steps[i-1] = commitment.StepRecord{Index: uint64(i), StateC: stateC, TransC: transC}
	}
	return roots[0], steps
}

func publish(t *testing.T, g group.Group, initial [32]byte, steps []commitment.StepRecord) aggregator.AggregateCommitment {
	t.Helper()
	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, s := range steps {
		require.NoError(t, a.Append(s))
	}
	agg, err := a.Finalize()
	require.NoError(t, err)
	return agg
}

// runBisection drives the challenger/proposer round protocol to
// completion, with the challenger always narrowing toward faultIndex (or,
// if faultIndex is 0, always LEFT, ending on index 1 — used by the
// frivolous challenge scenario where every choice is equally "wrong").
func runBisection(t *testing.T, a *aggregator.Aggregator, s *dispute.Session, faultIndex int, now *uint64) {
	t.Helper()
	for s.State() == dispute.StateBisecting {
		round := s.Round()
		mid := s.Lo() + (s.Hi()-s.Lo())/2
		require.NoError(t, s.Query(round, mid, *now))

		o, err := a.Open(mid)
		require.NoError(t, err)
		outcome, err := s.Reply(round, o.Point, o.Blinder, o.Path, *now)
		require.NoError(t, err)
		if outcome.State != dispute.StateProposed {
			t.Fatalf("unexpected early terminal during reply: %v", outcome)
		}

		dir := dispute.DirRight
		target := faultIndex
		if target == 0 || uint64(target) <= mid {
			dir = dispute.DirLeft
		}
		_, err = s.Narrow(round, dir, *now)
		require.NoError(t, err)
	}
}

func TestScenarioSingleValidStep(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 1, 0, 1)
	agg := publish(t, g, initial, steps)

	ok, err := aggregator.OptimisticVerify(g, agg, steps[0].StateC.StateRoot)
	require.NoError(t, err)
	require.True(t, ok)

	var sid [16]byte
	s := dispute.NewSession(sid, "proposer", "challenger", g, hashfn.BLAKE3{}, agg, 0)
	outcome, err := s.CloseWindow()
	require.NoError(t, err)
	require.Equal(t, dispute.StateAccept, outcome.State)
}

func TestScenarioTenValidStepsOptimisticAccept(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 10, 0, 2)
	agg := publish(t, g, initial, steps)
	require.Equal(t, uint64(10), agg.Count)

	ok, err := aggregator.OptimisticVerify(g, agg, steps[9].StateC.StateRoot)
	require.NoError(t, err)
	require.True(t, ok)

	var sid [16]byte
	s := dispute.NewSession(sid, "proposer", "challenger", g, hashfn.BLAKE3{}, agg, 0)
	outcome, err := s.CloseWindow()
	require.NoError(t, err)
	require.Equal(t, dispute.StateAccept, outcome.State)
	require.Equal(t, dispute.ReasonWindowClosed, outcome.Reason)
}

func TestScenarioFaultAtIndexFiveSlashesProposer(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 8, 5, 3)

	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, st := range steps {
		require.NoError(t, a.Append(st))
	}
	agg, err := a.Finalize()
	require.NoError(t, err)

	var sid [16]byte
	now := uint64(0)
	s := dispute.NewSession(sid, "proposer", "challenger", g, hashfn.BLAKE3{}, agg, 1000)
	require.NoError(t, s.Challenge(100, now))
	require.Equal(t, dispute.StateBisecting, s.State())

	runBisection(t, a, s, 5, &now)
	require.Equal(t, dispute.StateOneStep, s.State())
	require.Equal(t, uint64(5), s.Hi())
	require.Equal(t, uint64(4), s.Lo())

	faultyStep, err := a.StepAt(5)
	require.NoError(t, err)
	outcome, err := s.RevealStep(s.Round(), faultyStep, nil, fnExecutor{}, now)
	require.NoError(t, err)
	require.Equal(t, dispute.StateSlashProposer, outcome.State)
	require.Equal(t, dispute.ReasonStepInvalid, outcome.Reason)
}

func TestScenarioFrivolousChallengeSlashesChallenger(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 8, 0, 4)

	a := aggregator.New(g, hashfn.BLAKE3{}, initial)
	for _, st := range steps {
		require.NoError(t, a.Append(st))
	}
	agg, err := a.Finalize()
	require.NoError(t, err)

	var sid [16]byte
	now := uint64(0)
	s := dispute.NewSession(sid, "proposer", "challenger", g, hashfn.BLAKE3{}, agg, 1000)
	require.NoError(t, s.Challenge(100, now))

	runBisection(t, a, s, 0, &now)
	require.Equal(t, dispute.StateOneStep, s.State())

	hiStep, err := a.StepAt(s.Hi())
	require.NoError(t, err)
	outcome, err := s.RevealStep(s.Round(), hiStep, nil, fnExecutor{}, now)
	require.NoError(t, err)
	require.Equal(t, dispute.StateSlashChallenger, outcome.State)
	require.Equal(t, dispute.ReasonStepValid, outcome.Reason)
}

func TestScenarioProposerTimeout(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 4, 0, 5)
	agg := publish(t, g, initial, steps)

	var sid [16]byte
	now := uint64(0)
	s := dispute.NewSession(sid, "proposer", "challenger", g, hashfn.BLAKE3{}, agg, 100)
	require.NoError(t, s.Challenge(10, now))

	mid := s.Lo() + (s.Hi()-s.Lo())/2
	require.NoError(t, s.Query(s.Round(), mid, now))
	// Proposer never replies; clock runs past the per-round deadline.
	now += 1000
	outcome, err := s.Tick(now)
	require.NoError(t, err)
	require.Equal(t, dispute.StateSlashProposer, outcome.State)
	require.Equal(t, dispute.ReasonProposerTimeout, outcome.Reason)
}

func TestQueryRejectsStaleRound(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 4, 0, 6)
	agg := publish(t, g, initial, steps)

	var sid [16]byte
	s := dispute.NewSession(sid, "proposer", "challenger", g, hashfn.BLAKE3{}, agg, 100)
	require.NoError(t, s.Challenge(10, 0))
	mid := s.Lo() + (s.Hi()-s.Lo())/2
	err := s.Query(s.Round()+1, mid, 0)
	require.ErrorIs(t, err, dispute.ErrStaleRound)
}

func TestQueryRejectsWrongMidpoint(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 4, 0, 7)
	agg := publish(t, g, initial, steps)

	var sid [16]byte
	s := dispute.NewSession(sid, "proposer", "challenger", g, hashfn.BLAKE3{}, agg, 100)
	require.NoError(t, s.Challenge(10, 0))
	err := s.Query(s.Round(), 999, 0)
	require.ErrorIs(t, err, dispute.ErrBadMidpoint)
}

func TestCancelIsIdempotent(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 2, 0, 8)
	agg := publish(t, g, initial, steps)

	var sid [16]byte
	s := dispute.NewSession(sid, "proposer", "challenger", g, hashfn.BLAKE3{}, agg, 100)
	o1 := s.Cancel()
	o2 := s.Cancel()
	require.Equal(t, o1, o2)
	require.Equal(t, dispute.StateAborted, o1.State)
}

func TestSingleStepRangeSkipsBisection(t *testing.T) {
	g := newGroup(t)
	initial, steps := buildChain(t, g, 1, 1, 9)
	agg := publish(t, g, initial, steps)

	var sid [16]byte
	s := dispute.NewSession(sid, "proposer", "challenger", g, hashfn.BLAKE3{}, agg, 100)
	require.NoError(t, s.Challenge(10, 0))
	require.Equal(t, dispute.StateOneStep, s.State())

	outcome, err := s.RevealStep(s.Round(), steps[0], nil, fnExecutor{}, 0)
	require.NoError(t, err)
	require.Equal(t, dispute.StateSlashProposer, outcome.State)
}
