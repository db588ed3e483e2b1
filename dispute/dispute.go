package dispute

import (
	"github.com/sirupsen/logrus"

	"github.com/wienerlabs/archimedes/aggregator"
	"github.com/wienerlabs/archimedes/commitment"
	"github.com/wienerlabs/archimedes/fault"
	"github.com/wienerlabs/archimedes/group"
	"github.com/wienerlabs/archimedes/hashfn"
)

var log = logrus.WithField("component", "dispute")

// DefaultPerRoundDeadline is the default per-round timeout in clock units
// (spec §4.3: "default per-round deadline is 24h, configurable"; the unit
// is whatever the injected clock.Clock counts in, typically seconds).
const DefaultPerRoundDeadline = 24 * 60 * 60

// Session drives one challenge against one published AggregateCommitment
// (spec §4.3, §3 "DisputeSession ... created by a Challenger and
// exclusively mutated by the Dispute engine"). It is a pure state
// transformer: every method that starts, resets or checks a deadline takes
// the current abstract time explicitly, and every method returns
// synchronously, per spec §9's "coroutine-style bisection ...
// implement as a pure event-driven state machine."
type Session struct {
	SessionID  [16]byte
	Proposer   string
	Challenger string

	g group.Group
	h hashfn.Hash

	count   uint64
	auxRoot [32]byte

	aggPoint      group.Point
	aggBlinderSum group.Scalar

	state  State
	reason Reason
	turn   turn

	lo, hi uint64
	loOpen boundary
	hiOpen boundary

	round      uint32
	pendingMid *uint64
	pendingRep *boundary

	bond             uint64
	stakeHold        uint64
	perRoundDeadline uint64
	sessionCap       uint64
	deadline         uint64

	revealedLo *commitment.StepRecord // step at index hi, once revealed
}

// NewSession constructs a Session for the given AggregateCommitment,
// starting in PROPOSED: the challenge window is open but no challenge has
// been raised yet.
func NewSession(
	sessionID [16]byte,
	proposer, challenger string,
	g group.Group,
	h hashfn.Hash,
	agg aggregator.AggregateCommitment,
	perRoundDeadline uint64,
) *Session {
	if perRoundDeadline == 0 {
		perRoundDeadline = DefaultPerRoundDeadline
	}
	return &Session{
		SessionID:        sessionID,
		Proposer:         proposer,
		Challenger:       challenger,
		g:                g,
		h:                h,
		count:            agg.Count,
		auxRoot:          agg.AuxRoot,
		aggPoint:         agg.Point,
		aggBlinderSum:    agg.BlinderSum,
		state:            StateProposed,
		reason:           ReasonNone,
		turn:             turnNone,
		perRoundDeadline: perRoundDeadline,
	}
}

func (s *Session) State() State   { return s.state }
func (s *Session) Lo() uint64     { return s.lo }
func (s *Session) Hi() uint64     { return s.hi }
func (s *Session) Round() uint32  { return s.round }
func (s *Session) Deadline() uint64 { return s.deadline }

// Outcome returns the terminal snapshot, or ok=false if the session has not
// yet reached a terminal state.
func (s *Session) Outcome() (Outcome, bool) {
	if !s.state.Terminal() {
		return Outcome{}, false
	}
	return Outcome{State: s.state, Reason: s.reason}, true
}

func sessionCapFor(n uint64, perRound uint64) uint64 {
	rounds := uint64(0)
	for window := n; window > 1; window = (window + 1) / 2 {
		rounds++
	}
	return (2*rounds + 2) * perRound
}

// CloseWindow transitions PROPOSED -> ACCEPT when the challenge window
// elapses with no challenge ever raised (the passive optimistic path;
// spec §4.2 "optimistic verify" combined with §4.4's stake release).
func (s *Session) CloseWindow() (Outcome, error) {
	if s.state != StateProposed {
		return Outcome{}, ErrWrongState
	}
	s.finish(StateAccept, ReasonWindowClosed)
	return Outcome{State: s.state, Reason: s.reason}, nil
}

// Challenge opens a dispute over the full range [0, count] (spec §4.3:
// "PROPOSED --challenge(bond,range)--> BISECTING"). If the aggregate has
// only a single step, the session skips straight to ONE_STEP.
func (s *Session) Challenge(bond uint64, now uint64) error {
	if s.state != StateProposed {
		return ErrAlreadyOpen
	}
	s.bond = bond
	s.lo, s.hi = 0, s.count
	s.loOpen = boundary{point: s.g.Identity(), blinder: s.g.ZeroScalar()}
	s.hiOpen = boundary{point: s.aggPoint, blinder: s.aggBlinderSum}
	s.sessionCap = sessionCapFor(s.count, s.perRoundDeadline)

	if s.hi-s.lo == 1 {
		s.enterOneStep(now)
		return nil
	}
	s.state = StateBisecting
	s.turn = turnChallenger
	s.resetDeadline(now)
	log.WithFields(logrus.Fields{"session": s.SessionID, "lo": s.lo, "hi": s.hi}).Info("challenge opened")
	return nil
}

func (s *Session) enterOneStep(now uint64) {
	s.state = StateOneStep
	s.turn = turnProposer
	s.resetDeadline(now)
}

func (s *Session) resetDeadline(now uint64) {
	s.deadline = now + s.perRoundDeadline
}

func (s *Session) mid() uint64 {
	return s.lo + (s.hi-s.lo)/2
}

// Query records the challenger's request for the midpoint opening (spec
// §4.3 round protocol step 1).
func (s *Session) Query(round uint32, mid uint64, now uint64) error {
	if s.state != StateBisecting {
		return ErrWrongState
	}
	if s.turn != turnChallenger {
		return ErrWrongTurn
	}
	if round != s.round {
		return ErrStaleRound
	}
	if mid != s.mid() {
		return ErrBadMidpoint
	}
	m := mid
	s.pendingMid = &m
	s.turn = turnProposer
	s.resetDeadline(now)
	return nil
}

// Reply records and verifies the proposer's opening of the pending
// midpoint (spec §4.3 round protocol step 2).
func (s *Session) Reply(round uint32, point group.Point, blinder group.Scalar, path [][32]byte, now uint64) (Outcome, error) {
	if s.state != StateBisecting {
		return Outcome{}, ErrWrongState
	}
	if s.turn != turnProposer {
		return Outcome{}, ErrWrongTurn
	}
	if round != s.round {
		return Outcome{}, ErrStaleRound
	}
	if s.pendingMid == nil {
		return Outcome{}, ErrNoPendingQuery
	}
	mid := *s.pendingMid

	ok := aggregator.VerifyOpening(s.h, s.auxRoot, aggregator.Opening{
		Index: mid, Point: point, Blinder: blinder, Path: path,
	})
	if !ok {
		s.finish(StateSlashProposer, ReasonStepInvalid)
		return Outcome{State: s.state, Reason: s.reason}, nil
	}
	s.pendingRep = &boundary{point: point, blinder: blinder}
	s.turn = turnChallenger
	s.resetDeadline(now)
	return Outcome{}, nil
}

// Narrow applies the challenger's LEFT/RIGHT declaration, shrinking the
// window and transitioning to ONE_STEP once it spans a single transition
// (spec §4.3 round protocol step 3).
func (s *Session) Narrow(round uint32, dir Direction, now uint64) (Outcome, error) {
	if s.state != StateBisecting {
		return Outcome{}, ErrWrongState
	}
	if s.turn != turnChallenger {
		return Outcome{}, ErrWrongTurn
	}
	if round != s.round {
		return Outcome{}, ErrStaleRound
	}
	if s.pendingRep == nil {
		return Outcome{}, ErrNoPendingReply
	}
	mid := *s.pendingMid
	rep := *s.pendingRep

	if dir == DirLeft {
		s.hi = mid
		s.hiOpen = rep
	} else {
		s.lo = mid
		s.loOpen = rep
	}
	s.pendingMid = nil
	s.pendingRep = nil
	s.round++

	if s.hi-s.lo == 1 {
		s.enterOneStep(now)
		return Outcome{}, nil
	}
	s.turn = turnChallenger
	s.resetDeadline(now)
	return Outcome{}, nil
}

// RevealStep adjudicates the single disputed transition at index hi (spec
// §4.3 "Single-step (ONE_STEP)"). It invokes executor at most twice: a
// Transient ExecError is retried once, after which any failure is
// attributed to the proposer (spec §7).
func (s *Session) RevealStep(round uint32, step commitment.StepRecord, witness []byte, executor StepExecutor, now uint64) (Outcome, error) {
	if s.state != StateOneStep {
		return Outcome{}, ErrWrongState
	}
	if s.turn != turnProposer {
		return Outcome{}, ErrWrongTurn
	}
	if round != s.round {
		return Outcome{}, ErrStaleRound
	}
	if step.Index != s.hi {
		return Outcome{}, ErrBadIndex
	}

	post, err := executor.Execute(step.TransC.Pre, step.TransC.FnID, witness)
	if err != nil {
		if ee, ok := err.(*ExecError); ok && ee.Transient {
			post, err = executor.Execute(step.TransC.Pre, step.TransC.FnID, witness)
		}
	}
	if err != nil {
		log.WithFields(logrus.Fields{"session": s.SessionID, "index": s.hi}).
			Warn(fault.Newf(fault.Transient, fault.Proposer, "executor failed after retry: %v", err))
		s.finish(StateSlashProposer, ReasonStepInvalid)
		return Outcome{State: s.state, Reason: s.reason}, nil
	}

	valid := post == step.StateC.StateRoot && post == step.TransC.Post
	if valid {
		if tcOK, verr := step.TransC.Verify(s.g); verr != nil || !tcOK {
			valid = false
		}
	}
	if valid {
		if scOK, verr := step.StateC.Verify(s.g); verr != nil || !scOK {
			valid = false
		}
	}
	if valid {
		expectedPoint := group.Add(step.TransC.Point, step.StateC.Point)
		gotPoint := group.Sub(s.hiOpen.point, s.loOpen.point)
		expectedBlinder := step.TransC.Blinder.Add(step.StateC.Blinder)
		gotBlinder := s.hiOpen.blinder.Sub(s.loOpen.blinder)
		if !expectedPoint.Equal(gotPoint) || !expectedBlinder.Equal(gotBlinder) {
			valid = false
		}
	}

	s.revealedLo = &step
	if valid {
		s.finish(StateSlashChallenger, ReasonStepValid)
	} else {
		s.finish(StateSlashProposer, ReasonStepInvalid)
	}
	return Outcome{State: s.state, Reason: s.reason}, nil
}

// Tick checks the current per-round deadline against now, producing a
// timeout outcome if whichever party currently holds the turn has overrun
// it (spec §4.3 "Timeout clock resets at each transition"). The absolute
// session cap computed by Challenge is not compared against now.
func (s *Session) Tick(now uint64) (Outcome, error) {
	if s.state.Terminal() {
		return Outcome{}, ErrWrongState
	}
	if s.state == StateProposed {
		return Outcome{}, nil
	}
	if now <= s.deadline {
		return Outcome{}, nil
	}
	switch s.turn {
	case turnProposer:
		s.finish(StateSlashProposer, ReasonProposerTimeout)
	case turnChallenger:
		s.finish(StateSlashChallenger, ReasonChallengerTimeout)
	default:
		return Outcome{}, fault.New(fault.ProgrammerError, fault.None, "deadline expired with no party holding the turn")
	}
	return Outcome{State: s.state, Reason: s.reason}, nil
}

// Cancel aborts the session at a suspension point (spec §5
// "Cancellation"): incentive-neutral, idempotent.
func (s *Session) Cancel() Outcome {
	if !s.state.Terminal() {
		s.finish(StateAborted, ReasonCancelled)
	}
	return Outcome{State: s.state, Reason: s.reason}
}

func (s *Session) finish(state State, reason Reason) {
	s.state = state
	s.reason = reason
	s.turn = turnNone
	log.WithFields(logrus.Fields{
		"session": s.SessionID, "state": state, "reason": reason,
	}).Info("dispute session terminated")
}
