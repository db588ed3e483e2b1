// Package dispute implements the interactive bisection state machine of
// spec §4.3: a deterministic, synchronous event-driven FSM (per §9's
// "coroutine-style bisection ... implement as a pure event-driven state
// machine") that narrows a disputed aggregate to a single transition and
// adjudicates it via an injected StepExecutor.
package dispute

import (
	"github.com/wienerlabs/archimedes/group"
)

// State is one of the seven states of the dispute FSM (spec §4.3's
// diagram, plus the book-keeping ABORTED terminal from spec §5
// "Cancellation").
type State int

const (
	// StateProposed is the state of a just-published aggregate before any
	// challenge has been raised: the challenge window is open.
	StateProposed State = iota
	StateBisecting
	StateOneStep
	StateAccept
	StateSlashProposer
	StateSlashChallenger
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateProposed:
		return "PROPOSED"
	case StateBisecting:
		return "BISECTING"
	case StateOneStep:
		return "ONE_STEP"
	case StateAccept:
		return "ACCEPT"
	case StateSlashProposer:
		return "SLASH_PROPOSER"
	case StateSlashChallenger:
		return "SLASH_CHALLENGER"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is one of the three (plus ABORTED) states the
// session never leaves once reached.
func (s State) Terminal() bool {
	switch s {
	case StateAccept, StateSlashProposer, StateSlashChallenger, StateAborted:
		return true
	default:
		return false
	}
}

// Reason records *why* a session reached its terminal state (the
// supplemented `Outcome.Reason` field of SPEC_FULL.md §C, generalizing the
// teacher's ConfirmForPsTimer/ConfirmForSubChallengeWin/
// ConfirmForChallengeDeadline split).
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonWindowClosed: the challenge window elapsed with no challenge
	// ever raised.
	ReasonWindowClosed
	// ReasonStepInvalid: single-step resolution proved the proposer wrong.
	ReasonStepInvalid
	// ReasonStepValid: single-step resolution proved the proposer right,
	// after a real (frivolous) challenge was raised.
	ReasonStepValid
	// ReasonProposerTimeout: the proposer missed a per-round deadline while
	// it was their turn to act.
	ReasonProposerTimeout
	// ReasonChallengerTimeout: symmetric, for the challenger.
	ReasonChallengerTimeout
	// ReasonCancelled: the session was cancelled at a suspension point
	// (spec §5 "Cancellation").
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonWindowClosed:
		return "window_closed"
	case ReasonStepInvalid:
		return "step_invalid"
	case ReasonStepValid:
		return "step_valid"
	case ReasonProposerTimeout:
		return "proposer_timeout"
	case ReasonChallengerTimeout:
		return "challenger_timeout"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Direction is the challenger's narrowing declaration (spec §4.3 round
// protocol step 3).
type Direction int

const (
	DirLeft Direction = iota
	DirRight
)

func (d Direction) String() string {
	if d == DirRight {
		return "RIGHT"
	}
	return "LEFT"
}

// turn names whose move it currently is; used purely internally to
// attribute a timeout to the correct party.
type turn int

const (
	turnChallenger turn = iota
	turnProposer
	turnNone
)

// Outcome is the terminal snapshot of a session: its final State and why
// it got there.
type Outcome struct {
	State  State
	Reason Reason
}

// ExecError is returned by a StepExecutor when it cannot (yet, or ever)
// produce a verdict. Transient marks a transport/executor hiccup the
// engine retries once before attributing fault to the proposer (spec §7).
type ExecError struct {
	Transient bool
	Message   string
}

func (e *ExecError) Error() string { return e.Message }

// StepExecutor re-executes one state transition deterministically (spec
// §6). Any observed non-determinism in a real implementation is a fatal
// safety bug, not something this interface can detect on its own.
type StepExecutor interface {
	Execute(preRoot [32]byte, fnID uint64, witness []byte) (postRoot [32]byte, err error)
}

// boundary is a known, already-verified prefix opening at one end of the
// current bisection window.
type boundary struct {
	point   group.Point
	blinder group.Scalar
}
