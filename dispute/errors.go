package dispute

import "github.com/pkg/errors"

// Sentinel errors for local rejection of malformed or out-of-turn
// messages (spec §4.3 "Failure semantics": these do not advance the state;
// the offender's clock still ticks).
var (
	ErrWrongState     = errors.New("dispute: operation not valid in the current state")
	ErrWrongTurn      = errors.New("dispute: it is not this party's turn to act")
	ErrStaleRound     = errors.New("dispute: round number does not match the session's current round")
	ErrBadMidpoint    = errors.New("dispute: claimed midpoint does not match lo+floor((hi-lo)/2)")
	ErrBadIndex       = errors.New("dispute: revealed step index does not match the current window's hi")
	ErrBadOpening     = errors.New("dispute: Merkle opening does not verify against aux_root")
	ErrAlreadyPending = errors.New("dispute: a reply is already pending for this round")
	ErrNoPendingQuery = errors.New("dispute: no outstanding query to reply to")
	ErrNoPendingReply = errors.New("dispute: no verified reply to narrow from")
	ErrNotOneStep     = errors.New("dispute: window is not yet narrowed to a single transition")
	ErrAlreadyOpen    = errors.New("dispute: session has already been challenged")
)
