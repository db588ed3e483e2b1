// Package fault implements the error taxonomy of spec §7: a Fault
// classifies a failure into one of five Kinds and, where applicable,
// attributes it to the offending party. The dispute engine's local message
// rejections use its own sentinel errors (dispute/errors.go) instead.
package fault

import "fmt"

// Kind classifies a Fault per spec §7.
type Kind int

const (
	// ProtocolViolation is a message out of state/sequence, a bad Merkle
	// path, or similar: fatal to the session, drives a slashing outcome for
	// the attributed party.
	ProtocolViolation Kind = iota
	// CryptoRejected is a point not in subgroup, a scalar out of range, or a
	// hash-to-field failure.
	CryptoRejected
	// Timeout is a deadline exceeded; deterministic slashing of the
	// attributed party.
	Timeout
	// Transient is an executor or transport hiccup, valid only for
	// StepExecutor results; the caller retries once before treating it as a
	// proposer fault.
	Transient
	// ProgrammerError is an internal invariant broken (e.g. the prefix tree
	// disagreeing with the running sum). Aborts the session neutrally and
	// is never exposed to remote parties.
	ProgrammerError
)

func (k Kind) String() string {
	switch k {
	case ProtocolViolation:
		return "protocol_violation"
	case CryptoRejected:
		return "crypto_rejected"
	case Timeout:
		return "timeout"
	case Transient:
		return "transient"
	case ProgrammerError:
		return "programmer_error"
	default:
		return "unknown"
	}
}

// Party names the offender a Fault is attributed to, or None when the
// fault carries no attribution (spec §7: "errors without a clear offender
// attribution abort the session neutrally").
type Party int

const (
	None Party = iota
	Proposer
	Challenger
)

func (p Party) String() string {
	switch p {
	case Proposer:
		return "proposer"
	case Challenger:
		return "challenger"
	default:
		return "none"
	}
}

// Fault is the typed error value every ARCHIMEDES component returns instead
// of an ad-hoc error string, once a failure needs to be attributed and
// routed by the dispute engine.
type Fault struct {
	Kind    Kind
	Party   Party
	Message string
}

func New(kind Kind, party Party, msg string) *Fault {
	return &Fault{Kind: kind, Party: party, Message: msg}
}

func Newf(kind Kind, party Party, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Party: party, Message: fmt.Sprintf(format, args...)}
}

func (f *Fault) Error() string {
	if f.Party == None {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s (%s): %s", f.Kind, f.Party, f.Message)
}

// Attributable reports whether this Fault names an offender, i.e. whether
// it can drive the dispute engine straight to a slashing terminal.
func (f *Fault) Attributable() bool {
	return f.Party == Proposer || f.Party == Challenger
}
