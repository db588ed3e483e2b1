// Package commitment implements the ARCHIMEDES data model (spec §3):
// StateCommitment, TransitionCommitment, and StepRecord, together with the
// domain-separated encode() used to bind each to a Pedersen commitment.
package commitment

import (
	"github.com/pkg/errors"

	"github.com/wienerlabs/archimedes/group"
)

// ErrInconsistentChain is returned when a StepRecord's transition does not
// connect to the state it is supposed to follow (spec §3 StepRecord
// invariant: "trans_c.pre == state_{index-1}.state_root").
var ErrInconsistentChain = errors.New("commitment: transition does not chain to the claimed state")

// StateCommitment binds a 32-byte state trie root to a Pedersen commitment
// point under a blinder (spec §3).
type StateCommitment struct {
	StateRoot [32]byte
	Point     group.Point
	Blinder   group.Scalar
}

// NewStateCommitment draws a fresh blinder from rnd and computes
// point = encode(state_root)·G + blinder·H.
func NewStateCommitment(g group.Group, rnd group.RandSource, stateRoot [32]byte) (StateCommitment, error) {
	v, err := g.HashToField(group.DomainStateRoot, stateRoot[:])
	if err != nil {
		return StateCommitment{}, errors.Wrap(err, "encoding state root")
	}
	r, err := g.RandomScalar(rnd)
	if err != nil {
		return StateCommitment{}, errors.Wrap(err, "drawing blinder")
	}
	return StateCommitment{
		StateRoot: stateRoot,
		Point:     group.Commit(g, v, r),
		Blinder:   r,
	}, nil
}

// Verify recomputes the commitment and checks it against Point, in constant
// time via group.VerifyOpen.
func (sc StateCommitment) Verify(g group.Group) (bool, error) {
	v, err := g.HashToField(group.DomainStateRoot, sc.StateRoot[:])
	if err != nil {
		return false, err
	}
	return group.VerifyOpen(g, sc.Point, v, sc.Blinder), nil
}

// TransitionCommitment binds a (pre, post, fn_id) transition to a Pedersen
// commitment point under a blinder (spec §3).
type TransitionCommitment struct {
	Pre, Post [32]byte
	FnID      uint64
	Point     group.Point
	Blinder   group.Scalar
}

// transitionInput builds the pre‖post‖fn_id byte string encode() hashes.
func transitionInput(pre, post [32]byte, fnID uint64) []byte {
	buf := make([]byte, 0, 32+32+8)
	buf = append(buf, pre[:]...)
	buf = append(buf, post[:]...)
	buf = append(buf, encodeUint64LE(fnID)...)
	return buf
}

// NewTransitionCommitment draws a fresh blinder from rnd and computes
// point = encode(pre‖post‖fn_id)·G + blinder·H.
func NewTransitionCommitment(g group.Group, rnd group.RandSource, pre, post [32]byte, fnID uint64) (TransitionCommitment, error) {
	v, err := g.HashToField(group.DomainTransition, transitionInput(pre, post, fnID))
	if err != nil {
		return TransitionCommitment{}, errors.Wrap(err, "encoding transition")
	}
	r, err := g.RandomScalar(rnd)
	if err != nil {
		return TransitionCommitment{}, errors.Wrap(err, "drawing blinder")
	}
	return TransitionCommitment{
		Pre:     pre,
		Post:    post,
		FnID:    fnID,
		Point:   group.Commit(g, v, r),
		Blinder: r,
	}, nil
}

// Verify recomputes the commitment and checks it against Point.
func (tc TransitionCommitment) Verify(g group.Group) (bool, error) {
	v, err := g.HashToField(group.DomainTransition, transitionInput(tc.Pre, tc.Post, tc.FnID))
	if err != nil {
		return false, err
	}
	return group.VerifyOpen(g, tc.Point, v, tc.Blinder), nil
}

// StepRecord is one entry in the proposer's ordered execution log (spec §3).
type StepRecord struct {
	Index         uint64
	StateC        StateCommitment
	TransC        TransitionCommitment
	WitnessDigest [32]byte
}

// ValidateChain checks the StepRecord invariants relating it to the state
// it follows: trans_c.pre == prevStateRoot and trans_c.post == state_c.state_root.
func (sr StepRecord) ValidateChain(prevStateRoot [32]byte) error {
	if sr.TransC.Pre != prevStateRoot {
		return errors.Wrapf(ErrInconsistentChain, "step %d: trans_c.pre %#x != prev state root %#x", sr.Index, sr.TransC.Pre, prevStateRoot)
	}
	if sr.TransC.Post != sr.StateC.StateRoot {
		return errors.Wrapf(ErrInconsistentChain, "step %d: trans_c.post %#x != state_c.state_root %#x", sr.Index, sr.TransC.Post, sr.StateC.StateRoot)
	}
	return nil
}

func encodeUint64LE(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
