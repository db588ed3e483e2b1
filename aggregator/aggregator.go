// Package aggregator implements the Aggregator (spec §4.2): an
// append-only log of StepRecords that folds into a constant-size
// AggregateCommitment, backed by an auxiliary Merkle tree over prefix
// sums so any intermediate aggregate is cheaply retrievable during
// bisection (spec §4.3).
package aggregator

import (
	"github.com/pkg/errors"

	"github.com/wienerlabs/archimedes/commitment"
	"github.com/wienerlabs/archimedes/group"
	"github.com/wienerlabs/archimedes/hashfn"
)

// Errors returned by Aggregator operations (spec §4.2's "Op" table).
var (
	ErrOrderViolation = errors.New("aggregator: step out of order or does not chain to current state")
	ErrEmpty          = errors.New("aggregator: cannot finalize an empty log")
	ErrFinalized      = errors.New("aggregator: log is already finalized, no further appends accepted")
	ErrNotFinalized   = errors.New("aggregator: aggregate has not been finalized yet")
	ErrIndexRange     = errors.New("aggregator: index out of range [0, count]")
)

// AggregateCommitment is the immutable, constant-size artifact published by
// the proposer (spec §3).
type AggregateCommitment struct {
	Point       group.Point
	BlinderSum  group.Scalar
	Count       uint64
	AuxRoot     [32]byte
	InitialRoot [32]byte
	FinalRoot   [32]byte
}

// Opening is a verifiable claim about the prefix aggregate at index i:
// (P_i, R_i) together with the Merkle path proving it against aux_root
// (spec §4.2 "open").
type Opening struct {
	Index   uint64
	Point   group.Point
	Blinder group.Scalar
	Path    [][32]byte
}

// Aggregator folds an ordered, append-only log of StepRecords (spec §4.2).
// It is a pure, single-threaded state transformer: concurrency is obtained
// by running independent Aggregator instances for independent sessions
// (spec §5).
type Aggregator struct {
	g group.Group
	h hashfn.Hash

	initialRoot [32]byte
	steps       []*commitment.StepRecord // entries may be nil after eviction

	// prefixPoints[i], prefixBlinders[i] hold P_i, R_i for i in [0, count].
	prefixPoints   []group.Point
	prefixBlinders []group.Scalar

	finalized bool
	aggregate AggregateCommitment
	tree      *auxTree
}

// New constructs an Aggregator over a fresh log rooted at initialRoot (s_0).
func New(g group.Group, h hashfn.Hash, initialRoot [32]byte) *Aggregator {
	return &Aggregator{
		g:              g,
		h:              h,
		initialRoot:    initialRoot,
		prefixPoints:   []group.Point{g.Identity()},
		prefixBlinders: []group.Scalar{g.ZeroScalar()},
	}
}

// Count returns the number of appended steps (n).
func (a *Aggregator) Count() uint64 {
	return uint64(len(a.steps))
}

// currentStateRoot returns the state root the next appended step must chain
// from: s_0 if the log is empty, otherwise the last step's post-state root.
func (a *Aggregator) currentStateRoot() [32]byte {
	if len(a.steps) == 0 {
		return a.initialRoot
	}
	return a.steps[len(a.steps)-1].StateC.StateRoot
}

// Append adds the next StepRecord to the log (spec §4.2 "append"). It fails
// with ErrOrderViolation if step.Index != current_count+1 or
// step.trans_c.pre != current_state_root.
func (a *Aggregator) Append(step commitment.StepRecord) error {
	if a.finalized {
		return ErrFinalized
	}
	wantIndex := uint64(len(a.steps)) + 1
	if step.Index != wantIndex {
		return errors.Wrapf(ErrOrderViolation, "want index %d, got %d", wantIndex, step.Index)
	}
	prevRoot := a.currentStateRoot()
	if err := step.ValidateChain(prevRoot); err != nil {
		return errors.Wrapf(ErrOrderViolation, "step %d: %s", step.Index, err)
	}

	lastPoint := a.prefixPoints[len(a.prefixPoints)-1]
	lastBlinder := a.prefixBlinders[len(a.prefixBlinders)-1]
	newPoint := group.Add(group.Add(lastPoint, step.StateC.Point), step.TransC.Point)
	newBlinder := lastBlinder.Add(step.StateC.Blinder).Add(step.TransC.Blinder)

	rec := step
	a.steps = append(a.steps, &rec)
	a.prefixPoints = append(a.prefixPoints, newPoint)
	a.prefixBlinders = append(a.prefixBlinders, newBlinder)
	return nil
}

// Finalize freezes the log and computes the AggregateCommitment, including
// building the auxiliary prefix-sum Merkle tree (spec §4.2 "finalize").
// Finalize is idempotent once the log is non-empty.
func (a *Aggregator) Finalize() (AggregateCommitment, error) {
	if a.finalized {
		return a.aggregate, nil
	}
	if len(a.steps) == 0 {
		return AggregateCommitment{}, ErrEmpty
	}
	tree, auxRoot, err := buildAuxTree(a.h, a.prefixPoints, a.prefixBlinders)
	if err != nil {
		return AggregateCommitment{}, errors.Wrap(err, "building aux tree")
	}
	a.tree = tree
	a.aggregate = AggregateCommitment{
		Point:       a.prefixPoints[len(a.prefixPoints)-1],
		BlinderSum:  a.prefixBlinders[len(a.prefixBlinders)-1],
		Count:       uint64(len(a.steps)),
		AuxRoot:     auxRoot,
		InitialRoot: a.initialRoot,
		FinalRoot:   a.steps[len(a.steps)-1].StateC.StateRoot,
	}
	a.finalized = true
	return a.aggregate, nil
}

// Open returns (P_i, R_i, path) for i in [0, n] (spec §4.2 "open"). Index 0
// is the sentinel P_0=0, R_0=0 and is returned with an empty path, per
// spec §4.3's "used directly without a Merkle opening" rule.
func (a *Aggregator) Open(i uint64) (Opening, error) {
	if !a.finalized {
		return Opening{}, ErrNotFinalized
	}
	if i > a.aggregate.Count {
		return Opening{}, errors.Wrapf(ErrIndexRange, "index %d, count %d", i, a.aggregate.Count)
	}
	if i == 0 {
		return Opening{Index: 0, Point: a.prefixPoints[0], Blinder: a.prefixBlinders[0], Path: nil}, nil
	}
	path, err := a.tree.proof(i)
	if err != nil {
		return Opening{}, errors.Wrapf(err, "generating proof for index %d", i)
	}
	return Opening{
		Index:   i,
		Point:   a.prefixPoints[i],
		Blinder: a.prefixBlinders[i],
		Path:    path,
	}, nil
}

// VerifyOpening performs constant-time path verification of an Opening
// against auxRoot (spec §4.2 "verify_opening"). Index 0 verifies trivially
// against the fixed sentinel values without consulting auxRoot.
func VerifyOpening(h hashfn.Hash, auxRoot [32]byte, o Opening) bool {
	if o.Index == 0 {
		return o.Point.IsIdentity() && o.Blinder.IsZero()
	}
	return verifyAuxProof(h, auxRoot, o.Index, o.Point, o.Blinder, o.Path)
}

// OptimisticVerify checks the published AggregateCommitment against a
// claimed final state, using plain commitment equality (spec §4.2, and the
// resolved Open Question in §9: NOT a pairing check).
func OptimisticVerify(g group.Group, agg AggregateCommitment, claimedFinalRoot [32]byte) (bool, error) {
	v, err := g.HashToField(group.DomainStateRoot, claimedFinalRoot[:])
	if err != nil {
		return false, err
	}
	if !group.VerifyOpen(g, agg.Point, v, agg.BlinderSum) {
		return false, nil
	}
	return agg.FinalRoot == claimedFinalRoot, nil
}

// EvictStepsBefore discards the raw StepRecord bodies for indices < before,
// freeing per-step witness data while retaining the prefix sums needed to
// continue serving Open for any still-live session (spec §3: "StepRecords
// need only be stored for sessions still live or within a challenge
// window; the Aggregator may evict older per-step data").
func (a *Aggregator) EvictStepsBefore(before uint64) {
	for i := uint64(1); i < before && i <= uint64(len(a.steps)); i++ {
		a.steps[i-1] = nil
	}
}

// StepAt returns the StepRecord at index i (1-based), or an error if it has
// been evicted or is out of range.
func (a *Aggregator) StepAt(i uint64) (commitment.StepRecord, error) {
	if i == 0 || i > uint64(len(a.steps)) {
		return commitment.StepRecord{}, errors.Wrapf(ErrIndexRange, "index %d", i)
	}
	rec := a.steps[i-1]
	if rec == nil {
		return commitment.StepRecord{}, errors.Errorf("aggregator: step %d has been evicted", i)
	}
	return *rec, nil
}
