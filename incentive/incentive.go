// Package incentive implements the Incentive layer (spec §4.4): a pure
// accounting state machine over balances keyed by participant identity,
// closing every dispute terminal with a stake/bond transfer. It never
// reads wall-clock time directly; every operation that cares about
// deadlines takes an explicit `now` from the injected clock.Clock (spec
// §4.4: "the layer never needs real wall-clock").
package incentive

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wienerlabs/archimedes/dispute"
)

var log = logrus.WithField("component", "incentive")

// Config holds the tunable economic parameters of spec §4.4, with the
// spec's own stated defaults.
type Config struct {
	// StakeMultiplier scales stake_hold with the number of steps in the
	// published aggregate: stake_hold = StakeMultiplier * count.
	StakeMultiplier uint64
	// BaseBond is the bond for a single-step challenge range.
	BaseBond uint64
	// Alpha scales the bond with range size: bond = BaseBond * (1 + Alpha *
	// log2(range_size)).
	Alpha float64
	// X is the proposer's share of a forfeited challenge bond on
	// SLASH_CHALLENGER (default 0.5 per spec §4.4).
	X float64
	// Beta is the challenger's share of stake_hold on SLASH_PROPOSER
	// (default 0.8 per spec §4.4).
	Beta float64
}

// DefaultConfig returns the stated defaults of §4.4 ("x = 50%", "β
// default 0.8").
func DefaultConfig() Config {
	return Config{
		StakeMultiplier: 1,
		BaseBond:        1000,
		Alpha:           1.0,
		X:               0.5,
		Beta:            0.8,
	}
}

// Errors returned by Ledger operations.
var (
	ErrInsufficientBalance = errors.New("incentive: insufficient balance")
	ErrNoStakeHold         = errors.New("incentive: no stake_hold recorded for this session")
	ErrNoBondHold          = errors.New("incentive: no bond recorded for this session")
	ErrAlreadySettled      = errors.New("incentive: session has already been settled")
)

// hold is one session's locked stake and bond, pending a terminal outcome.
type hold struct {
	proposer, challenger string
	stake, bond          uint64
	settled              bool
}

// Ledger tracks free balances plus per-session locked stake/bond, and
// applies the payout rules of spec §4.4 once a dispute.Outcome arrives.
// Unlike the Aggregator or a Session, a Ledger is genuinely shared mutable
// state across concurrently running sessions (spec §5's "only shared
// resource" carve-out is the AggregateCommitment; balances are not
// read-only), so it serializes access with a mutex.
type Ledger struct {
	mu sync.Mutex

	cfg Config

	balances map[string]uint64
	holds    map[[16]byte]*hold
	treasury uint64
}

// NewLedger constructs an empty Ledger under cfg.
func NewLedger(cfg Config) *Ledger {
	return &Ledger{
		cfg:      cfg,
		balances: make(map[string]uint64),
		holds:    make(map[[16]byte]*hold),
	}
}

// Credit adds amount to participant's free balance (e.g. initial funding
// in a test, or a payout target not modeled by a hold).
func (l *Ledger) Credit(participant string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[participant] += amount
}

// Balance returns participant's current free balance.
func (l *Ledger) Balance(participant string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[participant]
}

// Treasury returns the cumulative amount routed to the treasury/burn sink.
func (l *Ledger) Treasury() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.treasury
}

func (l *Ledger) debit(participant string, amount uint64) error {
	if l.balances[participant] < amount {
		return errors.Wrapf(ErrInsufficientBalance, "%s has %d, needs %d", participant, l.balances[participant], amount)
	}
	l.balances[participant] -= amount
	return nil
}

// StakeForCount returns the stake_hold locked when an aggregate of this
// many steps is published (spec §4.4: "locked at publish(agg) proportional
// to count and a per-protocol multiplier").
func (l *Ledger) StakeForCount(count uint64) uint64 {
	return l.cfg.StakeMultiplier * count
}

// BondForRange returns the bond required to challenge a range of this size
// (spec §4.4: "scale = base_bond * (1 + alpha * log2(range_size))").
func (l *Ledger) BondForRange(rangeSize uint64) uint64 {
	if rangeSize < 1 {
		rangeSize = 1
	}
	mult := 1.0 + l.cfg.Alpha*math.Log2(float64(rangeSize))
	return uint64(math.Ceil(float64(l.cfg.BaseBond) * mult))
}

// Publish locks stake_hold for proposer against sessionID, debiting their
// free balance.
func (l *Ledger) Publish(sessionID [16]byte, proposer string, count uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stake := l.StakeForCount(count)
	if err := l.debit(proposer, stake); err != nil {
		return err
	}
	l.holds[sessionID] = &hold{proposer: proposer, stake: stake}
	log.WithFields(logrus.Fields{"session": sessionID, "proposer": proposer, "stake": stake}).Info("stake locked")
	return nil
}

// Challenge locks a bond for challenger against sessionID, sized to
// rangeSize, debiting their free balance.
func (l *Ledger) Challenge(sessionID [16]byte, challenger string, rangeSize uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holds[sessionID]
	if !ok {
		return 0, ErrNoStakeHold
	}
	if h.settled {
		return 0, ErrAlreadySettled
	}
	bond := l.BondForRange(rangeSize)
	if err := l.debit(challenger, bond); err != nil {
		return 0, err
	}
	h.challenger = challenger
	h.bond = bond
	log.WithFields(logrus.Fields{"session": sessionID, "challenger": challenger, "bond": bond}).Info("bond locked")
	return bond, nil
}

// ReleaseStake returns a proposer's stake_hold in full, for a session whose
// challenge window closed with no challenge ever raised (spec §4.4:
// "released at the end of the challenge window if no challenge succeeds").
func (l *Ledger) ReleaseStake(sessionID [16]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holds[sessionID]
	if !ok {
		return ErrNoStakeHold
	}
	if h.settled {
		return ErrAlreadySettled
	}
	l.balances[h.proposer] += h.stake
	h.settled = true
	return nil
}

// Settle applies the §4.4 payout rules for outcome against the
// session's locked stake and bond. It is idempotent-safe: a second call
// for an already-settled session returns ErrAlreadySettled rather than
// double-paying.
func (l *Ledger) Settle(sessionID [16]byte, outcome dispute.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holds[sessionID]
	if !ok {
		return ErrNoStakeHold
	}
	if h.settled {
		return ErrAlreadySettled
	}
	h.settled = true

	switch outcome.State {
	case dispute.StateAccept:
		// No real challenge occurred; proposer keeps stake.
		l.balances[h.proposer] += h.stake

	case dispute.StateSlashChallenger:
		// Symmetric to ACCEPT: proposer keeps stake, challenger forfeits
		// bond, split x / (1-x) between proposer and treasury.
		l.balances[h.proposer] += h.stake
		l.splitForfeitedBond(h)

	case dispute.StateSlashProposer:
		// Challenger recovers their bond plus a β share of stake_hold;
		// the remainder of stake_hold goes to the treasury.
		l.balances[h.challenger] += h.bond
		challengerShare := uint64(math.Floor(l.cfg.Beta * float64(h.stake)))
		l.balances[h.challenger] += challengerShare
		l.treasury += h.stake - challengerShare

	case dispute.StateAborted:
		// Cancellation is incentive-neutral: bonds refunded, stake
		// retained by the proposer (spec §5 "Cancellation").
		l.balances[h.proposer] += h.stake
		if h.challenger != "" {
			l.balances[h.challenger] += h.bond
		}

	default:
		h.settled = false
		return errors.Errorf("incentive: cannot settle non-terminal state %s", outcome.State)
	}

	log.WithFields(logrus.Fields{
		"session": sessionID, "state": outcome.State, "reason": outcome.Reason,
	}).Info("session settled")
	return nil
}

// splitForfeitedBond routes a challenger's forfeited bond x% to the
// proposer as defense compensation and (1-x)% to the treasury (spec §4.4).
func (l *Ledger) splitForfeitedBond(h *hold) {
	proposerShare := uint64(math.Floor(l.cfg.X * float64(h.bond)))
	l.balances[h.proposer] += proposerShare
	l.treasury += h.bond - proposerShare
}
