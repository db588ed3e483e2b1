package dispute

import "github.com/wienerlabs/archimedes/clock"

// Driver wraps a Session with a poll-act loop against an injected
// clock.Clock. The engine itself (Session) stays a synchronous state
// transformer per §9; Driver only automates calling Tick so a
// transport-level caller doesn't have to track deadlines by hand.
type Driver struct {
	session      *Session
	clock        clock.Clock
	pollInterval uint64
}

// NewDriver wraps session, polling its deadline via clock no more often
// than every pollInterval clock units.
func NewDriver(session *Session, c clock.Clock, pollInterval uint64) *Driver {
	if pollInterval == 0 {
		pollInterval = 1
	}
	return &Driver{session: session, clock: c, pollInterval: pollInterval}
}

// Poll checks the session's current deadline against the clock once,
// producing a timeout outcome if one is due. It is a no-op once the
// session is already terminal.
func (d *Driver) Poll() (Outcome, error) {
	if d.session.State().Terminal() {
		outcome, _ := d.session.Outcome()
		return outcome, nil
	}
	return d.session.Tick(d.clock.Now())
}

// Run polls until the session reaches a terminal state, calling sleep
// between polls. sleep is injected so tests can drive the loop without
// real wall-clock delay (spec §9: "the asynchrony belongs to the
// transport, not the core" — Run is transport-side convenience, not core
// logic).
func (d *Driver) Run(sleep func(intervalSeconds uint64)) (Outcome, error) {
	for {
		outcome, err := d.Poll()
		if err != nil {
			return Outcome{}, err
		}
		if d.session.State().Terminal() {
			return outcome, nil
		}
		sleep(d.pollInterval)
	}
}
