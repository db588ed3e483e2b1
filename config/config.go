// Package config loads the tunable protocol parameters scattered across
// the Dispute engine, Incentive layer, and Availability layer into one
// place, using a struct-tag convention (koanf:"...") for nested,
// dot-separated parameter paths.
package config

import (
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/pkg/errors"

	"github.com/wienerlabs/archimedes/dispute"
	"github.com/wienerlabs/archimedes/incentive"
)

// Config holds every tunable named in spec §4.3/§4.4/§4.5.
type Config struct {
	// PerRoundDeadline is the Dispute engine's per-round timeout, in
	// whatever unit the injected clock.Clock counts (spec §4.3: "default
	// per-round deadline is 24h, configurable").
	PerRoundDeadline uint64 `koanf:"dispute.per_round_deadline_seconds"`

	// StakeMultiplier, BaseBond, Alpha, X, Beta are the Incentive layer's
	// economic parameters (spec §4.4).
	StakeMultiplier uint64  `koanf:"incentive.stake_multiplier"`
	BaseBond        uint64  `koanf:"incentive.base_bond"`
	Alpha           float64 `koanf:"incentive.alpha"`
	X               float64 `koanf:"incentive.x"`
	Beta            float64 `koanf:"incentive.beta"`

	// SampleCount is s, the number of chunk indices a verifier samples
	// (spec §4.5, §8 scenario 6: "s = 30 yields < 2⁻³⁰ for k/N = 1/2").
	SampleCount int `koanf:"availability.sample_count"`

	// RedundancyNum/RedundancyDen fix N/k for the erasure code: N =
	// k * RedundancyNum / RedundancyDen (spec §4.5).
	RedundancyNum int `koanf:"availability.redundancy_num"`
	RedundancyDen int `koanf:"availability.redundancy_den"`
}

// Default returns the literal defaults named in spec §4.4/§4.5.
func Default() Config {
	ic := incentive.DefaultConfig()
	return Config{
		PerRoundDeadline: dispute.DefaultPerRoundDeadline,
		StakeMultiplier:  ic.StakeMultiplier,
		BaseBond:         ic.BaseBond,
		Alpha:            ic.Alpha,
		X:                ic.X,
		Beta:             ic.Beta,
		SampleCount:      30,
		RedundancyNum:    2,
		RedundancyDen:    1,
	}
}

// IncentiveConfig projects the economic fields into an incentive.Config.
func (c Config) IncentiveConfig() incentive.Config {
	return incentive.Config{
		StakeMultiplier: c.StakeMultiplier,
		BaseBond:        c.BaseBond,
		Alpha:           c.Alpha,
		X:               c.X,
		Beta:            c.Beta,
	}
}

// Validate rejects parameter combinations that would make a session
// meaningless rather than merely unusual.
func (c Config) Validate() error {
	if c.SampleCount < 1 {
		return errors.New("config: availability.sample_count must be >= 1")
	}
	if c.RedundancyDen < 1 || c.RedundancyNum < c.RedundancyDen {
		return errors.New("config: availability.redundancy_num/redundancy_den must describe N >= k")
	}
	if c.X < 0 || c.X > 1 {
		return errors.New("config: incentive.x must be in [0, 1]")
	}
	if c.Beta < 0 || c.Beta > 1 {
		return errors.New("config: incentive.beta must be in [0, 1]")
	}
	if c.PerRoundDeadline == 0 {
		return errors.New("config: dispute.per_round_deadline_seconds must be > 0")
	}
	return nil
}

// envKey maps an ARCHIMEDES_-prefixed environment variable name to the
// dotted path used by the koanf struct tags above, e.g.
// ARCHIMEDES_INCENTIVE_BASE_BOND -> incentive.base_bond. Only the first
// underscore after the prefix separates the component from the field name;
// any remaining underscores belong to the field name itself and must
// survive, e.g. ARCHIMEDES_DISPUTE_PER_ROUND_DEADLINE_SECONDS ->
// dispute.per_round_deadline_seconds.
func envKey(s string) string {
	rest := strings.ToLower(strings.TrimPrefix(s, "ARCHIMEDES_"))
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return rest
	}
	return parts[0] + "." + parts[1]
}

// Load builds Default() and applies any ARCHIMEDES_-prefixed environment
// variable overrides on top (e.g. ARCHIMEDES_INCENTIVE_BASE_BOND=2000),
// then validates the result.
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, errors.Wrap(err, "loading defaults")
	}
	if err := k.Load(env.Provider("ARCHIMEDES_", ".", envKey), nil); err != nil {
		return Config{}, errors.Wrap(err, "loading environment overrides")
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshalling config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
