// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package models

// The ten behavioral values scored per quarter. The set is closed; the
// value engine always emits a score for every name.
const (
	ValuePower         = "Power"
	ValueAchievement   = "Achievement"
	ValueHedonism      = "Hedonism"
	ValueStimulation   = "Stimulation"
	ValueSelfDirection = "Self-Direction"
	ValueBenevolence   = "Benevolence"
	ValueTradition     = "Tradition"
	ValueConformity    = "Conformity"
	ValueSecurity      = "Security"
	ValueUniversalism  = "Universalism"
)

// ValueNames lists the ten values in lexicographic order, which is also
// the deterministic tie-break order for rankings.
var ValueNames = []string{
	ValueAchievement,
	ValueBenevolence,
	ValueConformity,
	ValueHedonism,
	ValuePower,
	ValueSecurity,
	ValueSelfDirection,
	ValueStimulation,
	ValueTradition,
	ValueUniversalism,
}

// RankedValue is one entry of a ranked value list.
type RankedValue struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// ValueProfile is the normalized behavioral-score vector of one
// quarter: the full ten-value map plus the ranked top three. Derived
// deterministically from a QuarterDataset and never mutated.
type ValueProfile struct {
	Scores map[string]float64 `json:"scores"`
	Top    []RankedValue      `json:"top"`
	Games  int                `json:"games"`

	// InsufficientData flags an empty quarter: all scores are zero and
	// downstream consumers fall back to defaults instead of ranking.
	InsufficientData bool `json:"insufficient_data"`
}
