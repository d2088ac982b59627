// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package themes selects the narrative region of a quarter from its
// value profile. Selection is pure and deterministic so reprocessing a
// quarter always picks the same region.
package themes

import (
	"github.com/rewindlab/riftrewind/internal/models"
	"github.com/rewindlab/riftrewind/internal/values"
)

// DefaultRegion is used whenever a quarter has insufficient data to
// rank values.
const DefaultRegion = "Runeterra"

// RegionArcMap is the fixed 1:1 mapping from value name to region.
var RegionArcMap = map[string]string{
	models.ValuePower:         "Noxus",
	models.ValueAchievement:   "Piltover",
	models.ValueHedonism:      "Bilgewater",
	models.ValueStimulation:   "Zaun",
	models.ValueSelfDirection: "Ionia",
	models.ValueBenevolence:   "Demacia",
	models.ValueTradition:     "Freljord",
	models.ValueConformity:    "Targon",
	models.ValueSecurity:      "Shurima",
	models.ValueUniversalism:  "Runeterra",
}

// Select picks the driving value and region for a quarter.
//
// The rule is fixed per quarter index:
//
//	Q1: highest-ranked value (starting point)
//	Q2: largest positive delta versus the prior quarter (growth)
//	Q3: largest negative delta versus the prior quarter (challenge)
//	Q4: highest-ranked value (resolution)
//
// prev is the immediately preceding quarter's profile; it is only
// consulted for Q2 and Q3. When no qualifying delta exists, or prev is
// missing or empty, the current top value is used instead. Ties are
// broken by value name, lexicographic.
func Select(quarter int, current models.ValueProfile, prev *models.ValueProfile) (value, region string) {
	if current.InsufficientData {
		return "", DefaultRegion
	}

	switch quarter {
	case 2:
		value = largestDelta(current, prev, true)
	case 3:
		value = largestDelta(current, prev, false)
	}
	if value == "" {
		value = topValue(current)
	}

	region, ok := RegionArcMap[value]
	if !ok {
		region = DefaultRegion
	}
	return value, region
}

// topValue returns the highest-ranked value of a profile.
func topValue(p models.ValueProfile) string {
	if len(p.Top) > 0 {
		return p.Top[0].Name
	}
	ranked := values.Rank(p.Scores)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].Name
}

// largestDelta returns the value whose score moved the most versus the
// prior quarter: the largest strictly positive delta when positive is
// set, otherwise the largest strictly negative one. Returns "" when no
// delta qualifies.
func largestDelta(current models.ValueProfile, prev *models.ValueProfile, positive bool) string {
	if prev == nil || prev.InsufficientData {
		return ""
	}

	best := ""
	var bestDelta float64
	for _, name := range models.ValueNames {
		delta := current.Scores[name] - prev.Scores[name]
		if positive && delta <= 0 {
			continue
		}
		if !positive && delta >= 0 {
			continue
		}
		better := false
		switch {
		case best == "":
			better = true
		case positive && delta > bestDelta:
			better = true
		case !positive && delta < bestDelta:
			better = true
		case delta == bestDelta && name < best:
			better = true
		}
		if better {
			best = name
			bestDelta = delta
		}
	}
	return best
}
