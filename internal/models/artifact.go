// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package models

// QuarterStats is the aggregate performance block of one quarter.
type QuarterStats struct {
	Games               int     `json:"games"`
	KDAProxy            float64 `json:"kda_proxy"`
	CSPerMin            float64 `json:"cs_per_min"`
	GoldPerMin          float64 `json:"gold_per_min"`
	VisionScorePerMin   float64 `json:"vision_score_per_min"`
	KillParticipation   float64 `json:"kill_participation"`
	PrimaryRole         string  `json:"primary_role"`
	ObjDamagePerMin     float64 `json:"obj_damage_per_min"`
	ControlWardsPerGame float64 `json:"control_wards_per_game"`
	Wins                int     `json:"wins"`
}

// QuarterArtifact is the immutable output of processing one quarter,
// addressed by (jobID, quarter).
type QuarterArtifact struct {
	JobID     string       `json:"job_id"`
	Quarter   string       `json:"quarter"`
	DateRange string       `json:"date_range"`
	Stats     QuarterStats `json:"stats"`
	Profile   ValueProfile `json:"profile"`

	// Region is the theme label selected from the profile; it keys the
	// narrative generator's setting for the quarter.
	Region     string `json:"region"`
	Lore       string `json:"lore"`
	Reflection string `json:"reflection"`

	// NarrativeDegraded is set when the generator failed and the
	// deterministic fallback text was substituted.
	NarrativeDegraded bool `json:"narrative_degraded,omitempty"`

	// ChampionGames counts games per champion within the quarter.
	ChampionGames map[string]int `json:"champion_games"`
}
