// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package models

import "time"

// MatchRecord is the normalized per-game participant row for the
// requesting player, flattened from the upstream match document. Only
// the fields consumed by the value engine, quarter stats, and finale
// analytics survive normalization.
type MatchRecord struct {
	MatchID     string    `json:"match_id"`
	GameStart   time.Time `json:"game_start"`
	DurationSec float64   `json:"duration_sec"`

	Champion   string `json:"champion"`
	ChampionID int    `json:"champion_id"`
	Lane       string `json:"lane"`
	Role       string `json:"role"`
	Win        bool   `json:"win"`

	Kills     int `json:"kills"`
	Deaths    int `json:"deaths"`
	Assists   int `json:"assists"`
	SoloKills int `json:"solo_kills"`

	Takedowns      float64 `json:"takedowns"`
	KillingSprees  float64 `json:"killing_sprees"`
	FirstBloodKill bool    `json:"first_blood_kill"`
	PerfectGame    bool    `json:"perfect_game"`

	GoldEarned float64 `json:"gold_earned"`
	GoldSpent  float64 `json:"gold_spent"`
	BountyGold float64 `json:"bounty_gold"`

	TotalCS            float64 `json:"total_cs"`
	LaneMinionsFirst10 float64 `json:"lane_minions_first_10"`

	MagicDamageToChampions    float64 `json:"magic_damage_to_champions"`
	PhysicalDamageToChampions float64 `json:"physical_damage_to_champions"`
	TotalDamageToChampions    float64 `json:"total_damage_to_champions"`
	DamageToObjectives        float64 `json:"damage_to_objectives"`
	DamageSelfMitigated       float64 `json:"damage_self_mitigated"`
	TeamDamageShare           float64 `json:"team_damage_share"`

	KDA               float64 `json:"kda"`
	KillParticipation float64 `json:"kill_participation"`

	VisionScorePerMinute float64 `json:"vision_score_per_minute"`
	WardTakedowns        float64 `json:"ward_takedowns"`
	WardsGuarded         float64 `json:"wards_guarded"`
	StealthWardsPlaced   float64 `json:"stealth_wards_placed"`
	ControlWardsPlaced   float64 `json:"control_wards_placed"`

	KillsUnderOwnTurret       float64 `json:"kills_under_own_turret"`
	KillsNearEnemyTurret      float64 `json:"kills_near_enemy_turret"`
	TakedownsInEnemyFountain  float64 `json:"takedowns_in_enemy_fountain"`
	TwentyMinionsIn3Seconds   float64 `json:"twenty_minions_in_3_seconds"`
	BlastConeOpposite         float64 `json:"blast_cone_opposite"`
	EpicMonsterSteals         float64 `json:"epic_monster_steals"`
	KnockIntoTeamAndKill      float64 `json:"knock_into_team_and_kill"`
	ImmobilizeAndKillWithAlly float64 `json:"immobilize_and_kill_with_ally"`

	LongestTimeSpentLiving float64 `json:"longest_time_spent_living"`
	EarlyGoldExpAdvantage  float64 `json:"early_gold_exp_advantage"`
}

// Minutes returns the game length in minutes, clamped to at least 1 so
// per-minute rates never divide by zero.
func (r *MatchRecord) Minutes() float64 {
	m := r.DurationSec / 60.0
	if m < 1.0 {
		return 1.0
	}
	return m
}

// GoldPerMin is gold earned per minute of game time.
func (r *MatchRecord) GoldPerMin() float64 { return r.GoldEarned / r.Minutes() }

// GoldSpentPerMin is gold spent per minute of game time.
func (r *MatchRecord) GoldSpentPerMin() float64 { return r.GoldSpent / r.Minutes() }

// CSPerMin is creep score per minute of game time.
func (r *MatchRecord) CSPerMin() float64 { return r.TotalCS / r.Minutes() }

// CSPerMinPre10 is creep score per minute over the first ten minutes.
func (r *MatchRecord) CSPerMinPre10() float64 { return r.LaneMinionsFirst10 / 10.0 }

// QuarterDataset is the raw per-quarter collection of match records for
// one job. Written once by the fetch stage with deterministic content,
// so an at-least-once redelivery overwrites it with identical bytes.
type QuarterDataset struct {
	JobID   string        `json:"job_id"`
	Quarter string        `json:"quarter"`
	Window  QuarterWindow `json:"window"`
	Records []MatchRecord `json:"records"`
}
