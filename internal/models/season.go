// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package models

// TrendDirection classifies a metric's movement across the season.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// MetricTrend describes one metric's movement from the first to the
// last available quarter.
type MetricTrend struct {
	Values      []float64      `json:"values"`
	Direction   TrendDirection `json:"direction"`
	ChangePct   float64        `json:"change_pct"`
	BestQuarter string         `json:"best_quarter"`
}

// BestGame identifies the record that maximized one highlight metric.
type BestGame struct {
	MatchID  string  `json:"match_id"`
	Quarter  string  `json:"quarter"`
	Champion string  `json:"champion"`
	Value    float64 `json:"value"`
}

// Highlights collects the season's best moments: max-by scans over all
// records plus a few whole-season counters.
type Highlights struct {
	BestKDAGame    *BestGame `json:"best_kda_game,omitempty"`
	MostKillsGame  *BestGame `json:"most_kills_game,omitempty"`
	MostDamageGame *BestGame `json:"most_damage_game,omitempty"`
	HighestCSGame  *BestGame `json:"highest_cs_game,omitempty"`
	PerfectGames   []string  `json:"perfect_games"`
	FirstBloods    int       `json:"first_bloods"`
	EpicSteals     int       `json:"epic_steals"`
	FountainKills  int       `json:"fountain_kills"`
}

// ChampionUsage is one champion's share of the season.
type ChampionUsage struct {
	Name  string `json:"name"`
	Games int    `json:"games"`
}

// ChampionPool analyzes the variety of champions played.
type ChampionPool struct {
	UniqueChampions int             `json:"unique_champions"`
	MostPlayed      []ChampionUsage `json:"most_played"`

	// OneTricks lists champions played in at least the one-trick share
	// of all season games.
	OneTricks []ChampionUsage `json:"one_tricks"`

	// DiversityScore is the Shannon entropy of the champion frequency
	// distribution normalized to [0, 1] by the maximum entropy log(N).
	DiversityScore float64 `json:"diversity_score"`
}

// ComebackGame is a game won despite an early resource deficit.
type ComebackGame struct {
	MatchID      string  `json:"match_id"`
	Quarter      string  `json:"quarter"`
	Champion     string  `json:"champion"`
	EarlyDeficit float64 `json:"early_deficit"`
}

// Comebacks summarizes deficit-to-victory games across the season.
type Comebacks struct {
	Count int            `json:"count"`
	Games []ComebackGame `json:"games"`

	// ResilienceScore is the comeback share of all games, in percent.
	ResilienceScore float64 `json:"resilience_score"`
}

// InsightPriority tags an insight's urgency.
type InsightPriority string

const (
	PriorityHigh     InsightPriority = "high"
	PriorityMedium   InsightPriority = "medium"
	PriorityLow      InsightPriority = "low"
	PriorityPositive InsightPriority = "positive"
	PriorityInfo     InsightPriority = "info"
)

// Insight is one rule-template finding with a recommended action.
type Insight struct {
	Category string          `json:"category"`
	Priority InsightPriority `json:"priority"`
	Insight  string          `json:"insight"`
	Action   string          `json:"action"`
}

// YearTotals aggregates season-wide counters for the summary header.
type YearTotals struct {
	TotalGames         int     `json:"total_games"`
	AvgKDA             float64 `json:"avg_kda"`
	AvgCSPerMin        float64 `json:"avg_cs_per_min"`
	AvgVisionPerMin    float64 `json:"avg_vision_per_min"`
	MostPlayedChampion string  `json:"most_played_champion"`
	BestQuarter        string  `json:"best_quarter"`
	OverallTrend       string  `json:"overall_trend"`
}

// SeasonSummary is the finale document derived from the available
// quarter artifacts. It is persisted once, keyed (jobID, "finale"),
// and is produced even when some quarters failed; those are listed in
// IncompleteQuarters.
type SeasonSummary struct {
	JobID      string                 `json:"job_id"`
	Trends     map[string]MetricTrend `json:"trends"`
	Highlights Highlights             `json:"highlights"`
	Pool       ChampionPool           `json:"champion_pool"`
	Comebacks  Comebacks              `json:"comebacks"`
	Insights   []Insight              `json:"insights"`
	Totals     YearTotals             `json:"totals"`

	Lore              string   `json:"lore"`
	Reflections       []string `json:"reflections"`
	NarrativeDegraded bool     `json:"narrative_degraded,omitempty"`

	IncompleteQuarters []string `json:"incomplete_quarters"`
}
