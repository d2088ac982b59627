// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package season

import (
	"fmt"
	"sort"

	"github.com/rewindlab/riftrewind/internal/models"
)

var priorityRank = map[models.InsightPriority]int{
	models.PriorityHigh:     0,
	models.PriorityMedium:   1,
	models.PriorityLow:      2,
	models.PriorityPositive: 3,
	models.PriorityInfo:     4,
}

var roleTips = map[string]string{
	"TOP":     "Top lane rewards wave management. Track the enemy jungler before committing to trades.",
	"JUNGLE":  "Jungle impact comes from pathing. Plan your first three clears around lane states.",
	"MIDDLE":  "Mid controls the map. Shove and roam when your wave is pushed.",
	"BOTTOM":  "Bot lane is a farming race until first objective. Keep CS up and position behind your support.",
	"UTILITY": "Support wins through vision. Sweep before objectives spawn and keep control wards down.",
}

// BuildInsights evaluates the coaching rule templates against the
// season aggregates and returns the findings ordered by priority.
func BuildInsights(totals models.YearTotals, trends map[string]models.MetricTrend, pool models.ChampionPool, comebacks models.Comebacks, primaryRole string) []models.Insight {
	var out []models.Insight
	add := func(category string, priority models.InsightPriority, insight, action string) {
		out = append(out, models.Insight{Category: category, Priority: priority, Insight: insight, Action: action})
	}

	if totals.TotalGames == 0 {
		return []models.Insight{}
	}

	switch {
	case totals.AvgKDA < 2.0:
		add("Combat", models.PriorityHigh,
			fmt.Sprintf("Your season KDA of %.1f suggests too many unrewarded deaths.", totals.AvgKDA),
			"Review your deaths: which were dives, which were picks, which were map awareness.")
	case totals.AvgKDA > 4.0:
		add("Combat", models.PriorityPositive,
			fmt.Sprintf("A season KDA of %.1f puts your fight selection well above par.", totals.AvgKDA),
			"Keep converting your leads into objectives, not just kills.")
	}

	switch {
	case totals.AvgCSPerMin < 5.0:
		add("Farming", models.PriorityHigh,
			fmt.Sprintf("Averaging %.1f CS per minute leaves a lot of gold on the map.", totals.AvgCSPerMin),
			"Run ten minutes of practice-tool farming without items before your sessions.")
	case totals.AvgCSPerMin > 7.5:
		add("Farming", models.PriorityPositive,
			fmt.Sprintf("%.1f CS per minute is excellent income discipline.", totals.AvgCSPerMin),
			"Use that gold lead to force plays before the enemy scales.")
	}

	if totals.AvgVisionPerMin < 1.0 {
		add("Vision", models.PriorityMedium,
			fmt.Sprintf("Vision score of %.2f per minute means you are often playing in the dark.", totals.AvgVisionPerMin),
			"Buy a control ward on every recall and place it before the next objective.")
	}

	for metric, t := range trends {
		switch t.Direction {
		case models.TrendImproving:
			add("Progress", models.PriorityPositive,
				fmt.Sprintf("Your %s improved %.0f%% across the season.", metric, t.ChangePct),
				"Whatever you changed, keep doing it.")
		case models.TrendDeclining:
			add("Progress", models.PriorityMedium,
				fmt.Sprintf("Your %s declined %.0f%% across the season.", metric, -t.ChangePct),
				fmt.Sprintf("Compare your recent games against %s, your best quarter for this metric.", t.BestQuarter))
		}
	}

	switch {
	case pool.UniqueChampions > 0 && pool.UniqueChampions < 3:
		add("Champion Pool", models.PriorityLow,
			fmt.Sprintf("You played only %d champions all season.", pool.UniqueChampions),
			"A narrow pool is fine for climbing, but keep one backup pick per role.")
	case pool.UniqueChampions > 20:
		add("Champion Pool", models.PriorityMedium,
			fmt.Sprintf("You spread your season across %d champions.", pool.UniqueChampions),
			"Consider narrowing to a core pool of three to five for more consistent results.")
	}
	if len(pool.MostPlayed) > 0 {
		mp := pool.MostPlayed[0]
		add("Champion Pool", models.PriorityInfo,
			fmt.Sprintf("%s was your season companion with %d games.", mp.Name, mp.Games),
			"Mastery curves reward depth. Your most-played pick is your safest ban bait.")
	}

	if comebacks.Count > 0 {
		add("Mentality", models.PriorityPositive,
			fmt.Sprintf("You won %d games from a significant early deficit (resilience %.0f%%).", comebacks.Count, comebacks.ResilienceScore),
			"You already know losing lane is not losing the game. Share that calm in draft.")
	}

	if tip, ok := roleTips[primaryRole]; ok {
		add("Role", models.PriorityInfo,
			fmt.Sprintf("You spent most of the season in the %s position.", primaryRole), tip)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank[out[i].Priority] < priorityRank[out[j].Priority]
	})
	return out
}
