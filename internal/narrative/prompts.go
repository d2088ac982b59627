// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package narrative

import (
	"fmt"
	"strings"

	"github.com/rewindlab/riftrewind/internal/models"
)

// QuarterRequest carries everything the quarter prompts need.
type QuarterRequest struct {
	Quarter   string
	Region    string
	TopValues []models.RankedValue
	Stats     models.QuarterStats

	// PreviousLore carries the prior chapter for story continuity.
	// Empty for the first quarter.
	PreviousLore string
}

// Chapter summarizes one completed quarter for the finale prompts.
type Chapter struct {
	Quarter   string
	Region    string
	Lore      string
	TopValues []string
	Stats     models.QuarterStats
}

// FinaleRequest carries everything the finale prompts need.
type FinaleRequest struct {
	PlayerName string
	TotalGames int
	Chapters   []Chapter
}

// loreExcerptLen bounds how much of a prior chapter is quoted in the
// finale prompt.
const loreExcerptLen = 150

func buildQuarterLorePrompt(req *QuarterRequest) string {
	var values []string
	for _, v := range req.TopValues {
		values = append(values, fmt.Sprintf("%s (%.2f)", v.Name, v.Score))
	}

	continuity := "This is the beginning of the summoner's journey."
	direction := "Begins the journey in " + req.Region
	if req.PreviousLore != "" {
		continuity = fmt.Sprintf(`Previous Chapter Summary: %s

IMPORTANT: Continue the story from the previous chapter. Reference the previous journey and show progression to the new region.`, req.PreviousLore)
		direction = "Continues from the previous chapter and shows the transition to " + req.Region
	}

	return fmt.Sprintf(`You are a storytelling bard in the world of League of Legends, narrating a summoner's journey through Runeterra.

%s

Current Quarter: %s
Current Region: %s
Top Playstyle Values: %s
Stats: %d games, %.2f KDA, %.2f vision/min

Write a brief, atmospheric lore paragraph (2-3 sentences) that:
- %s
- Connects the summoner's actions to the %s region of Runeterra
- Reflects their playstyle values in a narrative way
- Uses League of Legends lore and atmosphere
- Feels like a continuous story, not isolated chapters

Keep it under 100 words.`,
		continuity, req.Quarter, req.Region, strings.Join(values, ", "),
		req.Stats.Games, req.Stats.KDAProxy, req.Stats.VisionScorePerMin,
		direction, req.Region)
}

func buildQuarterReflectionPrompt(req *QuarterRequest) string {
	s := &req.Stats

	roleLabel := s.PrimaryRole
	roleStats := fmt.Sprintf("CS/min: %.2f", s.CSPerMin)
	focus := "Focus on improving fundamentals and role-specific mechanics."
	switch s.PrimaryRole {
	case "UTILITY":
		roleLabel = "SUPPORT"
		roleStats = fmt.Sprintf("Control Wards/game: %.1f\nCS/min: %.2f (low CS is normal for supports)", s.ControlWardsPerGame, s.CSPerMin)
		focus = "Focus on vision control, roaming timing, engage/disengage mechanics, and peel for carries."
	case "JUNGLE":
		roleStats = fmt.Sprintf("Objective Damage/min: %.0f\nCS/min: %.2f (includes jungle camps)", s.ObjDamagePerMin, s.CSPerMin)
		focus = "Focus on clear speed, gank timing, objective control, and jungle tracking."
	case "TOP":
		roleStats = fmt.Sprintf("CS/min: %.2f\nObjective Damage/min: %.0f", s.CSPerMin, s.ObjDamagePerMin)
		focus = "Focus on wave management, split pushing, TP usage, and teamfight positioning."
	case "MIDDLE":
		roleLabel = "MID"
		roleStats = fmt.Sprintf("CS/min: %.2f\nObjective Damage/min: %.0f", s.CSPerMin, s.ObjDamagePerMin)
		focus = "Focus on roaming, wave priority, jungle coordination, and teamfight impact."
	case "BOTTOM":
		roleLabel = "ADC"
		roleStats = fmt.Sprintf("CS/min: %.2f\nObjective Damage/min: %.0f", s.CSPerMin, s.ObjDamagePerMin)
		focus = "Focus on CS, positioning, objective damage, and teamfight output."
	}

	return fmt.Sprintf(`You are a League of Legends coach analyzing a player's performance.

Quarter: %s

Role: %s

Performance Stats:
Games: %d
KDA: %.2f
Kill Participation: %.1f%%
Vision/min: %.2f
Gold/min: %.0f
%s

%s

Provide ONE specific, actionable tip to improve their gameplay (1 sentence, under 25 words).
Focus on the weakest stat or biggest opportunity for improvement. Be direct and specific with numbers.`,
		req.Quarter, roleLabel,
		s.Games, s.KDAProxy, s.KillParticipation*100, s.VisionScorePerMin, s.GoldPerMin,
		roleStats, focus)
}

func buildFinaleLorePrompt(req *FinaleRequest) string {
	var progression []string
	for _, ch := range req.Chapters {
		excerpt := ch.Lore
		if len(excerpt) > loreExcerptLen {
			excerpt = excerpt[:loreExcerptLen]
		}
		top := ch.TopValues
		if len(top) > 2 {
			top = top[:2]
		}
		progression = append(progression, fmt.Sprintf("%s - %s: %s... (Values: %s)",
			ch.Quarter, ch.Region, excerpt, strings.Join(top, ", ")))
	}

	return fmt.Sprintf(`You are a storytelling bard concluding an epic saga of a summoner's journey through Runeterra.

Summoner: %s
Total Games: %d

THE COMPLETE STORY SO FAR:
%s

Write a powerful FINALE paragraph (3-4 sentences) that:
- Weaves together all chapters into a cohesive conclusion
- Shows the character arc and transformation across the journey
- References key moments or themes from the quarters above
- Ends with a forward-looking statement about future challenges
- Uses epic League of Legends lore language

This is THE END of the saga. Make it feel climactic and complete. Keep it under 150 words.`,
		req.PlayerName, req.TotalGames, strings.Join(progression, "\n\n"))
}

func buildFinaleReflectionPrompt(req *FinaleRequest) string {
	var summary []string
	var totalCS, totalVision float64
	for _, ch := range req.Chapters {
		totalCS += ch.Stats.CSPerMin
		totalVision += ch.Stats.VisionScorePerMin
		summary = append(summary, fmt.Sprintf("%s: %d games, %.2f KDA, %.2f CS/min, %.2f vision/min",
			ch.Quarter, ch.Stats.Games, ch.Stats.KDAProxy, ch.Stats.CSPerMin, ch.Stats.VisionScorePerMin))
	}

	roleContext := ""
	if n := len(req.Chapters); n > 0 {
		// Low CS with high vision across the season reads as a support.
		if totalCS/float64(n) < 1.0 && totalVision/float64(n) > 1.5 {
			roleContext = " (Appears to be a Support player - focus on vision, roaming, and team utility)"
		}
	}

	return fmt.Sprintf(`You are a League of Legends coach providing a season summary and future goals.%s

Season Summary:
%s

Provide 3-4 key bullet points that:
1. Highlight the biggest strength shown across the season
2. Identify the main area for improvement (considering their role)
3. Give 1-2 specific, measurable goals for next season (with numbers appropriate for their role)

Each bullet should be 1 sentence, under 20 words. Be specific and actionable.
Format as a simple list without bullet symbols or numbers.`,
		roleContext, strings.Join(summary, "\n"))
}
