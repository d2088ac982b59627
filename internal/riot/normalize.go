// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

package riot

import (
	"fmt"
	"time"

	"github.com/rewindlab/riftrewind/internal/models"
)

// summonersRiftQueues are the queue IDs that count toward a journey:
// draft, ranked solo, blind, ranked flex, quickplay, and clash.
var summonersRiftQueues = map[int]bool{
	400: true,
	420: true,
	430: true,
	440: true,
	490: true,
	700: true,
}

// matchResponse mirrors the subset of the match-v5 document the
// pipeline reads.
type matchResponse struct {
	Metadata struct {
		MatchID string `json:"matchId"`
	} `json:"metadata"`
	Info struct {
		QueueID            int           `json:"queueId"`
		GameStartTimestamp int64         `json:"gameStartTimestamp"`
		GameDuration       float64       `json:"gameDuration"`
		Participants       []participant `json:"participants"`
	} `json:"info"`
}

type participant struct {
	PUUID        string `json:"puuid"`
	ChampionName string `json:"championName"`
	ChampionID   int    `json:"championId"`
	TeamPosition string `json:"teamPosition"`
	Lane         string `json:"lane"`
	Win          bool   `json:"win"`

	Kills         int `json:"kills"`
	Deaths        int `json:"deaths"`
	Assists       int `json:"assists"`
	KillingSprees int `json:"killingSprees"`

	FirstBloodKill bool `json:"firstBloodKill"`

	GoldEarned int `json:"goldEarned"`
	GoldSpent  int `json:"goldSpent"`

	TotalMinionsKilled   int `json:"totalMinionsKilled"`
	NeutralMinionsKilled int `json:"neutralMinionsKilled"`

	MagicDamageDealtToChampions    float64 `json:"magicDamageDealtToChampions"`
	PhysicalDamageDealtToChampions float64 `json:"physicalDamageDealtToChampions"`
	TotalDamageDealtToChampions    float64 `json:"totalDamageDealtToChampions"`
	DamageDealtToObjectives        float64 `json:"damageDealtToObjectives"`
	DamageSelfMitigated            float64 `json:"damageSelfMitigated"`

	WardsGuarded       float64 `json:"wardsGuarded"`
	LongestTimeLiving  float64 `json:"longestTimeSpentLiving"`
	ChallengesDocument struct {
		KDA                          float64 `json:"kda"`
		KillParticipation            float64 `json:"killParticipation"`
		TeamDamagePercentage         float64 `json:"teamDamagePercentage"`
		VisionScorePerMinute         float64 `json:"visionScorePerMinute"`
		WardTakedowns                float64 `json:"wardTakedowns"`
		StealthWardsPlaced           float64 `json:"stealthWardsPlaced"`
		ControlWardsPlaced           float64 `json:"controlWardsPlaced"`
		SoloKills                    float64 `json:"soloKills"`
		Takedowns                    float64 `json:"takedowns"`
		BountyGold                   float64 `json:"bountyGold"`
		EpicMonsterSteals            float64 `json:"epicMonsterSteals"`
		KillsNearEnemyTurret         float64 `json:"killsNearEnemyTurret"`
		KillsUnderOwnTurret          float64 `json:"killsUnderOwnTurret"`
		TakedownsInEnemyFountain     float64 `json:"takedownsInEnemyFountain"`
		TwentyMinionsIn3Seconds      float64 `json:"twentyMinionsIn3SecondsCount"`
		BlastConeOpposite            float64 `json:"blastConeOppositeOpponentCount"`
		KnockEnemyIntoTeamAndKill    float64 `json:"knockEnemyIntoTeamAndKill"`
		ImmobilizeAndKillWithAlly    float64 `json:"immobilizeAndKillWithAlly"`
		PerfectGame                  float64 `json:"perfectGame"`
		LaneMinionsFirst10Minutes    float64 `json:"laneMinionsFirst10Minutes"`
		EarlyLaningPhaseGoldExpAdvtg float64 `json:"earlyLaningPhaseGoldExpAdvantage"`
	} `json:"challenges"`
}

// normalize flattens the requesting player's participant row into a
// MatchRecord. Matches outside the Summoner's Rift queue set are
// filtered with a nil record and no error.
func normalize(match *matchResponse, puuid string) (*models.MatchRecord, error) {
	if !summonersRiftQueues[match.Info.QueueID] {
		return nil, nil
	}

	var p *participant
	for i := range match.Info.Participants {
		if match.Info.Participants[i].PUUID == puuid {
			p = &match.Info.Participants[i]
			break
		}
	}
	if p == nil {
		return nil, fmt.Errorf("player not found in match %s", match.Metadata.MatchID)
	}

	ch := &p.ChallengesDocument
	return &models.MatchRecord{
		MatchID:     match.Metadata.MatchID,
		GameStart:   time.UnixMilli(match.Info.GameStartTimestamp).UTC(),
		DurationSec: match.Info.GameDuration,

		Champion:   p.ChampionName,
		ChampionID: p.ChampionID,
		Lane:       p.Lane,
		Role:       role(p),
		Win:        p.Win,

		Kills:     p.Kills,
		Deaths:    p.Deaths,
		Assists:   p.Assists,
		SoloKills: int(ch.SoloKills),

		Takedowns:      ch.Takedowns,
		KillingSprees:  float64(p.KillingSprees),
		FirstBloodKill: p.FirstBloodKill,
		PerfectGame:    ch.PerfectGame >= 1,

		GoldEarned: float64(p.GoldEarned),
		GoldSpent:  float64(p.GoldSpent),
		BountyGold: ch.BountyGold,

		TotalCS:            float64(p.TotalMinionsKilled + p.NeutralMinionsKilled),
		LaneMinionsFirst10: ch.LaneMinionsFirst10Minutes,

		MagicDamageToChampions:    p.MagicDamageDealtToChampions,
		PhysicalDamageToChampions: p.PhysicalDamageDealtToChampions,
		TotalDamageToChampions:    p.TotalDamageDealtToChampions,
		DamageToObjectives:        p.DamageDealtToObjectives,
		DamageSelfMitigated:       p.DamageSelfMitigated,
		TeamDamageShare:           ch.TeamDamagePercentage,

		KDA:               ch.KDA,
		KillParticipation: ch.KillParticipation,

		VisionScorePerMinute: ch.VisionScorePerMinute,
		WardTakedowns:        ch.WardTakedowns,
		WardsGuarded:         p.WardsGuarded,
		StealthWardsPlaced:   ch.StealthWardsPlaced,
		ControlWardsPlaced:   ch.ControlWardsPlaced,

		KillsUnderOwnTurret:       ch.KillsUnderOwnTurret,
		KillsNearEnemyTurret:      ch.KillsNearEnemyTurret,
		TakedownsInEnemyFountain:  ch.TakedownsInEnemyFountain,
		TwentyMinionsIn3Seconds:   ch.TwentyMinionsIn3Seconds,
		BlastConeOpposite:         ch.BlastConeOpposite,
		EpicMonsterSteals:         ch.EpicMonsterSteals,
		KnockIntoTeamAndKill:      ch.KnockEnemyIntoTeamAndKill,
		ImmobilizeAndKillWithAlly: ch.ImmobilizeAndKillWithAlly,

		LongestTimeSpentLiving: p.LongestTimeLiving,
		EarlyGoldExpAdvantage:  ch.EarlyLaningPhaseGoldExpAdvtg,
	}, nil
}

// role prefers teamPosition, the modern position field, over the older
// lane heuristic.
func role(p *participant) string {
	if p.TeamPosition != "" {
		return p.TeamPosition
	}
	return p.Lane
}
