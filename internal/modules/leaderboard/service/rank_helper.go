package service

import (
	"math"

	leaderboardDto "anoa.com/dailydebate/internal/modules/leaderboard/dto"
)

// XP thresholds per tier. Tiers never demote since total XP only grows.
const (
	XPLuminary = 3000
	XPOrator   = 1000
	XPDebater  = 250
	XPRegular  = 50
	XPNewcomer = 0
)

type tierStep struct {
	name      string
	threshold float64
}

// tiers is ordered from highest to lowest.
var tiers = []tierStep{
	{"Luminary", XPLuminary},
	{"Orator", XPOrator},
	{"Debater", XPDebater},
	{"Regular", XPRegular},
	{"Newcomer", XPNewcomer},
}

// GetTier resolves the tier for a total XP amount and the progress towards
// the next one.
func GetTier(totalXP float64) leaderboardDto.Tier {
	tier := leaderboardDto.Tier{CurrentXP: totalXP}

	for i, step := range tiers {
		if totalXP < step.threshold {
			continue
		}
		tier.Name = step.name
		if i == 0 {
			tier.NextTier = "Max Level"
			tier.TargetXP = step.threshold
			tier.Progress = 100
			return tier
		}
		next := tiers[i-1]
		tier.NextTier = next.name
		tier.TargetXP = next.threshold
		tier.Progress = math.Round(totalXP/next.threshold*10000) / 100
		return tier
	}

	// Negative XP never happens; treat it as a fresh account.
	last := tiers[len(tiers)-1]
	tier.Name = last.name
	tier.NextTier = tiers[len(tiers)-2].name
	tier.TargetXP = tiers[len(tiers)-2].threshold
	return tier
}
