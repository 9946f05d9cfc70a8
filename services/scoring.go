package services

import (
	"math"

	"complylaw-api/models"
)

// Credit per status for the weighted score: yes earns full weight, partial
// earns half, everything else (no, na, pending) earns nothing. Every
// materialized response counts toward the possible total, so an untouched
// audit scores 0 rather than shrinking its own denominator.
const partialCredit = 0.5

// RiskTierBreakdown is the unweighted closure of one risk tier: how many of
// the tier's controls are fully satisfied, out of how many.
type RiskTierBreakdown struct {
	Level      string  `json:"level"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

// Progress is the completion snapshot the wizard polls for.
type Progress struct {
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
	Percentage     int `json:"percentage"`
}

// ComputeScore returns the weighted compliance score in [0, 100] for a set
// of responses. The result is rounded half-up to 2 decimal places. An empty
// set scores 0; that is a defined boundary, not an error.
func ComputeScore(responses []models.ChecklistResponse) float64 {
	var earned, possible float64
	for i := range responses {
		w := responses[i].Template.Weight
		possible += w
		switch responses[i].Status {
		case models.ResponseStatusYes:
			earned += w
		case models.ResponseStatusPartial:
			earned += w * partialCredit
		}
	}
	if possible == 0 {
		return 0
	}
	return round2(earned / possible * 100)
}

// RiskBreakdown returns the per-tier closure rates in HIGH, MEDIUM, LOW
// order. Tiers with no responses are omitted entirely. Unlike ComputeScore
// this view ignores weights and gives credit only for "yes": it answers how
// much of each risk tier is fully closed, not overall posture.
func RiskBreakdown(responses []models.ChecklistResponse) []RiskTierBreakdown {
	breakdown := make([]RiskTierBreakdown, 0, len(models.RiskImpactOrder))
	for _, level := range models.RiskImpactOrder {
		total := 0
		yes := 0
		for i := range responses {
			if responses[i].Template.RiskImpact != level {
				continue
			}
			total++
			if responses[i].Status == models.ResponseStatusYes {
				yes++
			}
		}
		if total == 0 {
			continue
		}
		breakdown = append(breakdown, RiskTierBreakdown{
			Level:      level,
			Percentage: round2(float64(yes) / float64(total) * 100),
			Count:      total,
		})
	}
	return breakdown
}

// Completion returns how far along the audit is. The percentage is truncated
// (1 of 3 answered is 33, not 34) so the progress bar never overstates.
func Completion(responses []models.ChecklistResponse) Progress {
	p := Progress{TotalCount: len(responses)}
	for i := range responses {
		if responses[i].IsAnswered() {
			p.CompletedCount++
		}
	}
	if p.TotalCount > 0 {
		p.Percentage = p.CompletedCount * 100 / p.TotalCount
	}
	return p
}

// round2 rounds half-up to 2 decimals. Inputs here are never negative, so
// math.Round's half-away-from-zero is exactly half-up.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
