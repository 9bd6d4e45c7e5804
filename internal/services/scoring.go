package services

import (
	"fmt"
	"math"
)

// WeightedResult pairs one criterion verdict with the criterion's weight.
type WeightedResult struct {
	Passed bool
	Weight int
}

// neutralScore is assigned when there are no criteria to evaluate against.
const neutralScore = 7.5

// riskPenalty is subtracted per detected risk phrase; scoreFloor bounds the
// penalty.
const (
	riskPenalty = 0.5
	scoreFloor  = 3.0
)

// AggregateScore folds per-criterion verdicts and risk phrases into the final
// 0-10 score. Unknown weights count as 1. The result is always within
// [3.0, 10.0], rounded half-up to one decimal.
func AggregateScore(results []WeightedResult, riskWords []string) (float64, string) {
	totalWeight := 0
	weightedScore := 0.0
	passed := 0
	for _, r := range results {
		w := r.Weight
		if w <= 0 {
			w = 1
		}
		totalWeight += w
		if r.Passed {
			weightedScore += float64(w) * 10
			passed++
		}
	}

	raw := neutralScore
	if totalWeight > 0 {
		raw = weightedScore / float64(totalWeight)
	}

	score := raw - riskPenalty*float64(len(riskWords))
	if score < scoreFloor {
		score = scoreFloor
	}
	score = roundHalfUp(score)

	justification := fmt.Sprintf("%d of %d criteria passed", passed, len(results))
	if len(results) == 0 {
		justification = "no active criteria; neutral score assigned"
	}
	if n := len(riskWords); n > 0 {
		justification += fmt.Sprintf("; %d risk phrase(s) detected (-%.1f penalty)", n, riskPenalty*float64(n))
	}
	return score, justification
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
