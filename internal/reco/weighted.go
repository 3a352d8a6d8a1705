package reco

import (
	"context"
	"math/rand/v2"
)

// Weighted pick parameters: sampling considers only the top of the ranked
// list, rank weight decays linearly, and recently surfaced movies keep only a
// fraction of their weight.
const (
	weightedPickWindow  = 25
	weightedBase        = 100.0
	weightedRankDecay   = 4.0
	recentRepeatPenalty = 0.15
)

// WeightedPick samples a single recommendation from an already ranked list,
// favoring higher ranks while steering away from movies in the recent
// history. rng may be nil to use the default source. Returns false when
// ranked is empty.
func WeightedPick(ctx context.Context, ranked []Recommendation, history *History, rng *rand.Rand) (Recommendation, bool) {
	if len(ranked) == 0 {
		return Recommendation{}, false
	}

	top := ranked
	if len(top) > weightedPickWindow {
		top = top[:weightedPickWindow]
	}

	weights := make([]float64, len(top))
	total := 0.0
	for i, rec := range top {
		w := weightedBase - float64(i)*weightedRankDecay
		if w < 1 {
			w = 1
		}
		if history != nil && history.IsRecent(ctx, rec.Movie.ID) {
			w *= recentRepeatPenalty
		}
		weights[i] = w
		total += w
	}

	r := total
	if rng != nil {
		r *= rng.Float64()
	} else {
		r *= rand.Float64()
	}
	for i := range top {
		r -= weights[i]
		if r <= 0 {
			return top[i], true
		}
	}
	return top[0], true
}
