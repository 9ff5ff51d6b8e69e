package strategy

import "math"

// ScoreRow maps a feature row into a composite score in [0, 10].
//
// Event-type VWAP sweeps carry the most weight, divergences next (scaled up
// when they occur near VWAP), momentum pops least. Every play earns a small
// generic bonus for proximity to VWAP.
func ScoreRow(row FeatureRow) float64 {
	score := 0.0

	if row.SweepLong {
		score += 2.5
	}
	if row.SweepShort {
		score += 2.5
	}

	bonus := vwapDistBonus(row.Bar.Close, row.VWAP)
	if row.BullDiv {
		score += 1.8 + 0.5*bonus
	}
	if row.BearDiv {
		score += 1.8 + 0.5*bonus
	}

	if row.MomPop {
		score += 0.6
	}

	score += 0.7 * bonus

	score = math.Max(0, math.Min(10, score))
	return math.Round(score*1000) / 1000
}

// BasisScore maps a basis z-score into the basis signal score: a 2.0 floor
// plus the z magnitude capped at 5.0, so the range is [2.0, 7.0].
func BasisScore(z float64) float64 {
	return 2.0 + math.Min(math.Abs(z), 5.0)
}
