// Package basis quantifies premium/discount dislocation between a spot
// market and its perpetual counterpart.
package basis

import (
	"math"
	"sort"

	"quickcap/internal/indicator"
	"quickcap/internal/model"
	"quickcap/internal/strategy"
)

// Trigger labels produced by the basis engine.
const (
	TriggerPremiumBlowoff       = "Perp Premium Blowoff"
	TriggerDiscountCapitulation = "Perp Discount Capitulation"
	TriggerPremiumReversalRisk  = "Premium + RSI Reversal Risk"
	TriggerDiscountReversalRisk = "Discount + RSI Reversal Risk"
)

// Params configures the basis computation.
type Params struct {
	ToleranceSec int64   // nearest-join tolerance on whole-second keys
	ZWindow      int     // rolling window for the basis z-score
	ZThreshold   float64 // |z| needed to call a premium/discount
	RSIPeriod    int
}

// DefaultParams mirrors the production scanner settings.
func DefaultParams() Params {
	return Params{ToleranceSec: 30, ZWindow: 50, ZThreshold: 2.5, RSIPeriod: 14}
}

// Result is the outcome of one basis evaluation on the latest aligned bar.
// OK is false when too few bars aligned for the statistics to mean anything;
// that is a skip condition for the caller, not an error.
type Result struct {
	OK       bool
	Reason   string
	BasisPct float64
	BasisZ   float64

	SpotClose float64
	SpotVWAP  float64
	SpotRSI   float64

	Triggers []string
	Side     model.Side // empty when no trigger set a side
	Category model.TriggerCategory
	Score    float64
}

// Align joins two independently-sampled bar series by nearest timestamp.
// Timestamps are truncated to whole seconds; each spot bar is paired with
// the perp bar whose key is closest within tolerance, and unmatched rows
// are dropped. Both inputs must be sanitized (sorted ascending).
func Align(spot, perp []model.Bar, toleranceSec int64) (alignedSpot, alignedPerp []model.Bar) {
	if len(spot) == 0 || len(perp) == 0 {
		return nil, nil
	}
	keys := make([]int64, len(perp))
	for i, b := range perp {
		keys[i] = b.Time.Unix()
	}
	for _, s := range spot {
		k := s.Time.Unix()
		j := sort.Search(len(keys), func(i int) bool { return keys[i] >= k })
		best, bestDist := -1, int64(math.MaxInt64)
		for _, cand := range []int{j - 1, j} {
			if cand < 0 || cand >= len(keys) {
				continue
			}
			d := keys[cand] - k
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				best, bestDist = cand, d
			}
		}
		if best >= 0 && bestDist <= toleranceSec {
			alignedSpot = append(alignedSpot, s)
			alignedPerp = append(alignedPerp, perp[best])
		}
	}
	return alignedSpot, alignedPerp
}

// Compute aligns the two series, derives the basis percent z-score, and
// evaluates the trigger rules on the latest aligned bar.
func Compute(spot, perp []model.Bar, p Params) Result {
	s, pp := Align(spot, perp, p.ToleranceSec)
	minBars := p.ZWindow + 5
	if minBars < 50 {
		minBars = 50
	}
	if len(s) < minBars {
		return Result{OK: false, Reason: "insufficient aligned bars"}
	}

	vwap := indicator.SessionVWAP(s)
	rsi := indicator.RSI(model.Closes(s), p.RSIPeriod)

	bps := make([]float64, len(s))
	for i := range s {
		bps[i] = (pp[i].Close - s[i].Close) / (s[i].Close + indicator.Epsilon) * 100
	}
	z := indicator.RollingZScores(bps, p.ZWindow)

	i := len(s) - 1
	res := Result{
		OK:        true,
		BasisPct:  bps[i],
		BasisZ:    z[i],
		SpotClose: s[i].Close,
		SpotVWAP:  vwap[i],
		SpotRSI:   rsi[i],
		Category:  model.CategoryOther,
	}

	premium := z[i] >= p.ZThreshold
	discount := z[i] <= -p.ZThreshold
	aboveVWAP := s[i].Close > vwap[i]
	belowVWAP := s[i].Close < vwap[i]

	// High-conviction patterns first: their side wins when both families fire.
	if premium && aboveVWAP && res.SpotRSI >= 60 {
		res.Triggers = append(res.Triggers, TriggerPremiumBlowoff)
		res.Side = model.SideShort
		res.Category = model.CategoryEvent
	}
	if discount && belowVWAP && res.SpotRSI <= 40 {
		res.Triggers = append(res.Triggers, TriggerDiscountCapitulation)
		res.Side = model.SideLong
		res.Category = model.CategoryEvent
	}

	// Secondary reversal-risk patterns only set a side if none set yet.
	if premium && res.SpotRSI < 50 {
		res.Triggers = append(res.Triggers, TriggerPremiumReversalRisk)
		if res.Side == "" {
			res.Side = model.SideShort
			res.Category = model.CategoryMeanReversion
		}
	}
	if discount && res.SpotRSI > 50 {
		res.Triggers = append(res.Triggers, TriggerDiscountReversalRisk)
		if res.Side == "" {
			res.Side = model.SideLong
			res.Category = model.CategoryMeanReversion
		}
	}

	if len(res.Triggers) > 0 {
		res.Score = strategy.BasisScore(res.BasisZ)
	}
	return res
}

// FallbackSide derives a side from the raw basis sign when no trigger rule
// set one: a positive basis (perp premium) leans SHORT, negative leans LONG.
func (r Result) FallbackSide() model.Side {
	if r.Side != "" {
		return r.Side
	}
	if r.BasisPct > 0 {
		return model.SideShort
	}
	return model.SideLong
}
