package strategy

import (
	"math"

	"quickcap/internal/indicator"
	"quickcap/internal/model"
)

// Params configures feature computation.
type Params struct {
	RSIPeriod        int
	Swing            int
	MomentumLookback int
	MomentumZ        float64
}

// DefaultParams mirrors the scanner's production settings.
func DefaultParams() Params {
	return Params{
		RSIPeriod:        14,
		Swing:            3,
		MomentumLookback: 20,
		MomentumZ:        2.0,
	}
}

// FeatureRow is the per-bar derived row the scorer and trigger rules consume.
type FeatureRow struct {
	Index      int
	Bar        model.Bar
	RSI        float64
	VWAP       float64
	BullDiv    bool
	BearDiv    bool
	SweepLong  bool
	SweepShort bool
	MomPop     bool
	Score      float64
}

// ComputeFeatures derives one FeatureRow per bar. The input must be a
// sanitized series; rows are computed from the series as given, so a caller
// enforcing no-lookahead passes only the bars visible at its step.
func ComputeFeatures(bars []model.Bar, p Params) []FeatureRow {
	closes := model.Closes(bars)
	rsi := indicator.RSI(closes, p.RSIPeriod)
	vwap := indicator.SessionVWAP(bars)
	bulls, bears := indicator.Divergences(bars, rsi, p.Swing)
	pops := indicator.MomentumPop(closes, p.MomentumLookback, p.MomentumZ)

	rows := make([]FeatureRow, len(bars))
	for i, b := range bars {
		rows[i] = FeatureRow{
			Index:      i,
			Bar:        b,
			RSI:        rsi[i],
			VWAP:       vwap[i],
			BullDiv:    bulls[i],
			BearDiv:    bears[i],
			SweepLong:  b.Low <= vwap[i] && b.Close > vwap[i],
			SweepShort: b.High >= vwap[i] && b.Close < vwap[i],
			MomPop:     pops[i],
		}
	}
	return rows
}

// LatestFeature computes features over the whole series and returns the row
// for the final bar, scored. ok is false when the series is empty.
func LatestFeature(bars []model.Bar, p Params) (FeatureRow, bool) {
	if len(bars) == 0 {
		return FeatureRow{}, false
	}
	rows := ComputeFeatures(bars, p)
	row := rows[len(rows)-1]
	row.Score = ScoreRow(row)
	return row, true
}

// vwapDistBonus rewards proximity to VWAP: full bonus inside 0.25%,
// decaying linearly to zero at or beyond 0.25% away.
func vwapDistBonus(close, vwap float64) float64 {
	if vwap <= 0 || math.IsNaN(vwap) {
		return 0
	}
	dist := math.Abs(close-vwap) / vwap * 100
	return math.Max(0, 1-math.Min(dist/0.25, 1))
}
