package indicator

import "quickcap/internal/model"

// SessionVWAP computes the session-cumulative volume-weighted average price.
// A session is one UTC calendar day; the accumulators reset at 00:00 UTC.
func SessionVWAP(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	var pv, vv float64
	var day string
	for i, b := range bars {
		d := b.Time.UTC().Format("2006-01-02")
		if d != day {
			day = d
			pv, vv = 0, 0
		}
		pv += b.Close * b.Volume
		vv += b.Volume
		out[i] = pv / (vv + Epsilon)
	}
	return out
}
