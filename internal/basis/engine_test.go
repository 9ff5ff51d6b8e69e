package basis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickcap/internal/model"
)

func series(start time.Time, step time.Duration, closes []float64) []model.Bar {
	out := make([]model.Bar, len(closes))
	for i, c := range closes {
		out[i] = model.Bar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestAlignExactTimestamps(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spot := series(start, time.Minute, []float64{100, 101, 102})
	perp := series(start, time.Minute, []float64{100.5, 101.5, 102.5})

	s, p := Align(spot, perp, 30)
	require.Len(t, s, 3)
	require.Len(t, p, 3)
	for i := range s {
		assert.Equal(t, spot[i].Close, s[i].Close)
		assert.Equal(t, perp[i].Close, p[i].Close)
	}
}

func TestAlignNearestWithinTolerance(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spot := series(start, time.Minute, []float64{100, 101, 102})
	// Perp sampled 5 seconds late.
	perp := series(start.Add(5*time.Second), time.Minute, []float64{200, 201, 202})

	s, p := Align(spot, perp, 30)
	require.Len(t, s, 3)
	assert.Equal(t, 200.0, p[0].Close)
	assert.Equal(t, 202.0, p[2].Close)

	// Tighter tolerance drops every pair.
	s, p = Align(spot, perp, 2)
	assert.Empty(t, s)
	assert.Empty(t, p)
}

func TestAlignEmptyInputs(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s, p := Align(nil, series(start, time.Minute, []float64{100}), 30)
	assert.Empty(t, s)
	assert.Empty(t, p)
}

func TestComputeInsufficientBars(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spot := series(start, time.Minute, flat(20, 100))
	perp := series(start, time.Minute, flat(20, 100))

	res := Compute(spot, perp, DefaultParams())
	assert.False(t, res.OK)
	assert.Equal(t, "insufficient aligned bars", res.Reason)
	assert.Empty(t, res.Triggers)
}

func TestComputeQuietMarket(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spot := series(start, time.Minute, flat(60, 100))
	perp := series(start, time.Minute, flat(60, 100))

	res := Compute(spot, perp, DefaultParams())
	require.True(t, res.OK)
	assert.Empty(t, res.Triggers)
	assert.InDelta(t, 0, res.BasisPct, 1e-9)
	assert.Equal(t, model.CategoryOther, res.Category)
	assert.Equal(t, 0.0, res.Score)
}

func TestComputeDiscountCapitulation(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	spotCloses := flat(60, 100)
	perpCloses := flat(60, 100)
	// Final bar: spot drops, perp crashes harder. Basis swings sharply
	// negative while spot sits below session VWAP with a washed-out RSI.
	spotCloses[59] = 99
	perpCloses[59] = 97

	res := Compute(series(start, time.Minute, spotCloses), series(start, time.Minute, perpCloses), DefaultParams())
	require.True(t, res.OK)

	assert.Less(t, res.BasisZ, -2.5)
	assert.Less(t, res.BasisPct, 0.0)
	assert.Less(t, res.SpotClose, res.SpotVWAP)
	assert.LessOrEqual(t, res.SpotRSI, 40.0)

	require.Equal(t, []string{TriggerDiscountCapitulation}, res.Triggers)
	assert.Equal(t, model.SideLong, res.Side)
	assert.Equal(t, model.CategoryEvent, res.Category)
	assert.InDelta(t, 7.0, res.Score, 1e-9, "z magnitude past the cap pins the score")
}

func TestComputePremiumBlowoff(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Rising spot keeps RSI high and the last close above VWAP; the perp
	// gaps to a large premium on the final bar.
	spotCloses := make([]float64, 60)
	perpCloses := make([]float64, 60)
	for i := range spotCloses {
		spotCloses[i] = 100 + 0.05*float64(i)
		perpCloses[i] = spotCloses[i]
	}
	perpCloses[59] = spotCloses[59] + 3

	res := Compute(series(start, time.Minute, spotCloses), series(start, time.Minute, perpCloses), DefaultParams())
	require.True(t, res.OK)

	assert.Greater(t, res.BasisZ, 2.5)
	assert.Greater(t, res.SpotClose, res.SpotVWAP)
	assert.GreaterOrEqual(t, res.SpotRSI, 60.0)

	require.NotEmpty(t, res.Triggers)
	assert.Equal(t, TriggerPremiumBlowoff, res.Triggers[0])
	assert.Equal(t, model.SideShort, res.Side)
	assert.Equal(t, model.CategoryEvent, res.Category)
}

func TestFallbackSide(t *testing.T) {
	assert.Equal(t, model.SideLong, Result{Side: model.SideLong, BasisPct: 1}.FallbackSide())
	assert.Equal(t, model.SideShort, Result{BasisPct: 0.5}.FallbackSide())
	assert.Equal(t, model.SideLong, Result{BasisPct: -0.5}.FallbackSide())
}
