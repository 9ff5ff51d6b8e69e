package model

import (
	"math"
	"sort"
	"time"
)

// Bar represents a single OHLCV candlestick.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Valid reports whether the bar carries clean numeric data: finite positive
// prices and a finite non-negative volume.
func (b Bar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
		return false
	}
	return true
}

// Sanitize returns a clean bar series: malformed rows dropped, bars sorted
// ascending by timestamp, duplicate timestamps collapsed (first kept).
// Indicator math assumes its input has passed through here.
func Sanitize(bars []Bar) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if b.Valid() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	var lastTS int64 = math.MinInt64
	for _, b := range out {
		ts := b.Time.UnixMilli()
		if ts == lastTS {
			continue
		}
		dedup = append(dedup, b)
		lastTS = ts
	}
	return dedup
}

// Closes extracts the close series from bars.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
