package model

import "time"

// Side is the trade direction inferred for a signal.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Dir returns the direction multiplier: +1 for LONG, -1 for SHORT.
func (s Side) Dir() float64 {
	if s == SideLong {
		return 1
	}
	return -1
}

// SignalType distinguishes single-market spot signals from cross-market
// basis signals.
type SignalType string

const (
	SignalSpot  SignalType = "spot"
	SignalBasis SignalType = "basis"
)

// TriggerCategory tags a signal with the kind of play it represents.
// Produced directly by the compositor / basis engine so downstream policy
// never has to parse trigger text.
type TriggerCategory string

const (
	CategoryEvent         TriggerCategory = "event"
	CategoryMeanReversion TriggerCategory = "mean_reversion"
	CategoryMomentum      TriggerCategory = "momentum"
	CategoryOther         TriggerCategory = "other"
)

// Signal is an immutable record created once trigger and threshold
// conditions hold at a specific bar.
type Signal struct {
	ID       int64
	Time     time.Time
	Type     SignalType
	Venue    string
	Symbol   string
	Interval string
	Side     Side
	Price    float64
	VWAP     float64
	RSI      float64
	Score    float64
	Triggers []string
	Category TriggerCategory

	// Populated for basis signals only.
	BasisPct float64
	BasisZ   float64
}

// Execution is a paper fill recorded against a signal, priced at the next
// bar's open so the fill never uses information unavailable at signal time.
type Execution struct {
	Time    time.Time
	Venue   string
	Symbol  string
	Side    Side
	Price   float64
	Score   float64
	Reason  string
	IsPaper bool
}

// Outcome holds forward-looking metrics for one (signal, horizon) pair.
type Outcome struct {
	SignalID   int64
	HorizonMin int
	EntryPrice float64
	ExitPrice  float64
	Ret        float64
	MaxFav     float64
	MaxAdv     float64
}
