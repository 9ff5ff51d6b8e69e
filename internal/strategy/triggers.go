package strategy

import "quickcap/internal/model"

// Trigger labels shared by the live scanner and the backtest replayer.
const (
	TriggerSweepBullDiv = "VWAP sweep + Bull Div"
	TriggerSweepBearDiv = "VWAP sweep + Bear Div"
	TriggerMomentumPop  = "Momentum Pop"
)

// AssembleTriggers converts a feature row into ordered trigger labels, the
// inferred side, and a category tag.
//
// The rule set is order-sensitive: bullish before bearish, combined
// sweep+divergence triggers before the lone momentum trigger. Side is LONG
// when any bullish flag fired, else SHORT.
func AssembleTriggers(row FeatureRow) (triggers []string, side model.Side, cat model.TriggerCategory) {
	if row.SweepLong && row.BullDiv {
		triggers = append(triggers, TriggerSweepBullDiv)
	}
	if row.SweepShort && row.BearDiv {
		triggers = append(triggers, TriggerSweepBearDiv)
	}
	if row.MomPop {
		triggers = append(triggers, TriggerMomentumPop)
	}
	if len(triggers) == 0 {
		return nil, "", model.CategoryOther
	}

	if row.SweepLong || row.BullDiv {
		side = model.SideLong
	} else {
		side = model.SideShort
	}

	switch {
	case triggers[0] == TriggerSweepBullDiv || triggers[0] == TriggerSweepBearDiv:
		cat = model.CategoryEvent
	case triggers[0] == TriggerMomentumPop:
		cat = model.CategoryMomentum
	default:
		cat = model.CategoryOther
	}
	return triggers, side, cat
}
