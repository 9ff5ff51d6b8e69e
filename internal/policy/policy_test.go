package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"quickcap/internal/model"
)

func TestCooldownStoreOK(t *testing.T) {
	c := NewCooldownStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gap := 3 * time.Minute

	assert.True(t, c.OK("kucoin::BTCUSDT", now, gap), "first entry always passes")
	assert.False(t, c.OK("kucoin::BTCUSDT", now.Add(time.Minute), gap))
	assert.True(t, c.OK("kucoin::ETHUSDT", now.Add(time.Minute), gap), "keys are independent")
	assert.True(t, c.OK("kucoin::BTCUSDT", now.Add(gap), gap))
}

func TestCooldownStoreRejectionDoesNotExtend(t *testing.T) {
	c := NewCooldownStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gap := 3 * time.Minute

	assert.True(t, c.OK("k", now, gap))
	assert.False(t, c.OK("k", now.Add(2*time.Minute), gap))
	// The rejected attempt must not reset the clock.
	assert.True(t, c.OK("k", now.Add(gap), gap))
}

func TestCooldownStoreAllowFlip(t *testing.T) {
	c := NewCooldownStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gap := time.Minute

	assert.True(t, c.Allow("k", now, gap, model.SideLong, 6.0, 0.75))

	// Same side after the gap: score does not matter.
	assert.True(t, c.Allow("k", now.Add(gap), gap, model.SideLong, 5.0, 0.75))

	// Flip needs prior score + bonus.
	assert.False(t, c.Allow("k", now.Add(2*gap), gap, model.SideShort, 5.5, 0.75))
	assert.True(t, c.Allow("k", now.Add(2*gap), gap, model.SideShort, 5.75, 0.75))
}

func TestShouldTradeCategories(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sig := func(cat model.TriggerCategory, symbol string, score float64) *model.Signal {
		return &model.Signal{Symbol: symbol, Side: model.SideLong, Score: score, Category: cat}
	}

	tests := []struct {
		name string
		sig  *model.Signal
		want bool
	}{
		{"event above gate", sig(model.CategoryEvent, "A", 5.5), true},
		{"event below gate", sig(model.CategoryEvent, "B", 5.4), false},
		{"mean reversion above gate", sig(model.CategoryMeanReversion, "C", 6.0), true},
		{"mean reversion below gate", sig(model.CategoryMeanReversion, "D", 5.9), false},
		{"momentum above gate", sig(model.CategoryMomentum, "E", 4.2), true},
		{"momentum below gate", sig(model.CategoryMomentum, "F", 4.1), false},
		{"other never trades", sig(model.CategoryOther, "G", 9.9), false},
		{"untagged never trades", sig("", "H", 9.9), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewTradingPolicy(DefaultConfig())
			assert.Equal(t, tt.want, p.ShouldTrade(tt.sig, now))
		})
	}
}

func TestShouldTradeCooldownPerCategoryAndSymbol(t *testing.T) {
	p := NewTradingPolicy(DefaultConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ev := &model.Signal{Symbol: "BTCUSDT", Side: model.SideLong, Score: 6, Category: model.CategoryEvent}
	assert.True(t, p.ShouldTrade(ev, now))
	assert.False(t, p.ShouldTrade(ev, now.Add(time.Minute)), "inside event cooldown")
	assert.True(t, p.ShouldTrade(ev, now.Add(4*time.Minute)))

	// A different category for the same symbol keeps its own clock.
	momo := &model.Signal{Symbol: "BTCUSDT", Side: model.SideLong, Score: 5, Category: model.CategoryMomentum}
	assert.True(t, p.ShouldTrade(momo, now.Add(time.Minute)))
}

func TestShouldTradeFlipProtection(t *testing.T) {
	p := NewTradingPolicy(DefaultConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	long := &model.Signal{Symbol: "ETHUSDT", Side: model.SideLong, Score: 6, Category: model.CategoryEvent}
	assert.True(t, p.ShouldTrade(long, now))

	weakFlip := &model.Signal{Symbol: "ETHUSDT", Side: model.SideShort, Score: 6.5, Category: model.CategoryEvent}
	assert.False(t, p.ShouldTrade(weakFlip, now.Add(10*time.Minute)), "flip without enough extra score")

	strongFlip := &model.Signal{Symbol: "ETHUSDT", Side: model.SideShort, Score: 6.75, Category: model.CategoryEvent}
	assert.True(t, p.ShouldTrade(strongFlip, now.Add(10*time.Minute)))
}
