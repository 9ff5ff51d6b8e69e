// Package policy gates live trades. Scoring captures how much edge a signal
// has; the policy decides when acting on it is worthwhile.
package policy

import (
	"time"

	"quickcap/internal/model"
)

// Limits holds the score minimum and spacing for one trigger category.
type Limits struct {
	MinScore float64       `yaml:"min_score"`
	Cooldown time.Duration `yaml:"cooldown"`
}

// Config carries per-category gates plus flip protection. All values are
// configuration: the right thresholds drift as the scoring formula evolves.
type Config struct {
	Event         Limits  `yaml:"event"`
	MeanReversion Limits  `yaml:"mean_reversion"`
	Momentum      Limits  `yaml:"momentum"`
	FlipBonus     float64 `yaml:"flip_bonus"`
}

// DefaultConfig returns the production gates: event plays trade on the
// shortest leash, momentum pops on the longest to avoid spam.
func DefaultConfig() Config {
	return Config{
		Event:         Limits{MinScore: 5.5, Cooldown: 180 * time.Second},
		MeanReversion: Limits{MinScore: 6.0, Cooldown: 600 * time.Second},
		Momentum:      Limits{MinScore: 4.2, Cooldown: 900 * time.Second},
		FlipBonus:     0.75,
	}
}

// TradingPolicy is the central trade filter for the live path.
type TradingPolicy struct {
	cfg  Config
	cool *CooldownStore
}

func NewTradingPolicy(cfg Config) *TradingPolicy {
	return &TradingPolicy{cfg: cfg, cool: NewCooldownStore()}
}

// ShouldTrade reports whether a live trade should be placed for the signal.
// The decision uses the signal's category tag directly; signals tagged Other
// never trade.
func (p *TradingPolicy) ShouldTrade(sig *model.Signal, now time.Time) bool {
	var limits Limits
	switch sig.Category {
	case model.CategoryEvent:
		limits = p.cfg.Event
	case model.CategoryMeanReversion:
		limits = p.cfg.MeanReversion
	case model.CategoryMomentum:
		limits = p.cfg.Momentum
	default:
		return false
	}

	if sig.Score < limits.MinScore {
		return false
	}
	key := string(sig.Category) + "::" + sig.Symbol
	return p.cool.Allow(key, now, limits.Cooldown, sig.Side, sig.Score, p.cfg.FlipBonus)
}
