package policy

import (
	"sync"
	"time"

	"quickcap/internal/model"
)

// lastEntry remembers the most recent accepted signal for a key.
type lastEntry struct {
	at    time.Time
	side  model.Side
	score float64
}

// CooldownStore tracks the last accepted signal per key with last-write-wins
// semantics. It is explicit state scoped to one run or session; callers
// construct one and pass it where needed instead of sharing a process-wide
// map.
type CooldownStore struct {
	mu   sync.Mutex
	last map[string]lastEntry
}

func NewCooldownStore() *CooldownStore {
	return &CooldownStore{last: make(map[string]lastEntry)}
}

// OK reports whether at least gap has elapsed since the last accepted entry
// for key, recording now as the new entry when it has. The first call for a
// key always succeeds.
func (c *CooldownStore) OK(key string, now time.Time, gap time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, found := c.last[key]; found && now.Sub(prev.at) < gap {
		return false
	}
	c.last[key] = lastEntry{at: now}
	return true
}

// Allow applies spacing plus anti-flip protection: when the side changes,
// the new score must beat the previous score by flipBonus. Accepting
// records the new entry.
func (c *CooldownStore) Allow(key string, now time.Time, gap time.Duration, side model.Side, score, flipBonus float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, found := c.last[key]
	if found {
		if now.Sub(prev.at) < gap {
			return false
		}
		if prev.side != side && score < prev.score+flipBonus {
			return false
		}
	}
	c.last[key] = lastEntry{at: now, side: side, score: score}
	return true
}
