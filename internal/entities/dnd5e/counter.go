package dnd5e

import (
	"fmt"

	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// UnlimitedUses marks a counter with no usage cap
const UnlimitedUses = -1

// ResetTiming identifies when a counter refills
type ResetTiming string

// Reset timings
const (
	ResetShortRest ResetTiming = "short_rest"
	ResetLongRest  ResetTiming = "long_rest"
	ResetDawn      ResetTiming = "dawn"
	ResetManual    ResetTiming = "manual"
)

// Valid reports whether t is a known reset timing
func (t ResetTiming) Valid() bool {
	switch t {
	case ResetShortRest, ResetLongRest, ResetDawn, ResetManual:
		return true
	default:
		return false
	}
}

// CharacterCounter tracks one limited-use resource pool on a character.
// Identity is (Source, PoolName): two sources granting pools with the
// same name stay separate counters and are never merged.
type CharacterCounter struct {
	Source      choices.Owner `json:"source"`
	PoolName    string        `json:"pool_name"`
	Name        string        `json:"name,omitempty"`
	Max         int           `json:"max"` // UnlimitedUses for uncapped pools
	Current     int           `json:"current"`
	ResetTiming ResetTiming   `json:"reset_timing"`
}

// Key renders the counter's identity for lookups and error messages
func (c *CharacterCounter) Key() string {
	return fmt.Sprintf("%s:%s:%s", c.Source.Kind, c.Source.ID, c.PoolName)
}

// Unlimited reports whether the counter has no usage cap
func (c *CharacterCounter) Unlimited() bool {
	return c.Max == UnlimitedUses
}

// Use consumes one use. It returns false when the pool is empty.
// Unlimited counters always succeed and never change state.
func (c *CharacterCounter) Use() bool {
	if c.Unlimited() {
		return true
	}
	if c.Current <= 0 {
		return false
	}
	c.Current--
	return true
}

// Restore adds n uses back, clamped at the maximum
func (c *CharacterCounter) Restore(n int) {
	if c.Unlimited() || n <= 0 {
		return
	}
	c.Current += n
	if c.Current > c.Max {
		c.Current = c.Max
	}
}

// Reset refills the counter to its maximum
func (c *CharacterCounter) Reset() {
	if c.Unlimited() {
		return
	}
	c.Current = c.Max
}
