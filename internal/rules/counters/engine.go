// Package counters maintains a character's limited-use resource pools:
// deriving them from catalog grants, spending and restoring uses, and
// resetting them on rest timings. Counters are identified by the
// (source, pool name) pair; pools with the same name from different
// sources never merge.
package counters

import (
	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/repositories/catalog"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// Engine applies counter rules to a character in memory. Persistence
// is the caller's responsibility.
type Engine struct{}

// New creates a counter engine
func New() *Engine {
	return &Engine{}
}

// Sync reconciles the character's counters against the grants its
// sources currently contribute. New pools start full, raising a
// maximum preserves the current value, and counters whose grant no
// longer applies are removed. Sync is idempotent.
func (e *Engine) Sync(char *dnd5e.Character, grants []*catalog.ResourceGrant) {
	keep := make(map[string]struct{}, len(grants))

	for _, grant := range grants {
		level := char.OwnerLevel(grant.Owner)
		max, ok := grant.MaxFor(level)
		if !ok {
			// Below the grant's first tier: the pool does not exist yet
			continue
		}
		keep[counterKey(grant.Owner, grant.PoolName)] = struct{}{}

		existing := char.Counter(grant.Owner, grant.PoolName)
		if existing == nil {
			counter := &dnd5e.CharacterCounter{
				Source:      grant.Owner,
				PoolName:    grant.PoolName,
				Name:        grant.Name,
				Max:         max,
				ResetTiming: grant.ResetTiming,
			}
			if !counter.Unlimited() {
				counter.Current = max
			}
			char.Counters = append(char.Counters, counter)
			continue
		}

		existing.Name = grant.Name
		existing.ResetTiming = grant.ResetTiming
		if existing.Max != max {
			existing.Max = max
			if max == dnd5e.UnlimitedUses {
				existing.Current = 0
			} else if existing.Current > max {
				existing.Current = max
			}
		}
	}

	// Drop counters whose grant no longer applies
	kept := char.Counters[:0]
	for _, counter := range char.Counters {
		if _, ok := keep[counterKey(counter.Source, counter.PoolName)]; ok {
			kept = append(kept, counter)
		}
	}
	char.Counters = kept
}

func counterKey(owner choices.Owner, poolName string) string {
	return string(owner.Kind) + ":" + owner.ID + ":" + poolName
}

// Use spends one use from a counter.
// Returns errors.NotFound when the counter does not exist
// Returns errors.ResourceExhausted when the pool is empty
func (e *Engine) Use(char *dnd5e.Character, source choices.Owner, poolName string) error {
	counter := char.Counter(source, poolName)
	if counter == nil {
		return errors.NotFoundf("character %s has no counter %s", char.ID, counterKey(source, poolName))
	}
	if !counter.Use() {
		return errors.ResourceExhaustedf("counter %s has no uses remaining", counter.Key())
	}
	return nil
}

// Restore adds uses back to a counter, clamped at its maximum
func (e *Engine) Restore(char *dnd5e.Character, source choices.Owner, poolName string, n int) error {
	counter := char.Counter(source, poolName)
	if counter == nil {
		return errors.NotFoundf("character %s has no counter %s", char.ID, counterKey(source, poolName))
	}
	if n < 1 {
		return errors.InvalidArgumentf("restore amount must be positive, got %d", n)
	}
	counter.Restore(n)
	return nil
}

// Reset refills one counter to its maximum
func (e *Engine) Reset(char *dnd5e.Character, source choices.Owner, poolName string) error {
	counter := char.Counter(source, poolName)
	if counter == nil {
		return errors.NotFoundf("character %s has no counter %s", char.ID, counterKey(source, poolName))
	}
	counter.Reset()
	return nil
}

// ResetByTiming refills every counter with the given reset timing and
// returns the keys of the counters that were reset.
func (e *Engine) ResetByTiming(char *dnd5e.Character, timing dnd5e.ResetTiming) []string {
	var reset []string
	for _, counter := range char.Counters {
		if counter.ResetTiming != timing || counter.Unlimited() {
			continue
		}
		counter.Reset()
		reset = append(reset, counter.Key())
	}
	return reset
}
