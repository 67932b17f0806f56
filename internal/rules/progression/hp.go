// Package progression implements hit point progression: starting hit
// points, the average-or-rolled gain at each level, and maximum hit
// point recomputation when Constitution changes.
package progression

import (
	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
)

// StartingHP is the level 1 maximum: the full hit die plus the
// Constitution modifier, never below 1.
func StartingHP(hitDie, conMod int) int {
	hp := hitDie + conMod
	if hp < 1 {
		hp = 1
	}
	return hp
}

// AverageGain is the fixed gain when a player takes the average:
// half the hit die rounded up, plus the Constitution modifier, never
// below 1.
func AverageGain(hitDie, conMod int) int {
	gain := hitDie/2 + 1 + conMod
	if gain < 1 {
		gain = 1
	}
	return gain
}

// HP applies hit point rules to a character in memory
type HP struct {
	clock clock.Clock
}

// HPConfig contains configuration for the hit point engine
type HPConfig struct {
	Clock clock.Clock
}

// NewHP creates a hit point engine
func NewHP(cfg *HPConfig) *HP {
	c := clock.Clock(nil)
	if cfg != nil {
		c = cfg.Clock
	}
	if c == nil {
		c = clock.New()
	}
	return &HP{clock: c}
}

// Initialize sets the starting maximum for a freshly created level 1
// character and writes the level 1 ledger row.
func (h *HP) Initialize(char *dnd5e.Character) error {
	if len(char.Classes) != 1 || char.Classes[0].Level != 1 {
		return errors.InvalidArgument("starting hit points require exactly one class at level 1")
	}
	if char.Classes[0].HitDie < 1 {
		return errors.Internalf("class %s has no hit die", char.Classes[0].ClassID)
	}
	if len(char.HitPointGains) > 0 {
		return errors.FailedPrecondition("hit points already initialized")
	}

	conMod := char.AbilityScores.Modifier(dnd5e.AbilityConstitution)
	amount := StartingHP(char.Classes[0].HitDie, conMod)

	char.MaxHP = amount
	char.CurrentHP = amount
	char.HitPointGains = append(char.HitPointGains, dnd5e.HitPointGain{
		Level:      1,
		ClassID:    char.Classes[0].ClassID,
		Method:     dnd5e.HPMethodStarting,
		Amount:     amount,
		ResolvedAt: h.clock.Now(),
	})
	return nil
}

// PendingLevels lists the total levels that still need a hit point
// resolution, in ascending order.
func (h *HP) PendingLevels(char *dnd5e.Character) []int {
	var pending []int
	for level := 2; level <= char.TotalLevel(); level++ {
		if char.HitPointGainAt(level) == nil {
			pending = append(pending, level)
		}
	}
	return pending
}

// ResolveGain records the hit point gain for one pending level. Each
// level resolves exactly once; the choice between average and rolled
// is final.
// Returns errors.FailedPrecondition when the level is not pending
// Returns errors.OutOfRange when a roll falls outside the hit die
func (h *HP) ResolveGain(char *dnd5e.Character, level int, classID string, method dnd5e.HPMethod, roll int) error {
	if level < 2 || level > char.TotalLevel() {
		return errors.OutOfRangef("level %d is not a gained level", level)
	}
	if char.HitPointGainAt(level) != nil {
		return errors.FailedPreconditionf("hit points for level %d are already resolved", level)
	}

	class := char.Class(classID)
	if class == nil {
		return errors.InvalidArgumentf("character %s has no levels in %s", char.ID, classID)
	}
	if class.HitDie < 1 {
		return errors.Internalf("class %s has no hit die", classID)
	}

	conMod := char.AbilityScores.Modifier(dnd5e.AbilityConstitution)

	var amount int
	gain := dnd5e.HitPointGain{
		Level:      level,
		ClassID:    classID,
		Method:     method,
		ResolvedAt: h.clock.Now(),
	}

	switch method {
	case dnd5e.HPMethodAverage:
		amount = AverageGain(class.HitDie, conMod)
	case dnd5e.HPMethodRolled:
		if roll < 1 || roll > class.HitDie {
			return errors.OutOfRangef("roll %d is outside d%d", roll, class.HitDie)
		}
		gain.Roll = roll
		amount = roll + conMod
		if amount < 1 {
			amount = 1
		}
	default:
		return errors.InvalidArgumentf("unknown hit point method %q", method)
	}

	gain.Amount = amount
	char.HitPointGains = append(char.HitPointGains, gain)
	char.MaxHP += amount
	char.CurrentHP += amount
	return nil
}

// ApplyConstitutionChange sets the Constitution score and adjusts the
// maximum by the modifier delta once per total level, without
// rewriting the ledger. A positive delta raises current hit points
// with the maximum; a negative delta clamps current hit points to the
// new maximum and otherwise leaves them alone. Neither value drops
// below 1.
func ApplyConstitutionChange(char *dnd5e.Character, newScore int) {
	oldMod := char.AbilityScores.Modifier(dnd5e.AbilityConstitution)

	if char.AbilityScores == nil {
		char.AbilityScores = make(dnd5e.AbilityScores)
	}
	char.AbilityScores[dnd5e.AbilityConstitution] = newScore
	newMod := char.AbilityScores.Modifier(dnd5e.AbilityConstitution)

	if newMod == oldMod {
		return
	}

	delta := (newMod - oldMod) * char.TotalLevel()
	char.MaxHP += delta
	if char.MaxHP < 1 {
		char.MaxHP = 1
	}

	if delta > 0 {
		char.CurrentHP += delta
		return
	}
	if char.CurrentHP > char.MaxHP {
		char.CurrentHP = char.MaxHP
	}
	if char.CurrentHP < 1 {
		char.CurrentHP = 1
	}
}
