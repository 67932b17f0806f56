// Package dnd5e defines the character aggregate persisted per player:
// identity, class levels, ability scores, resolved choices, resource
// counters, and the hit point ledger. The rules packages mutate these
// entities; they hold no behavior beyond local bookkeeping.
package dnd5e

import (
	"time"

	"github.com/KirkDiggler/rpg-toolkit/core"

	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// EntityTypeCharacter is the core.Entity type discriminator for characters
const EntityTypeCharacter = "character"

// CharacterClass is one class a character has levels in
type CharacterClass struct {
	ClassID    string `json:"class_id"`
	SubclassID string `json:"subclass_id,omitempty"`
	Level      int    `json:"level"`
	HitDie     int    `json:"hit_die"`
}

// ChoiceSelection records one resolved choice group. Selections are
// replaced wholesale on re-resolution, never merged.
type ChoiceSelection struct {
	ChoiceID   string       `json:"choice_id"`
	Kind       choices.Kind `json:"kind"`
	Values     []string     `json:"values"`
	ResolvedAt time.Time    `json:"resolved_at"`
}

// HPMethod identifies how a level's hit points were determined
type HPMethod string

// Hit point methods
const (
	HPMethodStarting HPMethod = "starting"
	HPMethodAverage  HPMethod = "average"
	HPMethodRolled   HPMethod = "rolled"
)

// HitPointGain is one row in the hit point ledger: the amount a
// character gained at one total level, and how. Level 1 is always the
// starting row; every later level needs an average-or-rolled
// resolution before it contributes.
type HitPointGain struct {
	Level      int       `json:"level"`
	ClassID    string    `json:"class_id"`
	Method     HPMethod  `json:"method"`
	Roll       int       `json:"roll,omitempty"`
	Amount     int       `json:"amount"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Character is the aggregate root. The whole document is written in a
// single operation so resolutions, counters, and hit points can never
// drift apart.
type Character struct {
	ID       string `json:"id"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`

	RaceID       string   `json:"race_id"`
	SubraceID    string   `json:"subrace_id,omitempty"`
	BackgroundID string   `json:"background_id,omitempty"`
	FeatIDs      []string `json:"feat_ids,omitempty"`

	Classes       []CharacterClass `json:"classes"`
	AbilityScores AbilityScores    `json:"ability_scores"`

	MaxHP     int `json:"max_hp"`
	CurrentHP int `json:"current_hp"`

	Selections    []ChoiceSelection   `json:"selections,omitempty"`
	Counters      []*CharacterCounter `json:"counters,omitempty"`
	HitPointGains []HitPointGain      `json:"hit_point_gains,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var _ core.Entity = (*Character)(nil)

// GetID implements core.Entity
func (c *Character) GetID() string { return c.ID }

// GetType implements core.Entity
func (c *Character) GetType() string { return EntityTypeCharacter }

// TotalLevel sums the character's levels across all classes
func (c *Character) TotalLevel() int {
	total := 0
	for _, cls := range c.Classes {
		total += cls.Level
	}
	return total
}

// Class returns the character's entry for the given class, or nil
func (c *Character) Class(classID string) *CharacterClass {
	for i := range c.Classes {
		if c.Classes[i].ClassID == classID {
			return &c.Classes[i]
		}
	}
	return nil
}

// ClassLevel returns the character's level in the given class, 0 if none
func (c *Character) ClassLevel(classID string) int {
	if cls := c.Class(classID); cls != nil {
		return cls.Level
	}
	return 0
}

// SelectionFor returns the recorded selection for the encoded choice
// ID, or nil when the group is unresolved.
func (c *Character) SelectionFor(choiceID string) *ChoiceSelection {
	for i := range c.Selections {
		if c.Selections[i].ChoiceID == choiceID {
			return &c.Selections[i]
		}
	}
	return nil
}

// SetSelection records or replaces the selection for one choice group
func (c *Character) SetSelection(sel ChoiceSelection) {
	for i := range c.Selections {
		if c.Selections[i].ChoiceID == sel.ChoiceID {
			c.Selections[i] = sel
			return
		}
	}
	c.Selections = append(c.Selections, sel)
}

// RemoveSelection drops the selection for one choice group. It returns
// false when no selection was recorded.
func (c *Character) RemoveSelection(choiceID string) bool {
	for i := range c.Selections {
		if c.Selections[i].ChoiceID == choiceID {
			c.Selections = append(c.Selections[:i], c.Selections[i+1:]...)
			return true
		}
	}
	return false
}

// Counter returns the counter identified by (source, poolName), or nil
func (c *Character) Counter(source choices.Owner, poolName string) *CharacterCounter {
	for _, counter := range c.Counters {
		if counter.Source == source && counter.PoolName == poolName {
			return counter
		}
	}
	return nil
}

// HitPointGainAt returns the ledger row for one total level, or nil
func (c *Character) HitPointGainAt(level int) *HitPointGain {
	for i := range c.HitPointGains {
		if c.HitPointGains[i].Level == level {
			return &c.HitPointGains[i]
		}
	}
	return nil
}

// Owners returns every catalog owner contributing choice groups to
// this character. Subraces ride along with their race; subclasses ride
// along with their class.
func (c *Character) Owners() []choices.Owner {
	owners := make([]choices.Owner, 0, 4+len(c.Classes)*2+len(c.FeatIDs))
	if c.RaceID != "" {
		owners = append(owners, choices.Owner{Kind: choices.OwnerRace, ID: c.RaceID})
	}
	if c.SubraceID != "" {
		owners = append(owners, choices.Owner{Kind: choices.OwnerRace, ID: c.SubraceID})
	}
	if c.BackgroundID != "" {
		owners = append(owners, choices.Owner{Kind: choices.OwnerBackground, ID: c.BackgroundID})
	}
	for _, cls := range c.Classes {
		owners = append(owners, choices.Owner{Kind: choices.OwnerClass, ID: cls.ClassID})
		if cls.SubclassID != "" {
			owners = append(owners, choices.Owner{Kind: choices.OwnerSubclass, ID: cls.SubclassID})
		}
	}
	for _, featID := range c.FeatIDs {
		owners = append(owners, choices.Owner{Kind: choices.OwnerFeat, ID: featID})
	}
	return owners
}

// OwnerLevel returns the level that gates groups from the given owner:
// the class level for class and subclass owners, the total level
// otherwise.
func (c *Character) OwnerLevel(owner choices.Owner) int {
	switch owner.Kind {
	case choices.OwnerClass:
		return c.ClassLevel(owner.ID)
	case choices.OwnerSubclass:
		for _, cls := range c.Classes {
			if cls.SubclassID == owner.ID {
				return cls.Level
			}
		}
		return 0
	default:
		return c.TotalLevel()
	}
}
