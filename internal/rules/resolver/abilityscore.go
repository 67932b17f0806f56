package resolver

import (
	"context"

	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/rules/progression"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// AbilityScoreConfig contains configuration for the ability score resolver
type AbilityScoreConfig struct {
	Clock clock.Clock
}

// Validate validates the AbilityScoreConfig
func (cfg *AbilityScoreConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	return nil
}

type abilityScoreResolver struct {
	clock clock.Clock
}

// NewAbilityScore creates the resolver for ability score bonus choices
func NewAbilityScore(cfg *AbilityScoreConfig) (Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &abilityScoreResolver{clock: c}, nil
}

func (r *abilityScoreResolver) Kind() choices.Kind {
	return choices.KindAbilityScore
}

func (r *abilityScoreResolver) Pending(
	_ context.Context,
	char *dnd5e.Character,
	group *choices.Group,
) (*choices.PendingChoice, error) {
	return pendingView(char, group), nil
}

func (r *abilityScoreResolver) Resolve(
	_ context.Context,
	char *dnd5e.Character,
	group *choices.Group,
	sel choices.Selection,
) error {
	if err := validateCount(group, sel); err != nil {
		return err
	}
	if err := validateDistinct(group, sel); err != nil {
		return err
	}
	if group.BonusValue == 0 {
		return errors.Internalf("ability score choice %s has no bonus value", group.ID())
	}

	concrete := concreteKeys(group)
	for _, value := range sel.Values {
		if !dnd5e.Ability(value).Valid() {
			return errors.InvalidArgumentf("%q is not an ability", value)
		}
		if len(concrete) > 0 {
			if _, ok := concrete[value]; !ok {
				return errors.InvalidArgumentf(
					"%q is not an option of choice %s", value, group.ID())
			}
		}
	}

	// Applying and recording happen together so undo can derive the
	// exact reversal from the stored values.
	if char.AbilityScores == nil {
		char.AbilityScores = make(dnd5e.AbilityScores)
	}
	for _, value := range sel.Values {
		ability := dnd5e.Ability(value)
		if ability == dnd5e.AbilityConstitution {
			progression.ApplyConstitutionChange(char, char.AbilityScores[ability]+group.BonusValue)
			continue
		}
		char.AbilityScores[ability] += group.BonusValue
	}

	recordSelection(char, group, sel, r.clock)
	return nil
}

func (r *abilityScoreResolver) CanUndo(char *dnd5e.Character, group *choices.Group) bool {
	return !group.Permanent && char.SelectionFor(group.ID().Encode()) != nil
}

func (r *abilityScoreResolver) Undo(_ context.Context, char *dnd5e.Character, group *choices.Group) error {
	if err := requireUndoable(char, group); err != nil {
		return err
	}

	sel := char.SelectionFor(group.ID().Encode())
	for _, value := range sel.Values {
		ability := dnd5e.Ability(value)
		if ability == dnd5e.AbilityConstitution {
			progression.ApplyConstitutionChange(char, char.AbilityScores[ability]-group.BonusValue)
			continue
		}
		char.AbilityScores[ability] -= group.BonusValue
	}
	char.RemoveSelection(group.ID().Encode())
	return nil
}
