package resolver

import (
	"context"

	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/repositories/catalog"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// Registry holds one resolver per choice kind and dispatches protocol
// operations on the kind encoded in the choice ID.
type Registry struct {
	catalog   catalog.Repository
	resolvers map[choices.Kind]Resolver
}

// RegistryConfig contains configuration for the resolver registry
type RegistryConfig struct {
	Catalog  catalog.Repository
	GameData gamedata.Client
	Clock    clock.Clock
}

// Validate validates the RegistryConfig
func (cfg *RegistryConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Catalog == nil {
		return errors.InvalidArgument("catalog repository cannot be nil")
	}
	if cfg.GameData == nil {
		return errors.InvalidArgument("game data client cannot be nil")
	}
	return nil
}

// NewRegistry creates a registry with the resolver for every kind
func NewRegistry(cfg *RegistryConfig) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	proficiency, err := NewProficiency(&ProficiencyConfig{GameData: cfg.GameData, Clock: c})
	if err != nil {
		return nil, err
	}
	language, err := NewLanguage(&LanguageConfig{GameData: cfg.GameData, Clock: c})
	if err != nil {
		return nil, err
	}
	abilityScore, err := NewAbilityScore(&AbilityScoreConfig{Clock: c})
	if err != nil {
		return nil, err
	}
	equipment, err := NewEquipment(&EquipmentConfig{GameData: cfg.GameData, Clock: c})
	if err != nil {
		return nil, err
	}
	spell, err := NewSpell(&SpellConfig{GameData: cfg.GameData, Clock: c})
	if err != nil {
		return nil, err
	}

	r := &Registry{
		catalog:   cfg.Catalog,
		resolvers: make(map[choices.Kind]Resolver),
	}
	for _, res := range []Resolver{proficiency, language, abilityScore, equipment, spell} {
		r.resolvers[res.Kind()] = res
	}
	return r, nil
}

func (r *Registry) resolverFor(kind choices.Kind) (Resolver, error) {
	res, ok := r.resolvers[kind]
	if !ok {
		return nil, errors.Internalf("no resolver registered for kind %s", kind)
	}
	return res, nil
}

// PendingChoices computes the uniform view of every applicable choice
// group for the character, resolved and unresolved alike. The view is
// derived fresh on every call and never persisted.
func (r *Registry) PendingChoices(
	ctx context.Context,
	char *dnd5e.Character,
) ([]*choices.PendingChoice, error) {
	groups, err := applicableGroups(ctx, r.catalog, char)
	if err != nil {
		return nil, err
	}

	pending := make([]*choices.PendingChoice, 0, len(groups))
	for _, group := range groups {
		res, err := r.resolverFor(group.Kind)
		if err != nil {
			return nil, err
		}
		view, err := res.Pending(ctx, char, group)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build pending view for %s", group.ID())
		}
		pending = append(pending, view)
	}
	return pending, nil
}

// Resolve applies a selection to one choice group. Re-resolving a
// group replaces the prior selection wholesale; permanent groups
// reject modification.
func (r *Registry) Resolve(
	ctx context.Context,
	char *dnd5e.Character,
	choiceID string,
	sel choices.Selection,
) error {
	id, err := choices.ParseChoiceID(choiceID)
	if err != nil {
		return err
	}

	group, err := groupByID(ctx, r.catalog, char, id)
	if err != nil {
		return err
	}

	if char.OwnerLevel(group.Owner) < group.EffectiveLevel() {
		return errors.FailedPreconditionf(
			"choice %s requires %s level %d", id, id.SourceLabel(), group.EffectiveLevel())
	}

	res, err := r.resolverFor(group.Kind)
	if err != nil {
		return err
	}

	// Replace semantics: revert the old selection's effects before
	// validating the new one. The caller persists only on success, so
	// a failed validation discards the in-memory undo as well.
	if char.SelectionFor(choiceID) != nil {
		if group.Permanent {
			return errors.FailedPreconditionf("choice %s is permanent and cannot be changed", id)
		}
		if err := res.Undo(ctx, char, group); err != nil {
			return err
		}
	}

	return res.Resolve(ctx, char, group, sel)
}

// CanUndo reports whether the selection for one choice can be reverted
func (r *Registry) CanUndo(
	ctx context.Context,
	char *dnd5e.Character,
	choiceID string,
) (bool, error) {
	id, err := choices.ParseChoiceID(choiceID)
	if err != nil {
		return false, err
	}

	group, err := groupByID(ctx, r.catalog, char, id)
	if err != nil {
		return false, err
	}

	res, err := r.resolverFor(group.Kind)
	if err != nil {
		return false, err
	}
	return res.CanUndo(char, group), nil
}

// Undo reverts the selection for one choice. Undoing a group that was
// never resolved is a no-op.
func (r *Registry) Undo(
	ctx context.Context,
	char *dnd5e.Character,
	choiceID string,
) error {
	id, err := choices.ParseChoiceID(choiceID)
	if err != nil {
		return err
	}

	group, err := groupByID(ctx, r.catalog, char, id)
	if err != nil {
		return err
	}

	res, err := r.resolverFor(group.Kind)
	if err != nil {
		return err
	}
	if group.Permanent {
		return errors.FailedPreconditionf("choice %s is permanent and cannot be undone", id)
	}
	if char.SelectionFor(choiceID) == nil {
		return nil
	}
	return res.Undo(ctx, char, group)
}
