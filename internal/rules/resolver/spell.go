package resolver

import (
	"context"
	"strings"

	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// SpellConfig contains configuration for the spell resolver
type SpellConfig struct {
	GameData gamedata.Client
	Clock    clock.Clock
}

// Validate validates the SpellConfig
func (cfg *SpellConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.GameData == nil {
		return errors.InvalidArgument("game data client cannot be nil")
	}
	return nil
}

type spellResolver struct {
	gameData gamedata.Client
	clock    clock.Clock
}

// NewSpell creates the resolver for spell choices
func NewSpell(cfg *SpellConfig) (Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &spellResolver{
		gameData: cfg.GameData,
		clock:    c,
	}, nil
}

func (r *spellResolver) Kind() choices.Kind {
	return choices.KindSpell
}

func (r *spellResolver) Pending(
	_ context.Context,
	char *dnd5e.Character,
	group *choices.Group,
) (*choices.PendingChoice, error) {
	return pendingView(char, group), nil
}

func (r *spellResolver) Resolve(
	ctx context.Context,
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

	concrete := concreteKeys(group)
	filters := filterOptions(group)

	for _, value := range sel.Values {
		if _, ok := concrete[value]; ok {
			continue
		}
		if len(filters) == 0 {
			return errors.InvalidArgumentf(
				"%q is not an option of choice %s", value, group.ID())
		}

		spell, err := r.gameData.GetSpell(ctx, value)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.InvalidArgumentf("unknown spell %q", value)
			}
			return errors.Wrapf(err, "failed to look up spell %s", value)
		}

		if !matchesAnyFilter(spell, filters) {
			return errors.InvalidArgumentf(
				"spell %q does not satisfy the constraints of choice %s", value, group.ID())
		}
	}

	recordSelection(char, group, sel, r.clock)
	return nil
}

func matchesAnyFilter(spell *gamedata.SpellData, filters []*choices.Filter) bool {
	for _, f := range filters {
		if matchesFilter(spell, f) {
			return true
		}
	}
	return false
}

func matchesFilter(spell *gamedata.SpellData, f *choices.Filter) bool {
	if f.MaxSpellLevel != nil && spell.Level > *f.MaxSpellLevel {
		return false
	}
	if f.SpellList != "" && !spell.HasClass(f.SpellList) {
		return false
	}
	if f.School != "" && !strings.EqualFold(spell.School, f.School) {
		return false
	}
	if f.RitualOnly && !spell.Ritual {
		return false
	}
	return true
}

func (r *spellResolver) CanUndo(char *dnd5e.Character, group *choices.Group) bool {
	return !group.Permanent && char.SelectionFor(group.ID().Encode()) != nil
}

func (r *spellResolver) Undo(_ context.Context, char *dnd5e.Character, group *choices.Group) error {
	if err := requireUndoable(char, group); err != nil {
		return err
	}
	char.RemoveSelection(group.ID().Encode())
	return nil
}
