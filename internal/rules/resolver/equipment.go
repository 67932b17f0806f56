package resolver

import (
	"context"

	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// EquipmentConfig contains configuration for the equipment resolver
type EquipmentConfig struct {
	GameData gamedata.Client
	Clock    clock.Clock
}

// Validate validates the EquipmentConfig
func (cfg *EquipmentConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.GameData == nil {
		return errors.InvalidArgument("game data client cannot be nil")
	}
	return nil
}

type equipmentResolver struct {
	gameData gamedata.Client
	clock    clock.Clock
}

// NewEquipment creates the resolver for starting equipment choices
func NewEquipment(cfg *EquipmentConfig) (Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &equipmentResolver{
		gameData: cfg.GameData,
		clock:    c,
	}, nil
}

func (r *equipmentResolver) Kind() choices.Kind {
	return choices.KindEquipment
}

func (r *equipmentResolver) Pending(
	_ context.Context,
	char *dnd5e.Character,
	group *choices.Group,
) (*choices.PendingChoice, error) {
	return pendingView(char, group), nil
}

// bundles collects the group's bundle options by label
func bundles(group *choices.Group) map[string]*choices.Bundle {
	out := make(map[string]*choices.Bundle)
	for _, opt := range group.Options {
		if b, ok := opt.(*choices.Bundle); ok {
			out[b.Label] = b
		}
	}
	return out
}

func (r *equipmentResolver) Resolve(
	ctx context.Context,
	char *dnd5e.Character,
	group *choices.Group,
	sel choices.Selection,
) error {
	labeled := bundles(group)
	if len(labeled) == 0 {
		// Plain equipment group: values validate by membership like
		// any other concrete-or-category choice.
		m := &membershipResolver{kind: choices.KindEquipment, gameData: r.gameData, clock: r.clock}
		return m.Resolve(ctx, char, group, sel)
	}

	// Bundle group: the first value names the bundle, the rest fill
	// its filter slots in order. Items never mix across bundles.
	if len(sel.Values) == 0 {
		return errors.InvalidArgumentf("selection for %s names no bundle", group.ID())
	}

	bundle, ok := labeled[sel.Values[0]]
	if !ok {
		return errors.InvalidArgumentf("%q is not a bundle of choice %s", sel.Values[0], group.ID())
	}

	var slots []*choices.Filter
	for i := range bundle.Items {
		if bundle.Items[i].Filter != nil {
			slots = append(slots, bundle.Items[i].Filter)
		}
	}

	picks := sel.Values[1:]
	if len(picks) != len(slots) {
		return errors.InvalidArgumentf(
			"bundle %q of choice %s requires %d picks, got %d",
			bundle.Label, group.ID(), len(slots), len(picks))
	}

	for i, pick := range picks {
		if pick == "" {
			return errors.InvalidArgumentf("selection for %s contains an empty value", group.ID())
		}
		ok, err := r.inCategory(ctx, slots[i].Category, pick)
		if err != nil {
			return err
		}
		if !ok {
			return errors.InvalidArgumentf(
				"%q does not satisfy the %s slot of bundle %q",
				pick, slots[i].Category, bundle.Label)
		}
	}

	recordSelection(char, group, sel, r.clock)
	return nil
}

func (r *equipmentResolver) inCategory(ctx context.Context, category, key string) (bool, error) {
	refs, err := r.gameData.ListCategory(ctx, category)
	if err != nil {
		return false, errors.Wrapf(err, "failed to enumerate category %s", category)
	}
	for _, ref := range refs {
		if ref.ID == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *equipmentResolver) CanUndo(char *dnd5e.Character, group *choices.Group) bool {
	return !group.Permanent && char.SelectionFor(group.ID().Encode()) != nil
}

func (r *equipmentResolver) Undo(_ context.Context, char *dnd5e.Character, group *choices.Group) error {
	if err := requireUndoable(char, group); err != nil {
		return err
	}
	char.RemoveSelection(group.ID().Encode())
	return nil
}
