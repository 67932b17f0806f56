package resolver

import (
	"context"

	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// membershipResolver implements the protocol for kinds whose values
// are validated purely by membership: a value must match one of the
// group's concrete options or fall inside one of its filter
// categories. Proficiency and language choices both work this way.
type membershipResolver struct {
	kind     choices.Kind
	gameData gamedata.Client
	clock    clock.Clock
}

func (r *membershipResolver) Kind() choices.Kind {
	return r.kind
}

func (r *membershipResolver) Pending(
	_ context.Context,
	char *dnd5e.Character,
	group *choices.Group,
) (*choices.PendingChoice, error) {
	return pendingView(char, group), nil
}

func (r *membershipResolver) Resolve(
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

	// Category lists are fetched once per submission
	categories := make(map[string]map[string]struct{})
	for _, f := range filters {
		if f.Category == "" || categories[f.Category] != nil {
			continue
		}
		refs, err := r.gameData.ListCategory(ctx, f.Category)
		if err != nil {
			return errors.Wrapf(err, "failed to enumerate category %s", f.Category)
		}
		members := make(map[string]struct{}, len(refs))
		for _, ref := range refs {
			members[ref.ID] = struct{}{}
		}
		categories[f.Category] = members
	}

	for _, value := range sel.Values {
		if _, ok := concrete[value]; ok {
			continue
		}
		matched := false
		for _, members := range categories {
			if _, ok := members[value]; ok {
				matched = true
				break
			}
		}
		if !matched {
			return errors.InvalidArgumentf(
				"%q is not an option of choice %s", value, group.ID())
		}
	}

	recordSelection(char, group, sel, r.clock)
	return nil
}

func (r *membershipResolver) CanUndo(char *dnd5e.Character, group *choices.Group) bool {
	return !group.Permanent && char.SelectionFor(group.ID().Encode()) != nil
}

func (r *membershipResolver) Undo(_ context.Context, char *dnd5e.Character, group *choices.Group) error {
	if err := requireUndoable(char, group); err != nil {
		return err
	}
	char.RemoveSelection(group.ID().Encode())
	return nil
}
