package resolver

import (
	"context"
	"sort"

	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/repositories/catalog"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// applicableGroups fetches every group the character's sources
// contribute and keeps those whose level gate the character meets.
// The result is ordered deterministically so repeated calls present
// choices in the same sequence.
func applicableGroups(
	ctx context.Context,
	repo catalog.Repository,
	char *dnd5e.Character,
) ([]*choices.Group, error) {
	owners := char.Owners()
	if len(owners) == 0 {
		return nil, nil
	}

	output, err := repo.GroupsForOwners(ctx, catalog.GroupsForOwnersInput{Owners: owners})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch choice groups")
	}

	applicable := make([]*choices.Group, 0, len(output.Groups))
	for _, group := range output.Groups {
		if char.OwnerLevel(group.Owner) >= group.EffectiveLevel() {
			applicable = append(applicable, group)
		}
	}

	sort.Slice(applicable, func(i, j int) bool {
		a, b := applicable[i], applicable[j]
		if a.EffectiveLevel() != b.EffectiveLevel() {
			return a.EffectiveLevel() < b.EffectiveLevel()
		}
		if a.Owner.Kind != b.Owner.Kind {
			return a.Owner.Kind < b.Owner.Kind
		}
		if a.Owner.ID != b.Owner.ID {
			return a.Owner.ID < b.Owner.ID
		}
		return a.Key < b.Key
	})

	return applicable, nil
}

// groupByID locates the catalog group a parsed choice ID refers to.
// The group must exist in the catalog and its owner must be one of the
// character's sources.
func groupByID(
	ctx context.Context,
	repo catalog.Repository,
	char *dnd5e.Character,
	id choices.ChoiceID,
) (*choices.Group, error) {
	hasOwner := false
	for _, owner := range char.Owners() {
		if owner == id.Owner {
			hasOwner = true
			break
		}
	}
	if !hasOwner {
		return nil, errors.FailedPreconditionf(
			"character %s has no source %s", char.ID, id.SourceLabel())
	}

	output, err := repo.GroupsForOwner(ctx, catalog.GroupsForOwnerInput{Owner: id.Owner})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch choice groups")
	}

	for _, group := range output.Groups {
		if group.ID() == id {
			return group, nil
		}
	}
	return nil, errors.NotFoundf("choice %s not found", id)
}
