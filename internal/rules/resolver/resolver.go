// Package resolver implements the per-kind choice resolution protocol:
// computing pending choices from the catalog, validating and applying
// selections, and undoing them. One resolver per choice kind; the
// Registry dispatches on the kind encoded in the choice ID.
package resolver

import (
	"context"

	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// Resolver handles one choice kind. Resolvers mutate the character in
// memory only; persistence is the orchestrator's job so a failed
// validation never leaves a partial write.
type Resolver interface {
	// Kind returns the choice kind this resolver handles
	Kind() choices.Kind

	// Pending builds the uniform view of one group for one character
	Pending(ctx context.Context, char *dnd5e.Character, group *choices.Group) (*choices.PendingChoice, error)

	// Resolve validates the selection against the group and records it
	// on the character, replacing any prior selection wholesale.
	Resolve(ctx context.Context, char *dnd5e.Character, group *choices.Group, sel choices.Selection) error

	// CanUndo reports whether the group's selection can be reverted
	CanUndo(char *dnd5e.Character, group *choices.Group) bool

	// Undo reverts the group's selection and its effects
	Undo(ctx context.Context, char *dnd5e.Character, group *choices.Group) error
}

// pendingView builds the kind-independent portion of a pending choice
func pendingView(char *dnd5e.Character, group *choices.Group) *choices.PendingChoice {
	id := group.ID()
	pending := &choices.PendingChoice{
		ID:              id.Encode(),
		Kind:            group.Kind,
		Owner:           group.Owner,
		Source:          id.SourceLabel(),
		Name:            group.Name,
		Level:           group.EffectiveLevel(),
		Choose:          group.Choose,
		Optional:        group.Optional,
		Options:         group.Options,
		Remaining:       group.Choose,
		BonusValue:      group.BonusValue,
		RequireDistinct: group.RequireDistinct,
	}

	if sel := char.SelectionFor(pending.ID); sel != nil {
		pending.Selected = sel.Values
		pending.Remaining = 0
	}

	for _, opt := range group.Options {
		if f, ok := opt.(*choices.Filter); ok && f.Category != "" {
			pending.CategoryHint = f.Category
			break
		}
	}

	return pending
}

// validateCount enforces atomic submission: exactly the required count
func validateCount(group *choices.Group, sel choices.Selection) error {
	if len(sel.Values) != group.Choose {
		return errors.InvalidArgumentf(
			"selection for %s requires exactly %d values, got %d",
			group.ID(), group.Choose, len(sel.Values))
	}
	for _, v := range sel.Values {
		if v == "" {
			return errors.InvalidArgumentf("selection for %s contains an empty value", group.ID())
		}
	}
	return nil
}

// validateDistinct rejects duplicate values in one submission
func validateDistinct(group *choices.Group, sel choices.Selection) error {
	if !group.RequireDistinct {
		return nil
	}
	seen := make(map[string]struct{}, len(sel.Values))
	for _, v := range sel.Values {
		if _, dup := seen[v]; dup {
			return errors.InvalidArgumentf("selection for %s repeats value %q", group.ID(), v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// concreteKeys collects the keys of the group's concrete options
func concreteKeys(group *choices.Group) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, opt := range group.Options {
		switch o := opt.(type) {
		case *choices.Reference:
			keys[o.Key] = struct{}{}
		case *choices.CountedReference:
			keys[o.Key] = struct{}{}
		}
	}
	return keys
}

// filterOptions collects the group's filter options
func filterOptions(group *choices.Group) []*choices.Filter {
	var filters []*choices.Filter
	for _, opt := range group.Options {
		if f, ok := opt.(*choices.Filter); ok {
			filters = append(filters, f)
		}
	}
	return filters
}

// recordSelection writes the resolved values onto the character,
// replacing any prior selection for the group.
func recordSelection(char *dnd5e.Character, group *choices.Group, sel choices.Selection, clk clock.Clock) {
	values := make([]string, len(sel.Values))
	copy(values, sel.Values)
	char.SetSelection(dnd5e.ChoiceSelection{
		ChoiceID:   group.ID().Encode(),
		Kind:       group.Kind,
		Values:     values,
		ResolvedAt: clk.Now(),
	})
}

// requireUndoable enforces the shared undo preconditions
func requireUndoable(char *dnd5e.Character, group *choices.Group) error {
	if group.Permanent {
		return errors.FailedPreconditionf("choice %s is permanent and cannot be undone", group.ID())
	}
	if char.SelectionFor(group.ID().Encode()) == nil {
		return errors.FailedPreconditionf("choice %s has not been resolved", group.ID())
	}
	return nil
}
