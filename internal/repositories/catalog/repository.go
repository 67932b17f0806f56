// Package catalog provides persistence for imported rules content: the
// choice groups and resource grants contributed by races, classes,
// subclasses, backgrounds, and feats. Content is written by import
// tooling and read by the resolvers and the counter engine.
package catalog

import (
	"context"

	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// ResourceGrant declares a limited-use resource pool contributed by a
// source. The character's counter for it is keyed (Owner, PoolName).
type ResourceGrant struct {
	Owner    choices.Owner `json:"owner"`
	PoolName string        `json:"pool_name"`
	Name     string        `json:"name,omitempty"`

	ResetTiming dnd5e.ResetTiming `json:"reset_timing"`

	// MaxAtLevel maps the owner's level to the pool maximum from that
	// level on. dnd5e.UnlimitedUses marks an uncapped pool.
	MaxAtLevel map[int]int `json:"max_at_level"`
}

// MaxFor returns the pool maximum at the given owner level. It returns
// false when no tier applies yet.
func (g *ResourceGrant) MaxFor(level int) (int, bool) {
	best := -1
	max := 0
	for tier, m := range g.MaxAtLevel {
		if tier <= level && tier > best {
			best = tier
			max = m
		}
	}
	if best < 0 {
		return 0, false
	}
	return max, true
}

// Repository defines the interface for rules content persistence
type Repository interface {
	// PutGroups upserts choice groups under their (owner, level, key)
	// identity. The whole batch is validated before anything is
	// written; a misconfigured group fails the import.
	// Returns errors.InvalidArgument naming the offending group
	PutGroups(ctx context.Context, input PutGroupsInput) (*PutGroupsOutput, error)

	// GroupsForOwner retrieves every choice group one owner contributes
	GroupsForOwner(ctx context.Context, input GroupsForOwnerInput) (*GroupsForOwnerOutput, error)

	// GroupsForOwners retrieves groups for a batch of owners in one call
	GroupsForOwners(ctx context.Context, input GroupsForOwnersInput) (*GroupsForOwnersOutput, error)

	// PutResourceGrants upserts resource grants under (owner, poolName)
	PutResourceGrants(ctx context.Context, input PutResourceGrantsInput) (*PutResourceGrantsOutput, error)

	// GrantsForOwners retrieves resource grants for a batch of owners
	GrantsForOwners(ctx context.Context, input GrantsForOwnersInput) (*GrantsForOwnersOutput, error)
}

// PutGroupsInput defines the input for importing choice groups
type PutGroupsInput struct {
	Groups []*choices.Group
}

// PutGroupsOutput defines the output for importing choice groups
type PutGroupsOutput struct {
	Count int
}

// GroupsForOwnerInput defines the input for fetching one owner's groups
type GroupsForOwnerInput struct {
	Owner choices.Owner
}

// GroupsForOwnerOutput defines the output for fetching one owner's groups
type GroupsForOwnerOutput struct {
	Groups []*choices.Group
}

// GroupsForOwnersInput defines the input for batch group fetches
type GroupsForOwnersInput struct {
	Owners []choices.Owner
}

// GroupsForOwnersOutput defines the output for batch group fetches
type GroupsForOwnersOutput struct {
	Groups []*choices.Group
}

// PutResourceGrantsInput defines the input for importing resource grants
type PutResourceGrantsInput struct {
	Grants []*ResourceGrant
}

// PutResourceGrantsOutput defines the output for importing resource grants
type PutResourceGrantsOutput struct {
	Count int
}

// GrantsForOwnersInput defines the input for batch grant fetches
type GrantsForOwnersInput struct {
	Owners []choices.Owner
}

// GrantsForOwnersOutput defines the output for batch grant fetches
type GrantsForOwnersOutput struct {
	Grants []*ResourceGrant
}
