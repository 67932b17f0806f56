package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	redisclient "github.com/KirkDiggler/rpg-rules-api/internal/redis"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

const (
	groupKeyPrefix = "catalog:groups:"
	grantKeyPrefix = "catalog:grants:"
)

func ownerGroupsKey(owner choices.Owner) string {
	return fmt.Sprintf("%s%s:%s", groupKeyPrefix, owner.Kind, owner.ID)
}

func ownerGrantsKey(owner choices.Owner) string {
	return fmt.Sprintf("%s%s:%s", grantKeyPrefix, owner.Kind, owner.ID)
}

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis catalog repository.
type RedisConfig struct {
	Client redisclient.Client
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

// NewRedis creates a new Redis-backed catalog repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

// validateGroup rejects misconfigured catalog rows at import time so
// resolvers can trust what they read back.
func validateGroup(group *choices.Group) error {
	if group == nil {
		return errors.InvalidArgument("group cannot be nil")
	}

	b := errors.NewValidationBuilder()
	if !group.Owner.Kind.Valid() {
		b.Fieldf("owner.kind", "unknown owner kind %q", group.Owner.Kind)
	}
	if group.Owner.ID == "" {
		b.RequiredField("owner.id")
	}
	if group.Key == "" {
		b.RequiredField("key")
	}
	if !group.Kind.Valid() {
		b.Fieldf("kind", "unknown choice kind %q", group.Kind)
	}
	if group.Choose < 1 {
		b.Fieldf("choose", "must be at least 1, got %d", group.Choose)
	}
	if group.Level != nil && *group.Level < 1 {
		b.Fieldf("level", "must be at least 1, got %d", *group.Level)
	}
	if len(group.Options) == 0 {
		b.Field("options", "group offers no options")
	}
	if group.Kind == choices.KindAbilityScore && group.BonusValue == 0 {
		b.RequiredField("bonus_value")
	}
	return b.Build()
}

func validateGrant(grant *ResourceGrant) error {
	if grant == nil {
		return errors.InvalidArgument("grant cannot be nil")
	}

	b := errors.NewValidationBuilder()
	if !grant.Owner.Kind.Valid() {
		b.Fieldf("owner.kind", "unknown owner kind %q", grant.Owner.Kind)
	}
	if grant.Owner.ID == "" {
		b.RequiredField("owner.id")
	}
	if grant.PoolName == "" {
		b.RequiredField("pool_name")
	}
	if !grant.ResetTiming.Valid() {
		b.Fieldf("reset_timing", "unknown reset timing %q", grant.ResetTiming)
	}
	if len(grant.MaxAtLevel) == 0 {
		b.RequiredField("max_at_level")
	}
	for tier, max := range grant.MaxAtLevel {
		if tier < 1 {
			b.Fieldf("max_at_level", "tier level must be at least 1, got %d", tier)
		}
		if max < 0 && max != dnd5e.UnlimitedUses {
			b.Fieldf("max_at_level", "invalid maximum %d at level %d", max, tier)
		}
	}
	return b.Build()
}

func (r *redisRepository) PutGroups(ctx context.Context, input PutGroupsInput) (*PutGroupsOutput, error) {
	if len(input.Groups) == 0 {
		return nil, errors.InvalidArgument("no groups to import")
	}

	// Validate the whole batch before writing anything
	for i, group := range input.Groups {
		if err := validateGroup(group); err != nil {
			return nil, errors.Wrapf(err, "group %d is misconfigured", i)
		}
	}

	pipe := r.client.TxPipeline()
	for _, group := range input.Groups {
		data, err := json.Marshal(group)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal group %s", group.ID())
		}
		pipe.HSet(ctx, ownerGroupsKey(group.Owner), group.ID().Encode(), data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to import groups")
	}

	return &PutGroupsOutput{Count: len(input.Groups)}, nil
}

func (r *redisRepository) GroupsForOwner(
	ctx context.Context,
	input GroupsForOwnerInput,
) (*GroupsForOwnerOutput, error) {
	groups, err := r.groupsForOwner(ctx, input.Owner)
	if err != nil {
		return nil, err
	}
	return &GroupsForOwnerOutput{Groups: groups}, nil
}

func (r *redisRepository) GroupsForOwners(
	ctx context.Context,
	input GroupsForOwnersInput,
) (*GroupsForOwnersOutput, error) {
	all := make([]*choices.Group, 0)
	for _, owner := range input.Owners {
		groups, err := r.groupsForOwner(ctx, owner)
		if err != nil {
			return nil, err
		}
		all = append(all, groups...)
	}
	return &GroupsForOwnersOutput{Groups: all}, nil
}

func (r *redisRepository) groupsForOwner(ctx context.Context, owner choices.Owner) ([]*choices.Group, error) {
	if !owner.Kind.Valid() || owner.ID == "" {
		return nil, errors.InvalidArgumentf("invalid owner %s:%s", owner.Kind, owner.ID)
	}

	fields, err := r.client.HGetAll(ctx, ownerGroupsKey(owner)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get groups for %s:%s", owner.Kind, owner.ID)
	}

	groups := make([]*choices.Group, 0, len(fields))
	for field, raw := range fields {
		var group choices.Group
		if err := json.Unmarshal([]byte(raw), &group); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal group %s", field)
		}
		groups = append(groups, &group)
	}
	return groups, nil
}

func (r *redisRepository) PutResourceGrants(
	ctx context.Context,
	input PutResourceGrantsInput,
) (*PutResourceGrantsOutput, error) {
	if len(input.Grants) == 0 {
		return nil, errors.InvalidArgument("no grants to import")
	}

	for i, grant := range input.Grants {
		if err := validateGrant(grant); err != nil {
			return nil, errors.Wrapf(err, "grant %d is misconfigured", i)
		}
	}

	pipe := r.client.TxPipeline()
	for _, grant := range input.Grants {
		data, err := json.Marshal(grant)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal grant %s", grant.PoolName)
		}
		pipe.HSet(ctx, ownerGrantsKey(grant.Owner), grant.PoolName, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to import grants")
	}

	return &PutResourceGrantsOutput{Count: len(input.Grants)}, nil
}

func (r *redisRepository) GrantsForOwners(
	ctx context.Context,
	input GrantsForOwnersInput,
) (*GrantsForOwnersOutput, error) {
	all := make([]*ResourceGrant, 0)
	for _, owner := range input.Owners {
		if !owner.Kind.Valid() || owner.ID == "" {
			return nil, errors.InvalidArgumentf("invalid owner %s:%s", owner.Kind, owner.ID)
		}

		fields, err := r.client.HGetAll(ctx, ownerGrantsKey(owner)).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get grants for %s:%s", owner.Kind, owner.ID)
		}

		for field, raw := range fields {
			var grant ResourceGrant
			if err := json.Unmarshal([]byte(raw), &grant); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal grant %s", field)
			}
			all = append(all, &grant)
		}
	}
	return &GrantsForOwnersOutput{Grants: all}, nil
}
