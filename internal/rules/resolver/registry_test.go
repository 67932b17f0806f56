package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	gamedatamock "github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata/mock"
	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	catalog "github.com/KirkDiggler/rpg-rules-api/internal/repositories/catalog"
	"github.com/KirkDiggler/rpg-rules-api/internal/rules/resolver"
	"github.com/KirkDiggler/rpg-rules-api/internal/testutils"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

type RegistryTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	gameData *gamedatamock.MockClient
	catalog  catalog.Repository
	registry *resolver.Registry
	cleanup  func()
	ctx      context.Context
}

func (s *RegistryTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gameData = gamedatamock.NewMockClient(s.ctrl)

	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	repo, err := catalog.NewRedis(&catalog.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.catalog = repo

	registry, err := resolver.NewRegistry(&resolver.RegistryConfig{
		Catalog:  repo,
		GameData: s.gameData,
		Clock:    &clock.Fixed{T: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
	})
	s.Require().NoError(err)
	s.registry = registry
	s.ctx = context.Background()
}

func (s *RegistryTestSuite) TearDownTest() {
	s.cleanup()
	s.ctrl.Finish()
}

func (s *RegistryTestSuite) putGroups(groups ...*choices.Group) {
	_, err := s.catalog.PutGroups(s.ctx, catalog.PutGroupsInput{Groups: groups})
	s.Require().NoError(err)
}

func (s *RegistryTestSuite) fighter(level int) *dnd5e.Character {
	return &dnd5e.Character{
		ID:       "char-1",
		PlayerID: "player-1",
		RaceID:   "human",
		Classes: []dnd5e.CharacterClass{
			{ClassID: "fighter", Level: level, HitDie: 10},
		},
		AbilityScores: dnd5e.AbilityScores{
			dnd5e.AbilityStrength:     15,
			dnd5e.AbilityConstitution: 14,
		},
	}
}

func skillsGroup() *choices.Group {
	return &choices.Group{
		Owner:           choices.Owner{Kind: choices.OwnerClass, ID: "fighter"},
		Key:             "skills",
		Kind:            choices.KindProficiency,
		Name:            "Fighter Skills",
		Choose:          2,
		RequireDistinct: true,
		Options: []choices.Option{
			&choices.Reference{Key: "athletics", Name: "Athletics"},
			&choices.Reference{Key: "survival", Name: "Survival"},
			&choices.Reference{Key: "intimidation", Name: "Intimidation"},
		},
	}
}

func (s *RegistryTestSuite) TestResolveProficiency() {
	s.putGroups(skillsGroup())
	char := s.fighter(1)
	id := skillsGroup().ID().Encode()

	err := s.registry.Resolve(s.ctx, char, id, choices.Selection{Values: []string{"athletics", "survival"}})
	s.Require().NoError(err)

	sel := char.SelectionFor(id)
	s.Require().NotNil(sel)
	s.Equal([]string{"athletics", "survival"}, sel.Values)
	s.Equal(choices.KindProficiency, sel.Kind)
}

func (s *RegistryTestSuite) TestResolveRejectsWrongCount() {
	s.putGroups(skillsGroup())
	char := s.fighter(1)
	id := skillsGroup().ID().Encode()

	err := s.registry.Resolve(s.ctx, char, id, choices.Selection{Values: []string{"athletics"}})
	s.True(errors.IsInvalidArgument(err))
	s.Nil(char.SelectionFor(id), "partial submissions never stick")
}

func (s *RegistryTestSuite) TestResolveRejectsDuplicates() {
	s.putGroups(skillsGroup())
	char := s.fighter(1)

	err := s.registry.Resolve(s.ctx, char, skillsGroup().ID().Encode(),
		choices.Selection{Values: []string{"athletics", "athletics"}})
	s.True(errors.IsInvalidArgument(err))
}

func (s *RegistryTestSuite) TestResolveRejectsNonOption() {
	s.putGroups(skillsGroup())
	char := s.fighter(1)

	err := s.registry.Resolve(s.ctx, char, skillsGroup().ID().Encode(),
		choices.Selection{Values: []string{"athletics", "basket-weaving"}})
	s.True(errors.IsInvalidArgument(err))
}

func (s *RegistryTestSuite) TestResolveReplacesWholesale() {
	s.putGroups(skillsGroup())
	char := s.fighter(1)
	id := skillsGroup().ID().Encode()

	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"athletics", "survival"}}))
	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"intimidation", "survival"}}))

	s.Len(char.Selections, 1)
	s.Equal([]string{"intimidation", "survival"}, char.SelectionFor(id).Values)
}

func (s *RegistryTestSuite) TestLanguageCategoryMembership() {
	group := &choices.Group{
		Owner:  choices.Owner{Kind: choices.OwnerRace, ID: "human"},
		Key:    "bonus-language",
		Kind:   choices.KindLanguage,
		Choose: 1,
		Options: []choices.Option{
			&choices.Filter{Category: "languages"},
		},
	}
	s.putGroups(group)
	char := s.fighter(1)

	s.gameData.EXPECT().
		ListCategory(gomock.Any(), "languages").
		Return([]gamedata.OptionRef{{ID: "elvish"}, {ID: "dwarvish"}}, nil).
		Times(2)

	err := s.registry.Resolve(s.ctx, char, group.ID().Encode(),
		choices.Selection{Values: []string{"elvish"}})
	s.Require().NoError(err)

	err = s.registry.Resolve(s.ctx, char, group.ID().Encode(),
		choices.Selection{Values: []string{"klingon"}})
	s.True(errors.IsInvalidArgument(err))
}

func abilityGroup() *choices.Group {
	return &choices.Group{
		Owner:           choices.Owner{Kind: choices.OwnerRace, ID: "half-elf"},
		Key:             "ability-bonus",
		Kind:            choices.KindAbilityScore,
		Choose:          2,
		BonusValue:      1,
		RequireDistinct: true,
		Options: []choices.Option{
			&choices.Reference{Key: "strength"},
			&choices.Reference{Key: "dexterity"},
			&choices.Reference{Key: "constitution"},
		},
	}
}

func (s *RegistryTestSuite) TestAbilityScoreApplyAndUndo() {
	s.putGroups(abilityGroup())
	char := s.fighter(1)
	char.RaceID = "half-elf"
	id := abilityGroup().ID().Encode()

	err := s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"strength", "constitution"}})
	s.Require().NoError(err)
	s.Equal(16, char.AbilityScores[dnd5e.AbilityStrength])
	s.Equal(15, char.AbilityScores[dnd5e.AbilityConstitution])

	canUndo, err := s.registry.CanUndo(s.ctx, char, id)
	s.Require().NoError(err)
	s.True(canUndo)

	s.Require().NoError(s.registry.Undo(s.ctx, char, id))
	s.Equal(15, char.AbilityScores[dnd5e.AbilityStrength])
	s.Equal(14, char.AbilityScores[dnd5e.AbilityConstitution])
	s.Nil(char.SelectionFor(id))
}

func (s *RegistryTestSuite) TestAbilityScoreReResolveMovesBonus() {
	s.putGroups(abilityGroup())
	char := s.fighter(1)
	char.RaceID = "half-elf"
	id := abilityGroup().ID().Encode()

	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"strength", "constitution"}}))
	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"dexterity", "constitution"}}))

	s.Equal(15, char.AbilityScores[dnd5e.AbilityStrength], "old bonus reverted")
	s.Equal(1, char.AbilityScores[dnd5e.AbilityDexterity])
	s.Equal(15, char.AbilityScores[dnd5e.AbilityConstitution])
}

func (s *RegistryTestSuite) TestAbilityScoreConstitutionAdjustsHitPoints() {
	group := &choices.Group{
		Owner:      choices.Owner{Kind: choices.OwnerRace, ID: "half-elf"},
		Key:        "con-bonus",
		Kind:       choices.KindAbilityScore,
		Choose:     1,
		BonusValue: 2,
		Options: []choices.Option{
			&choices.Reference{Key: "constitution"},
		},
	}
	s.putGroups(group)
	char := s.fighter(1)
	char.RaceID = "half-elf"
	char.MaxHP = 12
	char.CurrentHP = 12
	id := group.ID().Encode()

	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"constitution"}}))
	s.Equal(16, char.AbilityScores[dnd5e.AbilityConstitution])
	s.Equal(13, char.MaxHP, "modifier +2 -> +3 at total level 1")
	s.Equal(13, char.CurrentHP)

	s.Require().NoError(s.registry.Undo(s.ctx, char, id))
	s.Equal(14, char.AbilityScores[dnd5e.AbilityConstitution])
	s.Equal(12, char.MaxHP)
	s.Equal(12, char.CurrentHP)
}

func (s *RegistryTestSuite) TestPermanentGroupCannotChange() {
	group := skillsGroup()
	group.Key = "granted"
	group.Permanent = true
	group.Choose = 1
	s.putGroups(group)
	char := s.fighter(1)
	id := group.ID().Encode()

	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"athletics"}}))

	canUndo, err := s.registry.CanUndo(s.ctx, char, id)
	s.Require().NoError(err)
	s.False(canUndo)

	err = s.registry.Undo(s.ctx, char, id)
	s.True(errors.IsFailedPrecondition(err))

	err = s.registry.Resolve(s.ctx, char, id, choices.Selection{Values: []string{"survival"}})
	s.True(errors.IsFailedPrecondition(err))
}

func equipmentGroup() *choices.Group {
	return &choices.Group{
		Owner:  choices.Owner{Kind: choices.OwnerClass, ID: "fighter"},
		Key:    "starting-equipment",
		Kind:   choices.KindEquipment,
		Choose: 1,
		Options: []choices.Option{
			&choices.Bundle{
				Label: "a",
				Items: []choices.BundleItem{
					{Key: "chain-mail", Quantity: 1},
				},
			},
			&choices.Bundle{
				Label: "b",
				Items: []choices.BundleItem{
					{Filter: &choices.Filter{Category: "martial-weapons"}},
					{Key: "shield", Quantity: 1},
				},
			},
		},
	}
}

func (s *RegistryTestSuite) TestEquipmentBundleSelection() {
	s.putGroups(equipmentGroup())
	char := s.fighter(1)
	id := equipmentGroup().ID().Encode()

	// Bundle a has no filter slots
	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"a"}}))
	s.Equal([]string{"a"}, char.SelectionFor(id).Values)

	// Bundle b needs one martial weapon pick
	s.gameData.EXPECT().
		ListCategory(gomock.Any(), "martial-weapons").
		Return([]gamedata.OptionRef{{ID: "longsword"}, {ID: "warhammer"}}, nil)

	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"b", "longsword"}}))
	s.Equal([]string{"b", "longsword"}, char.SelectionFor(id).Values)
}

func (s *RegistryTestSuite) TestEquipmentBundleRejectsBadPicks() {
	s.putGroups(equipmentGroup())
	char := s.fighter(1)
	id := equipmentGroup().ID().Encode()

	// Unknown bundle label
	err := s.registry.Resolve(s.ctx, char, id, choices.Selection{Values: []string{"c"}})
	s.True(errors.IsInvalidArgument(err))

	// Missing the filter pick for bundle b
	err = s.registry.Resolve(s.ctx, char, id, choices.Selection{Values: []string{"b"}})
	s.True(errors.IsInvalidArgument(err))

	// Pick outside the slot's category
	s.gameData.EXPECT().
		ListCategory(gomock.Any(), "martial-weapons").
		Return([]gamedata.OptionRef{{ID: "longsword"}}, nil)
	err = s.registry.Resolve(s.ctx, char, id, choices.Selection{Values: []string{"b", "club"}})
	s.True(errors.IsInvalidArgument(err))
}

func cantripsGroup() *choices.Group {
	zero := 0
	return &choices.Group{
		Owner:           choices.Owner{Kind: choices.OwnerClass, ID: "wizard"},
		Key:             "cantrips",
		Kind:            choices.KindSpell,
		Choose:          1,
		RequireDistinct: true,
		Options: []choices.Option{
			&choices.Filter{MaxSpellLevel: &zero, SpellList: "wizard"},
		},
	}
}

func (s *RegistryTestSuite) wizard() *dnd5e.Character {
	return &dnd5e.Character{
		ID:      "char-2",
		RaceID:  "elf",
		Classes: []dnd5e.CharacterClass{{ClassID: "wizard", Level: 1, HitDie: 6}},
	}
}

func (s *RegistryTestSuite) TestSpellFilterValidation() {
	s.putGroups(cantripsGroup())
	char := s.wizard()
	id := cantripsGroup().ID().Encode()

	s.gameData.EXPECT().
		GetSpell(gomock.Any(), "fire-bolt").
		Return(&gamedata.SpellData{ID: "fire-bolt", Level: 0, Classes: []string{"wizard", "sorcerer"}}, nil)

	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"fire-bolt"}}))

	// Too high a level for the cantrip slot
	s.gameData.EXPECT().
		GetSpell(gomock.Any(), "fireball").
		Return(&gamedata.SpellData{ID: "fireball", Level: 3, Classes: []string{"wizard"}}, nil)

	err := s.registry.Resolve(s.ctx, char, id, choices.Selection{Values: []string{"fireball"}})
	s.True(errors.IsInvalidArgument(err))

	// Not on the wizard list
	s.gameData.EXPECT().
		GetSpell(gomock.Any(), "cure-wounds").
		Return(&gamedata.SpellData{ID: "cure-wounds", Level: 1, Classes: []string{"cleric"}}, nil)

	err = s.registry.Resolve(s.ctx, char, id, choices.Selection{Values: []string{"cure-wounds"}})
	s.True(errors.IsInvalidArgument(err))

	// Unknown spell
	s.gameData.EXPECT().
		GetSpell(gomock.Any(), "nonsense").
		Return(nil, errors.NotFound("spell not found"))

	err = s.registry.Resolve(s.ctx, char, id, choices.Selection{Values: []string{"nonsense"}})
	s.True(errors.IsInvalidArgument(err))
}

func (s *RegistryTestSuite) TestLevelGating() {
	three := 3
	subclassGroup := &choices.Group{
		Owner:  choices.Owner{Kind: choices.OwnerSubclass, ID: "champion"},
		Level:  &three,
		Key:    "extra-skill",
		Kind:   choices.KindProficiency,
		Choose: 1,
		Options: []choices.Option{
			&choices.Reference{Key: "acrobatics"},
		},
	}
	s.putGroups(skillsGroup(), subclassGroup)

	char := s.fighter(1)
	char.Classes[0].SubclassID = "champion"

	pending, err := s.registry.PendingChoices(s.ctx, char)
	s.Require().NoError(err)
	s.Len(pending, 1, "level-gated group hidden below the gate")

	err = s.registry.Resolve(s.ctx, char, subclassGroup.ID().Encode(),
		choices.Selection{Values: []string{"acrobatics"}})
	s.Error(err)

	// Reaching the gate surfaces the group
	char.Classes[0].Level = 3
	pending, err = s.registry.PendingChoices(s.ctx, char)
	s.Require().NoError(err)
	s.Len(pending, 2)

	s.NoError(s.registry.Resolve(s.ctx, char, subclassGroup.ID().Encode(),
		choices.Selection{Values: []string{"acrobatics"}}))
}

func (s *RegistryTestSuite) TestPendingChoicesView() {
	s.putGroups(skillsGroup())
	char := s.fighter(1)
	id := skillsGroup().ID().Encode()

	pending, err := s.registry.PendingChoices(s.ctx, char)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(id, pending[0].ID)
	s.Equal("class:fighter", pending[0].Source)
	s.Equal(2, pending[0].Remaining)
	s.Empty(pending[0].Selected)

	s.Require().NoError(s.registry.Resolve(s.ctx, char, id,
		choices.Selection{Values: []string{"athletics", "survival"}}))

	pending, err = s.registry.PendingChoices(s.ctx, char)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(0, pending[0].Remaining)
	s.Equal([]string{"athletics", "survival"}, pending[0].Selected)
}

func (s *RegistryTestSuite) TestResolveUnknownChoice() {
	s.putGroups(skillsGroup())
	char := s.fighter(1)

	// Malformed ID
	err := s.registry.Resolve(s.ctx, char, "garbage", choices.Selection{Values: []string{"x"}})
	s.True(errors.IsInvalidArgument(err))

	// Owner the character does not have
	err = s.registry.Resolve(s.ctx, char, "v1:proficiency:class:rogue:0:skills",
		choices.Selection{Values: []string{"stealth"}})
	s.True(errors.IsFailedPrecondition(err))

	// Owner held, but no such group in the catalog
	err = s.registry.Resolve(s.ctx, char, "v1:proficiency:class:fighter:0:no-such-group",
		choices.Selection{Values: []string{"athletics"}})
	s.True(errors.IsNotFound(err))
}

func (s *RegistryTestSuite) TestUndoUnresolvedChoiceIsNoOp() {
	s.putGroups(skillsGroup())
	char := s.fighter(1)

	s.Require().NoError(s.registry.Undo(s.ctx, char, skillsGroup().ID().Encode()))
	s.Empty(char.Selections)
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}
