package character_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	rpgevents "github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	gamedatamock "github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata/mock"
	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	orchestrator "github.com/KirkDiggler/rpg-rules-api/internal/orchestrators/character"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/idgen"
	catalog "github.com/KirkDiggler/rpg-rules-api/internal/repositories/catalog"
	charrepo "github.com/KirkDiggler/rpg-rules-api/internal/repositories/character"
	"github.com/KirkDiggler/rpg-rules-api/internal/rules/resolver"
	charservice "github.com/KirkDiggler/rpg-rules-api/internal/services/character"
	"github.com/KirkDiggler/rpg-rules-api/internal/testutils"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	gameData *gamedatamock.MockClient
	catalog  catalog.Repository
	charRepo charrepo.Repository
	service  charservice.Service
	cleanup  func()
	ctx      context.Context
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gameData = gamedatamock.NewMockClient(s.ctrl)

	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	fixed := &clock.Fixed{T: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	catalogRepo, err := catalog.NewRedis(&catalog.RedisConfig{Client: client})
	s.Require().NoError(err)
	s.catalog = catalogRepo

	charRepo, err := charrepo.NewRedis(&charrepo.RedisConfig{Client: client, Clock: fixed})
	s.Require().NoError(err)
	s.charRepo = charRepo

	registry, err := resolver.NewRegistry(&resolver.RegistryConfig{
		Catalog:  catalogRepo,
		GameData: s.gameData,
		Clock:    fixed,
	})
	s.Require().NoError(err)

	svc, err := orchestrator.New(&orchestrator.OrchestratorConfig{
		CharacterRepo: charRepo,
		CatalogRepo:   catalogRepo,
		GameData:      s.gameData,
		Registry:      registry,
		IDGenerator:   idgen.NewSequential("char"),
		Clock:         fixed,
		EventBus:      rpgevents.NewBus(),
	})
	s.Require().NoError(err)
	s.service = svc
	s.ctx = context.Background()
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.cleanup()
	s.ctrl.Finish()
}

func (s *OrchestratorTestSuite) expectFighterLookups() {
	s.gameData.EXPECT().
		GetRace(gomock.Any(), "human").
		Return(&gamedata.RaceData{ID: "human", Name: "Human"}, nil)
	s.gameData.EXPECT().
		GetClass(gomock.Any(), "fighter").
		Return(&gamedata.ClassData{ID: "fighter", Name: "Fighter", HitDie: 10}, nil)
}

func scores() dnd5e.AbilityScores {
	return dnd5e.AbilityScores{
		dnd5e.AbilityStrength:     15,
		dnd5e.AbilityDexterity:    13,
		dnd5e.AbilityConstitution: 14,
		dnd5e.AbilityIntelligence: 10,
		dnd5e.AbilityWisdom:       12,
		dnd5e.AbilityCharisma:     8,
	}
}

func (s *OrchestratorTestSuite) createFighter() *dnd5e.Character {
	s.expectFighterLookups()
	output, err := s.service.CreateCharacter(s.ctx, &charservice.CreateCharacterInput{
		PlayerID:      "player-1",
		Name:          "Brom",
		RaceID:        "human",
		ClassID:       "fighter",
		AbilityScores: scores(),
	})
	s.Require().NoError(err)
	return output.Character
}

func (s *OrchestratorTestSuite) seedSecondWind() {
	_, err := s.catalog.PutResourceGrants(s.ctx, catalog.PutResourceGrantsInput{
		Grants: []*catalog.ResourceGrant{
			{
				Owner:       choices.Owner{Kind: choices.OwnerClass, ID: "fighter"},
				PoolName:    "second-wind",
				Name:        "Second Wind",
				ResetTiming: dnd5e.ResetShortRest,
				MaxAtLevel:  map[int]int{1: 1},
			},
		},
	})
	s.Require().NoError(err)
}

func (s *OrchestratorTestSuite) TestCreateCharacter() {
	s.seedSecondWind()
	char := s.createFighter()

	s.Equal("char_1", char.ID)
	s.Equal(12, char.MaxHP, "d10 + CON modifier 2")
	s.Equal(12, char.CurrentHP)
	s.Require().Len(char.Counters, 1)
	s.Equal(1, char.Counters[0].Current)

	// Persisted, not just returned
	stored, err := s.service.GetCharacter(s.ctx, &charservice.GetCharacterInput{CharacterID: char.ID})
	s.Require().NoError(err)
	s.Equal(12, stored.Character.MaxHP)
	s.Len(stored.Character.HitPointGains, 1)
}

func (s *OrchestratorTestSuite) TestCreateCharacterValidation() {
	_, err := s.service.CreateCharacter(s.ctx, &charservice.CreateCharacterInput{
		PlayerID: "player-1",
		Name:     "Nameless",
		RaceID:   "human",
		ClassID:  "fighter",
		AbilityScores: dnd5e.AbilityScores{
			dnd5e.AbilityStrength: 15, // missing the rest
		},
	})
	s.True(errors.IsInvalidArgument(err))
}

func (s *OrchestratorTestSuite) TestResolveChoicePersists() {
	_, err := s.catalog.PutGroups(s.ctx, catalog.PutGroupsInput{
		Groups: []*choices.Group{
			{
				Owner:           choices.Owner{Kind: choices.OwnerClass, ID: "fighter"},
				Key:             "skills",
				Kind:            choices.KindProficiency,
				Choose:          2,
				RequireDistinct: true,
				Options: []choices.Option{
					&choices.Reference{Key: "athletics"},
					&choices.Reference{Key: "survival"},
					&choices.Reference{Key: "intimidation"},
				},
			},
		},
	})
	s.Require().NoError(err)
	char := s.createFighter()

	pending, err := s.service.PendingChoices(s.ctx, &charservice.PendingChoicesInput{
		CharacterID: char.ID,
	})
	s.Require().NoError(err)
	s.Require().Len(pending.Choices, 1)
	choiceID := pending.Choices[0].ID

	_, err = s.service.ResolveChoice(s.ctx, &charservice.ResolveChoiceInput{
		CharacterID: char.ID,
		ChoiceID:    choiceID,
		Values:      []string{"athletics", "survival"},
	})
	s.Require().NoError(err)

	stored, err := s.service.GetCharacter(s.ctx, &charservice.GetCharacterInput{CharacterID: char.ID})
	s.Require().NoError(err)
	s.Require().Len(stored.Character.Selections, 1)

	// Unresolved-only view is now empty
	pending, err = s.service.PendingChoices(s.ctx, &charservice.PendingChoicesInput{
		CharacterID:    char.ID,
		UnresolvedOnly: true,
	})
	s.Require().NoError(err)
	s.Empty(pending.Choices)

	// Undo brings it back
	_, err = s.service.UndoChoice(s.ctx, &charservice.UndoChoiceInput{
		CharacterID: char.ID,
		ChoiceID:    choiceID,
	})
	s.Require().NoError(err)

	stored, err = s.service.GetCharacter(s.ctx, &charservice.GetCharacterInput{CharacterID: char.ID})
	s.Require().NoError(err)
	s.Empty(stored.Character.Selections)
}

func (s *OrchestratorTestSuite) TestLevelUpFlow() {
	char := s.createFighter()

	leveled, err := s.service.AddClassLevel(s.ctx, &charservice.AddClassLevelInput{
		CharacterID: char.ID,
		ClassID:     "fighter",
	})
	s.Require().NoError(err)
	s.Equal(2, leveled.PendingHPLevel)
	s.Equal(2, leveled.Character.TotalLevel())

	pending, err := s.service.PendingChoices(s.ctx, &charservice.PendingChoicesInput{
		CharacterID: char.ID,
	})
	s.Require().NoError(err)
	s.Equal([]int{2}, pending.PendingHPLevels)

	roll, err := s.service.RollHitDie(s.ctx, &charservice.RollHitDieInput{
		CharacterID: char.ID,
		ClassID:     "fighter",
	})
	s.Require().NoError(err)
	s.GreaterOrEqual(roll.Roll, 1)
	s.LessOrEqual(roll.Roll, 10)

	resolved, err := s.service.ResolveHitPointGain(s.ctx, &charservice.ResolveHitPointGainInput{
		CharacterID: char.ID,
		Level:       2,
		ClassID:     "fighter",
		Method:      dnd5e.HPMethodAverage,
	})
	s.Require().NoError(err)
	s.Equal(8, resolved.Gained)
	s.Equal(20, resolved.Character.MaxHP)

	// The choice is final
	_, err = s.service.ResolveHitPointGain(s.ctx, &charservice.ResolveHitPointGainInput{
		CharacterID: char.ID,
		Level:       2,
		ClassID:     "fighter",
		Method:      dnd5e.HPMethodRolled,
		Roll:        10,
	})
	s.True(errors.IsFailedPrecondition(err))
}

func (s *OrchestratorTestSuite) TestUpdateAbilityScoresAdjustsMaxHP() {
	char := s.createFighter()

	newScores := scores()
	newScores[dnd5e.AbilityConstitution] = 16 // modifier 2 -> 3

	output, err := s.service.UpdateAbilityScores(s.ctx, &charservice.UpdateAbilityScoresInput{
		CharacterID: char.ID,
		Scores:      newScores,
	})
	s.Require().NoError(err)
	s.Equal(1, output.MaxHPDelta)
	s.Equal(13, output.Character.MaxHP)
	s.Equal(13, output.Character.CurrentHP)
}

func (s *OrchestratorTestSuite) TestResolveConstitutionBonusAdjustsMaxHP() {
	_, err := s.catalog.PutGroups(s.ctx, catalog.PutGroupsInput{
		Groups: []*choices.Group{
			{
				Owner:      choices.Owner{Kind: choices.OwnerRace, ID: "human"},
				Key:        "ability-bonus",
				Kind:       choices.KindAbilityScore,
				Choose:     1,
				BonusValue: 2,
				Options: []choices.Option{
					&choices.Reference{Key: "constitution"},
				},
			},
		},
	})
	s.Require().NoError(err)
	char := s.createFighter()
	s.Require().Equal(12, char.MaxHP)

	pending, err := s.service.PendingChoices(s.ctx, &charservice.PendingChoicesInput{
		CharacterID: char.ID,
	})
	s.Require().NoError(err)
	s.Require().Len(pending.Choices, 1)

	resolved, err := s.service.ResolveChoice(s.ctx, &charservice.ResolveChoiceInput{
		CharacterID: char.ID,
		ChoiceID:    pending.Choices[0].ID,
		Values:      []string{"constitution"},
	})
	s.Require().NoError(err)
	s.Equal(16, resolved.Character.AbilityScores[dnd5e.AbilityConstitution])
	s.Equal(13, resolved.Character.MaxHP, "modifier +2 -> +3 at total level 1")
	s.Equal(13, resolved.Character.CurrentHP)
}

func (s *OrchestratorTestSuite) TestCounterLifecycle() {
	s.seedSecondWind()
	char := s.createFighter()
	source := choices.Owner{Kind: choices.OwnerClass, ID: "fighter"}

	used, err := s.service.UseCounter(s.ctx, &charservice.UseCounterInput{
		CharacterID: char.ID,
		Source:      source,
		PoolName:    "second-wind",
	})
	s.Require().NoError(err)
	s.Equal(0, used.Counter.Current)

	_, err = s.service.UseCounter(s.ctx, &charservice.UseCounterInput{
		CharacterID: char.ID,
		Source:      source,
		PoolName:    "second-wind",
	})
	s.True(errors.IsResourceExhausted(err))

	rested, err := s.service.Rest(s.ctx, &charservice.RestInput{
		CharacterID: char.ID,
		Timing:      dnd5e.ResetShortRest,
	})
	s.Require().NoError(err)
	s.Equal([]string{"class:fighter:second-wind"}, rested.ResetCounters)

	listed, err := s.service.ListCounters(s.ctx, &charservice.ListCountersInput{CharacterID: char.ID})
	s.Require().NoError(err)
	s.Require().Len(listed.Counters, 1)
	s.Equal(1, listed.Counters[0].Current)
}

func (s *OrchestratorTestSuite) TestRestValidatesTiming() {
	char := s.createFighter()

	_, err := s.service.Rest(s.ctx, &charservice.RestInput{
		CharacterID: char.ID,
		Timing:      dnd5e.ResetManual,
	})
	s.True(errors.IsInvalidArgument(err))
}

func (s *OrchestratorTestSuite) TestConcurrentResolutionsSerialize() {
	s.seedSecondWind()
	char := s.createFighter()
	source := choices.Owner{Kind: choices.OwnerClass, ID: "fighter"}

	var succeeded atomic.Int32
	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, err := s.service.UseCounter(s.ctx, &charservice.UseCounterInput{
				CharacterID: char.ID,
				Source:      source,
				PoolName:    "second-wind",
			})
			if err == nil {
				succeeded.Add(1)
			}
		}()
	}
	<-done
	<-done

	s.Equal(int32(1), succeeded.Load(), "only one of two racing uses can land")
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
