package character_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	character "github.com/KirkDiggler/rpg-rules-api/internal/repositories/character"
	"github.com/KirkDiggler/rpg-rules-api/internal/testutils"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

const (
	testCharID   = "char_123"
	testPlayerID = "player_456"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	repo    character.Repository
	cleanup func()
	ctx     context.Context
	now     time.Time
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	repo, err := character.NewRedis(&character.RedisConfig{
		Client: client,
		Clock:  &clock.Fixed{T: s.now},
	})
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *RedisRepositoryTestSuite) testCharacter() *dnd5e.Character {
	return &dnd5e.Character{
		ID:       testCharID,
		PlayerID: testPlayerID,
		Name:     "Test Hero",
		RaceID:   "human",
		Classes: []dnd5e.CharacterClass{
			{ClassID: "fighter", Level: 1, HitDie: 10},
		},
		AbilityScores: dnd5e.AbilityScores{
			dnd5e.AbilityConstitution: 14,
		},
		MaxHP: 12,
	}
}

func (s *RedisRepositoryTestSuite) TestCreateAndGet() {
	_, err := s.repo.Create(s.ctx, character.CreateInput{Character: s.testCharacter()})
	s.Require().NoError(err)

	output, err := s.repo.Get(s.ctx, character.GetInput{ID: testCharID})
	s.Require().NoError(err)
	s.Equal("Test Hero", output.Character.Name)
	s.Equal(12, output.Character.MaxHP)
	s.Equal(s.now, output.Character.CreatedAt)
	s.Equal(14, output.Character.AbilityScores[dnd5e.AbilityConstitution])
}

func (s *RedisRepositoryTestSuite) TestCreateDuplicate() {
	_, err := s.repo.Create(s.ctx, character.CreateInput{Character: s.testCharacter()})
	s.Require().NoError(err)

	_, err = s.repo.Create(s.ctx, character.CreateInput{Character: s.testCharacter()})
	s.Error(err)
	s.True(errors.IsAlreadyExists(err))
}

func (s *RedisRepositoryTestSuite) TestCreateValidation() {
	_, err := s.repo.Create(s.ctx, character.CreateInput{})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.Create(s.ctx, character.CreateInput{Character: &dnd5e.Character{}})
	s.True(errors.IsInvalidArgument(err))
}

func (s *RedisRepositoryTestSuite) TestGetNotFound() {
	_, err := s.repo.Get(s.ctx, character.GetInput{ID: "missing"})
	s.Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *RedisRepositoryTestSuite) TestUpdateRoundTripsDocument() {
	char := s.testCharacter()
	_, err := s.repo.Create(s.ctx, character.CreateInput{Character: char})
	s.Require().NoError(err)

	char.SetSelection(dnd5e.ChoiceSelection{
		ChoiceID:   "v1:proficiency:class:fighter:1:skills",
		Kind:       choices.KindProficiency,
		Values:     []string{"athletics", "survival"},
		ResolvedAt: s.now,
	})
	char.Counters = append(char.Counters, &dnd5e.CharacterCounter{
		Source:      choices.Owner{Kind: choices.OwnerClass, ID: "fighter"},
		PoolName:    "second-wind",
		Max:         1,
		Current:     1,
		ResetTiming: dnd5e.ResetShortRest,
	})

	_, err = s.repo.Update(s.ctx, character.UpdateInput{Character: char})
	s.Require().NoError(err)

	output, err := s.repo.Get(s.ctx, character.GetInput{ID: testCharID})
	s.Require().NoError(err)
	s.Require().Len(output.Character.Selections, 1)
	s.Equal([]string{"athletics", "survival"}, output.Character.Selections[0].Values)
	s.Require().Len(output.Character.Counters, 1)
	s.Equal("second-wind", output.Character.Counters[0].PoolName)
}

func (s *RedisRepositoryTestSuite) TestUpdateNotFound() {
	_, err := s.repo.Update(s.ctx, character.UpdateInput{Character: s.testCharacter()})
	s.Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *RedisRepositoryTestSuite) TestUpdateMovesPlayerIndex() {
	char := s.testCharacter()
	_, err := s.repo.Create(s.ctx, character.CreateInput{Character: char})
	s.Require().NoError(err)

	char.PlayerID = "player_999"
	_, err = s.repo.Update(s.ctx, character.UpdateInput{Character: char})
	s.Require().NoError(err)

	oldList, err := s.repo.ListByPlayerID(s.ctx, character.ListByPlayerIDInput{PlayerID: testPlayerID})
	s.Require().NoError(err)
	s.Empty(oldList.Characters)

	newList, err := s.repo.ListByPlayerID(s.ctx, character.ListByPlayerIDInput{PlayerID: "player_999"})
	s.Require().NoError(err)
	s.Require().Len(newList.Characters, 1)
	s.Equal(testCharID, newList.Characters[0].ID)
}

func (s *RedisRepositoryTestSuite) TestDelete() {
	_, err := s.repo.Create(s.ctx, character.CreateInput{Character: s.testCharacter()})
	s.Require().NoError(err)

	_, err = s.repo.Delete(s.ctx, character.DeleteInput{ID: testCharID})
	s.Require().NoError(err)

	_, err = s.repo.Get(s.ctx, character.GetInput{ID: testCharID})
	s.True(errors.IsNotFound(err))

	list, err := s.repo.ListByPlayerID(s.ctx, character.ListByPlayerIDInput{PlayerID: testPlayerID})
	s.Require().NoError(err)
	s.Empty(list.Characters)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
