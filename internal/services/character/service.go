// Package character defines the interface for character operations
package character

import (
	"context"

	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// Service defines the interface for character operations
type Service interface {
	// Lifecycle
	CreateCharacter(ctx context.Context, input *CreateCharacterInput) (*CreateCharacterOutput, error)
	GetCharacter(ctx context.Context, input *GetCharacterInput) (*GetCharacterOutput, error)
	ListCharacters(ctx context.Context, input *ListCharactersInput) (*ListCharactersOutput, error)
	DeleteCharacter(ctx context.Context, input *DeleteCharacterInput) (*DeleteCharacterOutput, error)

	// Choice resolution
	PendingChoices(ctx context.Context, input *PendingChoicesInput) (*PendingChoicesOutput, error)
	ResolveChoice(ctx context.Context, input *ResolveChoiceInput) (*ResolveChoiceOutput, error)
	UndoChoice(ctx context.Context, input *UndoChoiceInput) (*UndoChoiceOutput, error)

	// Progression
	AddClassLevel(ctx context.Context, input *AddClassLevelInput) (*AddClassLevelOutput, error)
	RollHitDie(ctx context.Context, input *RollHitDieInput) (*RollHitDieOutput, error)
	ResolveHitPointGain(ctx context.Context, input *ResolveHitPointGainInput) (*ResolveHitPointGainOutput, error)
	UpdateAbilityScores(ctx context.Context, input *UpdateAbilityScoresInput) (*UpdateAbilityScoresOutput, error)

	// Resource counters
	ListCounters(ctx context.Context, input *ListCountersInput) (*ListCountersOutput, error)
	UseCounter(ctx context.Context, input *UseCounterInput) (*UseCounterOutput, error)
	Rest(ctx context.Context, input *RestInput) (*RestOutput, error)
}

// CreateCharacterInput defines the request for creating a character
type CreateCharacterInput struct {
	PlayerID      string
	Name          string
	RaceID        string
	SubraceID     string // Optional
	BackgroundID  string // Optional
	ClassID       string
	AbilityScores dnd5e.AbilityScores
}

// CreateCharacterOutput defines the response for creating a character
type CreateCharacterOutput struct {
	Character *dnd5e.Character
}

// GetCharacterInput defines the request for getting a character
type GetCharacterInput struct {
	CharacterID string
}

// GetCharacterOutput defines the response for getting a character
type GetCharacterOutput struct {
	Character *dnd5e.Character
}

// ListCharactersInput defines the request for listing a player's characters
type ListCharactersInput struct {
	PlayerID string
}

// ListCharactersOutput defines the response for listing a player's characters
type ListCharactersOutput struct {
	Characters []*dnd5e.Character
}

// DeleteCharacterInput defines the request for deleting a character
type DeleteCharacterInput struct {
	CharacterID string
}

// DeleteCharacterOutput defines the response for deleting a character
type DeleteCharacterOutput struct{}

// PendingChoicesInput defines the request for the pending choice view
type PendingChoicesInput struct {
	CharacterID string

	// UnresolvedOnly drops already-resolved groups from the view
	UnresolvedOnly bool
}

// PendingChoicesOutput defines the response for the pending choice view
type PendingChoicesOutput struct {
	Choices []*choices.PendingChoice

	// PendingHPLevels lists total levels still needing a hit point
	// resolution; they gate level-up alongside catalog choices.
	PendingHPLevels []int
}

// ResolveChoiceInput defines the request for resolving one choice
type ResolveChoiceInput struct {
	CharacterID string
	ChoiceID    string
	Values      []string
}

// ResolveChoiceOutput defines the response for resolving one choice
type ResolveChoiceOutput struct {
	Character *dnd5e.Character
}

// UndoChoiceInput defines the request for undoing one choice
type UndoChoiceInput struct {
	CharacterID string
	ChoiceID    string
}

// UndoChoiceOutput defines the response for undoing one choice
type UndoChoiceOutput struct {
	Character *dnd5e.Character
}

// AddClassLevelInput defines the request for gaining a class level
type AddClassLevelInput struct {
	CharacterID string
	ClassID     string
}

// AddClassLevelOutput defines the response for gaining a class level
type AddClassLevelOutput struct {
	Character *dnd5e.Character

	// PendingHPLevel is the total level whose hit point gain now
	// awaits an average-or-rolled resolution.
	PendingHPLevel int
}

// RollHitDieInput defines the request for rolling a hit die
type RollHitDieInput struct {
	CharacterID string
	ClassID     string
}

// RollHitDieOutput defines the response for rolling a hit die
type RollHitDieOutput struct {
	Roll        int
	Description string
}

// ResolveHitPointGainInput defines the request for resolving one
// level's hit point gain
type ResolveHitPointGainInput struct {
	CharacterID string
	Level       int
	ClassID     string
	Method      dnd5e.HPMethod
	Roll        int // Required when Method is rolled
}

// ResolveHitPointGainOutput defines the response for resolving one
// level's hit point gain
type ResolveHitPointGainOutput struct {
	Character *dnd5e.Character
	Gained    int
}

// UpdateAbilityScoresInput defines the request for replacing ability scores
type UpdateAbilityScoresInput struct {
	CharacterID string
	Scores      dnd5e.AbilityScores
}

// UpdateAbilityScoresOutput defines the response for replacing ability scores
type UpdateAbilityScoresOutput struct {
	Character *dnd5e.Character

	// MaxHPDelta is the maximum hit point adjustment the Constitution
	// change produced, zero when the modifier did not move.
	MaxHPDelta int
}

// ListCountersInput defines the request for listing resource counters
type ListCountersInput struct {
	CharacterID string
}

// ListCountersOutput defines the response for listing resource counters
type ListCountersOutput struct {
	Counters []*dnd5e.CharacterCounter
}

// UseCounterInput defines the request for spending a counter use
type UseCounterInput struct {
	CharacterID string
	Source      choices.Owner
	PoolName    string
}

// UseCounterOutput defines the response for spending a counter use
type UseCounterOutput struct {
	Counter *dnd5e.CharacterCounter
}

// RestInput defines the request for taking a rest
type RestInput struct {
	CharacterID string
	Timing      dnd5e.ResetTiming
}

// RestOutput defines the response for taking a rest
type RestOutput struct {
	Character *dnd5e.Character

	// ResetCounters lists the keys of the counters the rest refilled
	ResetCounters []string
}
