// Package character orchestrates character operations: it loads the
// character document, applies the rules engines, and persists the
// whole document on success. All writes for one character serialize
// on a per-character lock so concurrent resolutions cannot interleave.
package character

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	rpgevents "github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	dnd5e "github.com/KirkDiggler/rpg-rules-api/internal/entities/dnd5e"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-rules-api/internal/repositories/catalog"
	charrepo "github.com/KirkDiggler/rpg-rules-api/internal/repositories/character"
	"github.com/KirkDiggler/rpg-rules-api/internal/rules/counters"
	"github.com/KirkDiggler/rpg-rules-api/internal/rules/progression"
	"github.com/KirkDiggler/rpg-rules-api/internal/rules/resolver"
	charservice "github.com/KirkDiggler/rpg-rules-api/internal/services/character"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// Event types published on the game event bus
const (
	EventCharacterCreated = "dnd5e.character.created"
	EventChoiceResolved   = "dnd5e.character.choice_resolved"
	EventChoiceUndone     = "dnd5e.character.choice_undone"
	EventLeveledUp        = "dnd5e.character.leveled_up"
	EventRested           = "dnd5e.character.rested"
)

// Orchestrator implements the character service
type Orchestrator struct {
	charRepo    charrepo.Repository
	catalogRepo catalog.Repository
	gameData    gamedata.Client
	registry    *resolver.Registry
	counters    *counters.Engine
	hp          *progression.HP
	idGen       idgen.Generator
	clock       clock.Clock
	eventBus    *rpgevents.Bus

	locks sync.Map // character ID -> *sync.Mutex
}

var _ charservice.Service = (*Orchestrator)(nil)

// OrchestratorConfig contains the orchestrator's collaborators
type OrchestratorConfig struct {
	CharacterRepo charrepo.Repository
	CatalogRepo   catalog.Repository
	GameData      gamedata.Client
	Registry      *resolver.Registry
	Counters      *counters.Engine
	HP            *progression.HP
	IDGenerator   idgen.Generator
	Clock         clock.Clock
	EventBus      *rpgevents.Bus
}

// Validate validates the OrchestratorConfig
func (cfg *OrchestratorConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}

	vb := errors.NewValidationBuilder()
	if cfg.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if cfg.CatalogRepo == nil {
		vb.RequiredField("CatalogRepo")
	}
	if cfg.GameData == nil {
		vb.RequiredField("GameData")
	}
	if cfg.Registry == nil {
		vb.RequiredField("Registry")
	}
	return vb.Build()
}

// New creates a character orchestrator
func New(cfg *OrchestratorConfig) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	gen := cfg.IDGenerator
	if gen == nil {
		gen = idgen.NewUUID("char")
	}
	engine := cfg.Counters
	if engine == nil {
		engine = counters.New()
	}
	hp := cfg.HP
	if hp == nil {
		hp = progression.NewHP(&progression.HPConfig{Clock: c})
	}

	return &Orchestrator{
		charRepo:    cfg.CharacterRepo,
		catalogRepo: cfg.CatalogRepo,
		gameData:    cfg.GameData,
		registry:    cfg.Registry,
		counters:    engine,
		hp:          hp,
		idGen:       gen,
		clock:       c,
		eventBus:    cfg.EventBus,
	}, nil
}

// lockCharacter serializes writes for one character
func (o *Orchestrator) lockCharacter(characterID string) func() {
	v, _ := o.locks.LoadOrStore(characterID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (o *Orchestrator) publish(ctx context.Context, eventType string, char *dnd5e.Character, fields map[string]any) {
	if o.eventBus == nil {
		return
	}
	event := rpgevents.NewGameEvent(eventType, char, nil)
	for k, v := range fields {
		event.Context().Set(k, v)
	}
	if err := o.eventBus.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			"event", eventType,
			"character_id", char.ID,
			"error", err.Error())
	}
}

func (o *Orchestrator) getCharacter(ctx context.Context, characterID string) (*dnd5e.Character, error) {
	if characterID == "" {
		return nil, errors.InvalidArgument("character ID is required")
	}
	output, err := o.charRepo.Get(ctx, charrepo.GetInput{ID: characterID})
	if err != nil {
		return nil, err
	}
	return output.Character, nil
}

// syncCounters reconciles the character's counters against the grants
// its current sources contribute.
func (o *Orchestrator) syncCounters(ctx context.Context, char *dnd5e.Character) error {
	owners := char.Owners()
	if len(owners) == 0 {
		char.Counters = nil
		return nil
	}
	output, err := o.catalogRepo.GrantsForOwners(ctx, catalog.GrantsForOwnersInput{Owners: owners})
	if err != nil {
		return err
	}
	o.counters.Sync(char, output.Grants)
	return nil
}

// CreateCharacter creates a level 1 character: validates the inputs
// against reference data, computes starting hit points, and seeds the
// resource counters its sources grant.
func (o *Orchestrator) CreateCharacter(
	ctx context.Context,
	input *charservice.CreateCharacterInput,
) (*charservice.CreateCharacterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("PlayerID", input.PlayerID, vb)
	errors.ValidateRequired("Name", input.Name, vb)
	errors.ValidateRequired("RaceID", input.RaceID, vb)
	errors.ValidateRequired("ClassID", input.ClassID, vb)
	for _, ability := range dnd5e.AllAbilities {
		score, ok := input.AbilityScores[ability]
		if !ok {
			vb.Fieldf("AbilityScores", "missing %s", ability)
			continue
		}
		errors.ValidateRange(string(ability), score, 1, 30, vb)
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	race, err := o.gameData.GetRace(ctx, input.RaceID)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown race %s", input.RaceID)
	}
	class, err := o.gameData.GetClass(ctx, input.ClassID)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown class %s", input.ClassID)
	}

	char := &dnd5e.Character{
		ID:           o.idGen.Generate(),
		PlayerID:     input.PlayerID,
		Name:         input.Name,
		RaceID:       race.ID,
		SubraceID:    input.SubraceID,
		BackgroundID: input.BackgroundID,
		Classes: []dnd5e.CharacterClass{
			{ClassID: class.ID, Level: 1, HitDie: class.HitDie},
		},
		AbilityScores: input.AbilityScores.Clone(),
	}

	if err := o.hp.Initialize(char); err != nil {
		return nil, err
	}
	if err := o.syncCounters(ctx, char); err != nil {
		return nil, err
	}

	created, err := o.charRepo.Create(ctx, charrepo.CreateInput{Character: char})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "created character",
		"character_id", char.ID,
		"player_id", char.PlayerID,
		"class_id", class.ID,
		"max_hp", char.MaxHP)
	o.publish(ctx, EventCharacterCreated, char, map[string]any{
		"class_id": class.ID,
		"race_id":  race.ID,
	})

	return &charservice.CreateCharacterOutput{Character: created.Character}, nil
}

// GetCharacter retrieves one character
func (o *Orchestrator) GetCharacter(
	ctx context.Context,
	input *charservice.GetCharacterInput,
) (*charservice.GetCharacterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}
	return &charservice.GetCharacterOutput{Character: char}, nil
}

// ListCharacters retrieves all of a player's characters
func (o *Orchestrator) ListCharacters(
	ctx context.Context,
	input *charservice.ListCharactersInput,
) (*charservice.ListCharactersOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	output, err := o.charRepo.ListByPlayerID(ctx, charrepo.ListByPlayerIDInput{PlayerID: input.PlayerID})
	if err != nil {
		return nil, err
	}
	return &charservice.ListCharactersOutput{Characters: output.Characters}, nil
}

// DeleteCharacter removes one character
func (o *Orchestrator) DeleteCharacter(
	ctx context.Context,
	input *charservice.DeleteCharacterInput,
) (*charservice.DeleteCharacterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	unlock := o.lockCharacter(input.CharacterID)
	defer unlock()

	if _, err := o.charRepo.Delete(ctx, charrepo.DeleteInput{ID: input.CharacterID}); err != nil {
		return nil, err
	}
	return &charservice.DeleteCharacterOutput{}, nil
}

// PendingChoices computes the choice view for one character
func (o *Orchestrator) PendingChoices(
	ctx context.Context,
	input *charservice.PendingChoicesInput,
) (*charservice.PendingChoicesOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	all, err := o.registry.PendingChoices(ctx, char)
	if err != nil {
		return nil, err
	}

	result := all
	if input.UnresolvedOnly {
		result = result[:0]
		for _, pending := range all {
			if pending.Remaining > 0 {
				result = append(result, pending)
			}
		}
	}

	return &charservice.PendingChoicesOutput{
		Choices:         result,
		PendingHPLevels: o.hp.PendingLevels(char),
	}, nil
}

// ResolveChoice applies a selection to one choice and persists the
// character on success.
func (o *Orchestrator) ResolveChoice(
	ctx context.Context,
	input *charservice.ResolveChoiceInput,
) (*charservice.ResolveChoiceOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	unlock := o.lockCharacter(input.CharacterID)
	defer unlock()

	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	if err := o.registry.Resolve(ctx, char, input.ChoiceID, choices.Selection{Values: input.Values}); err != nil {
		return nil, err
	}

	updated, err := o.charRepo.Update(ctx, charrepo.UpdateInput{Character: char})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "resolved choice",
		"character_id", char.ID,
		"choice_id", input.ChoiceID)
	o.publish(ctx, EventChoiceResolved, char, map[string]any{"choice_id": input.ChoiceID})

	return &charservice.ResolveChoiceOutput{Character: updated.Character}, nil
}

// UndoChoice reverts a resolved choice and persists the character
func (o *Orchestrator) UndoChoice(
	ctx context.Context,
	input *charservice.UndoChoiceInput,
) (*charservice.UndoChoiceOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	unlock := o.lockCharacter(input.CharacterID)
	defer unlock()

	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	if err := o.registry.Undo(ctx, char, input.ChoiceID); err != nil {
		return nil, err
	}

	updated, err := o.charRepo.Update(ctx, charrepo.UpdateInput{Character: char})
	if err != nil {
		return nil, err
	}

	o.publish(ctx, EventChoiceUndone, char, map[string]any{"choice_id": input.ChoiceID})

	return &charservice.UndoChoiceOutput{Character: updated.Character}, nil
}

// AddClassLevel gains one level in a class, starting a new class entry
// for a multiclass pick. The level's hit point gain stays pending
// until resolved separately.
func (o *Orchestrator) AddClassLevel(
	ctx context.Context,
	input *charservice.AddClassLevelInput,
) (*charservice.AddClassLevelOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.ClassID == "" {
		return nil, errors.InvalidArgument("class ID is required")
	}
	unlock := o.lockCharacter(input.CharacterID)
	defer unlock()

	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	if existing := char.Class(input.ClassID); existing != nil {
		existing.Level++
	} else {
		class, err := o.gameData.GetClass(ctx, input.ClassID)
		if err != nil {
			return nil, errors.Wrapf(err, "unknown class %s", input.ClassID)
		}
		char.Classes = append(char.Classes, dnd5e.CharacterClass{
			ClassID: class.ID,
			Level:   1,
			HitDie:  class.HitDie,
		})
	}

	if err := o.syncCounters(ctx, char); err != nil {
		return nil, err
	}

	updated, err := o.charRepo.Update(ctx, charrepo.UpdateInput{Character: char})
	if err != nil {
		return nil, err
	}

	newLevel := char.TotalLevel()
	slog.InfoContext(ctx, "added class level",
		"character_id", char.ID,
		"class_id", input.ClassID,
		"total_level", newLevel)
	o.publish(ctx, EventLeveledUp, char, map[string]any{
		"class_id":    input.ClassID,
		"total_level": newLevel,
	})

	return &charservice.AddClassLevelOutput{
		Character:      updated.Character,
		PendingHPLevel: newLevel,
	}, nil
}

// RollHitDie rolls the class's hit die for the player. The roll is
// advisory: nothing persists until ResolveHitPointGain records it.
func (o *Orchestrator) RollHitDie(
	ctx context.Context,
	input *charservice.RollHitDieInput,
) (*charservice.RollHitDieOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	class := char.Class(input.ClassID)
	if class == nil {
		return nil, errors.InvalidArgumentf("character %s has no levels in %s", char.ID, input.ClassID)
	}

	roll, err := dice.NewRoll(1, class.HitDie)
	if err != nil {
		return nil, errors.Wrap(err, "failed to roll hit die")
	}

	return &charservice.RollHitDieOutput{
		Roll:        roll.GetValue(),
		Description: roll.GetDescription(),
	}, nil
}

// ResolveHitPointGain records the average-or-rolled gain for one
// pending level and persists the character.
func (o *Orchestrator) ResolveHitPointGain(
	ctx context.Context,
	input *charservice.ResolveHitPointGainInput,
) (*charservice.ResolveHitPointGainOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	unlock := o.lockCharacter(input.CharacterID)
	defer unlock()

	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	before := char.MaxHP
	if err := o.hp.ResolveGain(char, input.Level, input.ClassID, input.Method, input.Roll); err != nil {
		return nil, err
	}

	updated, err := o.charRepo.Update(ctx, charrepo.UpdateInput{Character: char})
	if err != nil {
		return nil, err
	}

	return &charservice.ResolveHitPointGainOutput{
		Character: updated.Character,
		Gained:    char.MaxHP - before,
	}, nil
}

// UpdateAbilityScores replaces the character's ability scores. A
// Constitution modifier change adjusts the hit point maximum once per
// total level.
func (o *Orchestrator) UpdateAbilityScores(
	ctx context.Context,
	input *charservice.UpdateAbilityScoresInput,
) (*charservice.UpdateAbilityScoresOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	for _, ability := range dnd5e.AllAbilities {
		score, ok := input.Scores[ability]
		if !ok {
			vb.Fieldf("Scores", "missing %s", ability)
			continue
		}
		errors.ValidateRange(string(ability), score, 1, 30, vb)
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	unlock := o.lockCharacter(input.CharacterID)
	defer unlock()

	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	before := char.MaxHP
	for _, ability := range dnd5e.AllAbilities {
		if ability == dnd5e.AbilityConstitution {
			continue
		}
		char.AbilityScores[ability] = input.Scores[ability]
	}
	progression.ApplyConstitutionChange(char, input.Scores[dnd5e.AbilityConstitution])

	updated, err := o.charRepo.Update(ctx, charrepo.UpdateInput{Character: char})
	if err != nil {
		return nil, err
	}

	return &charservice.UpdateAbilityScoresOutput{
		Character:  updated.Character,
		MaxHPDelta: char.MaxHP - before,
	}, nil
}

// ListCounters reconciles and returns the character's resource counters
func (o *Orchestrator) ListCounters(
	ctx context.Context,
	input *charservice.ListCountersInput,
) (*charservice.ListCountersOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	unlock := o.lockCharacter(input.CharacterID)
	defer unlock()

	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	if err := o.syncCounters(ctx, char); err != nil {
		return nil, err
	}

	updated, err := o.charRepo.Update(ctx, charrepo.UpdateInput{Character: char})
	if err != nil {
		return nil, err
	}

	return &charservice.ListCountersOutput{Counters: updated.Character.Counters}, nil
}

// UseCounter spends one use from a resource pool
func (o *Orchestrator) UseCounter(
	ctx context.Context,
	input *charservice.UseCounterInput,
) (*charservice.UseCounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	unlock := o.lockCharacter(input.CharacterID)
	defer unlock()

	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	if err := o.counters.Use(char, input.Source, input.PoolName); err != nil {
		return nil, err
	}

	if _, err := o.charRepo.Update(ctx, charrepo.UpdateInput{Character: char}); err != nil {
		return nil, err
	}

	return &charservice.UseCounterOutput{
		Counter: char.Counter(input.Source, input.PoolName),
	}, nil
}

// Rest refills the counters the rest timing covers. A long rest also
// refills short rest pools.
func (o *Orchestrator) Rest(
	ctx context.Context,
	input *charservice.RestInput,
) (*charservice.RestOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if !input.Timing.Valid() || input.Timing == dnd5e.ResetManual {
		return nil, errors.InvalidArgumentf("invalid rest timing %q", input.Timing)
	}
	unlock := o.lockCharacter(input.CharacterID)
	defer unlock()

	char, err := o.getCharacter(ctx, input.CharacterID)
	if err != nil {
		return nil, err
	}

	reset := o.counters.ResetByTiming(char, input.Timing)
	if input.Timing == dnd5e.ResetLongRest {
		reset = append(reset, o.counters.ResetByTiming(char, dnd5e.ResetShortRest)...)
	}

	updated, err := o.charRepo.Update(ctx, charrepo.UpdateInput{Character: char})
	if err != nil {
		return nil, err
	}

	o.publish(ctx, EventRested, char, map[string]any{
		"timing":         string(input.Timing),
		"counters_reset": len(reset),
	})

	return &charservice.RestOutput{
		Character:     updated.Character,
		ResetCounters: reset,
	}, nil
}
