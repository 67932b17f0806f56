package resolver

import (
	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// ProficiencyConfig contains configuration for the proficiency resolver
type ProficiencyConfig struct {
	GameData gamedata.Client
	Clock    clock.Clock
}

// Validate validates the ProficiencyConfig
func (cfg *ProficiencyConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.GameData == nil {
		return errors.InvalidArgument("game data client cannot be nil")
	}
	return nil
}

// NewProficiency creates the resolver for proficiency choices
func NewProficiency(cfg *ProficiencyConfig) (Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &membershipResolver{
		kind:     choices.KindProficiency,
		gameData: cfg.GameData,
		clock:    c,
	}, nil
}
