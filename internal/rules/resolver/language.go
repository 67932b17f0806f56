package resolver

import (
	"github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata"
	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
	"github.com/KirkDiggler/rpg-rules-api/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

// LanguageConfig contains configuration for the language resolver
type LanguageConfig struct {
	GameData gamedata.Client
	Clock    clock.Clock
}

// Validate validates the LanguageConfig
func (cfg *LanguageConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.GameData == nil {
		return errors.InvalidArgument("game data client cannot be nil")
	}
	return nil
}

// NewLanguage creates the resolver for language choices
func NewLanguage(cfg *LanguageConfig) (Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &membershipResolver{
		kind:     choices.KindLanguage,
		gameData: cfg.GameData,
		clock:    c,
	}, nil
}
