package gamedata

import (
	"context"
	"net/http"
	"time"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	"github.com/fadedpez/dnd5e-api/entities"

	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
)

// CategoryLanguages is the built-in category enumerating the standard
// languages. The upstream API has no language endpoint, so the list is
// maintained here.
const CategoryLanguages = "languages"

var standardLanguages = []OptionRef{
	{ID: "common", Name: "Common"},
	{ID: "dwarvish", Name: "Dwarvish"},
	{ID: "elvish", Name: "Elvish"},
	{ID: "giant", Name: "Giant"},
	{ID: "gnomish", Name: "Gnomish"},
	{ID: "goblin", Name: "Goblin"},
	{ID: "halfling", Name: "Halfling"},
	{ID: "orc", Name: "Orc"},
	{ID: "abyssal", Name: "Abyssal"},
	{ID: "celestial", Name: "Celestial"},
	{ID: "draconic", Name: "Draconic"},
	{ID: "deep-speech", Name: "Deep Speech"},
	{ID: "infernal", Name: "Infernal"},
	{ID: "primordial", Name: "Primordial"},
	{ID: "sylvan", Name: "Sylvan"},
	{ID: "undercommon", Name: "Undercommon"},
}

// Config contains configuration options for the dnd5e-api backed client
type Config struct {
	// BaseURL for the D&D 5e API (optional, defaults to https://www.dnd5eapi.co/api/2014/)
	BaseURL string
	// HTTPTimeout for API requests (optional, defaults to 30 seconds)
	HTTPTimeout time.Duration
	// CacheTTL for the cached client (optional, defaults to 24 hours)
	CacheTTL time.Duration
}

// Validate validates the Config and sets defaults if not provided
func (cfg *Config) Validate() error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.dnd5eapi.co/api/2014/"
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return nil
}

type client struct {
	dnd5eClient dnd5e.Interface
}

// New creates a gamedata client backed by the public dnd5e API
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client:  &http.Client{Timeout: cfg.HTTPTimeout},
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create D&D 5e API client")
	}

	return &client{
		dnd5eClient: dnd5e.NewCachedClient(baseClient, cfg.CacheTTL),
	}, nil
}

func (c *client) GetRace(_ context.Context, raceID string) (*RaceData, error) {
	race, err := c.dnd5eClient.GetRace(raceID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get race %s", raceID)
	}

	return &RaceData{
		ID:   race.Key,
		Name: race.Name,
	}, nil
}

func (c *client) GetClass(_ context.Context, classID string) (*ClassData, error) {
	class, err := c.dnd5eClient.GetClass(classID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get class %s", classID)
	}

	return &ClassData{
		ID:     class.Key,
		Name:   class.Name,
		HitDie: class.HitDie,
	}, nil
}

func (c *client) GetSpell(_ context.Context, spellID string) (*SpellData, error) {
	spell, err := c.dnd5eClient.GetSpell(spellID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get spell %s", spellID)
	}

	return convertSpell(spell), nil
}

func convertSpell(spell *entities.Spell) *SpellData {
	data := &SpellData{
		ID:     spell.Key,
		Name:   spell.Name,
		Level:  spell.SpellLevel,
		Ritual: spell.Ritual,
	}
	if spell.SpellSchool != nil {
		data.School = spell.SpellSchool.Name
	}
	for _, ref := range spell.SpellClasses {
		if ref != nil {
			data.Classes = append(data.Classes, ref.Key)
		}
	}
	return data
}

func (c *client) ListCategory(_ context.Context, category string) ([]OptionRef, error) {
	if category == CategoryLanguages {
		out := make([]OptionRef, len(standardLanguages))
		copy(out, standardLanguages)
		return out, nil
	}

	result, err := c.dnd5eClient.GetEquipmentCategory(category)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list category %s", category)
	}

	refs := make([]OptionRef, 0, len(result.Equipment))
	for _, item := range result.Equipment {
		if item == nil {
			continue
		}
		refs = append(refs, OptionRef{ID: item.Key, Name: item.Name})
	}
	return refs, nil
}
