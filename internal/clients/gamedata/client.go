// Package gamedata defines the client interface for external D&D 5e
// reference data: races, classes, spells, and enumerable option
// categories. Resolvers consult it to validate filter-based picks.
package gamedata

//go:generate mockgen -destination=mock/mock_client.go -package=gamedatamock github.com/KirkDiggler/rpg-rules-api/internal/clients/gamedata Client

import (
	"context"
)

// RaceData is the reference view of a race
type RaceData struct {
	ID   string
	Name string
}

// ClassData is the reference view of a class
type ClassData struct {
	ID     string
	Name   string
	HitDie int
}

// SpellData is the reference view of a spell
type SpellData struct {
	ID      string
	Name    string
	Level   int
	School  string
	Classes []string // class IDs whose spell list includes this spell
	Ritual  bool
}

// HasClass reports whether the spell is on the given class's list
func (s *SpellData) HasClass(classID string) bool {
	for _, c := range s.Classes {
		if c == classID {
			return true
		}
	}
	return false
}

// OptionRef is one enumerable candidate within a category
type OptionRef struct {
	ID   string
	Name string
}

// Client provides read access to external game reference data
type Client interface {
	// GetRace fetches one race by ID
	GetRace(ctx context.Context, raceID string) (*RaceData, error)

	// GetClass fetches one class by ID
	GetClass(ctx context.Context, classID string) (*ClassData, error)

	// GetSpell fetches one spell by ID
	GetSpell(ctx context.Context, spellID string) (*SpellData, error)

	// ListCategory enumerates the candidates in one option category,
	// e.g. an equipment category or the standard language list.
	ListCategory(ctx context.Context, category string) ([]OptionRef, error)
}
