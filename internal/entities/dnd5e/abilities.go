package dnd5e

// Ability identifies one of the six ability scores
type Ability string

// Abilities
const (
	AbilityStrength     Ability = "strength"
	AbilityDexterity    Ability = "dexterity"
	AbilityConstitution Ability = "constitution"
	AbilityIntelligence Ability = "intelligence"
	AbilityWisdom       Ability = "wisdom"
	AbilityCharisma     Ability = "charisma"
)

// AllAbilities lists the abilities in canonical order
var AllAbilities = []Ability{
	AbilityStrength,
	AbilityDexterity,
	AbilityConstitution,
	AbilityIntelligence,
	AbilityWisdom,
	AbilityCharisma,
}

// Valid reports whether a is a known ability
func (a Ability) Valid() bool {
	switch a {
	case AbilityStrength, AbilityDexterity, AbilityConstitution,
		AbilityIntelligence, AbilityWisdom, AbilityCharisma:
		return true
	default:
		return false
	}
}

// AbilityScores maps abilities to their current scores
type AbilityScores map[Ability]int

// Modifier returns the modifier for the given ability. The division
// rounds toward negative infinity, so a score of 9 yields -1, not 0.
func (s AbilityScores) Modifier(a Ability) int {
	m := s[a] - 10
	if m < 0 {
		m--
	}
	return m / 2
}

// Clone returns an independent copy of the score set
func (s AbilityScores) Clone() AbilityScores {
	out := make(AbilityScores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
