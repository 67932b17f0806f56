// Package choices provides the declarative catalog model for character
// creation and progression choices: what must be chosen, by whom, at
// which level, and from which candidates. Catalog rows are pure data;
// the resolvers under internal/rules interpret them.
package choices

// Kind identifies the type of choice a group offers
type Kind string

// Choice kinds
const (
	KindProficiency  Kind = "proficiency"
	KindLanguage     Kind = "language"
	KindAbilityScore Kind = "ability_score"
	KindEquipment    Kind = "equipment"
	KindSpell        Kind = "spell"
)

// Valid reports whether k is a known choice kind
func (k Kind) Valid() bool {
	switch k {
	case KindProficiency, KindLanguage, KindAbilityScore, KindEquipment, KindSpell:
		return true
	default:
		return false
	}
}

// OwnerKind identifies which sort of source entity granted a choice group
type OwnerKind string

// Owner kinds. The set is closed: lookups dispatch on it explicitly.
const (
	OwnerRace       OwnerKind = "race"
	OwnerClass      OwnerKind = "class"
	OwnerSubclass   OwnerKind = "subclass"
	OwnerBackground OwnerKind = "background"
	OwnerFeat       OwnerKind = "feat"
)

// Valid reports whether k is a known owner kind
func (k OwnerKind) Valid() bool {
	switch k {
	case OwnerRace, OwnerClass, OwnerSubclass, OwnerBackground, OwnerFeat:
		return true
	default:
		return false
	}
}

// Owner is a tagged reference to the source entity that grants a group
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

// Group declares one unit of "choose N of type T granted by entity E at
// level L". Groups are immutable catalog data, set once per content
// import; (Owner, Level, Key) is unique and re-import upserts under it.
type Group struct {
	Owner Owner `json:"owner"`

	// Level gates the group by the owning source's level. Nil means the
	// group applies as soon as the character has the source (races,
	// backgrounds). For subclass owners the gate is checked against the
	// level of the class granting the subclass.
	Level *int `json:"level,omitempty"`

	// Key is stable within the owner across choices of the same kind
	Key string `json:"key"`

	Kind     Kind   `json:"kind"`
	Name     string `json:"name,omitempty"`
	Choose   int    `json:"choose"`
	Optional bool   `json:"optional,omitempty"`

	// Permanent marks an always-granted benefit recorded through the
	// same machinery; it cannot be undone.
	Permanent bool `json:"permanent,omitempty"`

	// BonusValue is the magnitude applied per selected value for
	// ability score groups.
	BonusValue int `json:"bonus_value,omitempty"`

	// RequireDistinct rejects duplicate values in one submission
	RequireDistinct bool `json:"require_distinct,omitempty"`

	Options []Option `json:"options"`
}

// EffectiveLevel returns the group's level gate, 0 when ungated
func (g *Group) EffectiveLevel() int {
	if g.Level == nil {
		return 0
	}
	return *g.Level
}

// ID derives the group's stable choice identifier
func (g *Group) ID() ChoiceID {
	return ChoiceID{
		Kind:     g.Kind,
		Owner:    g.Owner,
		Level:    g.EffectiveLevel(),
		GroupKey: g.Key,
	}
}

// Option is a candidate within a group. A group mixes concrete options
// (Reference, CountedReference, Bundle) with unrestricted Filter
// options; resolvers must support both in the same group.
type Option interface {
	isOption()
}

// Reference is a concrete option naming a specific target entity
type Reference struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

func (Reference) isOption() {}

// CountedReference is a concrete option with a quantity, e.g. "20 arrows"
type CountedReference struct {
	Key      string `json:"key"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
}

func (CountedReference) isOption() {}

// Bundle is a mutually exclusive equipment package tagged with a letter
// label (a/b/c). Selecting an equipment group means selecting exactly
// one bundle, never a mix of items across bundles.
type Bundle struct {
	Label string       `json:"label"`
	Items []BundleItem `json:"items"`
}

func (Bundle) isOption() {}

// BundleItem is one entry in a bundle: either a concrete item or a
// nested filter pick ("a martial weapon and a shield").
type BundleItem struct {
	Key      string  `json:"key,omitempty"`
	Name     string  `json:"name,omitempty"`
	Quantity int     `json:"quantity,omitempty"`
	Filter   *Filter `json:"filter,omitempty"`
}

// Filter is an unrestricted option: any candidate matching every
// non-zero constraint qualifies. Enumeration defers to the option
// lookup collaborator; validation happens in the resolver.
type Filter struct {
	// Category names an enumerable candidate set for the option lookup
	// collaborator (proficiency subcategory, language list, equipment
	// category).
	Category string `json:"category,omitempty"`

	// Spell constraints
	MaxSpellLevel *int   `json:"max_spell_level,omitempty"`
	SpellList     string `json:"spell_list,omitempty"`
	School        string `json:"school,omitempty"`
	RitualOnly    bool   `json:"ritual_only,omitempty"`
}

func (Filter) isOption() {}

// Selection carries the values a caller submits to resolve one group.
// Submissions are atomic: the value count must equal the group's
// required count exactly.
type Selection struct {
	Values []string
}

// PendingChoice is the resolver-produced, uniform view of one
// still-actionable or already-resolved group for one character. It is
// recomputed on every request and never persisted.
type PendingChoice struct {
	// ID is the encoded ChoiceID, stable across re-fetches
	ID string

	Kind     Kind
	Owner    Owner
	Source   string // human-readable origin, e.g. "class:wizard"
	Name     string
	Level    int
	Choose   int
	Optional bool

	Selected  []string
	Remaining int

	// Options lists concrete candidates. When enumeration defers to
	// the option lookup collaborator, CategoryHint names the category
	// instead and Options may be empty.
	Options      []Option
	CategoryHint string

	// Kind-specific metadata needed to re-derive constraints at
	// resolution time without re-fetching the catalog row by ID.
	BonusValue      int
	RequireDistinct bool
}
