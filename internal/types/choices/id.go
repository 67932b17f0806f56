package choices

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-rules-api/internal/errors"
)

// idVersion prefixes every encoded choice identifier so the format can
// evolve without breaking stored references.
const idVersion = "v1"

// ChoiceID is the structured identity of one choice group for one
// character. It is derived deterministically from the owning group so
// it survives re-fetching. Internal logic passes the struct around;
// only the system boundary encodes and decodes the string form.
type ChoiceID struct {
	Kind     Kind
	Owner    Owner
	Level    int // 0 when the group has no level gate
	GroupKey string
}

// Encode renders the identifier in its versioned wire form
func (id ChoiceID) Encode() string {
	return strings.Join([]string{
		idVersion,
		string(id.Kind),
		string(id.Owner.Kind),
		id.Owner.ID,
		strconv.Itoa(id.Level),
		id.GroupKey,
	}, ":")
}

// String implements fmt.Stringer
func (id ChoiceID) String() string {
	return id.Encode()
}

// ParseChoiceID decodes the wire form of a choice identifier
func ParseChoiceID(s string) (ChoiceID, error) {
	parts := strings.SplitN(s, ":", 6)
	if len(parts) != 6 {
		return ChoiceID{}, errors.InvalidArgumentf("malformed choice ID %q", s)
	}
	if parts[0] != idVersion {
		return ChoiceID{}, errors.InvalidArgumentf("unsupported choice ID version %q", parts[0])
	}

	kind := Kind(parts[1])
	if !kind.Valid() {
		return ChoiceID{}, errors.InvalidArgumentf("unknown choice kind %q in ID %q", parts[1], s)
	}

	ownerKind := OwnerKind(parts[2])
	if !ownerKind.Valid() {
		return ChoiceID{}, errors.InvalidArgumentf("unknown owner kind %q in ID %q", parts[2], s)
	}

	level, err := strconv.Atoi(parts[4])
	if err != nil || level < 0 {
		return ChoiceID{}, errors.InvalidArgumentf("invalid level %q in choice ID %q", parts[4], s)
	}

	if parts[3] == "" || parts[5] == "" {
		return ChoiceID{}, errors.InvalidArgumentf("choice ID %q is missing owner or group key", s)
	}

	return ChoiceID{
		Kind:     kind,
		Owner:    Owner{Kind: ownerKind, ID: parts[3]},
		Level:    level,
		GroupKey: parts[5],
	}, nil
}

// SourceLabel renders a human-readable origin for pending choice views
func (id ChoiceID) SourceLabel() string {
	return fmt.Sprintf("%s:%s", id.Owner.Kind, id.Owner.ID)
}
