package choices

import (
	"encoding/json"
	"fmt"
)

// Option values cross the persistence boundary as tagged envelopes so
// the sealed interface round-trips through JSON.

type optionEnvelope struct {
	Type      string            `json:"type"`
	Reference *Reference        `json:"reference,omitempty"`
	Counted   *CountedReference `json:"counted,omitempty"`
	Bundle    *Bundle           `json:"bundle,omitempty"`
	Filter    *Filter           `json:"filter,omitempty"`
}

const (
	optionTypeReference = "reference"
	optionTypeCounted   = "counted"
	optionTypeBundle    = "bundle"
	optionTypeFilter    = "filter"
)

func envelopeFor(opt Option) (optionEnvelope, error) {
	switch o := opt.(type) {
	case *Reference:
		return optionEnvelope{Type: optionTypeReference, Reference: o}, nil
	case *CountedReference:
		return optionEnvelope{Type: optionTypeCounted, Counted: o}, nil
	case *Bundle:
		return optionEnvelope{Type: optionTypeBundle, Bundle: o}, nil
	case *Filter:
		return optionEnvelope{Type: optionTypeFilter, Filter: o}, nil
	default:
		return optionEnvelope{}, fmt.Errorf("unknown option type %T", opt)
	}
}

func (e optionEnvelope) option() (Option, error) {
	switch e.Type {
	case optionTypeReference:
		if e.Reference == nil {
			return nil, fmt.Errorf("reference option envelope has no payload")
		}
		return e.Reference, nil
	case optionTypeCounted:
		if e.Counted == nil {
			return nil, fmt.Errorf("counted option envelope has no payload")
		}
		return e.Counted, nil
	case optionTypeBundle:
		if e.Bundle == nil {
			return nil, fmt.Errorf("bundle option envelope has no payload")
		}
		return e.Bundle, nil
	case optionTypeFilter:
		if e.Filter == nil {
			return nil, fmt.Errorf("filter option envelope has no payload")
		}
		return e.Filter, nil
	default:
		return nil, fmt.Errorf("unknown option envelope type %q", e.Type)
	}
}

// groupAlias avoids recursing into the custom (un)marshalers
type groupAlias Group

type groupJSON struct {
	groupAlias
	Options []optionEnvelope `json:"options"`
}

// MarshalJSON implements json.Marshaler
func (g Group) MarshalJSON() ([]byte, error) {
	envelopes := make([]optionEnvelope, 0, len(g.Options))
	for _, opt := range g.Options {
		env, err := envelopeFor(opt)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}

	alias := groupAlias(g)
	alias.Options = nil

	return json.Marshal(groupJSON{groupAlias: alias, Options: envelopes})
}

// UnmarshalJSON implements json.Unmarshaler
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw groupJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*g = Group(raw.groupAlias)
	g.Options = make([]Option, 0, len(raw.Options))
	for _, env := range raw.Options {
		opt, err := env.option()
		if err != nil {
			return err
		}
		g.Options = append(g.Options, opt)
	}

	return nil
}
