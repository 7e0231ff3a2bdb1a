package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Meta is the world-level metadata block.
type Meta struct {
	Name string `json:"name"`
	// Start is the location the player occupies when the session opens.
	Start string `json:"start"`
	// EntrySequence optionally names the sequence activated at load.
	EntrySequence string `json:"entry_sequence,omitempty"`
	// Seed parameterises all pseudo-random tie-breaking in the engine.
	// Same seed, same world, same call sequence: same run.
	Seed int64 `json:"seed"`
}

// PropertySchema declares one property of an entity type: its default
// value, optional numeric bounds, and whether it starts hidden (until a
// reveal effect marks it visible).
type PropertySchema struct {
	Default Value  `json:"-"`
	Min     *int64 `json:"min,omitempty"`
	Max     *int64 `json:"max,omitempty"`
	Hidden  bool   `json:"hidden,omitempty"`
}

func (p *PropertySchema) UnmarshalJSON(data []byte) error {
	var env struct {
		Default valueHolder `json:"default"`
		Min     *int64      `json:"min,omitempty"`
		Max     *int64      `json:"max,omitempty"`
		Hidden  bool        `json:"hidden,omitempty"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	p.Default = env.Default.v
	if p.Default == nil {
		p.Default = Null{}
	}
	p.Min = env.Min
	p.Max = env.Max
	p.Hidden = env.Hidden
	return nil
}

func (p PropertySchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Default valueHolder `json:"default"`
		Min     *int64      `json:"min,omitempty"`
		Max     *int64      `json:"max,omitempty"`
		Hidden  bool        `json:"hidden,omitempty"`
	}{valueHolder{p.Default}, p.Min, p.Max, p.Hidden})
}

// TypeSchema declares an entity type and its property schemas.
type TypeSchema struct {
	Name       string                    `json:"name"`
	Properties map[string]PropertySchema `json:"properties,omitempty"`
}

// PropertyNames returns the schema's property names in sorted order,
// for deterministic iteration.
func (t TypeSchema) PropertyNames() []string {
	names := make([]string, 0, len(t.Properties))
	for n := range t.Properties {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// PropertyMap holds per-entity property values.
type PropertyMap map[string]Value

func (m *PropertyMap) UnmarshalJSON(data []byte) error {
	var raw map[string]valueHolder
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(PropertyMap, len(raw))
	for k, h := range raw {
		out[k] = h.v
	}
	*m = out
	return nil
}

func (m PropertyMap) MarshalJSON() ([]byte, error) {
	raw := make(map[string]valueHolder, len(m))
	for k, v := range m {
		raw[k] = valueHolder{v}
	}
	return json.Marshal(raw)
}

// Entity is one declared entity instance. Container is exactly one of:
// empty (none), TokenPlayer, or a location id. Properties override the
// type schema's defaults.
type Entity struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Container  string      `json:"container,omitempty"`
	Properties PropertyMap `json:"properties,omitempty"`
}

// Exit is a directed connection out of a location. The optional
// condition gates traversal; effects run when the exit is taken.
type Exit struct {
	To        string    `json:"to"`
	Condition Condition `json:"-"`
	Effects   Effects   `json:"effects,omitempty"`
	// Hint is optional presentation text a host may ignore.
	Hint string `json:"hint,omitempty"`
}

func (e *Exit) UnmarshalJSON(data []byte) error {
	var env struct {
		To        string        `json:"to"`
		Condition *ConditionBox `json:"condition,omitempty"`
		Effects   Effects       `json:"effects,omitempty"`
		Hint      string        `json:"hint,omitempty"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	e.To = env.To
	e.Effects = env.Effects
	e.Hint = env.Hint
	if env.Condition != nil {
		e.Condition = env.Condition.Condition
	}
	return nil
}

func (e Exit) MarshalJSON() ([]byte, error) {
	env := struct {
		To        string        `json:"to"`
		Condition *ConditionBox `json:"condition,omitempty"`
		Effects   Effects       `json:"effects,omitempty"`
		Hint      string        `json:"hint,omitempty"`
	}{To: e.To, Effects: e.Effects, Hint: e.Hint}
	if e.Condition != nil {
		env.Condition = &ConditionBox{e.Condition}
	}
	return json.Marshal(env)
}

// Location is one place in the world.
type Location struct {
	ID string `json:"id"`
	// Hint is optional presentation text a host may ignore.
	Hint  string `json:"hint,omitempty"`
	Exits []Exit `json:"exits,omitempty"`
	// Sections lists, in declaration order, the dialogue sections that
	// may auto-open when the player enters this location.
	Sections []string `json:"sections,omitempty"`
}

// ExitTo returns the location's exit leading to the given destination.
func (l Location) ExitTo(dest string) (Exit, bool) {
	for _, ex := range l.Exits {
		if ex.To == dest {
			return ex, true
		}
	}
	return Exit{}, false
}

// Target declares what an action is aimed at: one fixed entity, or any
// entity of a type (chosen per call via the "target" parameter).
type Target struct {
	Entity string `json:"entity,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Action is one declared player/agent action. Conditions and effects of
// a type-targeted action may reference the chosen target as "$target".
type Action struct {
	ID         string     `json:"id"`
	Target     *Target    `json:"target,omitempty"`
	Conditions Conditions `json:"conditions,omitempty"`
	Effects    Effects    `json:"effects,omitempty"`
	// Hint is optional presentation text a host may ignore.
	Hint string `json:"hint,omitempty"`
}

// Definition is the compiled, immutable world definition for a session.
type Definition struct {
	Meta      Meta               `json:"meta"`
	Types     []TypeSchema       `json:"types,omitempty"`
	Entities  []Entity           `json:"entities,omitempty"`
	Locations []Location         `json:"locations"`
	Actions   []Action           `json:"actions,omitempty"`
	Rules     []Rule             `json:"rules,omitempty"`
	Sequences []Sequence         `json:"sequences,omitempty"`
	Sections  map[string]Section `json:"sections,omitempty"`
}

// Entity returns the declared entity with the given id.
func (d *Definition) Entity(id string) (Entity, bool) {
	for _, e := range d.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// Type returns the declared type schema with the given name.
func (d *Definition) Type(name string) (TypeSchema, bool) {
	for _, t := range d.Types {
		if t.Name == name {
			return t, true
		}
	}
	return TypeSchema{}, false
}

// Location returns the declared location with the given id.
func (d *Definition) Location(id string) (Location, bool) {
	for _, l := range d.Locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// Action returns the declared action with the given id.
func (d *Definition) Action(id string) (Action, bool) {
	for _, a := range d.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// Sequence returns the declared sequence with the given id.
func (d *Definition) Sequence(id string) (Sequence, bool) {
	for _, s := range d.Sequences {
		if s.ID == id {
			return s, true
		}
	}
	return Sequence{}, false
}

// Section returns the declared section with the given id.
func (d *Definition) Section(id string) (Section, bool) {
	s, ok := d.Sections[id]
	return s, ok
}

// SectionIDs returns all section ids in sorted order, for deterministic
// iteration over the flat section map.
func (d *Definition) SectionIDs() []string {
	ids := make([]string, 0, len(d.Sections))
	for id := range d.Sections {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Schema returns the property schema for one property of an entity.
func (d *Definition) Schema(entityID, property string) (PropertySchema, bool) {
	e, ok := d.Entity(entityID)
	if !ok {
		return PropertySchema{}, false
	}
	t, ok := d.Type(e.Type)
	if !ok {
		return PropertySchema{}, false
	}
	ps, ok := t.Properties[property]
	return ps, ok
}

// GotoTargets returns the set of section ids that are the declared goto
// target of any choice or on-exhausted fallback. Such sections are
// never auto-opened on location entry.
func (d *Definition) GotoTargets() map[string]bool {
	targets := make(map[string]bool)
	var walk func(choices []Choice)
	walk = func(choices []Choice) {
		for _, c := range choices {
			if c.Goto != "" && c.Goto != TokenEnd {
				targets[c.Goto] = true
			}
			walk(c.Choices)
		}
	}
	for _, id := range d.SectionIDs() {
		sec := d.Sections[id]
		walk(sec.Choices)
		if sec.OnExhausted != nil && sec.OnExhausted.Goto != "" && sec.OnExhausted.Goto != TokenEnd {
			targets[sec.OnExhausted.Goto] = true
		}
	}
	return targets
}

// Hash returns the world's canonical content hash. Two byte-identical
// definitions always hash the same; the hash is stable across hosts.
func (d *Definition) Hash() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	var generic map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}
	norm, err := normalizeNumbers(generic)
	if err != nil {
		return "", err
	}
	return HashCanonical(DomainWorld, norm)
}

// normalizeNumbers rewrites json.Number leaves to int64 so a generic
// JSON document can be canonically marshaled. Non-integral numbers are
// rejected; the definition format has no floats.
func normalizeNumbers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integral number %q", val.String())
		}
		return i, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := normalizeNumbers(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalizeNumbers(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}
