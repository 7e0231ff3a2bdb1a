package world

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reserved tokens. These may appear where an entity container, move
// destination, containment target, or goto target is expected; no
// location or section may use them as an id.
const (
	TokenPlayer = "player" // the player's inventory
	TokenHere   = "here"   // alias for the player's current location
	TokenEnd    = "end"    // reserved dialogue goto target
)

// Condition is a sealed interface over the condition variants the engine
// can evaluate. Only Compare, Contain, Exhausted, AnyOf, and AllOf
// implement it. Unknown kinds are rejected while decoding the document.
//
// Every condition renders to a stable string via Ref(); world-state
// failures identify the first failing condition by that string, so the
// rendering must not change between releases without a version bump.
type Condition interface {
	condition() // sealed
	Ref() string
}

// CompareOp is a comparison operator in a Compare condition.
type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpGe CompareOp = ">="
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpLt CompareOp = "<"
)

var validCompareOps = map[CompareOp]bool{
	OpEq: true, OpNe: true, OpGe: true, OpLe: true, OpGt: true, OpLt: true,
}

// Compare tests an entity property against a literal:
// entity.property OP literal.
type Compare struct {
	Entity   string
	Property string
	Op       CompareOp
	Value    Value
}

func (Compare) condition() {}

func (c Compare) Ref() string {
	return fmt.Sprintf("%s.%s %s %s", c.Entity, c.Property, c.Op, String(c.Value))
}

// Contain tests entity containment: "entity in target" or, with In set
// to false, "entity not in target". Target is TokenPlayer, TokenHere,
// or an explicit location id.
type Contain struct {
	Entity string
	Target string
	In     bool
}

func (Contain) condition() {}

func (c Contain) Ref() string {
	if c.In {
		return fmt.Sprintf("%s in %s", c.Entity, c.Target)
	}
	return fmt.Sprintf("%s not in %s", c.Entity, c.Target)
}

// Exhausted tests whether a dialogue section has no offerable choice
// left (consumed one-shots and condition-failing choices removed).
type Exhausted struct {
	Section string
}

func (Exhausted) condition() {}

func (c Exhausted) Ref() string {
	return c.Section + ".exhausted"
}

// AnyOf is an explicit OR group. It holds iff at least one member holds.
type AnyOf struct {
	Conditions []Condition
}

func (AnyOf) condition() {}

func (c AnyOf) Ref() string {
	return "any(" + joinRefs(c.Conditions) + ")"
}

// AllOf is an explicit AND group. It holds iff every member holds.
// A plain condition list in the document is an implicit AllOf.
type AllOf struct {
	Conditions []Condition
}

func (AllOf) condition() {}

func (c AllOf) Ref() string {
	return "all(" + joinRefs(c.Conditions) + ")"
}

func joinRefs(conds []Condition) string {
	refs := make([]string, len(conds))
	for i, c := range conds {
		refs[i] = c.Ref()
	}
	return strings.Join(refs, "; ")
}

// conditionJSON is the wire envelope for a tagged condition.
type conditionJSON struct {
	Kind       string          `json:"kind"`
	Entity     string          `json:"entity,omitempty"`
	Property   string          `json:"property,omitempty"`
	Op         string          `json:"op,omitempty"`
	Value      json.RawMessage `json:"value,omitempty"`
	Target     string          `json:"target,omitempty"`
	Section    string          `json:"section,omitempty"`
	Conditions []ConditionBox  `json:"conditions,omitempty"`
}

// ConditionBox carries a Condition through JSON encoding and decoding.
// Definition fields use ConditionBox so the closed variant set decodes
// from tagged objects.
type ConditionBox struct {
	Condition
}

func (b *ConditionBox) UnmarshalJSON(data []byte) error {
	var env conditionJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	switch env.Kind {
	case "compare":
		op := CompareOp(env.Op)
		if !validCompareOps[op] {
			return fmt.Errorf("condition compare: unknown operator %q", env.Op)
		}
		if len(env.Value) == 0 {
			return fmt.Errorf("condition compare: missing value")
		}
		v, err := DecodeValue(env.Value)
		if err != nil {
			return fmt.Errorf("condition compare: %w", err)
		}
		b.Condition = Compare{Entity: env.Entity, Property: env.Property, Op: op, Value: v}
		return nil

	case "in", "not_in":
		b.Condition = Contain{Entity: env.Entity, Target: env.Target, In: env.Kind == "in"}
		return nil

	case "exhausted":
		b.Condition = Exhausted{Section: env.Section}
		return nil

	case "any", "all":
		conds := make([]Condition, len(env.Conditions))
		for i, c := range env.Conditions {
			conds[i] = c.Condition
		}
		if env.Kind == "any" {
			b.Condition = AnyOf{Conditions: conds}
		} else {
			b.Condition = AllOf{Conditions: conds}
		}
		return nil

	case "":
		return fmt.Errorf("condition missing kind")

	default:
		return fmt.Errorf("unknown condition kind %q", env.Kind)
	}
}

func (b ConditionBox) MarshalJSON() ([]byte, error) {
	return marshalCondition(b.Condition)
}

func marshalCondition(c Condition) ([]byte, error) {
	switch cond := c.(type) {
	case Compare:
		v, err := MarshalValue(cond.Value)
		if err != nil {
			return nil, err
		}
		return json.Marshal(conditionJSON{
			Kind: "compare", Entity: cond.Entity, Property: cond.Property,
			Op: string(cond.Op), Value: v,
		})
	case Contain:
		kind := "in"
		if !cond.In {
			kind = "not_in"
		}
		return json.Marshal(conditionJSON{Kind: kind, Entity: cond.Entity, Target: cond.Target})
	case Exhausted:
		return json.Marshal(conditionJSON{Kind: "exhausted", Section: cond.Section})
	case AnyOf:
		return json.Marshal(conditionJSON{Kind: "any", Conditions: boxConditions(cond.Conditions)})
	case AllOf:
		return json.Marshal(conditionJSON{Kind: "all", Conditions: boxConditions(cond.Conditions)})
	default:
		return nil, fmt.Errorf("unknown condition type: %T", c)
	}
}

func boxConditions(conds []Condition) []ConditionBox {
	boxes := make([]ConditionBox, len(conds))
	for i, c := range conds {
		boxes[i] = ConditionBox{c}
	}
	return boxes
}

// Conditions is an ordered condition list. A plain list is an implicit
// AND, and its declaration order is load-bearing: failure reporting
// names the first failing condition in this order.
type Conditions []Condition

func (cs *Conditions) UnmarshalJSON(data []byte) error {
	var boxes []ConditionBox
	if err := json.Unmarshal(data, &boxes); err != nil {
		return err
	}
	out := make(Conditions, len(boxes))
	for i, b := range boxes {
		out[i] = b.Condition
	}
	*cs = out
	return nil
}

func (cs Conditions) MarshalJSON() ([]byte, error) {
	return json.Marshal(boxConditions(cs))
}
