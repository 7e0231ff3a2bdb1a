package world

import (
	"encoding/json"
	"fmt"
)

// Effect is a sealed interface over the effect variants the engine can
// apply. Only Set, Move, Destroy, and Reveal implement it. Unknown kinds
// are rejected while decoding the document.
type Effect interface {
	effect() // sealed
}

// ArithOp is the operator of a relative set expression.
type ArithOp string

const (
	ArithAdd ArithOp = "add"
	ArithSub ArithOp = "sub"
)

// PropRef names another entity's property as the source of a relative
// set expression.
type PropRef struct {
	Entity   string `json:"entity"`
	Property string `json:"property"`
}

// Formula is a relative arithmetic expression: the source property's
// current value with a constant added or subtracted.
type Formula struct {
	From   PropRef
	Op     ArithOp
	Amount int64
}

// Set writes an entity property. Exactly one of Value (a literal) or
// Formula (a relative expression) is present; the loader enforces the
// arity. Numeric writes clamp to the property's declared bounds.
type Set struct {
	Entity   string
	Property string
	Value    Value    // literal form
	Formula  *Formula // relative form
}

func (Set) effect() {}

// Move changes an entity's container. To is TokenPlayer, TokenHere, or
// an explicit location id.
type Move struct {
	Entity string
	To     string
}

func (Move) effect() {}

// Destroy marks an entity permanently inert. Subsequent reads treat the
// entity as absent.
type Destroy struct {
	Entity string
}

func (Destroy) effect() {}

// Reveal marks a property as visible to presentation layers. It does
// not alter the property's value.
type Reveal struct {
	Entity   string
	Property string
}

func (Reveal) effect() {}

// effectJSON is the wire envelope for a tagged effect.
type effectJSON struct {
	Kind     string          `json:"kind"`
	Entity   string          `json:"entity,omitempty"`
	Property string          `json:"property,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	From     *PropRef        `json:"from,omitempty"`
	Op       string          `json:"op,omitempty"`
	Amount   *int64          `json:"amount,omitempty"`
	To       string          `json:"to,omitempty"`
}

// EffectBox carries an Effect through JSON encoding and decoding.
type EffectBox struct {
	Effect
}

func (b *EffectBox) UnmarshalJSON(data []byte) error {
	var env effectJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	switch env.Kind {
	case "set":
		set := Set{Entity: env.Entity, Property: env.Property}
		hasValue := len(env.Value) > 0
		hasFormula := env.From != nil
		switch {
		case hasValue && hasFormula:
			return fmt.Errorf("effect set: value and from are mutually exclusive")
		case hasValue:
			v, err := DecodeValue(env.Value)
			if err != nil {
				return fmt.Errorf("effect set: %w", err)
			}
			set.Value = v
		case hasFormula:
			op := ArithOp(env.Op)
			if op != ArithAdd && op != ArithSub {
				return fmt.Errorf("effect set: unknown arithmetic op %q", env.Op)
			}
			amount := int64(0)
			if env.Amount != nil {
				amount = *env.Amount
			}
			set.Formula = &Formula{From: *env.From, Op: op, Amount: amount}
		default:
			return fmt.Errorf("effect set: missing value or from")
		}
		b.Effect = set
		return nil

	case "move":
		b.Effect = Move{Entity: env.Entity, To: env.To}
		return nil

	case "destroy":
		b.Effect = Destroy{Entity: env.Entity}
		return nil

	case "reveal":
		b.Effect = Reveal{Entity: env.Entity, Property: env.Property}
		return nil

	case "":
		return fmt.Errorf("effect missing kind")

	default:
		return fmt.Errorf("unknown effect kind %q", env.Kind)
	}
}

func (b EffectBox) MarshalJSON() ([]byte, error) {
	switch eff := b.Effect.(type) {
	case Set:
		env := effectJSON{Kind: "set", Entity: eff.Entity, Property: eff.Property}
		if eff.Formula != nil {
			from := eff.Formula.From
			amount := eff.Formula.Amount
			env.From = &from
			env.Op = string(eff.Formula.Op)
			env.Amount = &amount
		} else {
			v, err := MarshalValue(eff.Value)
			if err != nil {
				return nil, err
			}
			env.Value = v
		}
		return json.Marshal(env)
	case Move:
		return json.Marshal(effectJSON{Kind: "move", Entity: eff.Entity, To: eff.To})
	case Destroy:
		return json.Marshal(effectJSON{Kind: "destroy", Entity: eff.Entity})
	case Reveal:
		return json.Marshal(effectJSON{Kind: "reveal", Entity: eff.Entity, Property: eff.Property})
	default:
		return nil, fmt.Errorf("unknown effect type: %T", b.Effect)
	}
}

// Effects is an ordered effect list, applied in declared order.
type Effects []Effect

func (es *Effects) UnmarshalJSON(data []byte) error {
	var boxes []EffectBox
	if err := json.Unmarshal(data, &boxes); err != nil {
		return err
	}
	out := make(Effects, len(boxes))
	for i, b := range boxes {
		out[i] = b.Effect
	}
	*es = out
	return nil
}

func (es Effects) MarshalJSON() ([]byte, error) {
	boxes := make([]EffectBox, len(es))
	for i, e := range es {
		boxes[i] = EffectBox{e}
	}
	return json.Marshal(boxes)
}
