package world

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TriggerKind is the event category a rule listens for.
type TriggerKind string

const (
	// TriggerAction matches one specific action id.
	TriggerAction TriggerKind = "action"
	// TriggerLocationEntry matches the player entering a location.
	TriggerLocationEntry TriggerKind = "location_entry"
	// TriggerPropertyChange matches any successful property write.
	TriggerPropertyChange TriggerKind = "property_change"
	// TriggerAlways matches every class. Always-rules are evaluated
	// last, once per turn, after all specifically-triggered rules.
	TriggerAlways TriggerKind = "always"
)

// Trigger declares when a rule is considered for firing.
type Trigger struct {
	Kind   TriggerKind `json:"kind"`
	Action string      `json:"action,omitempty"` // for TriggerAction
}

func (t *Trigger) UnmarshalJSON(data []byte) error {
	type plain Trigger
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	switch p.Kind {
	case TriggerAction, TriggerLocationEntry, TriggerPropertyChange, TriggerAlways:
	case "":
		return fmt.Errorf("trigger missing kind")
	default:
		return fmt.Errorf("unknown trigger kind %q", p.Kind)
	}
	*t = Trigger(p)
	return nil
}

// Selection is a rule's optional selection clause: a declared candidate
// list, a bound variable name, and per-candidate where-conditions. The
// bound variable appears in where-conditions and effects as "$name".
type Selection struct {
	Bind       string     `json:"bind"`
	Candidates []string   `json:"candidates"`
	Where      Conditions `json:"where,omitempty"`
}

// Rule is a declared reaction: when its trigger class fires and its
// conditions hold, its effects are applied. Rules are evaluated in
// declaration order and fire at most once per turn.
type Rule struct {
	ID         string     `json:"id"`
	Trigger    Trigger    `json:"trigger"`
	Conditions Conditions `json:"conditions,omitempty"`
	Effects    Effects    `json:"effects,omitempty"`
	Select     *Selection `json:"select,omitempty"`
}

// Var renders a bound-variable reference as it appears in entity slots.
func Var(name string) string {
	return "$" + name
}

// IsVar reports whether an entity slot holds a variable reference, and
// if so which variable.
func IsVar(s string) (string, bool) {
	if strings.HasPrefix(s, "$") {
		return s[1:], true
	}
	return "", false
}

// BindConditions returns a copy of conds with every reference to the
// variable replaced by the candidate id.
func BindConditions(conds []Condition, name, candidate string) []Condition {
	if len(conds) == 0 {
		return nil
	}
	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i] = bindCondition(c, name, candidate)
	}
	return out
}

func bindCondition(c Condition, name, candidate string) Condition {
	ref := Var(name)
	switch cond := c.(type) {
	case Compare:
		if cond.Entity == ref {
			cond.Entity = candidate
		}
		return cond
	case Contain:
		if cond.Entity == ref {
			cond.Entity = candidate
		}
		if cond.Target == ref {
			cond.Target = candidate
		}
		return cond
	case Exhausted:
		return cond
	case AnyOf:
		return AnyOf{Conditions: BindConditions(cond.Conditions, name, candidate)}
	case AllOf:
		return AllOf{Conditions: BindConditions(cond.Conditions, name, candidate)}
	default:
		return c
	}
}

// BindEffects returns a copy of effects with every reference to the
// variable replaced by the candidate id.
func BindEffects(effects []Effect, name, candidate string) []Effect {
	if len(effects) == 0 {
		return nil
	}
	ref := Var(name)
	out := make([]Effect, len(effects))
	for i, e := range effects {
		switch eff := e.(type) {
		case Set:
			if eff.Entity == ref {
				eff.Entity = candidate
			}
			if eff.Formula != nil {
				f := *eff.Formula
				if f.From.Entity == ref {
					f.From.Entity = candidate
				}
				eff.Formula = &f
			}
			out[i] = eff
		case Move:
			if eff.Entity == ref {
				eff.Entity = candidate
			}
			if eff.To == ref {
				eff.To = candidate
			}
			out[i] = eff
		case Destroy:
			if eff.Entity == ref {
				eff.Entity = candidate
			}
			out[i] = eff
		case Reveal:
			if eff.Entity == ref {
				eff.Entity = candidate
			}
			out[i] = eff
		default:
			out[i] = e
		}
	}
	return out
}
