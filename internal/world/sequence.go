package world

import (
	"encoding/json"
	"fmt"
)

// AdvanceKind is a phase's advance policy.
type AdvanceKind string

const (
	// AdvanceManual never advances automatically.
	AdvanceManual AdvanceKind = "manual"
	// AdvanceAfterAction advances after any completed turn.
	AdvanceAfterAction AdvanceKind = "after_action"
	// AdvanceAfterCondition advances once the named condition holds.
	AdvanceAfterCondition AdvanceKind = "after_condition"
	// AdvanceAfterRule advances once the named rule has fired this turn.
	AdvanceAfterRule AdvanceKind = "after_rule"
)

// Advance is a phase's advance policy. Policies are evaluated once per
// turn, after rule sweeping.
type Advance struct {
	Kind AdvanceKind `json:"kind"`
	// Condition is required for AdvanceAfterCondition.
	Condition Condition `json:"-"`
	// Rule is required for AdvanceAfterRule.
	Rule string `json:"rule,omitempty"`
}

func (a *Advance) UnmarshalJSON(data []byte) error {
	var env struct {
		Kind      AdvanceKind   `json:"kind"`
		Condition *ConditionBox `json:"condition,omitempty"`
		Rule      string        `json:"rule,omitempty"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Kind {
	case AdvanceManual, AdvanceAfterAction, AdvanceAfterRule:
	case AdvanceAfterCondition:
		if env.Condition == nil {
			return fmt.Errorf("advance policy %q: missing condition", env.Kind)
		}
	case "":
		return fmt.Errorf("advance policy missing kind")
	default:
		return fmt.Errorf("unknown advance policy %q", env.Kind)
	}
	a.Kind = env.Kind
	a.Rule = env.Rule
	if env.Condition != nil {
		a.Condition = env.Condition.Condition
	}
	return nil
}

func (a Advance) MarshalJSON() ([]byte, error) {
	env := struct {
		Kind      AdvanceKind   `json:"kind"`
		Condition *ConditionBox `json:"condition,omitempty"`
		Rule      string        `json:"rule,omitempty"`
	}{Kind: a.Kind, Rule: a.Rule}
	if a.Condition != nil {
		env.Condition = &ConditionBox{a.Condition}
	}
	return json.Marshal(env)
}

// Phase is one step of a phased progression. Its conditions gate
// activation: an unmet phase stalls the sequence until state makes them
// true, re-checked after every turn.
type Phase struct {
	ID         string     `json:"id"`
	Conditions Conditions `json:"conditions,omitempty"`
	Effects    Effects    `json:"effects,omitempty"`
	// Prompt is an optional presentation hint surfaced on activation.
	Prompt string `json:"prompt,omitempty"`
	// Auto phases advance immediately on activation unless the advance
	// policy is manual.
	Auto    bool    `json:"auto,omitempty"`
	Advance Advance `json:"advance"`
}

// Sequence is an ordered phase list. At most one sequence is active at
// a time; past the last phase the sequence completes and is cleared.
type Sequence struct {
	ID     string  `json:"id"`
	Phases []Phase `json:"phases"`
}
