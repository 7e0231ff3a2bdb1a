package world

import (
	"encoding/json"
	"fmt"
)

// Section is one dialogue section. Sections live in a flat, globally
// keyed map; locations list the sections that may auto-open there, in
// declaration order.
type Section struct {
	ID string `json:"id"`
	// Prompt is an optional entry presentation hint.
	Prompt string `json:"prompt,omitempty"`
	// Entry conditions gate entering the section. A section with no
	// entry conditions is "unconditioned" and eligible for auto-open.
	Entry   Conditions `json:"entry,omitempty"`
	Choices []Choice   `json:"choices"`
	// OnExhausted is the optional fallback run when the section has no
	// offerable choice left. Nil closes the dialogue.
	OnExhausted *Fallback `json:"on_exhausted,omitempty"`
}

// Fallback is a section's on-exhausted behavior: a goto target
// (TokenEnd allowed) to follow instead of closing.
type Fallback struct {
	Goto string `json:"goto"`
}

// Choice is one selectable dialogue option. Exactly one of Goto, a
// non-empty Choices list, or neither is present; the loader enforces
// the arity. A choice with neither falls back to the enclosing sticky
// loop or closes the dialogue.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// Sticky choices remain selectable indefinitely. Non-sticky
	// (one-shot) choices are consumed after first selection and never
	// offered again.
	Sticky     bool       `json:"sticky,omitempty"`
	Conditions Conditions `json:"conditions,omitempty"`
	// Response is an optional presentation hint surfaced on selection.
	Response string  `json:"response,omitempty"`
	Effects  Effects `json:"effects,omitempty"`
	// Goto names the next section, or TokenEnd to end the dialogue.
	Goto string `json:"goto,omitempty"`
	// Choices is a nested sub-choice list entered after selection.
	Choices []Choice `json:"choices,omitempty"`
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	type plain Choice
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Goto != "" && len(p.Choices) > 0 {
		return fmt.Errorf("choice %q: goto and nested choices are mutually exclusive", p.ID)
	}
	*c = Choice(p)
	return nil
}
