package engine

import (
	"github.com/urdwyrd/urd/internal/world"
)

// View is the host-facing read model of current state: where the
// player is, what is here, and what the open dialogue offers. It is a
// presentation convenience; Snapshot carries exact state.
type View struct {
	Turn      int      `json:"turn"`
	Location  string   `json:"location"`
	Hint      string   `json:"hint,omitempty"`
	Exits     []string `json:"exits,omitempty"`
	Inventory []string `json:"inventory,omitempty"`
	Present   []string `json:"present,omitempty"`

	Dialogue *DialogueView `json:"dialogue,omitempty"`
	Sequence *SequenceView `json:"sequence,omitempty"`
}

// DialogueView describes the open dialogue. Choices are the visible
// list of the innermost scope, in the same order ChooseDialogue
// indexes them; Available marks the ones whose conditions currently
// hold.
type DialogueView struct {
	Section string       `json:"section"`
	Prompt  string       `json:"prompt,omitempty"`
	Choices []ChoiceView `json:"choices"`
}

// ChoiceView is one offered dialogue choice.
type ChoiceView struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// SequenceView describes the active sequence and its current phase.
type SequenceView struct {
	ID     string `json:"id"`
	Phase  string `json:"phase,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// View builds the host-facing read model.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		Turn:      e.turn,
		Location:  e.store.PlayerLocation(),
		Inventory: e.store.Inventory(),
		Present:   e.store.EntitiesAt(e.store.PlayerLocation()),
	}
	if loc, ok := e.def.Location(v.Location); ok {
		v.Hint = loc.Hint
		for _, ex := range loc.Exits {
			v.Exits = append(v.Exits, ex.To)
		}
	}

	if e.dialogueOpen() {
		sec, _ := e.def.Section(e.dlgSection)
		dv := &DialogueView{Section: e.dlgSection, Prompt: sec.Prompt}
		for _, ch := range e.visibleChoices(e.currentChoices()) {
			dv.Choices = append(dv.Choices, ChoiceView{
				ID:        ch.ID,
				Label:     ch.Label,
				Available: e.evalAll(ch.Conditions),
			})
		}
		v.Dialogue = dv
	}

	if e.seqID != "" && e.phaseEntered {
		if seq, ok := e.def.Sequence(e.seqID); ok && e.phaseIdx < len(seq.Phases) {
			ph := seq.Phases[e.phaseIdx]
			v.Sequence = &SequenceView{ID: e.seqID, Phase: ph.ID, Prompt: ph.Prompt}
		}
	}
	return v
}

// VisibleProperties returns an entity's property values with hidden,
// unrevealed properties filtered out. Not ok for absent entities.
func (e *Engine) VisibleProperties(entity string) (map[string]world.Value, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.store.Exists(entity) {
		return nil, false
	}
	ent, ok := e.def.Entity(entity)
	if !ok {
		return nil, false
	}
	t, ok := e.def.Type(ent.Type)
	if !ok {
		return map[string]world.Value{}, true
	}
	out := make(map[string]world.Value)
	for _, name := range t.PropertyNames() {
		if !e.store.IsRevealed(entity, name) {
			continue
		}
		if v, ok := e.store.GetProperty(entity, name); ok {
			out[name] = v
		}
	}
	return out, true
}
