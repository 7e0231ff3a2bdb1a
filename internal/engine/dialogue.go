package engine

import (
	"github.com/urdwyrd/urd/internal/world"
)

// Dialogue state machine.
//
// At most one dialogue is open at a time. Within an open dialogue the
// engine tracks the current section plus a stack of nested choice
// scopes; choice indices in requests always address the VISIBLE list
// of the innermost scope: declaration order with consumed one-shot
// choices removed. Conditioned choices stay visible and fail at choose
// time, so a host can render them greyed out.

// scopeFrame is one level of nested choices. sticky records whether
// the choice that opened the frame was sticky, which decides where an
// emptied frame unwinds to.
type scopeFrame struct {
	choices []world.Choice
	sticky  bool
}

// consumedKey identifies a choice for one-shot tracking. Choice ids
// are unique within a section at load time.
func consumedKey(section, choice string) string {
	return section + "/" + choice
}

// currentChoices returns the choice list of the innermost open scope.
func (e *Engine) currentChoices() []world.Choice {
	if n := len(e.scopes); n > 0 {
		return e.scopes[n-1].choices
	}
	sec, ok := e.def.Section(e.dlgSection)
	if !ok {
		return nil
	}
	return sec.Choices
}

// visibleChoices filters consumed one-shot choices out of a list,
// preserving declaration order. Conditioned choices are NOT filtered.
func (e *Engine) visibleChoices(choices []world.Choice) []world.Choice {
	out := make([]world.Choice, 0, len(choices))
	for _, ch := range choices {
		if !ch.Sticky && e.consumed[consumedKey(e.dlgSection, ch.ID)] {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// offerableCount counts the visible choices whose conditions currently
// hold. Exhaustion is judged on this set, not the visible one.
func (e *Engine) offerableCount(section string, choices []world.Choice) int {
	n := 0
	for _, ch := range choices {
		if !ch.Sticky && e.consumed[consumedKey(section, ch.ID)] {
			continue
		}
		if e.evalAll(ch.Conditions) {
			n++
		}
	}
	return n
}

// sectionExhausted reports whether a section currently offers nothing:
// every top-level choice is either consumed or condition-blocked.
// Sections are never born exhausted unless they declare no choices.
func (e *Engine) sectionExhausted(id string) bool {
	sec, ok := e.def.Section(id)
	if !ok {
		return false
	}
	return e.offerableCount(id, sec.Choices) == 0
}

// dialogueOpen reports whether a dialogue is currently open.
func (e *Engine) dialogueOpen() bool {
	return e.dlgSection != ""
}

// enterSection opens a dialogue at the given section. If the section's
// entry conditions do not hold, any open dialogue closes instead; a
// goto into a gated section is a dead end, not an error.
func (e *Engine) enterSection(id string, visited map[string]bool) {
	sec, ok := e.def.Section(id)
	if !ok || !e.evalAll(sec.Entry) {
		e.closeDialogue()
		return
	}
	e.dlgSection = id
	e.scopes = nil
	e.emit(Event{Kind: EventDialogueOpened, Section: id, Hint: sec.Prompt})
	e.resolveExhaustion(visited)
}

// closeDialogue closes the open dialogue, if any.
func (e *Engine) closeDialogue() {
	if !e.dialogueOpen() {
		return
	}
	section := e.dlgSection
	e.dlgSection = ""
	e.scopes = nil
	e.emit(Event{Kind: EventDialogueClosed, Section: section})
}

// resolveExhaustion checks the open section's top level for
// exhaustion and routes through its fallback. visited guards against
// exhausted sections whose fallbacks form a cycle; revisiting one
// closes the dialogue.
func (e *Engine) resolveExhaustion(visited map[string]bool) {
	if !e.dialogueOpen() || len(e.scopes) > 0 {
		return
	}
	id := e.dlgSection
	if !e.sectionExhausted(id) {
		return
	}
	if !e.exhaustedSeen[id] {
		e.exhaustedSeen[id] = true
		e.emit(Event{Kind: EventSectionExhausted, Section: id})
	}
	sec, _ := e.def.Section(id)
	if sec.OnExhausted == nil || sec.OnExhausted.Goto == world.TokenEnd {
		e.closeDialogue()
		return
	}
	if visited == nil {
		visited = make(map[string]bool)
	}
	if visited[id] {
		e.closeDialogue()
		return
	}
	visited[id] = true
	e.enterSection(sec.OnExhausted.Goto, visited)
}

// settleScopes unwinds emptied nested scopes after a choice resolves.
// An emptied frame opened by a sticky choice returns to its parent; an
// emptied frame opened by a one-shot choice closes the dialogue. At
// the top level the usual exhaustion routing applies.
func (e *Engine) settleScopes() {
	for e.dialogueOpen() && len(e.scopes) > 0 {
		top := e.scopes[len(e.scopes)-1]
		if len(e.visibleChoices(top.choices)) > 0 {
			return
		}
		if !top.sticky {
			e.closeDialogue()
			return
		}
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
	e.resolveExhaustion(nil)
}

// autoOpen opens the first qualifying dialogue bound to the player's
// location: a section with unconditioned entry and at least one
// choice, that is not a goto target of another section and is not
// exhausted. No-op when a dialogue is already open.
func (e *Engine) autoOpen() {
	if e.dialogueOpen() {
		return
	}
	loc, ok := e.def.Location(e.store.PlayerLocation())
	if !ok {
		return
	}
	for _, id := range loc.Sections {
		sec, ok := e.def.Section(id)
		if !ok || len(sec.Entry) > 0 || len(sec.Choices) == 0 {
			continue
		}
		if e.gotoTargets[id] || e.sectionExhausted(id) {
			continue
		}
		e.enterSection(id, nil)
		return
	}
}

// chooseDialogue validates and takes one choice by visible index.
func (e *Engine) chooseDialogue(index int) (EventBatch, error) {
	if !e.dialogueOpen() {
		return nil, requestFailure(CodeNoDialogue, "no dialogue is open")
	}
	visible := e.visibleChoices(e.currentChoices())
	if index < 0 || index >= len(visible) {
		return nil, requestFailure(CodeChoiceRange,
			"choice index %d out of range (%d visible)", index, len(visible))
	}
	ch := visible[index]
	if failing, failed := e.firstFailing(ch.Conditions); failed {
		return nil, worldFailure(CodeChoiceUnavailable, failing.Ref(),
			"choice %q is not available", ch.ID)
	}

	e.beginTurn()
	if !ch.Sticky {
		e.consumed[consumedKey(e.dlgSection, ch.ID)] = true
	}
	e.emit(Event{
		Kind:    EventChoiceTaken,
		Section: e.dlgSection,
		Choice:  ch.ID,
		Hint:    ch.Response,
	})
	e.applyEffects(ch.Effects)

	switch {
	case ch.Goto == world.TokenEnd:
		e.closeDialogue()
	case ch.Goto != "":
		e.closeScopesForGoto()
		e.enterSection(ch.Goto, nil)
	case len(ch.Choices) > 0:
		e.scopes = append(e.scopes, scopeFrame{choices: ch.Choices, sticky: ch.Sticky})
	default:
		e.settleScopes()
	}

	return e.finishTurn(), nil
}

// closeScopesForGoto drops the scope stack without closing the
// dialogue; a goto always lands at its target section's top level.
func (e *Engine) closeScopesForGoto() {
	e.scopes = nil
}

// dialogueEndOfTurn re-checks exhaustion after the turn's rule sweeps,
// which may have condition-blocked the remaining choices.
func (e *Engine) dialogueEndOfTurn() {
	e.resolveExhaustion(nil)
}
