package world

import (
	"fmt"
	"strings"
)

// Validation error codes (W100-W179).
const (
	// Meta errors (W100-W109)
	ErrMetaNameEmpty      = "W100" // world name is required
	ErrStartUnknown       = "W101" // start location not declared
	ErrEntrySeqUnknown    = "W102" // entry sequence not declared
	ErrReservedIdentifier = "W103" // id collides with a reserved token

	// Type schema errors (W110-W119)
	ErrDuplicateType = "W110" // duplicate type name
	ErrBoundsInvalid = "W111" // min greater than max
	ErrDefaultOutOfBounds  = "W112" // default or override outside declared bounds
	ErrBoundsOnNonNumeric  = "W113" // bounds declared on a non-numeric default

	// Entity errors (W120-W129)
	ErrDuplicateEntity    = "W120" // duplicate entity id
	ErrEntityTypeUnknown  = "W121" // entity type not declared
	ErrContainerUnknown   = "W122" // container is not none, player, or a location
	ErrPropertyUndeclared = "W123" // property not in the type schema

	// Location errors (W130-W139)
	ErrDuplicateLocation = "W130" // duplicate location id
	ErrExitTargetUnknown = "W131" // exit destination not declared

	// Action errors (W140-W149)
	ErrDuplicateAction     = "W140" // duplicate action id
	ErrTargetEntityUnknown = "W141" // fixed target entity not declared
	ErrTargetTypeUnknown   = "W142" // target type not declared
	ErrTargetAmbiguous     = "W143" // both entity and type targets given

	// Rule errors (W150-W159)
	ErrDuplicateRule      = "W150" // duplicate rule id
	ErrTriggerActionUnknown = "W151" // trigger references unknown action
	ErrCandidateUnknown   = "W152" // selection candidate not declared
	ErrUnboundVariable    = "W153" // variable reference not in scope
	ErrEntityUnknown      = "W154" // referenced entity not declared

	// Sequence errors (W160-W169)
	ErrDuplicateSequence  = "W160" // duplicate sequence id
	ErrDuplicatePhase     = "W161" // duplicate phase id within sequence
	ErrAdvanceRuleUnknown = "W162" // advance policy references unknown rule

	// Dialogue errors (W170-W179)
	ErrSectionUnknown        = "W171" // referenced section not declared
	ErrGotoUnknown           = "W172" // goto target not declared
	ErrDuplicateChoice       = "W173" // duplicate choice id within section
	ErrMultipleUnconditioned = "W174" // more than one unconditioned section per location
)

// ValidationError is one load-time validation finding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors aggregates all findings for one definition.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	if len(es) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(es), strings.Join(msgs, "; "))
}

// Validate checks every cross-reference in the definition and returns
// all findings. It does not fail fast: a rejected definition reports
// every dangling reference at once. A definition with zero findings can
// be executed without reference errors.
func Validate(def *Definition) ValidationErrors {
	v := &validator{def: def}
	v.index()
	v.validateMeta()
	v.validateTypes()
	v.validateEntities()
	v.validateLocations()
	v.validateActions()
	v.validateRules()
	v.validateSequences()
	v.validateSections()
	return v.errs
}

type validator struct {
	def  *Definition
	errs ValidationErrors

	types     map[string]bool
	entities  map[string]bool
	locations map[string]bool
	actions   map[string]bool
	rules     map[string]bool
	sequences map[string]bool
}

func (v *validator) addf(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

var reservedTokens = map[string]bool{
	TokenPlayer: true,
	TokenHere:   true,
	TokenEnd:    true,
}

// index builds the id sets first so reference checks report against the
// full declaration set regardless of declaration order.
func (v *validator) index() {
	v.types = make(map[string]bool)
	v.entities = make(map[string]bool)
	v.locations = make(map[string]bool)
	v.actions = make(map[string]bool)
	v.rules = make(map[string]bool)
	v.sequences = make(map[string]bool)

	for _, t := range v.def.Types {
		v.types[t.Name] = true
	}
	for _, e := range v.def.Entities {
		v.entities[e.ID] = true
	}
	for _, l := range v.def.Locations {
		v.locations[l.ID] = true
	}
	for _, a := range v.def.Actions {
		v.actions[a.ID] = true
	}
	for _, r := range v.def.Rules {
		v.rules[r.ID] = true
	}
	for _, s := range v.def.Sequences {
		v.sequences[s.ID] = true
	}
}

func (v *validator) validateMeta() {
	m := v.def.Meta
	if strings.TrimSpace(m.Name) == "" {
		v.addf(ErrMetaNameEmpty, "meta.name", "world name is required")
	}
	if !v.locations[m.Start] {
		v.addf(ErrStartUnknown, "meta.start", "start location %q is not declared", m.Start)
	}
	if m.EntrySequence != "" && !v.sequences[m.EntrySequence] {
		v.addf(ErrEntrySeqUnknown, "meta.entry_sequence", "entry sequence %q is not declared", m.EntrySequence)
	}
}

func (v *validator) validateTypes() {
	seen := make(map[string]bool)
	for i, t := range v.def.Types {
		field := fmt.Sprintf("types[%d]", i)
		if seen[t.Name] {
			v.addf(ErrDuplicateType, field+".name", "duplicate type name %q", t.Name)
		}
		seen[t.Name] = true

		for _, name := range t.PropertyNames() {
			ps := t.Properties[name]
			pfield := fmt.Sprintf("%s.properties[%s]", field, name)
			if ps.Min != nil && ps.Max != nil && *ps.Min > *ps.Max {
				v.addf(ErrBoundsInvalid, pfield, "min %d is greater than max %d", *ps.Min, *ps.Max)
			}
			if ps.Min != nil || ps.Max != nil {
				n, isInt := ps.Default.(Int)
				if !isInt {
					v.addf(ErrBoundsOnNonNumeric, pfield, "bounds declared but default %s is not numeric", String(ps.Default))
					continue
				}
				if ps.Min != nil && int64(n) < *ps.Min {
					v.addf(ErrDefaultOutOfBounds, pfield, "default %d is below min %d", int64(n), *ps.Min)
				}
				if ps.Max != nil && int64(n) > *ps.Max {
					v.addf(ErrDefaultOutOfBounds, pfield, "default %d is above max %d", int64(n), *ps.Max)
				}
			}
		}
	}
}

func (v *validator) validateEntities() {
	seen := make(map[string]bool)
	for i, e := range v.def.Entities {
		field := fmt.Sprintf("entities[%d]", i)
		if seen[e.ID] {
			v.addf(ErrDuplicateEntity, field+".id", "duplicate entity id %q", e.ID)
		}
		seen[e.ID] = true
		if reservedTokens[e.ID] || strings.HasPrefix(e.ID, "$") {
			v.addf(ErrReservedIdentifier, field+".id", "entity id %q is reserved", e.ID)
		}

		t, typeOK := v.def.Type(e.Type)
		if !typeOK {
			v.addf(ErrEntityTypeUnknown, field+".type", "entity type %q is not declared", e.Type)
		}

		if e.Container != "" && e.Container != TokenPlayer && !v.locations[e.Container] {
			v.addf(ErrContainerUnknown, field+".container",
				"container %q is not none, %q, or a declared location", e.Container, TokenPlayer)
		}

		if typeOK {
			for name, val := range e.Properties {
				pfield := fmt.Sprintf("%s.properties[%s]", field, name)
				ps, ok := t.Properties[name]
				if !ok {
					v.addf(ErrPropertyUndeclared, pfield,
						"property %q is not declared by type %q", name, e.Type)
					continue
				}
				// Overrides obey the same bounds as defaults.
				if n, isInt := val.(Int); isInt {
					if ps.Min != nil && int64(n) < *ps.Min {
						v.addf(ErrDefaultOutOfBounds, pfield, "override %d is below min %d", int64(n), *ps.Min)
					}
					if ps.Max != nil && int64(n) > *ps.Max {
						v.addf(ErrDefaultOutOfBounds, pfield, "override %d is above max %d", int64(n), *ps.Max)
					}
				}
			}
		}
	}
}

func (v *validator) validateLocations() {
	seen := make(map[string]bool)
	for i, l := range v.def.Locations {
		field := fmt.Sprintf("locations[%d]", i)
		if seen[l.ID] {
			v.addf(ErrDuplicateLocation, field+".id", "duplicate location id %q", l.ID)
		}
		seen[l.ID] = true
		if reservedTokens[l.ID] {
			v.addf(ErrReservedIdentifier, field+".id", "location id %q is reserved", l.ID)
		}

		for j, ex := range l.Exits {
			efield := fmt.Sprintf("%s.exits[%d]", field, j)
			if !v.locations[ex.To] {
				v.addf(ErrExitTargetUnknown, efield+".to", "exit destination %q is not declared", ex.To)
			}
			if ex.Condition != nil {
				v.validateCondition(ex.Condition, efield+".condition", nil)
			}
			v.validateEffects(ex.Effects, efield+".effects", nil)
		}

		unconditioned := 0
		for j, id := range l.Sections {
			sfield := fmt.Sprintf("%s.sections[%d]", field, j)
			sec, ok := v.def.Sections[id]
			if !ok {
				v.addf(ErrSectionUnknown, sfield, "section %q is not declared", id)
				continue
			}
			if len(sec.Entry) == 0 {
				unconditioned++
			}
		}
		// The auto-open tie is resolved at load, not ad hoc at runtime:
		// a location may list at most one unconditioned section.
		if unconditioned > 1 {
			v.addf(ErrMultipleUnconditioned, field+".sections",
				"%d unconditioned sections listed; at most one may auto-open per location", unconditioned)
		}
	}
}

func (v *validator) validateActions() {
	seen := make(map[string]bool)
	for i, a := range v.def.Actions {
		field := fmt.Sprintf("actions[%d]", i)
		if seen[a.ID] {
			v.addf(ErrDuplicateAction, field+".id", "duplicate action id %q", a.ID)
		}
		seen[a.ID] = true

		var vars map[string]bool
		if a.Target != nil {
			switch {
			case a.Target.Entity != "" && a.Target.Type != "":
				v.addf(ErrTargetAmbiguous, field+".target", "target declares both an entity and a type")
			case a.Target.Entity != "":
				if !v.entities[a.Target.Entity] {
					v.addf(ErrTargetEntityUnknown, field+".target.entity",
						"target entity %q is not declared", a.Target.Entity)
				}
			case a.Target.Type != "":
				if !v.types[a.Target.Type] {
					v.addf(ErrTargetTypeUnknown, field+".target.type",
						"target type %q is not declared", a.Target.Type)
				}
				vars = map[string]bool{"target": true}
			}
		}

		v.validateConditions(a.Conditions, field+".conditions", vars)
		v.validateEffects(a.Effects, field+".effects", vars)
	}
}

func (v *validator) validateRules() {
	seen := make(map[string]bool)
	for i, r := range v.def.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if seen[r.ID] {
			v.addf(ErrDuplicateRule, field+".id", "duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true

		if r.Trigger.Kind == TriggerAction && !v.actions[r.Trigger.Action] {
			v.addf(ErrTriggerActionUnknown, field+".trigger.action",
				"trigger references unknown action %q", r.Trigger.Action)
		}

		v.validateConditions(r.Conditions, field+".conditions", nil)

		var vars map[string]bool
		if r.Select != nil {
			vars = map[string]bool{r.Select.Bind: true}
			for j, cand := range r.Select.Candidates {
				if !v.entities[cand] {
					v.addf(ErrCandidateUnknown, fmt.Sprintf("%s.select.candidates[%d]", field, j),
						"candidate %q is not declared", cand)
				}
			}
			v.validateConditions(r.Select.Where, field+".select.where", vars)
		}
		v.validateEffects(r.Effects, field+".effects", vars)
	}
}

func (v *validator) validateSequences() {
	seen := make(map[string]bool)
	for i, s := range v.def.Sequences {
		field := fmt.Sprintf("sequences[%d]", i)
		if seen[s.ID] {
			v.addf(ErrDuplicateSequence, field+".id", "duplicate sequence id %q", s.ID)
		}
		seen[s.ID] = true

		phaseSeen := make(map[string]bool)
		for j, p := range s.Phases {
			pfield := fmt.Sprintf("%s.phases[%d]", field, j)
			if phaseSeen[p.ID] {
				v.addf(ErrDuplicatePhase, pfield+".id", "duplicate phase id %q", p.ID)
			}
			phaseSeen[p.ID] = true

			v.validateConditions(p.Conditions, pfield+".conditions", nil)
			v.validateEffects(p.Effects, pfield+".effects", nil)

			switch p.Advance.Kind {
			case AdvanceAfterCondition:
				v.validateCondition(p.Advance.Condition, pfield+".advance.condition", nil)
			case AdvanceAfterRule:
				if !v.rules[p.Advance.Rule] {
					v.addf(ErrAdvanceRuleUnknown, pfield+".advance.rule",
						"advance policy references unknown rule %q", p.Advance.Rule)
				}
			}
		}
	}
}

func (v *validator) validateSections() {
	for _, id := range v.def.SectionIDs() {
		sec := v.def.Sections[id]
		field := fmt.Sprintf("sections[%s]", id)
		if reservedTokens[id] {
			v.addf(ErrReservedIdentifier, field, "section id %q is reserved", id)
		}

		v.validateConditions(sec.Entry, field+".entry", nil)

		choiceSeen := make(map[string]bool)
		v.validateChoices(sec.Choices, field+".choices", choiceSeen)

		if sec.OnExhausted != nil {
			g := sec.OnExhausted.Goto
			if g != TokenEnd {
				if _, ok := v.def.Sections[g]; !ok {
					v.addf(ErrGotoUnknown, field+".on_exhausted.goto",
						"fallback goto %q is not a declared section", g)
				}
			}
		}
	}
}

// validateChoices walks a choice tree. Choice ids must be unique across
// the whole section, nested levels included, because the consumed-choice
// set is keyed by section and choice id.
func (v *validator) validateChoices(choices []Choice, field string, seen map[string]bool) {
	for i, c := range choices {
		cfield := fmt.Sprintf("%s[%d]", field, i)
		if seen[c.ID] {
			v.addf(ErrDuplicateChoice, cfield+".id", "duplicate choice id %q in section", c.ID)
		}
		seen[c.ID] = true

		v.validateConditions(c.Conditions, cfield+".conditions", nil)
		v.validateEffects(c.Effects, cfield+".effects", nil)

		if c.Goto != "" && c.Goto != TokenEnd {
			if _, ok := v.def.Sections[c.Goto]; !ok {
				v.addf(ErrGotoUnknown, cfield+".goto", "goto %q is not a declared section", c.Goto)
			}
		}
		v.validateChoices(c.Choices, cfield+".choices", seen)
	}
}

// entityRef checks an entity slot, allowing in-scope variables.
// Returns the referenced entity id and whether property checks can run
// against a concrete entity.
func (v *validator) entityRef(ref, field string, vars map[string]bool) (string, bool) {
	if name, isVar := IsVar(ref); isVar {
		if !vars[name] {
			v.addf(ErrUnboundVariable, field, "variable %q is not bound in this scope", ref)
		}
		return "", false
	}
	if !v.entities[ref] {
		v.addf(ErrEntityUnknown, field, "entity %q is not declared", ref)
		return "", false
	}
	return ref, true
}

func (v *validator) propertyRef(entity, property, field string) {
	if _, ok := v.def.Schema(entity, property); !ok {
		e, _ := v.def.Entity(entity)
		v.addf(ErrPropertyUndeclared, field,
			"property %q is not declared by type %q", property, e.Type)
	}
}

func (v *validator) validateConditions(conds []Condition, field string, vars map[string]bool) {
	for i, c := range conds {
		v.validateCondition(c, fmt.Sprintf("%s[%d]", field, i), vars)
	}
}

func (v *validator) validateCondition(c Condition, field string, vars map[string]bool) {
	switch cond := c.(type) {
	case Compare:
		if id, concrete := v.entityRef(cond.Entity, field+".entity", vars); concrete {
			v.propertyRef(id, cond.Property, field+".property")
		}
	case Contain:
		v.entityRef(cond.Entity, field+".entity", vars)
		t := cond.Target
		if name, isVar := IsVar(t); isVar {
			if !vars[name] {
				v.addf(ErrUnboundVariable, field+".target", "variable %q is not bound in this scope", t)
			}
			return
		}
		if t != TokenPlayer && t != TokenHere && !v.locations[t] {
			v.addf(ErrContainerUnknown, field+".target",
				"containment target %q is not %q, %q, or a declared location", t, TokenPlayer, TokenHere)
		}
	case Exhausted:
		if _, ok := v.def.Sections[cond.Section]; !ok {
			v.addf(ErrSectionUnknown, field+".section", "section %q is not declared", cond.Section)
		}
	case AnyOf:
		for i, inner := range cond.Conditions {
			v.validateCondition(inner, fmt.Sprintf("%s.any[%d]", field, i), vars)
		}
	case AllOf:
		for i, inner := range cond.Conditions {
			v.validateCondition(inner, fmt.Sprintf("%s.all[%d]", field, i), vars)
		}
	}
}

func (v *validator) validateEffects(effects []Effect, field string, vars map[string]bool) {
	for i, e := range effects {
		efield := fmt.Sprintf("%s[%d]", field, i)
		switch eff := e.(type) {
		case Set:
			if id, concrete := v.entityRef(eff.Entity, efield+".entity", vars); concrete {
				v.propertyRef(id, eff.Property, efield+".property")
			}
			if eff.Formula != nil {
				if id, concrete := v.entityRef(eff.Formula.From.Entity, efield+".from.entity", vars); concrete {
					v.propertyRef(id, eff.Formula.From.Property, efield+".from.property")
				}
			}
		case Move:
			v.entityRef(eff.Entity, efield+".entity", vars)
			to := eff.To
			if name, isVar := IsVar(to); isVar {
				if !vars[name] {
					v.addf(ErrUnboundVariable, efield+".to", "variable %q is not bound in this scope", to)
				}
				continue
			}
			if to != TokenPlayer && to != TokenHere && !v.locations[to] {
				v.addf(ErrContainerUnknown, efield+".to",
					"move destination %q is not %q, %q, or a declared location", to, TokenPlayer, TokenHere)
			}
		case Destroy:
			v.entityRef(eff.Entity, efield+".entity", vars)
		case Reveal:
			if id, concrete := v.entityRef(eff.Entity, efield+".entity", vars); concrete {
				v.propertyRef(id, eff.Property, efield+".property")
			}
		}
	}
}
