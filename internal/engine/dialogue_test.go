package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urdwyrd/urd/internal/world"
)

// gardenWorld is a yard with a gardener. Flattery raises trust; the
// garden gate choice needs trust of at least three and opens the way.
func gardenWorld() *world.Definition {
	zero := int64(0)
	five := int64(5)
	return &world.Definition{
		Meta: world.Meta{Name: "locked-garden", Start: "yard", Seed: 3},
		Types: []world.TypeSchema{
			{Name: "npc", Properties: map[string]world.PropertySchema{
				"trust":     {Default: world.Int(0), Min: &zero, Max: &five},
				"gate_open": {Default: world.Bool(false)},
			}},
		},
		Entities: []world.Entity{
			{ID: "gardener", Type: "npc", Container: "yard"},
		},
		Locations: []world.Location{
			{ID: "yard", Sections: []string{"chat"}, Exits: []world.Exit{{
				To:        "garden",
				Condition: world.Compare{Entity: "gardener", Property: "gate_open", Op: world.OpEq, Value: world.Bool(true)},
			}}},
			{ID: "garden", Exits: []world.Exit{{To: "yard"}}},
		},
		Sections: map[string]world.Section{
			"chat": {
				Prompt: "The gardener looks up.",
				Choices: []world.Choice{
					{
						ID: "flatter", Label: "Admire the roses.", Sticky: true,
						Effects: world.Effects{world.Set{
							Entity: "gardener", Property: "trust",
							Formula: &world.Formula{
								From:   world.PropRef{Entity: "gardener", Property: "trust"},
								Op:     world.ArithAdd,
								Amount: 1,
							},
						}},
					},
					{
						ID: "ask_gate", Label: "Ask to see the garden.",
						Conditions: world.Conditions{world.Compare{
							Entity: "gardener", Property: "trust", Op: world.OpGe, Value: world.Int(3),
						}},
						Effects: world.Effects{world.Set{
							Entity: "gardener", Property: "gate_open", Value: world.Bool(true),
						}},
						Goto: world.TokenEnd,
					},
				},
			},
		},
	}
}

func TestAutoOpenAtStartLocation(t *testing.T) {
	e := newTestEngine(t, gardenWorld())

	events := e.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventWorldLoaded, events[0].Kind)
	assert.Equal(t, EventDialogueOpened, events[1].Kind)
	assert.Equal(t, "chat", events[1].Section)
	assert.Equal(t, "The gardener looks up.", events[1].Hint)

	view := e.View()
	require.NotNil(t, view.Dialogue)
	require.Len(t, view.Dialogue.Choices, 2)
	assert.True(t, view.Dialogue.Choices[0].Available)
	assert.False(t, view.Dialogue.Choices[1].Available, "gated choice stays visible but unavailable")
}

func TestLockedGardenTrustGate(t *testing.T) {
	e := newTestEngine(t, gardenWorld())

	// Asking too early is a world failure naming the trust condition,
	// and mutates nothing.
	before, err := e.Hash()
	require.NoError(t, err)
	_, err = e.ChooseDialogue(1)
	require.True(t, IsWorldFailure(err))
	f, _ := AsFailure(err)
	assert.Equal(t, CodeChoiceUnavailable, f.Code)
	assert.Equal(t, "gardener.trust >= 3", f.ConditionRef)
	after, err := e.Hash()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// The garden exit is gated too.
	_, err = e.MoveTo("garden")
	require.True(t, IsWorldFailure(err))

	// Three rounds of flattery. The sticky choice stays at index 0.
	for i := 0; i < 3; i++ {
		batch, err := e.ChooseDialogue(0)
		require.NoError(t, err)
		assert.Equal(t, []EventKind{EventChoiceTaken, EventPropertyChanged}, kinds(batch))
	}
	trust, ok := e.Snapshot().Entities["gardener"].Properties["trust"].(world.Int)
	require.True(t, ok)
	assert.Equal(t, world.Int(3), trust)

	// Now the gate opens and the dialogue ends via the reserved target.
	batch, err := e.ChooseDialogue(1)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{
		EventChoiceTaken, EventPropertyChanged, EventDialogueClosed,
	}, kinds(batch))

	_, err = e.MoveTo("garden")
	require.NoError(t, err)
	assert.Equal(t, "garden", e.View().Location)
}

func TestChooseWithoutDialogueIsRequestFailure(t *testing.T) {
	e := newTestEngine(t, keyPuzzleWorld(1))

	_, err := e.ChooseDialogue(0)
	require.True(t, IsRequestFailure(err))
	f, _ := AsFailure(err)
	assert.Equal(t, CodeNoDialogue, f.Code)
}

func TestChoiceIndexOutOfRangeIsRequestFailure(t *testing.T) {
	e := newTestEngine(t, gardenWorld())

	_, err := e.ChooseDialogue(2)
	require.True(t, IsRequestFailure(err))
	f, _ := AsFailure(err)
	assert.Equal(t, CodeChoiceRange, f.Code)

	_, err = e.ChooseDialogue(-1)
	require.True(t, IsRequestFailure(err))
}

// exhaustionWorld has a section of two one-shot choices and no
// fallback: consuming both exhausts it and closes the dialogue.
func exhaustionWorld(fallback *world.Fallback) *world.Definition {
	def := &world.Definition{
		Meta: world.Meta{Name: "exhaustion", Start: "square", Seed: 1},
		Locations: []world.Location{
			{ID: "square", Sections: []string{"gossip"}},
		},
		Sections: map[string]world.Section{
			"gossip": {
				Choices: []world.Choice{
					{ID: "rumor_a", Label: "Ask about the mayor."},
					{ID: "rumor_b", Label: "Ask about the weather."},
				},
				OnExhausted: fallback,
			},
		},
	}
	return def
}

func TestSectionExhaustionClosesDialogue(t *testing.T) {
	e := newTestEngine(t, exhaustionWorld(nil))

	batch, err := e.ChooseDialogue(0)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventChoiceTaken}, kinds(batch))

	// Consumed one-shots disappear, so the second rumor is now index 0.
	batch, err = e.ChooseDialogue(0)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{
		EventChoiceTaken, EventSectionExhausted, EventDialogueClosed,
	}, kinds(batch))

	_, err = e.ChooseDialogue(0)
	require.True(t, IsRequestFailure(err))
}

func TestExhaustedSectionNeverReopens(t *testing.T) {
	def := exhaustionWorld(nil)
	def.Locations = []world.Location{
		{ID: "square", Sections: []string{"gossip"}, Exits: []world.Exit{{To: "alley"}}},
		{ID: "alley", Exits: []world.Exit{{To: "square"}}},
	}
	e := newTestEngine(t, def)

	_, err := e.ChooseDialogue(0)
	require.NoError(t, err)
	_, err = e.ChooseDialogue(0)
	require.NoError(t, err)

	_, err = e.MoveTo("alley")
	require.NoError(t, err)
	batch, err := e.MoveTo("square")
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventEntityMoved}, kinds(batch), "no reopen for an exhausted section")
}

func TestExhaustionFallbackGoto(t *testing.T) {
	def := exhaustionWorld(&world.Fallback{Goto: "farewell"})
	def.Sections["farewell"] = world.Section{
		Choices: []world.Choice{
			{ID: "bye", Label: "Say goodbye.", Goto: world.TokenEnd},
		},
	}
	e := newTestEngine(t, def)

	_, err := e.ChooseDialogue(0)
	require.NoError(t, err)
	batch, err := e.ChooseDialogue(0)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{
		EventChoiceTaken, EventSectionExhausted, EventDialogueOpened,
	}, kinds(batch))
	assert.Equal(t, "farewell", e.View().Dialogue.Section)

	batch, err = e.ChooseDialogue(0)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventChoiceTaken, EventDialogueClosed}, kinds(batch))
}

// nestedWorld exercises sub-choice scopes: a sticky topic opens a
// nested list whose one-shot leaves return to the topic when emptied.
func nestedWorld(topicSticky bool) *world.Definition {
	return &world.Definition{
		Meta: world.Meta{Name: "nested", Start: "inn", Seed: 1},
		Locations: []world.Location{
			{ID: "inn", Sections: []string{"barkeep"}},
		},
		Sections: map[string]world.Section{
			"barkeep": {
				Choices: []world.Choice{
					{
						ID: "topics", Label: "What's the news?", Sticky: topicSticky,
						Choices: []world.Choice{
							{ID: "news_a", Label: "The harvest."},
							{ID: "news_b", Label: "The road."},
						},
					},
					{ID: "leave", Label: "Leave.", Goto: world.TokenEnd},
				},
			},
		},
	}
}

func TestNestedScopeStickyUnwindsToParent(t *testing.T) {
	e := newTestEngine(t, nestedWorld(true))

	_, err := e.ChooseDialogue(0)
	require.NoError(t, err)
	require.Len(t, e.View().Dialogue.Choices, 2, "nested scope is now addressed")
	assert.Equal(t, "news_a", e.View().Dialogue.Choices[0].ID)

	_, err = e.ChooseDialogue(0)
	require.NoError(t, err)
	_, err = e.ChooseDialogue(0)
	require.NoError(t, err)

	// The emptied sticky scope returns to the section's top level.
	view := e.View()
	require.NotNil(t, view.Dialogue)
	require.Len(t, view.Dialogue.Choices, 2)
	assert.Equal(t, "topics", view.Dialogue.Choices[0].ID)
}

func TestNestedScopeOneShotClosesWhenEmptied(t *testing.T) {
	e := newTestEngine(t, nestedWorld(false))

	_, err := e.ChooseDialogue(0)
	require.NoError(t, err)
	_, err = e.ChooseDialogue(0)
	require.NoError(t, err)
	batch, err := e.ChooseDialogue(0)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventChoiceTaken, EventDialogueClosed}, kinds(batch))
	assert.Nil(t, e.View().Dialogue)
}

func TestGotoIntoGatedSectionClosesDialogue(t *testing.T) {
	def := &world.Definition{
		Meta: world.Meta{Name: "gated-goto", Start: "shrine", Seed: 1},
		Types: []world.TypeSchema{
			{Name: "npc", Properties: map[string]world.PropertySchema{
				"blessed": {Default: world.Bool(false)},
			}},
		},
		Entities: []world.Entity{{ID: "oracle", Type: "npc", Container: "shrine"}},
		Locations: []world.Location{
			{ID: "shrine", Sections: []string{"greeting"}},
		},
		Sections: map[string]world.Section{
			"greeting": {
				Choices: []world.Choice{
					{ID: "seek", Label: "Seek the inner mystery.", Goto: "mystery"},
				},
			},
			"mystery": {
				Entry: world.Conditions{world.Compare{
					Entity: "oracle", Property: "blessed", Op: world.OpEq, Value: world.Bool(true),
				}},
				Choices: []world.Choice{
					{ID: "listen", Label: "Listen.", Goto: world.TokenEnd},
				},
			},
		},
	}
	e := newTestEngine(t, def)

	batch, err := e.ChooseDialogue(0)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventChoiceTaken, EventDialogueClosed}, kinds(batch))
	assert.Nil(t, e.View().Dialogue)
}
