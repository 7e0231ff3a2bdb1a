package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urdwyrd/urd/internal/world"
)

func counterWorld(rules []world.Rule) *world.Definition {
	return &world.Definition{
		Meta: world.Meta{Name: "counter", Start: "lab", Seed: 11},
		Types: []world.TypeSchema{
			{Name: "meter", Properties: map[string]world.PropertySchema{
				"count": {Default: world.Int(0)},
				"alarm": {Default: world.Bool(false)},
			}},
		},
		Entities: []world.Entity{
			{ID: "meter", Type: "meter", Container: "lab"},
		},
		Locations: []world.Location{
			{ID: "lab", Exits: []world.Exit{{To: "store"}}},
			{ID: "store", Exits: []world.Exit{{To: "lab"}}},
		},
		Actions: []world.Action{
			{
				ID: "crank",
				Effects: world.Effects{world.Set{
					Entity: "meter", Property: "count",
					Formula: &world.Formula{
						From:   world.PropRef{Entity: "meter", Property: "count"},
						Op:     world.ArithAdd,
						Amount: 1,
					},
				}},
			},
		},
		Rules: rules,
	}
}

func TestActionTriggerRuleFires(t *testing.T) {
	e := newTestEngine(t, counterWorld([]world.Rule{
		{
			ID:      "crank_alarm",
			Trigger: world.Trigger{Kind: world.TriggerAction, Action: "crank"},
			Conditions: world.Conditions{world.Compare{
				Entity: "meter", Property: "count", Op: world.OpGe, Value: world.Int(1),
			}},
			Effects: world.Effects{world.Set{
				Entity: "meter", Property: "alarm", Value: world.Bool(true),
			}},
		},
	}))

	batch, err := e.Perform("crank", nil)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{
		EventPropertyChanged, EventRuleFired, EventPropertyChanged,
	}, kinds(batch))
	assert.Equal(t, "crank_alarm", batch[1].Rule)
}

func TestPropertyChangeRuleFiresOncePerTurn(t *testing.T) {
	// The rule writes the property it watches. The per-turn fired-set
	// bounds the cascade to a single firing.
	e := newTestEngine(t, counterWorld([]world.Rule{
		{
			ID:      "feedback",
			Trigger: world.Trigger{Kind: world.TriggerPropertyChange},
			Effects: world.Effects{world.Set{
				Entity: "meter", Property: "count",
				Formula: &world.Formula{
					From:   world.PropRef{Entity: "meter", Property: "count"},
					Op:     world.ArithAdd,
					Amount: 10,
				},
			}},
		},
	}))

	batch, err := e.Perform("crank", nil)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{
		EventPropertyChanged, EventRuleFired, EventPropertyChanged,
	}, kinds(batch))

	count, _ := e.Snapshot().Entities["meter"].Properties["count"].(world.Int)
	assert.Equal(t, world.Int(11), count)
}

func TestLocationEntryTriggerRule(t *testing.T) {
	e := newTestEngine(t, counterWorld([]world.Rule{
		{
			ID:      "door_chime",
			Trigger: world.Trigger{Kind: world.TriggerLocationEntry},
			Conditions: world.Conditions{world.Contain{
				Entity: "meter", Target: world.TokenHere, In: true,
			}},
			Effects: world.Effects{world.Set{
				Entity: "meter", Property: "alarm", Value: world.Bool(true),
			}},
		},
	}))

	// Entering the store: the meter is not here, the rule stays quiet.
	batch, err := e.MoveTo("store")
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventEntityMoved}, kinds(batch))

	// Entering the lab: the meter is here, the rule fires.
	batch, err = e.MoveTo("lab")
	require.NoError(t, err)
	assert.Equal(t, []EventKind{
		EventEntityMoved, EventRuleFired, EventPropertyChanged,
	}, kinds(batch))
}

func TestAlwaysRuleRunsAtEndOfEveryTurn(t *testing.T) {
	e := newTestEngine(t, counterWorld([]world.Rule{
		{
			ID:      "decay",
			Trigger: world.Trigger{Kind: world.TriggerAlways},
			Conditions: world.Conditions{world.Compare{
				Entity: "meter", Property: "count", Op: world.OpGe, Value: world.Int(2),
			}},
			Effects: world.Effects{world.Set{
				Entity: "meter", Property: "count",
				Formula: &world.Formula{
					From:   world.PropRef{Entity: "meter", Property: "count"},
					Op:     world.ArithSub,
					Amount: 1,
				},
			}},
		},
	}))

	// Turn 1: count reaches 1, below the threshold, no decay.
	batch, err := e.Perform("crank", nil)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventPropertyChanged}, kinds(batch))

	// Turn 2: count reaches 2 and decays back to 1 at end of turn.
	batch, err = e.Perform("crank", nil)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{
		EventPropertyChanged, EventRuleFired, EventPropertyChanged,
	}, kinds(batch))
	count, _ := e.Snapshot().Entities["meter"].Properties["count"].(world.Int)
	assert.Equal(t, world.Int(1), count)
}

func TestRulesEvaluateInDeclarationOrder(t *testing.T) {
	e := newTestEngine(t, counterWorld([]world.Rule{
		{
			ID:      "first",
			Trigger: world.Trigger{Kind: world.TriggerAction, Action: "crank"},
			Effects: world.Effects{world.Set{
				Entity: "meter", Property: "alarm", Value: world.Bool(true),
			}},
		},
		{
			ID:      "second",
			Trigger: world.Trigger{Kind: world.TriggerAction, Action: "crank"},
			Conditions: world.Conditions{world.Compare{
				Entity: "meter", Property: "alarm", Op: world.OpEq, Value: world.Bool(true),
			}},
			Effects: world.Effects{world.Set{
				Entity: "meter", Property: "alarm", Value: world.Bool(false),
			}},
		},
	}))

	batch, err := e.Perform("crank", nil)
	require.NoError(t, err)

	var fired []string
	for _, ev := range batch {
		if ev.Kind == EventRuleFired {
			fired = append(fired, ev.Rule)
		}
	}
	assert.Equal(t, []string{"first", "second"}, fired,
		"the second rule observes the first rule's write")
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

func selectionWorld(seed int64) *world.Definition {
	return &world.Definition{
		Meta: world.Meta{Name: "selection", Start: "coop", Seed: seed},
		Types: []world.TypeSchema{
			{Name: "hen", Properties: map[string]world.PropertySchema{
				"fed": {Default: world.Bool(false)},
			}},
		},
		Entities: []world.Entity{
			{ID: "hen_a", Type: "hen", Container: "coop"},
			{ID: "hen_b", Type: "hen", Container: "coop"},
			{ID: "hen_c", Type: "hen", Container: "coop"},
		},
		Locations: []world.Location{{ID: "coop"}},
		Actions:   []world.Action{{ID: "scatter_feed"}},
		Rules: []world.Rule{
			{
				ID:      "one_hen_eats",
				Trigger: world.Trigger{Kind: world.TriggerAction, Action: "scatter_feed"},
				Select: &world.Selection{
					Bind:       "h",
					Candidates: []string{"hen_a", "hen_b", "hen_c"},
					Where: world.Conditions{world.Compare{
						Entity: world.Var("h"), Property: "fed", Op: world.OpEq, Value: world.Bool(false),
					}},
				},
				Effects: world.Effects{world.Set{
					Entity: world.Var("h"), Property: "fed", Value: world.Bool(true),
				}},
			},
		},
	}
}

func TestSelectionTieBreakIsSeedDeterministic(t *testing.T) {
	run := func(seed int64) []string {
		e := newTestEngine(t, selectionWorld(seed))
		var picked []string
		for i := 0; i < 3; i++ {
			batch, err := e.Perform("scatter_feed", nil)
			require.NoError(t, err)
			for _, ev := range batch {
				if ev.Kind == EventRuleFired {
					picked = append(picked, ev.Candidate)
				}
			}
		}
		return picked
	}

	first := run(99)
	second := run(99)
	assert.Equal(t, first, second, "same seed, same picks")

	// Three turns feed all three hens exactly once, whatever the order.
	assert.ElementsMatch(t, []string{"hen_a", "hen_b", "hen_c"}, first)
}

func TestSelectionWithNoEligibleCandidateDoesNotFire(t *testing.T) {
	e := newTestEngine(t, selectionWorld(5))

	for i := 0; i < 3; i++ {
		_, err := e.Perform("scatter_feed", nil)
		require.NoError(t, err)
	}
	batch, err := e.Perform("scatter_feed", nil)
	require.NoError(t, err)
	assert.Empty(t, kinds(batch), "all hens fed, nothing to pick")
}

func TestSingleEligibleCandidateIsPickedWithoutHashing(t *testing.T) {
	e := newTestEngine(t, selectionWorld(5))

	_, err := e.Perform("scatter_feed", nil)
	require.NoError(t, err)
	_, err = e.Perform("scatter_feed", nil)
	require.NoError(t, err)

	batch, err := e.Perform("scatter_feed", nil)
	require.NoError(t, err)
	var candidate string
	for _, ev := range batch {
		if ev.Kind == EventRuleFired {
			candidate = ev.Candidate
		}
	}
	assert.NotEmpty(t, candidate, "the one remaining hen is picked deterministically")
}
