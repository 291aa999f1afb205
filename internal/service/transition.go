package service

import (
	"math/rand/v2"

	"quest-server/internal/catalog"
)

// Roller draws the percentile roll for chance options.
type Roller interface {
	// Roll returns a uniform integer in [1, 100].
	Roll() int
}

// RandRoller uses the runtime-seeded ChaCha8 source of math/rand/v2.
// Each call draws afresh; nothing is cached between traversals.
type RandRoller struct{}

func (RandRoller) Roll() int {
	return rand.IntN(100) + 1
}

// ChanceOutcome describes a resolved chance branch.
type ChanceOutcome struct {
	Chance  int  `json:"chance"`
	Roll    int  `json:"roll"`
	Success bool `json:"success"`
}

// Transition is the state reached after traversing an option.
type Transition struct {
	Story      *catalog.Story
	FromNodeID string
	NodeID     string
	Inventory  Inventory
	Finished   bool
	Chance     *ChanceOutcome
}

// resolveTransition computes the next state without touching storage.
// Order is fixed: gate check, branch resolution, add item, remove item, completion.
func resolveTransition(story *catalog.Story, fromNodeID string, opt catalog.Option, inventory Inventory, roller Roller) (*Transition, error) {
	if opt.RequiredItem != "" && !inventory.Has(opt.RequiredItem) {
		return nil, &MissingItemError{Item: opt.RequiredItem, Option: opt.Text}
	}

	t := &Transition{Story: story, FromNodeID: fromNodeID, NodeID: opt.NextID}
	if opt.IsChance() {
		roll := roller.Roll()
		outcome := &ChanceOutcome{Chance: *opt.Chance, Roll: roll, Success: roll <= *opt.Chance}
		if outcome.Success {
			t.NodeID = opt.SuccessID
		} else {
			t.NodeID = opt.FailID
		}
		t.Chance = outcome
	}

	// предмет, добавленный этим же выбором, не удаляется: add выигрывает
	inv := inventory.clone()
	added := opt.AddItem != "" && !inventory.Has(opt.AddItem)
	if added {
		inv = inv.With(opt.AddItem)
	}
	if opt.RemoveItem != "" && !(added && opt.RemoveItem == opt.AddItem) {
		inv = inv.Without(opt.RemoveItem)
	}
	t.Inventory = inv

	next, err := story.Node(t.NodeID)
	if err != nil {
		return nil, err
	}
	t.Finished = next.IsTerminal()
	return t, nil
}
