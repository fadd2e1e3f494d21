package anvil

import (
	"errors"
	"fmt"
)

// MaxLevelCost is the highest level cost an anvil accepts; anything above
// shows "Too Expensive!".
const MaxLevelCost = 39

var (
	// ErrTooExpensive rejects a single merge whose level cost exceeds MaxLevelCost.
	ErrTooExpensive = errors.New("anvil: too expensive")
	// ErrBaseSacrificed rejects a merge that would consume the base item.
	ErrBaseSacrificed = errors.New("anvil: base item cannot be sacrificed")
)

// ExperienceCost converts an anvil level cost into the experience points
// spent, following the game's three-piece quadratic schedule. The formulas
// are evaluated on doubled integers; every branch is integral for integer levels.
func ExperienceCost(level int) int {
	switch {
	case level <= 0:
		return 0
	case level <= 16:
		return level*level + 6*level
	case level <= 31:
		// 2.5l² - 40.5l + 360
		return (5*level*level - 81*level + 720) / 2
	default:
		// 4.5l² - 162.5l + 2220
		return (9*level*level - 325*level + 4440) / 2
	}
}

// PriorWorkPenalty is the level surcharge of an item that went through the anvil work times.
func PriorWorkPenalty(work int) int {
	return 1<<work - 1
}

// MergeLevelCost is the level price of keeping left and sacrificing right.
// Only the sacrificed side's enchantment value counts, both sides pay their
// prior work penalty, so the cost is asymmetric in its arguments.
func MergeLevelCost(left, right *Item) (int, error) {
	cost := mergeCost(left, right)
	if cost > MaxLevelCost {
		return cost, fmt.Errorf("%w: %d levels", ErrTooExpensive, cost)
	}
	return cost, nil
}

func mergeCost(left, right *Item) int {
	return right.Value + PriorWorkPenalty(left.Work) + PriorWorkPenalty(right.Work)
}

// Merge combines left (kept) with right (sacrificed). The cap is checked
// before the assembled item is built.
func Merge(left, right *Item) (*Item, error) {
	if right.Base {
		return nil, ErrBaseSacrificed
	}
	cost, err := MergeLevelCost(left, right)
	if err != nil {
		return nil, err
	}
	return assemble(left, right, cost), nil
}

func assemble(left, right *Item, cost int) *Item {
	return &Item{
		Value:  left.Value + right.Value,
		Work:   max(left.Work, right.Work) + 1,
		XP:     left.XP + right.XP + ExperienceCost(cost),
		Levels: left.Levels + right.Levels + cost,
		Cost:   cost,
		Mask:   left.Mask | right.Mask,
		Base:   left.Base || right.Base,
		Left:   left,
		Right:  right,
	}
}

// Better reports whether a should replace b in a table slot: lower work
// wins, then lower experience, then lower-or-equal value.
func Better(a, b *Item) bool {
	return better(a.Work, a.XP, a.Value, b)
}

func better(work, xp, value int, b *Item) bool {
	if work != b.Work {
		return work < b.Work
	}
	if xp != b.XP {
		return xp < b.XP
	}
	return value <= b.Value
}
