// Package anvil finds the cheapest order of anvil merges that puts a set of
// enchanted books onto one item.
//
// Every requested enchantment starts as a book (a leaf). An optional base
// item is one more leaf that must survive every merge it takes part in. The
// solver searches all binary merge trees over the leaves with a bitmask
// table keyed by subset and work count.
package anvil

import (
	"fmt"
	"strings"
)

// Objective selects what the solver minimises at the full subset.
type Objective int

const (
	// ObjectiveExperience minimises the total experience points spent.
	ObjectiveExperience Objective = iota
	// ObjectiveWorkPenalty minimises the work count of the final item.
	ObjectiveWorkPenalty
)

// ParseObjective accepts the names used by request payloads and flags.
func ParseObjective(s string) (Objective, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "experience", "xp":
		return ObjectiveExperience, nil
	case "workpenalty", "work_penalty", "work", "penalty":
		return ObjectiveWorkPenalty, nil
	}
	return ObjectiveExperience, fmt.Errorf("%w: unknown objective %q", ErrInvalidInput, s)
}

func (o Objective) String() string {
	switch o {
	case ObjectiveExperience:
		return "experience"
	case ObjectiveWorkPenalty:
		return "workPenalty"
	}
	return fmt.Sprintf("Objective(%d)", int(o))
}

// Target is the gear piece receiving the enchantments. A nil target or one
// with IsBookOnly set produces a single combined book instead.
type Target struct {
	ID          string
	DisplayName string
	IsBookOnly  bool
}

func (t *Target) hasBase() bool {
	return t != nil && !t.IsBookOnly
}

func (t *Target) label() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.ID
}

// Enchantment is one requested enchantment, applied from a book.
type Enchantment struct {
	ID     string
	Name   string // display name, ID when empty
	Level  int
	Weight int // book multiplier
}

// Value is the level cost contributed when this book is sacrificed.
func (e Enchantment) Value() int {
	return e.Level * e.Weight
}

// Label renders the enchantment the way the game tooltip does, e.g. "Sharpness V".
func (e Enchantment) Label() string {
	name := e.Name
	if name == "" {
		name = e.ID
	}
	return name + " " + Roman(e.Level)
}

// Incompatibility is a set of enchantment id pairs that cannot coexist.
// Pairs are stored as given; Conflicts checks both orders.
type Incompatibility map[[2]string]struct{}

// NewIncompatibility builds a set from the given pairs.
func NewIncompatibility(pairs ...[2]string) Incompatibility {
	inc := make(Incompatibility, len(pairs))
	for _, p := range pairs {
		inc.Add(p[0], p[1])
	}
	return inc
}

// Add records that a and b are incompatible.
func (inc Incompatibility) Add(a, b string) {
	inc[[2]string{a, b}] = struct{}{}
}

// Conflicts reports whether a and b were declared incompatible in either direction.
func (inc Incompatibility) Conflicts(a, b string) bool {
	if inc == nil {
		return false
	}
	if _, ok := inc[[2]string{a, b}]; ok {
		return true
	}
	_, ok := inc[[2]string{b, a}]
	return ok
}

// Request is the full input of one solve.
type Request struct {
	Target            *Target
	Enchantments      []Enchantment
	AllowIncompatible bool
	Incompatible      Incompatibility
	OptimizeFor       Objective
}

// Item is a leaf book, the leaf base item, or the product of one merge.
// Items are never mutated after construction; assembled items point at
// both parents, which form the provenance tree of the plan.
type Item struct {
	Value  int    // summed level x weight of every book in the item
	Work   int    // anvil uses so far
	XP     int    // experience spent on every merge in the ancestry
	Levels int    // level costs summed over the ancestry
	Cost   int    // level cost of the merge that produced this item
	Mask   uint32 // leaves contained in the item
	Base   bool   // the base item is in the ancestry

	Left, Right *Item

	id    string // leaves only
	label string // leaves only
}

// IsLeaf reports whether the item is an original book or the bare base item.
func (it *Item) IsLeaf() bool {
	return it.Left == nil && it.Right == nil
}

// Enchantments returns the enchantment ids carried by the item in merge order.
func (it *Item) Enchantments() []string {
	var ids []string
	it.walkLeaves(func(l *Item) {
		if !l.Base {
			ids = append(ids, l.id)
		}
	})
	return ids
}

// Label describes the item: "Sharpness V" for a leaf book,
// "Sword [Sharpness V, Unbreaking III]" for an enchanted base item and
// "Book [Sharpness V, Unbreaking III]" for a combined book.
func (it *Item) Label() string {
	if it.IsLeaf() {
		return it.label
	}
	var head string
	var names []string
	it.walkLeaves(func(l *Item) {
		if l.Base {
			head = l.label
			return
		}
		names = append(names, l.label)
	})
	if head == "" {
		head = "Book"
	}
	return head + " [" + strings.Join(names, ", ") + "]"
}

// walkLeaves visits leaves left to right. The base leaf is always the
// leftmost one because it never sits on the right of a merge.
func (it *Item) walkLeaves(fn func(*Item)) {
	if it.IsLeaf() {
		fn(it)
		return
	}
	it.Left.walkLeaves(fn)
	it.Right.walkLeaves(fn)
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// Roman formats a level as a roman numeral. Non-positive levels fall back to decimal.
func Roman(n int) string {
	if n <= 0 {
		return fmt.Sprint(n)
	}
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}
