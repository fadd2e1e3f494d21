// Package catalog loads the static enchantment and item tables and turns a
// user selection into a solver request.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/tidwall/gjson"

	"anvil-optimizer/internal/anvil"
)

//go:embed catalog.json
var embeddedCatalog string

// BookItemID is the item id that requests a combined book instead of gear.
const BookItemID = "book"

var (
	ErrUnknownItem        = fmt.Errorf("%w: unknown item", anvil.ErrInvalidInput)
	ErrUnknownEnchantment = fmt.Errorf("%w: unknown enchantment", anvil.ErrInvalidInput)
	ErrLevelOutOfRange    = fmt.Errorf("%w: level out of range", anvil.ErrInvalidInput)
	ErrNotApplicable      = fmt.Errorf("%w: enchantment not applicable", anvil.ErrInvalidInput)
	ErrMalformed          = errors.New("catalog: malformed data")
)

// EnchantmentSpec describes one enchantment of the catalog.
type EnchantmentSpec struct {
	ID           string
	Name         string
	MaxLevel     int
	Weight       int // book multiplier
	Incompatible []string
	Items        []string // item ids the enchantment applies to
}

// AppliesTo reports whether the enchantment can go on itemID. Books take everything.
func (e *EnchantmentSpec) AppliesTo(itemID string) bool {
	if itemID == BookItemID {
		return true
	}
	for _, it := range e.Items {
		if it == itemID {
			return true
		}
	}
	return false
}

// ItemType is a gear piece, or the book pseudo-item.
type ItemType struct {
	ID       string
	Name     string
	BookOnly bool
}

// Catalog is an immutable lookup over enchantments and items.
type Catalog struct {
	enchantments []EnchantmentSpec
	items        []ItemType

	enchantByID map[string]*EnchantmentSpec
	itemByID    map[string]*ItemType
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Parse(embeddedCatalog)
})

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c, err := Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a catalog from its JSON form:
//
//	{"enchantments": [{"id", "name", "maxLevel", "weight", "incompatible": [], "items": []}],
//	 "items": [{"id", "name", "bookOnly"}]}
func Parse(data string) (*Catalog, error) {
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	c := &Catalog{}
	var parseErr error
	gjson.Get(data, "enchantments").ForEach(func(_, v gjson.Result) bool {
		e := EnchantmentSpec{
			ID:           normaliseID(v.Get("id").String()),
			Name:         v.Get("name").String(),
			MaxLevel:     int(v.Get("maxLevel").Int()),
			Weight:       int(v.Get("weight").Int()),
			Incompatible: readIDs(v.Get("incompatible")),
			Items:        readIDs(v.Get("items")),
		}
		if e.ID == "" || e.MaxLevel < 1 || e.Weight < 1 {
			parseErr = fmt.Errorf("%w: enchantment %q needs id, maxLevel and weight", ErrMalformed, e.ID)
			return false
		}
		if e.Name == "" {
			e.Name = e.ID
		}
		c.enchantments = append(c.enchantments, e)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	gjson.Get(data, "items").ForEach(func(_, v gjson.Result) bool {
		it := ItemType{
			ID:       normaliseID(v.Get("id").String()),
			Name:     v.Get("name").String(),
			BookOnly: v.Get("bookOnly").Bool(),
		}
		if it.ID == "" {
			parseErr = fmt.Errorf("%w: item without id", ErrMalformed)
			return false
		}
		if it.Name == "" {
			it.Name = it.ID
		}
		c.items = append(c.items, it)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if !slices.ContainsFunc(c.items, func(it ItemType) bool { return it.ID == BookItemID }) {
		c.items = append(c.items, ItemType{ID: BookItemID, Name: "Book", BookOnly: true})
	}

	// Lookup maps point into the slices, so build them once both are final.
	c.enchantByID = make(map[string]*EnchantmentSpec, len(c.enchantments))
	for i := range c.enchantments {
		e := &c.enchantments[i]
		if _, dup := c.enchantByID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate enchantment %q", ErrMalformed, e.ID)
		}
		c.enchantByID[e.ID] = e
	}
	c.itemByID = make(map[string]*ItemType, len(c.items))
	for i := range c.items {
		it := &c.items[i]
		if _, dup := c.itemByID[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item %q", ErrMalformed, it.ID)
		}
		c.itemByID[it.ID] = it
	}
	return c, nil
}

func readIDs(v gjson.Result) []string {
	var out []string
	v.ForEach(func(_, s gjson.Result) bool {
		if id := normaliseID(s.String()); id != "" {
			out = append(out, id)
		}
		return true
	})
	return out
}

// normaliseID folds "Bane of Arthropods", "bane-of-arthropods" and
// "minecraft:bane_of_arthropods" to "bane_of_arthropods".
func normaliseID(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	raw = strings.TrimPrefix(raw, "minecraft:")
	var b strings.Builder
	lastSep := false
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastSep = false
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			lastSep = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ── Lookups ─────────────────────────────────────────────────────────

// Enchantment returns the enchantment for id, accepting display names and namespaced ids.
func (c *Catalog) Enchantment(id string) (*EnchantmentSpec, bool) {
	e, ok := c.enchantByID[normaliseID(id)]
	return e, ok
}

// Item returns the item type for id.
func (c *Catalog) Item(id string) (*ItemType, bool) {
	it, ok := c.itemByID[normaliseID(id)]
	return it, ok
}

// Enchantments lists every enchantment in catalog order.
func (c *Catalog) Enchantments() []EnchantmentSpec {
	return c.enchantments
}

// Items lists every item type in catalog order.
func (c *Catalog) Items() []ItemType {
	return c.items
}

// ForItem lists the enchantments applicable to itemID, sorted by id.
func (c *Catalog) ForItem(itemID string) []EnchantmentSpec {
	itemID = normaliseID(itemID)
	var out []EnchantmentSpec
	for _, e := range c.enchantments {
		if e.AppliesTo(itemID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Incompatibility collects every declared pair. Lists only need to name a
// conflict on one side; the solver checks both orders.
func (c *Catalog) Incompatibility() anvil.Incompatibility {
	inc := anvil.NewIncompatibility()
	for _, e := range c.enchantments {
		for _, other := range e.Incompatible {
			inc.Add(e.ID, other)
		}
	}
	return inc
}

// Suggest returns the closest enchantment id to a mistyped one, or "" when
// nothing is near enough. Ids starting with a token of three or more
// characters always qualify; all candidates are ranked by edit distance.
func (c *Catalog) Suggest(id string) string {
	token := normaliseID(id)
	if token == "" {
		return ""
	}
	best, bestDist := "", -1
	for _, e := range c.enchantments {
		for _, cand := range []string{e.ID, normaliseID(e.Name)} {
			dist := levenshtein.ComputeDistance(token, cand)
			prefix := len(token) >= 3 && strings.HasPrefix(cand, token)
			if !prefix && dist > distanceLimit(len(cand)) {
				continue
			}
			if bestDist < 0 || dist < bestDist || (dist == bestDist && e.ID < best) {
				best, bestDist = e.ID, dist
			}
		}
	}
	return best
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
