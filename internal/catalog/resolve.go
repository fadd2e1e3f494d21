package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"anvil-optimizer/internal/anvil"
)

// Selection is one enchantment picked by the user.
type Selection struct {
	ID    string
	Level int  // ignored when Max is set
	Max   bool // no level given: use the enchantment's maximum
}

// ParseSelection reads "sharpness", "sharpness:5" or "sharpness=5".
// Without a level the selection asks for the maximum.
func ParseSelection(raw string) (Selection, error) {
	id, lvl, found := strings.Cut(raw, ":")
	if !found {
		id, lvl, found = strings.Cut(raw, "=")
	}
	sel := Selection{ID: strings.TrimSpace(id), Max: !found}
	if sel.ID == "" {
		return sel, fmt.Errorf("%w: empty enchantment in %q", anvil.ErrInvalidInput, raw)
	}
	if found {
		n, err := strconv.Atoi(strings.TrimSpace(lvl))
		if err != nil {
			return sel, fmt.Errorf("%w: bad level in %q", anvil.ErrInvalidInput, raw)
		}
		sel.Level = n
	}
	return sel, nil
}

// Resolve validates a selection against the catalog and builds the solver
// request for it. AllowIncompatible and OptimizeFor are left to the caller.
func (c *Catalog) Resolve(itemID string, selections []Selection) (anvil.Request, error) {
	item, ok := c.Item(itemID)
	if !ok {
		return anvil.Request{}, fmt.Errorf("%w %q", ErrUnknownItem, itemID)
	}

	req := anvil.Request{
		Target: &anvil.Target{
			ID:          item.ID,
			DisplayName: item.Name,
			IsBookOnly:  item.BookOnly,
		},
		Incompatible: c.Incompatibility(),
	}

	for _, sel := range selections {
		spec, ok := c.Enchantment(sel.ID)
		if !ok {
			if hint := c.Suggest(sel.ID); hint != "" {
				return anvil.Request{}, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownEnchantment, sel.ID, hint)
			}
			return anvil.Request{}, fmt.Errorf("%w %q", ErrUnknownEnchantment, sel.ID)
		}
		level := sel.Level
		if sel.Max {
			level = spec.MaxLevel
		}
		if level < 1 || level > spec.MaxLevel {
			return anvil.Request{}, fmt.Errorf("%w: %s %d not in 1..%d", ErrLevelOutOfRange, spec.ID, level, spec.MaxLevel)
		}
		if !item.BookOnly && !spec.AppliesTo(item.ID) {
			return anvil.Request{}, fmt.Errorf("%w: %s on %s", ErrNotApplicable, spec.ID, item.ID)
		}
		req.Enchantments = append(req.Enchantments, anvil.Enchantment{
			ID:     spec.ID,
			Name:   spec.Name,
			Level:  level,
			Weight: spec.Weight,
		})
	}
	return req, nil
}
