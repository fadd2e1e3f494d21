package anvil

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is wrapped by every error that rejects a request before solving.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIncompatible rejects two incompatible enchantments requested without the override.
	ErrIncompatible = fmt.Errorf("%w: incompatible enchantments", ErrInvalidInput)
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

func (s *Solver) validate(req Request) error {
	if len(req.Enchantments) == 0 {
		return invalidf("no enchantments requested")
	}
	n := len(req.Enchantments)
	if req.Target.hasBase() {
		n++
	}
	if limit := s.cfg.maxItems(); n > limit {
		return invalidf("%d items exceed the limit of %d", n, limit)
	}

	seen := make(map[string]bool, len(req.Enchantments))
	for _, e := range req.Enchantments {
		switch {
		case e.ID == "":
			return invalidf("enchantment without id")
		case seen[e.ID]:
			return invalidf("duplicate enchantment %q", e.ID)
		case e.Level < 1:
			return invalidf("%s: level %d below 1", e.ID, e.Level)
		case e.Weight < 1:
			return invalidf("%s: weight %d below 1", e.ID, e.Weight)
		}
		seen[e.ID] = true
	}

	if req.AllowIncompatible {
		return nil
	}
	for i := range req.Enchantments {
		for j := i + 1; j < len(req.Enchantments); j++ {
			a, b := req.Enchantments[i].ID, req.Enchantments[j].ID
			if req.Incompatible.Conflicts(a, b) {
				return fmt.Errorf("%w: %s and %s", ErrIncompatible, a, b)
			}
		}
	}
	return nil
}
