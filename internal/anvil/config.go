package anvil

// MaxLeaves is the hard limit on leaves per solve: masks are uint32 and the
// table holds one slot list per subset.
const MaxLeaves = 20

// Config holds solver tuning parameters. Adjust these to trade speed for search breadth.
type Config struct {
	// MaxItems caps the number of leaves (books plus the base item) a request may carry.
	MaxItems int
	// PruneDominated drops a table entry when a lower work count already
	// reaches the same subset with no more experience.
	PruneDominated bool
	// BalancedSplits only combines halves whose sizes differ by at most one.
	// Faster, but not proven optimal.
	BalancedSplits bool
}

// DefaultConfig returns the default solver parameters.
func DefaultConfig() Config {
	return Config{
		MaxItems:       15,
		PruneDominated: true,
		BalancedSplits: false,
	}
}

func (c Config) maxItems() int {
	if c.MaxItems <= 0 {
		return DefaultConfig().MaxItems
	}
	return min(c.MaxItems, MaxLeaves)
}
