package anvil

import (
	"log/slog"
	"math/bits"
	"time"
)

// ── Solver ──────────────────────────────────────────────────────────

// Solver computes optimal merge plans. A Solver holds only configuration;
// every Solve builds its own table, so one Solver may serve concurrent calls.
type Solver struct {
	cfg Config
	log *slog.Logger
}

// NewSolver creates a solver. A nil logger means slog.Default().
func NewSolver(cfg Config, logger *slog.Logger) *Solver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Solver{cfg: cfg, log: logger}
}

// Result is the outcome of a solve. Feasible is false when no merge order
// fits under the level cap; that is a normal answer, not an error.
type Result struct {
	Feasible        bool
	OptimizeFor     Objective
	Final           *Item
	TotalExperience int
	TotalLevels     int
	Steps           []Step
}

// Outcome pairs a Result with the validation error of an asynchronous solve.
type Outcome struct {
	Result Result
	Err    error
}

// solveStats is reported in the completion log line.
type solveStats struct {
	masks        int
	stored       int
	tooExpensive int
	pruned       int
}

// table maps a subset mask to its surviving items, ordered by work.
// slots[mask] is empty when no merge order reaches that subset.
type table struct {
	slots [][]*Item
	stats solveStats
}

// ── Entry points ────────────────────────────────────────────────────

// Solve validates the request and returns the best plan, or a result with
// Feasible == false. Only invalid input produces an error.
func (s *Solver) Solve(req Request) (Result, error) {
	if err := s.validate(req); err != nil {
		return Result{}, err
	}
	start := time.Now()

	leaves := buildLeaves(req)
	s.log.Debug("anvil solve start",
		"items", len(leaves),
		"base", req.Target.hasBase(),
		"objective", req.OptimizeFor.String(),
		"balanced", s.cfg.BalancedSplits,
	)

	t := s.fill(leaves)
	full := uint32(1)<<len(leaves) - 1
	best := selectFinal(t.slots[full], req.Target.hasBase(), req.OptimizeFor)

	res := Result{OptimizeFor: req.OptimizeFor}
	if best != nil {
		res.Feasible = true
		res.Final = best
		res.TotalExperience = best.XP
		res.TotalLevels = best.Levels
		res.Steps = Reconstruct(best)
	}

	s.log.Debug("anvil solve done",
		"feasible", res.Feasible,
		"masks", t.stats.masks,
		"stored", t.stats.stored,
		"too_expensive", t.stats.tooExpensive,
		"pruned", t.stats.pruned,
		"xp", res.TotalExperience,
		"levels", res.TotalLevels,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// SolveAsync runs Solve on its own goroutine and delivers the outcome on
// the returned channel, which is closed afterwards. The solve cannot be
// cancelled; callers that stop waiting simply drop the channel.
func (s *Solver) SolveAsync(req Request) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		res, err := s.Solve(req)
		ch <- Outcome{Result: res, Err: err}
	}()
	return ch
}

// ── Table fill ──────────────────────────────────────────────────────

// buildLeaves creates one book per enchantment, followed by the base item
// when the target is a gear piece.
func buildLeaves(req Request) []*Item {
	leaves := make([]*Item, 0, len(req.Enchantments)+1)
	for _, e := range req.Enchantments {
		leaves = append(leaves, &Item{
			Value: e.Value(),
			id:    e.ID,
			label: e.Label(),
		})
	}
	if req.Target.hasBase() {
		leaves = append(leaves, &Item{
			Base:  true,
			id:    req.Target.ID,
			label: req.Target.label(),
		})
	}
	for i, l := range leaves {
		l.Mask = 1 << i
	}
	return leaves
}

func (s *Solver) fill(leaves []*Item) *table {
	n := len(leaves)
	full := uint32(1)<<n - 1
	t := &table{slots: make([][]*Item, full+1)}

	bySize := make([][]uint32, n+1)
	for m := uint32(1); m <= full; m++ {
		k := bits.OnesCount32(m)
		bySize[k] = append(bySize[k], m)
	}

	for i, l := range leaves {
		t.slots[1<<i] = []*Item{l}
	}

	// byWork[w] holds the best item of the current mask with work w;
	// work never exceeds k-1 for k leaves.
	byWork := make([]*Item, n)
	for k := 2; k <= n; k++ {
		for _, mask := range bySize[k] {
			t.stats.masks++
			slot := byWork[:k]
			clear(slot)
			s.fillMask(t, slot, mask, k)
			if s.cfg.PruneDominated {
				t.stats.pruned += pruneDominated(slot)
			}
			t.slots[mask] = compact(slot)
		}
	}
	return t
}

// fillMask combines every unordered split of mask into slot. The lowest
// bit always goes to the first half, so each partition is visited once;
// both merge orders are tried because cost is asymmetric.
func (s *Solver) fillMask(t *table, slot []*Item, mask uint32, k int) {
	low := mask & -mask
	others := mask ^ low
	for o := (others - 1) & others; ; o = (o - 1) & others {
		sub := o | low
		rest := mask ^ sub
		left, right := t.slots[sub], t.slots[rest]
		if len(left) > 0 && len(right) > 0 &&
			(!s.cfg.BalancedSplits || balanced(bits.OnesCount32(sub), k)) {
			for _, a := range left {
				for _, b := range right {
					t.offer(slot, a, b)
					t.offer(slot, b, a)
				}
			}
		}
		if o == 0 {
			break
		}
	}
}

func balanced(part, k int) bool {
	return part == k/2 || part == (k+1)/2
}

// offer merges left with right and keeps the result in slot if it beats
// the item already stored for its work count. Rejected merges are dropped
// silently.
func (t *table) offer(slot []*Item, left, right *Item) {
	if right.Base {
		return
	}
	cost := mergeCost(left, right)
	if cost > MaxLevelCost {
		t.stats.tooExpensive++
		return
	}

	work := max(left.Work, right.Work) + 1
	xp := left.XP + right.XP + ExperienceCost(cost)
	value := left.Value + right.Value

	if cur := slot[work]; cur != nil && !better(work, xp, value, cur) {
		return
	}
	slot[work] = assemble(left, right, cost)
	t.stats.stored++
}

// compact copies the non-nil entries of slot, keeping work order.
func compact(slot []*Item) []*Item {
	n := 0
	for _, it := range slot {
		if it != nil {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	out := make([]*Item, 0, n)
	for _, it := range slot {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

// pruneDominated clears every entry for which a lower work count already
// achieves no more experience. Such an entry can never be the better
// partner in a later merge: penalties only grow with work.
func pruneDominated(slot []*Item) int {
	pruned := 0
	var bestXP int
	seen := false
	for w, it := range slot {
		if it == nil {
			continue
		}
		if seen && it.XP >= bestXP {
			slot[w] = nil
			pruned++
			continue
		}
		bestXP = it.XP
		seen = true
	}
	return pruned
}

// ── Final selection ─────────────────────────────────────────────────

func selectFinal(slot []*Item, needBase bool, obj Objective) *Item {
	var best *Item
	for _, it := range slot {
		if it == nil || (needBase && !it.Base) {
			continue
		}
		if best == nil || preferFinal(it, best, obj) {
			best = it
		}
	}
	return best
}

func preferFinal(a, b *Item, obj Objective) bool {
	if obj == ObjectiveWorkPenalty {
		if a.Work != b.Work {
			return a.Work < b.Work
		}
		return a.XP < b.XP
	}
	if a.XP != b.XP {
		return a.XP < b.XP
	}
	if a.Work != b.Work {
		return a.Work < b.Work
	}
	return a.Levels < b.Levels
}
