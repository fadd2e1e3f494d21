package anvil

import (
	"fmt"
	"strings"
)

// Summary is the serialisable view of a Result.
type Summary struct {
	Feasible        bool     `json:"feasible"`
	OptimizeFor     string   `json:"optimizeFor"`
	FinalItem       string   `json:"finalItem,omitempty"`
	Enchantments    []string `json:"enchantments,omitempty"`
	FinalWork       int      `json:"finalWork"`
	TotalExperience int      `json:"totalExperience"`
	TotalLevels     int      `json:"totalLevels"`
	Steps           []Step   `json:"steps"`
}

// Summarize flattens a Result for JSON output.
func Summarize(res Result) Summary {
	s := Summary{
		Feasible:        res.Feasible,
		OptimizeFor:     res.OptimizeFor.String(),
		TotalExperience: res.TotalExperience,
		TotalLevels:     res.TotalLevels,
		Steps:           res.Steps,
	}
	if res.Final != nil {
		s.FinalItem = res.Final.Label()
		s.Enchantments = res.Final.Enchantments()
		s.FinalWork = res.Final.Work
	}
	if s.Steps == nil {
		s.Steps = []Step{}
	}
	return s
}

// FormatResult produces the text listing printed by the CLI.
func FormatResult(res Result) string {
	var b strings.Builder

	if !res.Feasible {
		b.WriteString("No valid combination: every merge order exceeds the level cap.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Result: %s (optimized for %s)\n", res.Final.Label(), res.OptimizeFor)
	if len(res.Steps) == 0 {
		b.WriteString("Nothing to merge.\n")
	}
	for i, st := range res.Steps {
		fmt.Fprintf(&b, "%2d. %s + %s\n", i+1, st.LeftLabel, st.RightLabel)
		fmt.Fprintf(&b, "    -> %d levels (%d xp), work %d, next penalty %d\n",
			st.LevelCost, st.ExperienceCost, st.Work, st.PriorWorkPenalty)
	}
	fmt.Fprintf(&b, "Total: %d levels, %d xp, final work %d\n",
		res.TotalLevels, res.TotalExperience, res.Final.Work)

	return b.String()
}
