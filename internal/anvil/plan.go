package anvil

// Step is one anvil operation of a plan.
type Step struct {
	LeftLabel        string `json:"leftLabel"`
	RightLabel       string `json:"rightLabel"`
	ResultLabel      string `json:"resultLabel"`
	LevelCost        int    `json:"levelCost"`
	ExperienceCost   int    `json:"experienceCost"`
	Work             int    `json:"work"`             // work count of the result
	PriorWorkPenalty int    `json:"priorWorkPenalty"` // 2^Work - 1 levels charged on the result's next use
}

// Reconstruct lists the merges of root's provenance tree in post-order, so
// each step only uses original leaves or results of earlier steps.
func Reconstruct(root *Item) []Step {
	var steps []Step
	var walk func(*Item)
	walk = func(it *Item) {
		if it.IsLeaf() {
			return
		}
		if it.Left == nil || it.Right == nil {
			panic("anvil: assembled item with a single parent")
		}
		walk(it.Left)
		walk(it.Right)
		steps = append(steps, Step{
			LeftLabel:        it.Left.Label(),
			RightLabel:       it.Right.Label(),
			ResultLabel:      it.Label(),
			LevelCost:        it.Cost,
			ExperienceCost:   ExperienceCost(it.Cost),
			Work:             it.Work,
			PriorWorkPenalty: PriorWorkPenalty(it.Work),
		})
	}
	walk(root)
	return steps
}
