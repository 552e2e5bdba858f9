package bazi

// GodAssessment classifies a histogram into its dominant and deficient
// elements.
type GodAssessment struct {
	// Strong is the most frequent element.
	Strong Element
	// Weak is the least frequent element.
	Weak Element
	// UsefulGod is the element to favor. It supplements the deficient
	// element and therefore always equals Weak.
	UsefulGod Element
	// OutputGod is the element Strong dominates; the element to avoid.
	OutputGod Element
	// Ranking lists all five elements by count, highest first.
	Ranking []ElementCount
}

// SelectGods ranks the histogram and derives the useful and output gods.
// Ties on either end resolve to the earliest element in canonical order.
func SelectGods(h ElementHistogram) GodAssessment {
	ranking := h.ranked()
	strong := ranking[0].Element

	minCount := ranking[len(ranking)-1].Count
	weak := ranking[len(ranking)-1].Element
	for _, ec := range ranking {
		if ec.Count == minCount {
			weak = ec.Element
			break
		}
	}

	return GodAssessment{
		Strong:    strong,
		Weak:      weak,
		UsefulGod: weak,
		OutputGod: strong.Dominates(),
		Ranking:   ranking,
	}
}
