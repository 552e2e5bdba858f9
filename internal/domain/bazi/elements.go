package bazi

import "sort"

// SymbolsPerChart is the number of stems and branches in a chart.
const SymbolsPerChart = 8

// ElementCount pairs an element with its occurrences in a chart.
type ElementCount struct {
	Element Element
	Count   int
}

// ElementHistogram counts elements, indexed by Element. Iteration over the
// array is always in canonical order.
type ElementHistogram [elementCount]int

// AggregateElements counts the element of every stem and branch in c. The
// counts always sum to SymbolsPerChart.
func AggregateElements(c Chart) ElementHistogram {
	var h ElementHistogram
	for _, p := range c.Pillars() {
		h[p.Stem.Element()]++
		h[p.Branch.Element()]++
	}
	return h
}

// Count returns the occurrences of e.
func (h ElementHistogram) Count(e Element) int {
	if !e.Valid() {
		return 0
	}
	return h[e]
}

// Total returns the sum of all counts.
func (h ElementHistogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Entries returns the counts in canonical element order.
func (h ElementHistogram) Entries() []ElementCount {
	out := make([]ElementCount, 0, elementCount)
	for _, e := range Elements() {
		out = append(out, ElementCount{Element: e, Count: h[e]})
	}
	return out
}

// Missing returns the elements with a zero count, in canonical order.
func (h ElementHistogram) Missing() []Element {
	var out []Element
	for _, e := range Elements() {
		if h[e] == 0 {
			out = append(out, e)
		}
	}
	return out
}

// ranked returns the entries sorted by count descending. Equal counts keep
// canonical order.
func (h ElementHistogram) ranked() []ElementCount {
	entries := h.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}
