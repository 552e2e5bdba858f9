package probe

import (
	"fmt"

	"github.com/okian/tianji/internal/domain/bazi"
)

// compareReading returns one Mismatch per field where the served reading
// disagrees with the local computation.
func compareReading(in bazi.BirthInput, served servedReading) []Mismatch {
	local := bazi.Compute(in)
	var diffs []Mismatch
	check := func(field, got, want string) {
		if got != want {
			diffs = append(diffs, Mismatch{Input: in, Field: field, Served: got, Local: want})
		}
	}

	check("chart", served.Chart, local.Chart.String())
	check("strong", served.Strong.String(), local.Assessment.Strong.String())
	check("weak", served.Weak.String(), local.Assessment.Weak.String())
	check("useful_god", served.UsefulGod.String(), local.Assessment.UsefulGod.String())
	check("output_god", served.OutputGod.String(), local.Assessment.OutputGod.String())
	check("elements", formatServedCounts(served), formatCounts(local.Histogram.Entries()))
	check("missing", fmt.Sprint(served.Missing), fmt.Sprint(local.Histogram.Missing()))
	return diffs
}

func formatServedCounts(s servedReading) string {
	entries := make([]bazi.ElementCount, 0, len(s.Elements))
	for _, e := range s.Elements {
		entries = append(entries, bazi.ElementCount{Element: e.Element, Count: e.Count})
	}
	return formatCounts(entries)
}

func formatCounts(entries []bazi.ElementCount) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s=%d", e.Element, e.Count))
	}
	return fmt.Sprint(parts)
}
