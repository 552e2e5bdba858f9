package bazi

import (
	"strings"
	"time"
)

const (
	secondsPerDay = 24 * 60 * 60

	// dayAnchorCycle is the sexagenary position of the anchor date (甲子).
	dayAnchorCycle = 60
	yearCycleBase  = 4
	hoursPerBlock  = 2
)

// dayAnchor is the civil date whose day pillar sits at dayAnchorCycle.
var dayAnchor = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// monthBranches maps a month number (1..12) to a branch ordinal. Month
// boundaries follow the Gregorian month, not solar terms. Index 0 is unused.
var monthBranches = [13]int{0, 11, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// Pillar is a stem and branch pair.
type Pillar struct {
	Stem   Stem
	Branch Branch
}

func newPillar(stemIndex, branchIndex int) Pillar {
	return Pillar{
		Stem:   Stem(floorMod(stemIndex, stemCount)),
		Branch: Branch(floorMod(branchIndex, branchCount)),
	}
}

// String renders the pillar as two characters, e.g. "甲子".
func (p Pillar) String() string { return p.Stem.String() + p.Branch.String() }

// Chart holds the four pillars of a birth moment.
type Chart struct {
	Year  Pillar
	Month Pillar
	Day   Pillar
	Hour  Pillar
}

// Pillars returns the year, month, day and hour pillars in that order.
func (c Chart) Pillars() [4]Pillar {
	return [4]Pillar{c.Year, c.Month, c.Day, c.Hour}
}

// String renders the chart as "庚午年 丙亥月 丙寅日 壬午时".
func (c Chart) String() string {
	var b strings.Builder
	b.WriteString(c.Year.String())
	b.WriteString("年 ")
	b.WriteString(c.Month.String())
	b.WriteString("月 ")
	b.WriteString(c.Day.String())
	b.WriteString("日 ")
	b.WriteString(c.Hour.String())
	b.WriteString("时")
	return b.String()
}

// ComputeChart derives the four pillars for a Gregorian date and hour (0..23).
// It accepts any integers and never fails; callers validate ranges first
// when they need plausible input.
func ComputeChart(year, month, day, hour int) Chart {
	yearStem := floorMod(year-yearCycleBase, stemCount)
	block := floorDiv(hour, hoursPerBlock)
	dayPos := dayAnchorCycle + daysFromAnchor(year, month, day)

	return Chart{
		Year:  newPillar(yearStem, year-yearCycleBase),
		Month: newPillar(yearStem*2+(month-1), monthBranch(month)),
		Day:   newPillar(dayPos, dayPos),
		Hour:  newPillar(yearStem*2+block, block),
	}
}

// monthBranch looks up the branch ordinal for month, wrapping values outside
// 1..12 onto the table.
func monthBranch(month int) int {
	return monthBranches[floorMod(month-1, 12)+1]
}

// daysFromAnchor returns the signed number of whole days from the anchor to
// the civil date. Out-of-range months and days normalize the way time.Date
// does.
func daysFromAnchor(year, month, day int) int {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(floorDiv64(t.Unix()-dayAnchor.Unix(), secondsPerDay))
}

func floorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}

func floorDiv64(a, n int64) int64 {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}
