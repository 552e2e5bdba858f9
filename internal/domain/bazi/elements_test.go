package bazi_test

import (
	"errors"
	"testing"

	"github.com/okian/tianji/internal/domain/bazi"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAggregateElements(t *testing.T) {
	Convey("Given the chart for 1990-01-01 12:00", t, func() {
		h := bazi.AggregateElements(bazi.ComputeChart(1990, 1, 1, 12))

		Convey("Then every stem and branch is counted once", func() {
			So(h.Count(bazi.Wood), ShouldEqual, 1)
			So(h.Count(bazi.Fire), ShouldEqual, 4)
			So(h.Count(bazi.Earth), ShouldEqual, 0)
			So(h.Count(bazi.Metal), ShouldEqual, 1)
			So(h.Count(bazi.Water), ShouldEqual, 2)
		})

		Convey("And entries follow canonical order", func() {
			entries := h.Entries()
			So(len(entries), ShouldEqual, 5)
			for i, e := range bazi.Elements() {
				So(entries[i].Element, ShouldEqual, e)
			}
		})

		Convey("And missing elements are reported", func() {
			So(h.Missing(), ShouldResemble, []bazi.Element{bazi.Earth})
		})
	})

	Convey("Given charts across the supported range", t, func() {
		Convey("Then each histogram sums to eight", func() {
			for year := 1900; year <= 2100; year += 7 {
				for month := 1; month <= 12; month += 5 {
					for hour := 0; hour < 24; hour += 3 {
						h := bazi.AggregateElements(bazi.ComputeChart(year, month, (year+month)%31+1, hour))
						So(h.Total(), ShouldEqual, bazi.SymbolsPerChart)
					}
				}
			}
		})
	})

	Convey("Given nonsensical input", t, func() {
		h := bazi.AggregateElements(bazi.ComputeChart(-5000, 40, -12, 99))

		Convey("Then the histogram still sums to eight", func() {
			So(h.Total(), ShouldEqual, bazi.SymbolsPerChart)
		})
	})
}

func TestElementTables(t *testing.T) {
	Convey("Given the domination cycle", t, func() {
		Convey("Then it runs wood, earth, water, fire, metal and back", func() {
			cycle := []bazi.Element{bazi.Wood, bazi.Earth, bazi.Water, bazi.Fire, bazi.Metal, bazi.Wood}
			for i := 0; i < len(cycle)-1; i++ {
				So(cycle[i].Dominates(), ShouldEqual, cycle[i+1])
			}
		})
	})

	Convey("Given the element tables", t, func() {
		cases := []struct {
			e         bazi.Element
			dominates bazi.Element
			generates bazi.Element
		}{
			{bazi.Wood, bazi.Earth, bazi.Fire},
			{bazi.Fire, bazi.Metal, bazi.Earth},
			{bazi.Earth, bazi.Water, bazi.Metal},
			{bazi.Metal, bazi.Wood, bazi.Water},
			{bazi.Water, bazi.Fire, bazi.Wood},
		}

		Convey("Then both tables map every element as listed", func() {
			for _, c := range cases {
				So(c.e.Dominates(), ShouldEqual, c.dominates)
				So(c.e.Generates(), ShouldEqual, c.generates)
			}
		})
	})

	Convey("Given the generation cycle", t, func() {
		Convey("Then it runs wood, fire, earth, metal, water and back", func() {
			cycle := []bazi.Element{bazi.Wood, bazi.Fire, bazi.Earth, bazi.Metal, bazi.Water, bazi.Wood}
			for i := 0; i < len(cycle)-1; i++ {
				So(cycle[i].Generates(), ShouldEqual, cycle[i+1])
			}
		})
	})

	Convey("Given stems and branches", t, func() {
		c := bazi.ComputeChart(2024, 1, 1, 0)

		Convey("Then polarity, element and zodiac lookups are fixed", func() {
			So(c.Day.Stem.Element(), ShouldEqual, bazi.Wood)
			So(c.Day.Stem.YinYang(), ShouldEqual, bazi.Yang)
			So(c.Day.Branch.Element(), ShouldEqual, bazi.Water)
			So(c.Day.Branch.Zodiac().String(), ShouldEqual, "鼠")
			So(c.Day.Branch.Zodiac().English(), ShouldEqual, "rat")
			So(c.Year.Branch.Zodiac().English(), ShouldEqual, "dragon")
			So(c.Month.Branch.YinYang().Hanzi(), ShouldEqual, "阴")
			So(c.Day.Stem.Pinyin(), ShouldEqual, "jia")
		})
	})

	Convey("Given element names", t, func() {
		Convey("When parsing English names in any case", func() {
			e, err := bazi.ParseElement(" WATER ")
			So(err, ShouldBeNil)
			So(e, ShouldEqual, bazi.Water)
		})

		Convey("When parsing Chinese characters", func() {
			e, err := bazi.ParseElement("金")
			So(err, ShouldBeNil)
			So(e, ShouldEqual, bazi.Metal)
			So(e.Hanzi(), ShouldEqual, "金")
			So(e.Color(), ShouldEqual, "#94a3b8")
		})

		Convey("When parsing an unknown name", func() {
			_, err := bazi.ParseElement("aether")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, bazi.ErrUnknownElement), ShouldBeTrue)
		})

		Convey("When round-tripping through text", func() {
			b, err := bazi.Fire.MarshalText()
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "fire")

			var e bazi.Element
			So(e.UnmarshalText(b), ShouldBeNil)
			So(e, ShouldEqual, bazi.Fire)
		})

		Convey("When marshaling an invalid element", func() {
			_, err := bazi.Element(9).MarshalText()
			So(err, ShouldNotBeNil)
		})
	})
}
