package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/tianji/internal/app"
	"github.com/okian/tianji/internal/domain/bazi"
	"github.com/okian/tianji/internal/domain/materials"
)

var pillarLabels = [4]string{"year", "month", "day", "hour"}

// chartOutput is the --json rendering of a reading.
type chartOutput struct {
	Input     bazi.BirthInput      `json:"input"`
	Chart     string               `json:"chart"`
	Counts    map[string]int       `json:"counts"`
	Missing   []bazi.Element       `json:"missing"`
	Strong    bazi.Element         `json:"strong"`
	Weak      bazi.Element         `json:"weak"`
	UsefulGod bazi.Element         `json:"useful_god"`
	OutputGod bazi.Element         `json:"output_god"`
	Materials []materials.Material `json:"materials"`
}

func chartCmd() *cobra.Command {
	var (
		in     bazi.BirthInput
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Compute the four pillars for a birth date and hour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc := service.New()
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			reading, err := svc.Reading(ctx, in)
			if err != nil {
				return err
			}
			items, err := svc.Materials(ctx, reading.Assessment.UsefulGod)
			if err != nil {
				return err
			}
			if asJSON {
				return writeChartJSON(cmd.OutOrStdout(), reading, items)
			}
			writeChartText(cmd.OutOrStdout(), reading, items)
			return nil
		},
	}

	cmd.Flags().IntVar(&in.Year, "year", 0, "birth year (1900-2100)")
	cmd.Flags().IntVar(&in.Month, "month", 0, "birth month (1-12)")
	cmd.Flags().IntVar(&in.Day, "day", 0, "birth day (1-31)")
	cmd.Flags().IntVar(&in.Hour, "hour", 0, "birth hour (0-23)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reading as JSON")
	for _, name := range []string{"year", "month", "day"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func writeChartJSON(w io.Writer, r bazi.Reading, items []materials.Material) error {
	out := chartOutput{
		Input:     r.Input,
		Chart:     r.Chart.String(),
		Counts:    make(map[string]int, len(bazi.Elements())),
		Missing:   r.Histogram.Missing(),
		Strong:    r.Assessment.Strong,
		Weak:      r.Assessment.Weak,
		UsefulGod: r.Assessment.UsefulGod,
		OutputGod: r.Assessment.OutputGod,
		Materials: items,
	}
	if out.Missing == nil {
		out.Missing = []bazi.Element{}
	}
	for _, ec := range r.Histogram.Entries() {
		out.Counts[ec.Element.String()] = ec.Count
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeChartText(w io.Writer, r bazi.Reading, items []materials.Material) {
	fmt.Fprintf(w, "八字  %s\n\n", r.Chart)
	for i, p := range r.Chart.Pillars() {
		fmt.Fprintf(w, "%-6s %s  %s %s / %s %s  %s\n", pillarLabels[i], p,
			p.Stem.Pinyin(), p.Stem.Element(), p.Branch.Pinyin(), p.Branch.Element(), p.Branch.Zodiac())
	}

	fmt.Fprintln(w)
	counts := make([]string, 0, len(bazi.Elements()))
	for _, ec := range r.Histogram.Entries() {
		counts = append(counts, fmt.Sprintf("%s%s %d", ec.Element.Hanzi(), ec.Element, ec.Count))
	}
	fmt.Fprintf(w, "五行  %s\n", strings.Join(counts, "  "))
	if missing := r.Histogram.Missing(); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, e := range missing {
			names = append(names, e.String())
		}
		fmt.Fprintf(w, "缺    %s\n", strings.Join(names, ", "))
	}

	a := r.Assessment
	fmt.Fprintf(w, "旺    %s  弱 %s\n", a.Strong, a.Weak)
	fmt.Fprintf(w, "用神  %s  输出 %s\n", a.UsefulGod, a.OutputGod)

	if len(items) > 0 {
		fmt.Fprintln(w)
		writeMaterials(w, items)
	}
}
