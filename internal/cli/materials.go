package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/tianji/internal/app"
	"github.com/okian/tianji/internal/domain/bazi"
	"github.com/okian/tianji/internal/domain/materials"
)

func materialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materials <element>",
		Short: "List recommended materials for an element",
		Long:  "Element may be an English name in any case (wood, Fire) or its Chinese character (木).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := bazi.ParseElement(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc := service.New()
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer svc.Stop()

			items, err := svc.Materials(ctx, e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", e.Hanzi(), e, e.Color())
			writeMaterials(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func writeMaterials(w io.Writer, items []materials.Material) {
	for _, m := range items {
		fmt.Fprintf(w, "- %s %s [%s]: %s\n", m.Name, m.LocalizedName, m.Category, m.Benefit)
	}
}
