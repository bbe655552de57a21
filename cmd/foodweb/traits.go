package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/foodweb-simulator/core"
)

func newTraitsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "traits",
		Short: "Print the derived group traits and grazing links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			web, err := core.NewFoodWeb(c.cfg.Parameters())
			if err != nil {
				return err
			}
			return printTraits(cmd.OutOrStdout(), web)
		},
	}
}

func printTraits(w io.Writer, web *core.FoodWeb) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "group\trole\tcell_volume\tcarbon_quota\tnitrogen_quota\tvmax\tspecific_vmax\tkn\trespiration")
	for _, g := range web.Groups {
		fmt.Fprintf(tw, "%d\t%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n",
			g.Index, g.Role, g.CellVolume, g.CarbonQuota, g.NitrogenQuota,
			g.VmaxUptake, g.SpecificVmax(), g.HalfSatUptake, g.RespirationRate)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "prey\tconsumer\tmax_rate\thalf_sat\tassimilation")
	for _, l := range web.Interactions.Links {
		fmt.Fprintf(tw, "%d\t%d\t%.4g\t%.4g\t%.4g\n", l.Prey, l.Consumer, l.MaxRate, l.HalfSat, l.Assimilation)
	}
	return tw.Flush()
}
