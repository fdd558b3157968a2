package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/transition"
)

var pesosFlags struct {
	desde int
	hasta int
	json  bool
}

var pesosCmd = &cobra.Command{
	Use:   "pesos",
	Short: "Muestra los pesos de cada régimen por año de emisión",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if pesosFlags.hasta < pesosFlags.desde {
			return fmt.Errorf("--hasta (%d) anterior a --desde (%d)", pesosFlags.hasta, pesosFlags.desde)
		}
		schedule := transition.Schedule(pesosFlags.desde, pesosFlags.hasta)
		if pesosFlags.json {
			return writeJSON(cmd.OutOrStdout(), schedule)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "AÑO\tVIGENTE\tNUEVO")
		for _, w := range schedule {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", w.Year, w.Legacy.StringFixed(2), w.IBS.StringFixed(2))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(pesosCmd)
	pesosCmd.Flags().IntVar(&pesosFlags.desde, "desde", transition.FirstTransitionYear-1, "primer año")
	pesosCmd.Flags().IntVar(&pesosFlags.hasta, "hasta", transition.FullNewRegimeYear, "último año")
	pesosCmd.Flags().BoolVar(&pesosFlags.json, "json", false, "salida JSON")
}
