package main

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "simulador",
	Short: "Simulador de la transición ICMS -> IBS/CBS",
	Long: `Calcula localmente la carga tributaria de un documento bajo el régimen vigente,
el régimen nuevo y la mezcla ponderada del año de emisión.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "registrar en stderr")
}
