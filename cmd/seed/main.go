// seed aplica las migraciones y carga la configuración fiscal inicial desde archivos YAML.
//
// Uso:
//
//	go run ./cmd/seed --migrate --rules configs/rules.yaml --legacy configs/legacy.yaml
//
// La conexión se toma de las mismas variables de entorno que la API (DATABASE_URL, DB_HOST, ...).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/seed"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/postgres"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/yaml"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/config"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

var seedFlags struct {
	migrate    bool
	rulesPath  string
	legacyPath string
	timeout    time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Aplica migraciones y carga reglas y configuración ICMS",
	Long: `Carga en PostgreSQL los conjuntos de reglas del régimen nuevo (globales) y la
configuración ICMS del régimen vigente. Todo se aplica en una transacción; volver a
ejecutar con los mismos archivos no duplica registros.`,
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().BoolVar(&seedFlags.migrate, "migrate", false, "aplicar migraciones antes de cargar")
	rootCmd.Flags().StringVar(&seedFlags.rulesPath, "rules", "configs/rules.yaml", "archivo YAML de conjuntos de reglas (vacío = omitir)")
	rootCmd.Flags().StringVar(&seedFlags.legacyPath, "legacy", "configs/legacy.yaml", "archivo YAML de configuración ICMS (vacío = omitir)")
	rootCmd.Flags().DurationVar(&seedFlags.timeout, "timeout", time.Minute, "tiempo máximo de la operación")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	var pack seed.Pack
	if seedFlags.rulesPath != "" {
		rp, err := yaml.LoadRulePack(seedFlags.rulesPath)
		if err != nil {
			return fmt.Errorf("%s: %w", seedFlags.rulesPath, err)
		}
		pack.RuleSets = rp.RuleSets
	}
	if seedFlags.legacyPath != "" {
		lp, err := yaml.LoadLegacyPack(seedFlags.legacyPath)
		if err != nil {
			return fmt.Errorf("%s: %w", seedFlags.legacyPath, err)
		}
		pack.UfConfigs = lp.UfConfigs
		pack.IcmsRates = lp.IcmsRates
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), seedFlags.timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	if seedFlags.migrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		log.Info().Strs("migrations", applied).Msg("migraciones aplicadas")
	}

	res, err := seed.NewSeeder(postgres.NewTxRunner(pool), log).Apply(ctx, pack)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "conjuntos creados: %d, ya existentes: %d, configuraciones UF: %d, alícuotas ICMS: %d\n",
		res.RuleSetsCreated, res.RuleSetsSkipped, res.UfConfigs, res.IcmsRates)
	return nil
}
