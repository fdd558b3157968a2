package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/calculation"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/document"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/seed"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/memory"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/nfe"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/yaml"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// companyID fijo: en memoria hay una sola empresa.
const companyID = "simulador"

var calcFlags struct {
	input     string
	rules     string
	legacy    string
	fator     string
	repasse   string
	ibs       string
	cbs       string
	is        string
	permisivo bool
}

var calcularCmd = &cobra.Command{
	Use:   "calcular",
	Short: "Calcula un documento (JSON o XML de NF-e) y muestra el resultado",
	Long: `Carga el documento, los conjuntos de reglas y la configuración ICMS, ejecuta ambos
regímenes y la composición del año de emisión. Con --fator, --repasse, --ibs, --cbs o --is
se aplica un escenario de simulación sobre el régimen nuevo.

Ejemplos:
  simulador calcular --input configs/documento-exemplo.json
  simulador calcular --input nota.xml --ibs 0.2 --repasse 50`,
	RunE: runCalcular,
}

func init() {
	rootCmd.AddCommand(calcularCmd)

	f := calcularCmd.Flags()
	f.StringVarP(&calcFlags.input, "input", "i", "", "documento JSON o XML de NF-e (obligatorio)")
	f.StringVar(&calcFlags.rules, "rules", "configs/rules.yaml", "archivo YAML de conjuntos de reglas")
	f.StringVar(&calcFlags.legacy, "legacy", "configs/legacy.yaml", "archivo YAML de configuración ICMS (vacío = sin configuración)")
	f.StringVar(&calcFlags.fator, "fator", "", "factor de transición sobre IBS/CBS (0..1)")
	f.StringVar(&calcFlags.repasse, "repasse", "", "porcentaje de repasse al precio (0..100)")
	f.StringVar(&calcFlags.ibs, "ibs", "", "alícuota IBS absoluta")
	f.StringVar(&calcFlags.cbs, "cbs", "", "alícuota CBS absoluta")
	f.StringVar(&calcFlags.is, "is", "", "alícuota IS absoluta")
	f.BoolVar(&calcFlags.permisivo, "permisivo", false, "calcular aunque falte la configuración de UF que exigen DIFAL o ST")
	_ = calcularCmd.MarkFlagRequired("input")
}

func runCalcular(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logger.Nop()
	if verbose {
		log = logger.New(logger.Config{Env: "development", Level: "debug", Output: cmd.ErrOrStderr()})
	}

	scenario, err := scenarioFromFlags()
	if err != nil {
		return err
	}

	docs := memory.NewDocumentRepo()
	ruleSets := memory.NewRuleSetRepo()
	legacyCfg := memory.NewLegacyConfigRepo()

	var pack seed.Pack
	rp, err := yaml.LoadRulePack(calcFlags.rules)
	if err != nil {
		return fmt.Errorf("%s: %w", calcFlags.rules, err)
	}
	pack.RuleSets = rp.RuleSets
	if calcFlags.legacy != "" {
		lp, err := yaml.LoadLegacyPack(calcFlags.legacy)
		if err != nil {
			return fmt.Errorf("%s: %w", calcFlags.legacy, err)
		}
		pack.UfConfigs = lp.UfConfigs
		pack.IcmsRates = lp.IcmsRates
	}
	if _, err := seed.NewSeeder(&memory.TxRunner{RuleSets: ruleSets, LegacyCfg: legacyCfg}, log).Apply(ctx, pack); err != nil {
		return err
	}

	docUC := document.NewUseCase(docs, nfe.NewParser(), log)
	doc, err := loadDocument(cmd, docUC)
	if err != nil {
		return err
	}

	calcUC := calculation.NewUseCase(docs, ruleSets, legacyCfg, memory.NewCalculationRepo(), nil, log,
		calculation.Config{AllowMissingUfConfig: calcFlags.permisivo})
	out, err := calcUC.Simulate(ctx, companyID, doc.ID, scenario)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func loadDocument(cmd *cobra.Command, uc *document.UseCase) (*dto.DocumentResponse, error) {
	data, err := os.ReadFile(calcFlags.input)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(calcFlags.input), ".xml") {
		return uc.Import(cmd.Context(), companyID, data)
	}
	var req dto.CreateDocumentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%s: %w", calcFlags.input, err)
	}
	return uc.Create(cmd.Context(), companyID, req)
}

func scenarioFromFlags() (dto.ScenarioRequest, error) {
	var s dto.ScenarioRequest
	for _, f := range []struct {
		name string
		raw  string
		dst  **decimal.Decimal
	}{
		{"fator", calcFlags.fator, &s.TransitionFactor},
		{"repasse", calcFlags.repasse, &s.PricePassThroughPercent},
		{"ibs", calcFlags.ibs, &s.OverrideRates.IBSRate},
		{"cbs", calcFlags.cbs, &s.OverrideRates.CBSRate},
		{"is", calcFlags.is, &s.OverrideRates.ISRate},
	} {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.Replace(f.raw, ",", ".", 1))
		if err != nil {
			return s, fmt.Errorf("--%s: número inválido %q", f.name, f.raw)
		}
		*f.dst = &d
	}
	return s, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
