// Package transition combina los resultados del régimen vigente y del régimen nuevo
// según los pesos del año de emisión, ítem por ítem y a nivel de documento.
package transition

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/ibs"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/legacy"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/money"
)

// ErrCompositionIntegrity un ítem tiene resultado en un motor y no en el otro.
var ErrCompositionIntegrity = errors.New("integridad de composición: ítem sin contraparte")

// TransitionInput entrada del orquestador. El documento de IBS es el de referencia.
type TransitionInput struct {
	IBS       ibs.CalcInput
	UfConfigs []entity.LegacyUfConfig
	IcmsRates []entity.LegacyIcmsRate
}

// Composition valores combinados de un ítem o del documento.
type Composition struct {
	TaxBase           decimal.Decimal `json:"taxBase"`
	LegacyTax         decimal.Decimal `json:"legacyTax"`
	IBSTax            decimal.Decimal `json:"ibsTax"`
	WeightedLegacyTax decimal.Decimal `json:"weightedLegacyTax"`
	WeightedIBSTax    decimal.Decimal `json:"weightedIbsTax"`
	TotalTax          decimal.Decimal `json:"totalTax"`
	EffectiveRate     decimal.Decimal `json:"effectiveRate"`
}

// PersistedItemComponents unidad persistida por ítem.
type PersistedItemComponents struct {
	ItemID     string            `json:"itemId"`
	LineNumber int               `json:"lineNumber"`
	Weights    Weights           `json:"weights"`
	Legacy     legacy.ItemResult `json:"legacy"`
	IBS        ibs.ItemResult    `json:"ibs"`
	Transition Composition       `json:"transition"`
}

// PersistedSummaryComponents espejo de PersistedItemComponents a nivel de documento.
type PersistedSummaryComponents struct {
	Weights    Weights        `json:"weights"`
	Legacy     legacy.Summary `json:"legacy"`
	IBS        ibs.Summary    `json:"ibs"`
	Transition Composition    `json:"transition"`
}

// TransitionCalcOutput resultado completo de la orquestación.
type TransitionCalcOutput struct {
	DocumentID string                     `json:"documentId"`
	RuleSetID  string                     `json:"ruleSetId,omitempty"`
	UfConfigID string                     `json:"ufConfigId,omitempty"`
	Scenario   ibs.AppliedScenario        `json:"scenario"`
	Weights    Weights                    `json:"weights"`
	Items      []PersistedItemComponents  `json:"items"`
	Summary    PersistedSummaryComponents `json:"summary"`
}

// Orchestrate ejecuta ambos motores en paralelo y compone el resultado.
// El primer error (régimen vigente, luego régimen nuevo) aborta la orquestación.
func Orchestrate(in TransitionInput) (TransitionCalcOutput, error) {
	doc := in.IBS.Document
	weights := WeightsForYear(doc.IssueYear())

	type legacyResult struct {
		out legacy.LegacyCalcOutput
		err error
	}
	type ibsResult struct {
		out ibs.CalcOutput
		err error
	}
	legacyCh := make(chan legacyResult, 1)
	ibsCh := make(chan ibsResult, 1)

	go func() {
		out, err := legacy.Calculate(legacy.LegacyCalcInput{
			Document:  doc,
			UfConfigs: in.UfConfigs,
			IcmsRates: in.IcmsRates,
		})
		legacyCh <- legacyResult{out, err}
	}()
	go func() {
		out, err := ibs.Calculate(in.IBS)
		ibsCh <- ibsResult{out, err}
	}()

	lr := <-legacyCh
	nr := <-ibsCh

	if lr.err != nil {
		return TransitionCalcOutput{}, fmt.Errorf("régimen vigente: %w", lr.err)
	}
	if nr.err != nil {
		return TransitionCalcOutput{}, fmt.Errorf("régimen nuevo: %w", nr.err)
	}
	return Compose(doc, weights, lr.out, nr.out)
}

// Compose une los resultados por id de ítem y aplica los pesos.
func Compose(doc entity.Document, w Weights, lo legacy.LegacyCalcOutput, no ibs.CalcOutput) (TransitionCalcOutput, error) {
	legacyByID := make(map[string]legacy.ItemResult, len(lo.Items))
	for _, it := range lo.Items {
		legacyByID[it.ItemID] = it
	}
	ibsByID := make(map[string]ibs.ItemResult, len(no.Items))
	for _, it := range no.Items {
		ibsByID[it.ItemID] = it
	}

	out := TransitionCalcOutput{
		DocumentID: doc.ID,
		RuleSetID:  no.RuleSetID,
		UfConfigID: lo.UfConfigID,
		Scenario:   no.Scenario,
		Weights:    w,
		Items:      make([]PersistedItemComponents, 0, len(doc.Items)),
	}
	var bases []decimal.Decimal
	for _, item := range doc.Items {
		l, okL := legacyByID[item.ID]
		n, okN := ibsByID[item.ID]
		if !okL || !okN {
			return TransitionCalcOutput{}, fmt.Errorf("%w: item %q (vigente=%t, nuevo=%t)", ErrCompositionIntegrity, item.ID, okL, okN)
		}
		delete(legacyByID, item.ID)
		delete(ibsByID, item.ID)

		base := money.Round2(item.TotalValue)
		bases = append(bases, base)
		out.Items = append(out.Items, PersistedItemComponents{
			ItemID:     item.ID,
			LineNumber: item.LineNumber,
			Weights:    w,
			Legacy:     l,
			IBS:        n,
			Transition: compose(w, base, l.TotalTax, n.IBSValue.Add(n.CBSValue).Add(n.ISValue)),
		})
	}
	if ids := sortedKeys(legacyByID); len(ids) > 0 {
		return TransitionCalcOutput{}, fmt.Errorf("%w: items %q solo en régimen vigente", ErrCompositionIntegrity, ids)
	}
	if ids := sortedKeys(ibsByID); len(ids) > 0 {
		return TransitionCalcOutput{}, fmt.Errorf("%w: items %q solo en régimen nuevo", ErrCompositionIntegrity, ids)
	}

	itemBases := money.Sum(bases...)
	docBase := ibs.DocumentTaxBase(doc, itemBases)
	out.Summary = PersistedSummaryComponents{
		Weights:    w,
		Legacy:     lo.Summary,
		IBS:        no.Summary,
		Transition: compose(w, docBase, lo.Summary.TotalTax, no.Summary.TotalTax),
	}
	return out, nil
}

// compose aplica los pesos a los impuestos de cada régimen; redondea en cada paso.
// La tasa efectiva usa taxBase como denominador.
func compose(w Weights, taxBase, legacyTax, ibsTax decimal.Decimal) Composition {
	c := Composition{
		TaxBase:   taxBase,
		LegacyTax: money.Round2(legacyTax),
		IBSTax:    money.Round2(ibsTax),
	}
	c.WeightedLegacyTax = money.Mul(c.LegacyTax, w.Legacy)
	c.WeightedIBSTax = money.Mul(c.IBSTax, w.IBS)
	c.TotalTax = money.Sum(c.WeightedLegacyTax, c.WeightedIBSTax)
	c.EffectiveRate = money.Ratio(c.TotalTax, taxBase)
	return c
}

// sortedKeys ids sin contraparte, ordenados para que el error sea reproducible.
func sortedKeys[T any](m map[string]T) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
