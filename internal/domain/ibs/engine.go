// Package ibs implementa el motor del régimen nuevo: aplica el conjunto de reglas
// vigente a cada ítem del documento para obtener alícuotas IBS/CBS/IS, ajustes de base
// y elegibilidad de crédito, con la auditoría completa de cada regla evaluada.
package ibs

import (
	"github.com/shopspring/decimal"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/money"
)

// CalcInput documento a calcular, conjunto de reglas vigente y escenario opcional.
type CalcInput struct {
	Document entity.Document
	RuleSet  rules.RuleSet
	Scenario *entity.ScenarioParams
}

// Decision estado acumulado al fusionar los efectos de las reglas que aplican.
type Decision struct {
	IBSRate           decimal.Decimal `json:"ibsRate"`
	CBSRate           decimal.Decimal `json:"cbsRate"`
	ISRate            decimal.Decimal `json:"isRate"`
	TaxBaseMultiplier decimal.Decimal `json:"taxBaseMultiplier"`
	TaxBaseReduction  decimal.Decimal `json:"taxBaseReduction"`
	CreditEligible    bool            `json:"creditEligible"`
	Notes             []string        `json:"notes,omitempty"`
}

// NeutralDecision punto de partida: alícuotas cero, multiplicador 1, sin reducción ni crédito.
func NeutralDecision() Decision {
	return Decision{
		IBSRate:           money.Zero,
		CBSRate:           money.Zero,
		ISRate:            money.Zero,
		TaxBaseMultiplier: money.One,
		TaxBaseReduction:  money.Zero,
	}
}

// Apply sobrescribe solo los campos que el efecto define.
func (d Decision) Apply(e rules.Effect) Decision {
	if e.IBSRate != nil {
		d.IBSRate = *e.IBSRate
	}
	if e.CBSRate != nil {
		d.CBSRate = *e.CBSRate
	}
	if e.ISRate != nil {
		d.ISRate = *e.ISRate
	}
	if e.TaxBaseMultiplier != nil {
		d.TaxBaseMultiplier = *e.TaxBaseMultiplier
	}
	if e.TaxBaseReduction != nil {
		d.TaxBaseReduction = *e.TaxBaseReduction
	}
	if e.CreditEligible != nil {
		d.CreditEligible = *e.CreditEligible
	}
	if e.Notes != nil && *e.Notes != "" {
		notes := make([]string, len(d.Notes), len(d.Notes)+1)
		copy(notes, d.Notes)
		d.Notes = append(notes, *e.Notes)
	}
	return d
}

// AuditEntry registro de la evaluación de una regla sobre un ítem.
type AuditEntry struct {
	RuleID      string        `json:"ruleId"`
	Description string        `json:"description,omitempty"`
	Priority    int           `json:"priority"`
	Matched     bool          `json:"matched"`
	Reason      string        `json:"reason"`
	Effect      *rules.Effect `json:"effect,omitempty"`
}

// ItemResult resultado del régimen nuevo para un ítem.
type ItemResult struct {
	ItemID         string          `json:"itemId"`
	LineNumber     int             `json:"lineNumber"`
	NCM            string          `json:"ncm"`
	Category       string          `json:"category"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	TaxBase        decimal.Decimal `json:"taxBase"`
	IBSRate        decimal.Decimal `json:"ibsRate"`
	CBSRate        decimal.Decimal `json:"cbsRate"`
	ISRate         decimal.Decimal `json:"isRate"`
	IBSValue       decimal.Decimal `json:"ibsValue"`
	CBSValue       decimal.Decimal `json:"cbsValue"`
	ISValue        decimal.Decimal `json:"isValue"`
	TotalTax       decimal.Decimal `json:"totalTax"`
	CreditEligible bool            `json:"creditEligible"`
	SimulatedPrice decimal.Decimal `json:"simulatedPrice"`
	Notes          []string        `json:"notes,omitempty"`
	Audit          []AuditEntry    `json:"audit"`
}

// Summary totales del documento en el régimen nuevo.
type Summary struct {
	ItemCount      int             `json:"itemCount"`
	TaxBase        decimal.Decimal `json:"taxBase"`
	IBSTotal       decimal.Decimal `json:"ibsTotal"`
	CBSTotal       decimal.Decimal `json:"cbsTotal"`
	ISTotal        decimal.Decimal `json:"isTotal"`
	TotalTax       decimal.Decimal `json:"totalTax"`
	CreditTotal    decimal.Decimal `json:"creditTotal"`
	SimulatedTotal decimal.Decimal `json:"simulatedTotal"`
	EffectiveRate  decimal.Decimal `json:"effectiveRate"`
}

// AppliedScenario parámetros efectivamente usados (con defaults resueltos).
type AppliedScenario struct {
	TransitionFactor        decimal.Decimal  `json:"transitionFactor"`
	PricePassThroughPercent decimal.Decimal  `json:"pricePassThroughPercent"`
	OverrideIBSRate         *decimal.Decimal `json:"overrideIbsRate,omitempty"`
	OverrideCBSRate         *decimal.Decimal `json:"overrideCbsRate,omitempty"`
	OverrideISRate          *decimal.Decimal `json:"overrideIsRate,omitempty"`
}

// CalcOutput resultado del motor: un ItemResult por ítem, en el orden del documento.
type CalcOutput struct {
	RuleSetID string          `json:"ruleSetId,omitempty"`
	Scenario  AppliedScenario `json:"scenario"`
	Items     []ItemResult    `json:"items"`
	Summary   Summary         `json:"summary"`
}

// Calculate aplica el conjunto de reglas a cada ítem del documento.
// Entrada inválida devuelve un error que envuelve domain.ErrInvalidInput y no calcula nada.
func Calculate(in CalcInput) (CalcOutput, error) {
	if err := Validate(in); err != nil {
		return CalcOutput{}, err
	}
	scenario := resolveScenario(in.Scenario)
	sorted := in.RuleSet.Sorted()
	doc := in.Document

	out := CalcOutput{
		RuleSetID: in.RuleSet.ID,
		Scenario:  scenario,
		Items:     make([]ItemResult, 0, len(doc.Items)),
	}
	for _, item := range doc.Items {
		out.Items = append(out.Items, calculateItem(doc, item, sorted, scenario))
	}
	out.Summary = summarize(doc, out.Items)
	return out, nil
}

func calculateItem(doc entity.Document, item entity.DocumentItem, sorted []rules.Rule, sc AppliedScenario) ItemResult {
	ctx := ItemContext(doc, item)
	decision := NeutralDecision()
	audit := make([]AuditEntry, 0, len(sorted))
	for _, r := range sorted {
		ev := rules.Evaluate(r.Condition, ctx)
		entry := AuditEntry{
			RuleID:      r.ID,
			Description: r.Description,
			Priority:    r.Priority,
			Matched:     ev.Matched,
			Reason:      ev.Reason,
		}
		if ev.Matched {
			effect := r.Effect
			entry.Effect = &effect
			decision = decision.Apply(effect)
		}
		audit = append(audit, entry)
	}

	ibsRate := scaleRate(decision.IBSRate, sc.TransitionFactor, sc.OverrideIBSRate)
	cbsRate := scaleRate(decision.CBSRate, sc.TransitionFactor, sc.OverrideCBSRate)
	isRate := scaleRate(decision.ISRate, sc.TransitionFactor, sc.OverrideISRate)

	reduced := money.NonNegative(item.TotalValue.Sub(decision.TaxBaseReduction))
	taxBase := money.Mul(reduced, decision.TaxBaseMultiplier)

	ibsValue := money.Mul(taxBase, ibsRate)
	cbsValue := money.Mul(taxBase, cbsRate)
	isValue := money.Mul(taxBase, isRate)
	totalTax := money.Sum(ibsValue, cbsValue, isValue)

	simulated := money.Round2(taxBase.Add(money.Percent(ibsValue.Add(cbsValue).Add(isValue), sc.PricePassThroughPercent)))

	return ItemResult{
		ItemID:         item.ID,
		LineNumber:     item.LineNumber,
		NCM:            item.NCM,
		Category:       ctx.Category,
		TotalValue:     item.TotalValue,
		TaxBase:        taxBase,
		IBSRate:        ibsRate,
		CBSRate:        cbsRate,
		ISRate:         isRate,
		IBSValue:       ibsValue,
		CBSValue:       cbsValue,
		ISValue:        isValue,
		TotalTax:       totalTax,
		CreditEligible: decision.CreditEligible,
		SimulatedPrice: simulated,
		Notes:          decision.Notes,
		Audit:          audit,
	}
}

// ItemContext arma el contexto de evaluación del ítem.
func ItemContext(doc entity.Document, item entity.DocumentItem) rules.Context {
	return rules.Context{
		EmitterUF:     doc.EmitterUF,
		RecipientUF:   doc.RecipientUF,
		NCM:           item.NCM,
		Category:      item.CategoryOrDefault(),
		OperationType: doc.OperationType,
		IssueDate:     doc.IssueDate,
		ItemValue:     item.TotalValue,
	}
}

// scaleRate: rate × factor (6 decimales); el override reemplaza el resultado tal cual.
func scaleRate(rate, factor decimal.Decimal, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return money.Round6(rate.Mul(factor))
}

func resolveScenario(p *entity.ScenarioParams) AppliedScenario {
	sc := AppliedScenario{TransitionFactor: money.One, PricePassThroughPercent: money.Hundred}
	if p == nil {
		return sc
	}
	if p.TransitionFactor != nil {
		sc.TransitionFactor = *p.TransitionFactor
	}
	if p.PricePassThroughPercent != nil {
		sc.PricePassThroughPercent = *p.PricePassThroughPercent
	}
	sc.OverrideIBSRate = p.OverrideRates.IBSRate
	sc.OverrideCBSRate = p.OverrideRates.CBSRate
	sc.OverrideISRate = p.OverrideRates.ISRate
	return sc
}

func summarize(doc entity.Document, items []ItemResult) Summary {
	var bases, ibsV, cbsV, isV, credit, simulated []decimal.Decimal
	for _, it := range items {
		bases = append(bases, it.TaxBase)
		ibsV = append(ibsV, it.IBSValue)
		cbsV = append(cbsV, it.CBSValue)
		isV = append(isV, it.ISValue)
		simulated = append(simulated, it.SimulatedPrice)
		if it.CreditEligible {
			credit = append(credit, it.IBSValue, it.CBSValue, it.ISValue)
		}
	}
	s := Summary{
		ItemCount:      len(items),
		TaxBase:        money.Sum(bases...),
		IBSTotal:       money.Sum(ibsV...),
		CBSTotal:       money.Sum(cbsV...),
		ISTotal:        money.Sum(isV...),
		CreditTotal:    money.Sum(credit...),
		SimulatedTotal: money.Sum(simulated...),
	}
	s.TotalTax = money.Sum(s.IBSTotal, s.CBSTotal, s.ISTotal)
	s.EffectiveRate = money.Ratio(s.TotalTax, DocumentTaxBase(doc, s.TaxBase))
	return s
}

// DocumentTaxBase valor declarado del documento; si es cero, la suma de bases de los ítems.
func DocumentTaxBase(doc entity.Document, itemBases decimal.Decimal) decimal.Decimal {
	if doc.TotalValue.IsPositive() {
		return doc.TotalValue
	}
	return itemBases
}

// Validate rechaza entradas mal formadas antes de calcular.
func Validate(in CalcInput) error {
	errs := in.Document.Validate()
	if err := rules.ValidateRuleSet(in.RuleSet); err != nil {
		for _, fe := range domain.FieldErrors(err) {
			errs = append(errs, domain.Invalid("ruleSet."+fe.Field, fe.Message))
		}
	}
	errs = append(errs, ValidateScenario(in.Scenario)...)
	return domain.JoinInvalid(errs)
}

// ValidateScenario verifica rangos del escenario de simulación.
func ValidateScenario(p *entity.ScenarioParams) []error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.TransitionFactor != nil && !money.IsRate(*p.TransitionFactor) {
		errs = append(errs, domain.Invalid("scenario.transitionFactor", "debe estar entre 0 y 1"))
	}
	if p.PricePassThroughPercent != nil {
		pct := *p.PricePassThroughPercent
		if pct.IsNegative() || pct.GreaterThan(money.Hundred) {
			errs = append(errs, domain.Invalid("scenario.pricePassThroughPercent", "debe estar entre 0 y 100"))
		}
	}
	overrides := []struct {
		name string
		v    *decimal.Decimal
	}{
		{"ibsRate", p.OverrideRates.IBSRate},
		{"cbsRate", p.OverrideRates.CBSRate},
		{"isRate", p.OverrideRates.ISRate},
	}
	for _, o := range overrides {
		if o.v != nil && !money.IsRate(*o.v) {
			errs = append(errs, domain.Invalid("scenario.overrideRates."+o.name, "debe estar entre 0 y 1"))
		}
	}
	return errs
}
