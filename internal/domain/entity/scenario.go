package entity

import "github.com/shopspring/decimal"

// ScenarioParams capa opcional de simulación sobre el régimen nuevo.
// Campos nil = valor por defecto (factor 1, repasse 100%, sin override).
type ScenarioParams struct {
	TransitionFactor        *decimal.Decimal // 0..1, escala IBS/CBS/IS antes del override
	PricePassThroughPercent *decimal.Decimal // 0..100
	OverrideRates           OverrideRates
}

// OverrideRates reemplazo absoluto de las alícuotas finales; ignora TransitionFactor.
type OverrideRates struct {
	IBSRate *decimal.Decimal
	CBSRate *decimal.Decimal
	ISRate  *decimal.Decimal
}
