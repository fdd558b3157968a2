package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/transition"
)

// ScenarioRequest parámetros de simulación sobre el régimen nuevo. Campos nil = por defecto.
type ScenarioRequest struct {
	TransitionFactor        *decimal.Decimal     `json:"transitionFactor"`
	PricePassThroughPercent *decimal.Decimal     `json:"pricePassThroughPercent"`
	OverrideRates           OverrideRatesRequest `json:"overrideRates"`
}

// OverrideRatesRequest reemplazo absoluto de alícuotas.
type OverrideRatesRequest struct {
	IBSRate *decimal.Decimal `json:"ibsRate"`
	CBSRate *decimal.Decimal `json:"cbsRate"`
	ISRate  *decimal.Decimal `json:"isRate"`
}

// CalculationResponse cálculo persistido con sus componentes.
type CalculationResponse struct {
	ID            string                                 `json:"id"`
	DocumentID    string                                 `json:"documentId"`
	RuleSetID     string                                 `json:"ruleSetId"`
	UfConfigID    string                                 `json:"ufConfigId,omitempty"`
	IssueYear     int                                    `json:"issueYear"`
	IBSTotal      decimal.Decimal                        `json:"ibsTotal"`
	CBSTotal      decimal.Decimal                        `json:"cbsTotal"`
	ISTotal       decimal.Decimal                        `json:"isTotal"`
	CreditTotal   decimal.Decimal                        `json:"creditTotal"`
	LegacyTotal   decimal.Decimal                        `json:"legacyTotal"`
	TotalTax      decimal.Decimal                        `json:"totalTax"`
	EffectiveRate decimal.Decimal                        `json:"effectiveRate"`
	Unsupported   int                                    `json:"unsupportedItems"`
	Summary       *transition.PersistedSummaryComponents `json:"summary,omitempty"`
	Items         []transition.PersistedItemComponents   `json:"items,omitempty"`
	CreatedAt     time.Time                              `json:"createdAt"`
}

// CalculationListResponse cálculos de un documento (solo cabecera).
type CalculationListResponse struct {
	Items []CalculationResponse `json:"items"`
}

// SimulationResponse resultado no persistido de una simulación.
type SimulationResponse struct {
	transition.TransitionCalcOutput
}
