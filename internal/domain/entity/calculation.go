package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Calculation resultado persistido de una orquestación de transición para un documento.
// Las columnas planas guardan los totales de cabecera; Summary e Items guardan los
// componentes completos (pesos, régimen vigente, régimen nuevo, transición) como JSON.
type Calculation struct {
	ID            string
	CompanyID     string
	DocumentID    string
	RuleSetID     string
	UfConfigID    string // vacío si no hubo configuración vigente
	IssueYear     int
	IBSTotal      decimal.Decimal
	CBSTotal      decimal.Decimal
	ISTotal       decimal.Decimal
	CreditTotal   decimal.Decimal
	LegacyTotal   decimal.Decimal
	TotalTax      decimal.Decimal // total ponderado de la transición
	EffectiveRate decimal.Decimal // tasa efectiva ponderada de la transición
	Unsupported   int             // ítems con cobertura incompleta en el régimen vigente
	Summary       json.RawMessage
	Items         []CalculationItem
	CreatedBy     string
	CreatedAt     time.Time
}

// CalculationItem componentes persistidos de un ítem.
type CalculationItem struct {
	ID             string
	CalculationID  string
	DocumentItemID string
	LineNumber     int
	TotalTax       decimal.Decimal
	Components     json.RawMessage
}
