package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// UfConfigRequest configuración ICMS del par ordenado de UF. Fechas YYYY-MM-DD.
type UfConfigRequest struct {
	EmitterUF      string          `json:"emitterUf"`
	RecipientUF    string          `json:"recipientUf"`
	InternalRate   decimal.Decimal `json:"internalRate"`
	InterstateRate decimal.Decimal `json:"interstateRate"`
	STRate         decimal.Decimal `json:"stRate"`
	STMva          decimal.Decimal `json:"stMva"`
	DifalEnabled   bool            `json:"difalEnabled"`
	STEnabled      bool            `json:"stEnabled"`
	ValidFrom      string          `json:"validFrom"`
	ValidTo        string          `json:"validTo"`
}

// UfConfigResponse salida de una configuración de UF.
type UfConfigResponse struct {
	ID             string          `json:"id"`
	EmitterUF      string          `json:"emitterUf"`
	RecipientUF    string          `json:"recipientUf"`
	InternalRate   decimal.Decimal `json:"internalRate"`
	InterstateRate decimal.Decimal `json:"interstateRate"`
	STRate         decimal.Decimal `json:"stRate"`
	STMva          decimal.Decimal `json:"stMva"`
	DifalEnabled   bool            `json:"difalEnabled"`
	STEnabled      bool            `json:"stEnabled"`
	ValidFrom      string          `json:"validFrom"`
	ValidTo        string          `json:"validTo,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// IcmsRateRequest entrada de la tabla de alícuotas. NCM/categoría vacíos = comodín.
type IcmsRateRequest struct {
	UF        string          `json:"uf"`
	NCM       string          `json:"ncm"`
	Category  string          `json:"category"`
	Rate      decimal.Decimal `json:"rate"`
	ValidFrom string          `json:"validFrom"`
	ValidTo   string          `json:"validTo"`
}

// IcmsRateResponse salida de una alícuota.
type IcmsRateResponse struct {
	ID        string          `json:"id"`
	UF        string          `json:"uf"`
	NCM       string          `json:"ncm,omitempty"`
	Category  string          `json:"category,omitempty"`
	Rate      decimal.Decimal `json:"rate"`
	ValidFrom string          `json:"validFrom"`
	ValidTo   string          `json:"validTo,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
