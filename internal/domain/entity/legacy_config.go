package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegacyUfConfig parámetros ICMS del régimen vigente para el par ordenado (UF emisor, UF destino).
// InternalRate es la alícuota interna del destino; InterstateRate la alícuota interestatal del par.
type LegacyUfConfig struct {
	ID             string
	EmitterUF      string
	RecipientUF    string
	InternalRate   decimal.Decimal
	InterstateRate decimal.Decimal
	STRate         decimal.Decimal
	STMva          decimal.Decimal // margen de valor agregado (0.40 = 40%)
	DifalEnabled   bool
	STEnabled      bool
	ValidFrom      time.Time
	ValidTo        *time.Time // nil = sin vencimiento
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ActiveAt indica si la configuración está vigente en la fecha dada.
func (c LegacyUfConfig) ActiveAt(t time.Time) bool {
	return withinWindow(c.ValidFrom, c.ValidTo, t)
}

// LegacyIcmsRate entrada de la tabla de alícuotas ICMS. NCM y Category vacíos = comodín.
type LegacyIcmsRate struct {
	ID        string
	UF        string
	NCM       string
	Category  string
	Rate      decimal.Decimal
	ValidFrom time.Time
	ValidTo   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveAt indica si la alícuota está vigente en la fecha dada.
func (r LegacyIcmsRate) ActiveAt(t time.Time) bool {
	return withinWindow(r.ValidFrom, r.ValidTo, t)
}

// withinWindow compara por día calendario: [from, to] inclusivo.
func withinWindow(from time.Time, to *time.Time, t time.Time) bool {
	day := truncateDay(t)
	if day.Before(truncateDay(from)) {
		return false
	}
	if to != nil && day.After(truncateDay(*to)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
