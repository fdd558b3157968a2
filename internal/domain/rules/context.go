package rules

import (
	"time"

	"github.com/shopspring/decimal"
)

// Context valores del ítem disponibles para las comparaciones.
type Context struct {
	EmitterUF     string
	RecipientUF   string
	NCM           string
	Category      string
	OperationType string
	IssueDate     time.Time
	ItemValue     decimal.Decimal
}

// Lookup devuelve el valor del campo; ok=false si el campo no existe.
func (c Context) Lookup(f Field) (any, bool) {
	switch f {
	case FieldEmitterUF:
		return c.EmitterUF, true
	case FieldRecipientUF:
		return c.RecipientUF, true
	case FieldNCM:
		return c.NCM, true
	case FieldCategory:
		return c.Category, true
	case FieldOperationType:
		return c.OperationType, true
	case FieldIssueDate:
		return c.IssueDate, true
	case FieldItemValue:
		return c.ItemValue, true
	default:
		return nil, false
	}
}
