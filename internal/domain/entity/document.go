package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de operación fiscal del documento.
const (
	OperationSale     = "VENDA"
	OperationTransfer = "TRANSFERENCIA"
	OperationReturn   = "DEVOLUCAO"
	OperationService  = "SERVICO"
)

// DefaultCategory categoría asignada a ítems sin clasificación.
const DefaultCategory = "unclassified"

// Document representa la cabecera de un documento fiscal (NF-e o equivalente) a estimar.
type Document struct {
	ID            string
	CompanyID     string
	Number        string
	Series        string
	AccessKey     string // chave de acesso NF-e (44 dígitos), opcional
	IssueDate     time.Time
	EmitterUF     string
	RecipientUF   string
	OperationType string
	TotalValue    decimal.Decimal // valor total declarado; puede ser cero
	Items         []DocumentItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DocumentItem línea del documento. Inmutable durante el cálculo.
type DocumentItem struct {
	ID          string
	DocumentID  string
	LineNumber  int
	Description string
	NCM         string
	CFOP        string // opcional
	Quantity    decimal.Decimal
	UnitValue   decimal.Decimal
	TotalValue  decimal.Decimal
	Category    string // opcional
}

// IsInterstate indica si emisor y destinatario están en UF distintas.
func (d *Document) IsInterstate() bool {
	return d.EmitterUF != d.RecipientUF
}

// IssueYear año de emisión usado para los pesos de transición.
func (d *Document) IssueYear() int {
	return d.IssueDate.Year()
}

// ItemsTotal suma de los valores totales de los ítems.
func (d *Document) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.Items {
		total = total.Add(it.TotalValue)
	}
	return total
}

// CategoryOrDefault devuelve la categoría del ítem o DefaultCategory.
func (i DocumentItem) CategoryOrDefault() string {
	if i.Category == "" {
		return DefaultCategory
	}
	return i.Category
}
