package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDocumentRequest entrada para registrar un documento fiscal con sus ítems.
// IssueDate en formato YYYY-MM-DD o RFC3339.
type CreateDocumentRequest struct {
	Number        string                `json:"number"`
	Series        string                `json:"series"`
	AccessKey     string                `json:"accessKey"`
	IssueDate     string                `json:"issueDate"`
	EmitterUF     string                `json:"emitterUf"`
	RecipientUF   string                `json:"recipientUf"`
	OperationType string                `json:"operationType"`
	TotalValue    decimal.Decimal       `json:"totalValue"`
	Items         []DocumentItemRequest `json:"items"`
}

// DocumentItemRequest línea del documento. LineNumber cero = posición en la lista;
// TotalValue cero = quantity × unitValue.
type DocumentItemRequest struct {
	LineNumber  int             `json:"lineNumber"`
	Description string          `json:"description"`
	NCM         string          `json:"ncm"`
	CFOP        string          `json:"cfop"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unitValue"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Category    string          `json:"category"`
}

// DocumentResponse salida de un documento.
type DocumentResponse struct {
	ID            string                 `json:"id"`
	CompanyID     string                 `json:"companyId"`
	Number        string                 `json:"number"`
	Series        string                 `json:"series,omitempty"`
	AccessKey     string                 `json:"accessKey,omitempty"`
	IssueDate     string                 `json:"issueDate"`
	EmitterUF     string                 `json:"emitterUf"`
	RecipientUF   string                 `json:"recipientUf"`
	OperationType string                 `json:"operationType"`
	TotalValue    decimal.Decimal        `json:"totalValue"`
	Items         []DocumentItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// DocumentItemResponse salida de un ítem.
type DocumentItemResponse struct {
	ID          string          `json:"id"`
	LineNumber  int             `json:"lineNumber"`
	Description string          `json:"description"`
	NCM         string          `json:"ncm"`
	CFOP        string          `json:"cfop,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unitValue"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Category    string          `json:"category,omitempty"`
}

// DocumentListResponse lista paginada de documentos (sin ítems).
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
