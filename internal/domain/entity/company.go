package entity

import "time"

// Company contribuyente (tenant) dueño de documentos, cálculos y conjuntos de reglas propios.
type Company struct {
	ID        string
	Name      string
	CNPJ      string // 14 dígitos, sin máscara
	UF        string // UF del establecimiento principal
	Email     string
	Status    string // active, suspended
	CreatedAt time.Time
	UpdatedAt time.Time
}
