package dto

import "time"

// CreateCompanyRequest entrada para crear una empresa (contribuyente).
type CreateCompanyRequest struct {
	Name  string `json:"name"`
	CNPJ  string `json:"cnpj"`
	UF    string `json:"uf"`
	Email string `json:"email"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CNPJ      string    `json:"cnpj"`
	UF        string    `json:"uf"`
	Email     string    `json:"email,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
