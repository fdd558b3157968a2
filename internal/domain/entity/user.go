package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"    // administra reglas y configuración fiscal
	RoleAnalista = "analista" // crea documentos y ejecuta cálculos
	RoleConsulta = "consulta" // solo lectura
)

// Estados de usuario.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario del sistema (pertenece a una Company).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, analista, consulta
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidRole indica si el rol es uno de los conocidos.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAnalista, RoleConsulta:
		return true
	}
	return false
}

// Roles lista los roles conocidos.
func Roles() []string {
	return []string{RoleAdmin, RoleAnalista, RoleConsulta}
}
