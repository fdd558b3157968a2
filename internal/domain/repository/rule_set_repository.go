package repository

import (
	"context"
	"time"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
)

// RuleSetRepository persistencia de conjuntos de reglas del régimen nuevo.
// Un CompanyID vacío identifica conjuntos globales.
type RuleSetRepository interface {
	Create(ctx context.Context, rs *rules.RuleSet) error
	GetByID(ctx context.Context, id string) (*rules.RuleSet, error)
	// List devuelve los conjuntos propios de la empresa más los globales.
	List(ctx context.Context, companyID string) ([]rules.RuleSet, error)
	// ListActiveAt devuelve los conjuntos (de la empresa, o globales si no tiene propios) vigentes en la fecha.
	ListActiveAt(ctx context.Context, companyID string, at time.Time) ([]rules.RuleSet, error)
}
