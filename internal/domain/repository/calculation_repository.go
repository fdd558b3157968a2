package repository

import (
	"context"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
)

// CalculationRepository persistencia de cálculos con sus componentes por ítem.
type CalculationRepository interface {
	// Create guarda la cabecera y los ítems en una sola transacción.
	Create(ctx context.Context, calc *entity.Calculation) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Calculation, error)
	// ListByDocument devuelve cabeceras (sin ítems), más recientes primero.
	ListByDocument(ctx context.Context, companyID, documentID string) ([]*entity.Calculation, error)
}
