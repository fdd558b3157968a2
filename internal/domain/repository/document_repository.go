package repository

import (
	"context"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
)

// DocumentRepository persistencia de documentos fiscales con sus ítems.
type DocumentRepository interface {
	// Create guarda cabecera e ítems en una sola transacción.
	Create(ctx context.Context, doc *entity.Document) error
	// GetByID devuelve el documento con sus ítems ordenados por línea; (nil, nil) si no existe.
	GetByID(ctx context.Context, companyID, id string) (*entity.Document, error)
	GetByAccessKey(ctx context.Context, companyID, accessKey string) (*entity.Document, error)
	List(ctx context.Context, companyID string, limit, offset int) ([]*entity.Document, error)
}
