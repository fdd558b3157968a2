package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

const documentColumns = `id, company_id, number, series, access_key, issue_date, emitter_uf, recipient_uf,
	operation_type, total_value, created_at, updated_at`

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// Create persiste cabecera e ítems en una transacción. Asigna IDs faltantes.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		query := `INSERT INTO documents (` + documentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
		_, err := tx.Exec(ctx, query,
			doc.ID, doc.CompanyID, doc.Number, doc.Series, nullIfEmpty(doc.AccessKey), dateOnly(doc.IssueDate),
			doc.EmitterUF, doc.RecipientUF, doc.OperationType, doc.TotalValue, doc.CreatedAt, doc.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("documento %s: %w", doc.AccessKey, domain.ErrDuplicate)
			}
			return fmt.Errorf("insert document: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range doc.Items {
			it := &doc.Items[i]
			if it.ID == "" {
				it.ID = uuid.New().String()
			}
			it.DocumentID = doc.ID
			batch.Queue(`
				INSERT INTO document_items (id, document_id, line_number, description, ncm, cfop, quantity, unit_value, total_value, category)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				it.ID, it.DocumentID, it.LineNumber, it.Description, it.NCM, nullIfEmpty(it.CFOP),
				it.Quantity, it.UnitValue, it.TotalValue, nullIfEmpty(it.Category),
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert document items: %w", err)
		}
		return nil
	})
}

// GetByID obtiene el documento con sus ítems.
func (r *DocumentRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Document, error) {
	return r.getOne(ctx, `WHERE company_id = $1 AND id = $2`, companyID, id)
}

// GetByAccessKey obtiene el documento por chave de acesso.
func (r *DocumentRepo) GetByAccessKey(ctx context.Context, companyID, accessKey string) (*entity.Document, error) {
	return r.getOne(ctx, `WHERE company_id = $1 AND access_key = $2`, companyID, accessKey)
}

// List devuelve cabeceras (sin ítems) con paginación.
func (r *DocumentRepo) List(ctx context.Context, companyID string, limit, offset int) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE company_id = $1
		ORDER BY issue_date DESC, created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var list []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func (r *DocumentRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Document, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents `+where, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	items, err := r.items(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Items = items
	return doc, nil
}

func (r *DocumentRepo) items(ctx context.Context, documentID string) ([]entity.DocumentItem, error) {
	query := `
		SELECT id, document_id, line_number, description, ncm, cfop, quantity, unit_value, total_value, category
		FROM document_items WHERE document_id = $1 ORDER BY line_number, id`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document items: %w", err)
	}
	defer rows.Close()
	var items []entity.DocumentItem
	for rows.Next() {
		var (
			it             entity.DocumentItem
			cfop, category *string
		)
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.LineNumber, &it.Description, &it.NCM, &cfop,
			&it.Quantity, &it.UnitValue, &it.TotalValue, &category); err != nil {
			return nil, fmt.Errorf("scan document item: %w", err)
		}
		it.CFOP, it.Category = derefString(cfop), derefString(category)
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		d         entity.Document
		accessKey *string
	)
	err := row.Scan(&d.ID, &d.CompanyID, &d.Number, &d.Series, &accessKey, &d.IssueDate, &d.EmitterUF,
		&d.RecipientUF, &d.OperationType, &d.TotalValue, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.AccessKey = derefString(accessKey)
	return &d, nil
}
