package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
)

var _ repository.CalculationRepository = (*CalculationRepo)(nil)

const calculationColumns = `id, company_id, document_id, rule_set_id, uf_config_id, issue_year,
	ibs_total, cbs_total, is_total, credit_total, legacy_total, total_tax, effective_rate,
	unsupported_items, summary, created_by, created_at`

// CalculationRepo cálculos persistidos: totales planos en columnas y componentes en JSONB.
type CalculationRepo struct {
	q Querier
}

// NewCalculationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCalculationRepository(q Querier) *CalculationRepo {
	return &CalculationRepo{q: q}
}

// Create persiste cabecera e ítems en una transacción.
func (r *CalculationRepo) Create(ctx context.Context, calc *entity.Calculation) error {
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	return withTx(ctx, r.q, func(tx pgx.Tx) error {
		query := `INSERT INTO calculations (` + calculationColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
		_, err := tx.Exec(ctx, query,
			calc.ID, calc.CompanyID, calc.DocumentID, calc.RuleSetID, nullIfEmpty(calc.UfConfigID), calc.IssueYear,
			calc.IBSTotal, calc.CBSTotal, calc.ISTotal, calc.CreditTotal, calc.LegacyTotal, calc.TotalTax,
			calc.EffectiveRate, calc.Unsupported, []byte(calc.Summary), nullIfEmpty(calc.CreatedBy), calc.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert calculation: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range calc.Items {
			it := &calc.Items[i]
			if it.ID == "" {
				it.ID = uuid.New().String()
			}
			it.CalculationID = calc.ID
			batch.Queue(`
				INSERT INTO calculation_items (id, calculation_id, document_item_id, line_number, total_tax, components)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				it.ID, it.CalculationID, it.DocumentItemID, it.LineNumber, it.TotalTax, []byte(it.Components),
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert calculation items: %w", err)
		}
		return nil
	})
}

// GetByID obtiene el cálculo con sus ítems; (nil, nil) si no existe.
func (r *CalculationRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Calculation, error) {
	query := `SELECT ` + calculationColumns + ` FROM calculations WHERE company_id = $1 AND id = $2`
	calc, err := scanCalculation(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get calculation: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, calculation_id, document_item_id, line_number, total_tax, components
		FROM calculation_items WHERE calculation_id = $1 ORDER BY line_number, id`, calc.ID)
	if err != nil {
		return nil, fmt.Errorf("list calculation items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it         entity.CalculationItem
			components []byte
		)
		if err := rows.Scan(&it.ID, &it.CalculationID, &it.DocumentItemID, &it.LineNumber, &it.TotalTax, &components); err != nil {
			return nil, fmt.Errorf("scan calculation item: %w", err)
		}
		it.Components = components
		calc.Items = append(calc.Items, it)
	}
	return calc, rows.Err()
}

// ListByDocument cabeceras del documento, más recientes primero.
func (r *CalculationRepo) ListByDocument(ctx context.Context, companyID, documentID string) ([]*entity.Calculation, error) {
	query := `SELECT ` + calculationColumns + ` FROM calculations
		WHERE company_id = $1 AND document_id = $2 ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, companyID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCalculation(row pgx.Row) (*entity.Calculation, error) {
	var (
		c                     entity.Calculation
		ufConfigID, createdBy *string
		summary               []byte
	)
	err := row.Scan(&c.ID, &c.CompanyID, &c.DocumentID, &c.RuleSetID, &ufConfigID, &c.IssueYear,
		&c.IBSTotal, &c.CBSTotal, &c.ISTotal, &c.CreditTotal, &c.LegacyTotal, &c.TotalTax, &c.EffectiveRate,
		&c.Unsupported, &summary, &createdBy, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.UfConfigID, c.CreatedBy = derefString(ufConfigID), derefString(createdBy)
	c.Summary = summary
	return &c, nil
}
