package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
)

var _ repository.RuleSetRepository = (*RuleSetRepo)(nil)

const ruleSetColumns = `id, company_id, name, valid_from, valid_to, rules, created_at, updated_at`

// RuleSetRepo conjuntos de reglas; las reglas se guardan como JSONB en su forma canónica.
type RuleSetRepo struct {
	q Querier
}

// NewRuleSetRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRuleSetRepository(q Querier) *RuleSetRepo {
	return &RuleSetRepo{q: q}
}

// Create persiste el conjunto. Asigna ID si falta.
func (r *RuleSetRepo) Create(ctx context.Context, rs *rules.RuleSet) error {
	if rs.ID == "" {
		rs.ID = uuid.New().String()
	}
	ruleList := rs.Rules
	if ruleList == nil {
		ruleList = []rules.Rule{}
	}
	payload, err := json.Marshal(ruleList)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	query := `INSERT INTO rule_sets (` + ruleSetColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.q.Exec(ctx, query,
		rs.ID, nullIfEmpty(rs.CompanyID), rs.Name, dateOnly(rs.ValidFrom), dateOnlyPtr(rs.ValidTo),
		payload, rs.CreatedAt, rs.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rule set: %w", err)
	}
	return nil
}

// GetByID obtiene un conjunto por ID; (nil, nil) si no existe.
func (r *RuleSetRepo) GetByID(ctx context.Context, id string) (*rules.RuleSet, error) {
	rs, err := scanRuleSet(r.q.QueryRow(ctx, `SELECT `+ruleSetColumns+` FROM rule_sets WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rule set: %w", err)
	}
	return rs, nil
}

// List conjuntos de la empresa más los globales, por vigencia.
func (r *RuleSetRepo) List(ctx context.Context, companyID string) ([]rules.RuleSet, error) {
	query := `SELECT ` + ruleSetColumns + ` FROM rule_sets
		WHERE company_id IS NULL OR company_id = $1
		ORDER BY valid_from DESC, created_at DESC`
	return r.list(ctx, query, nullIfEmpty(companyID))
}

// ListActiveAt conjuntos vigentes en la fecha. Si la empresa tiene conjuntos propios
// vigentes, los globales se ignoran.
func (r *RuleSetRepo) ListActiveAt(ctx context.Context, companyID string, at time.Time) ([]rules.RuleSet, error) {
	query := `
		WITH vigentes AS (
			SELECT ` + ruleSetColumns + ` FROM rule_sets
			WHERE (company_id IS NULL OR company_id = $1)
			  AND valid_from <= $2 AND (valid_to IS NULL OR valid_to >= $2)
		)
		SELECT * FROM vigentes
		WHERE company_id IS NOT NULL
		   OR NOT EXISTS (SELECT 1 FROM vigentes WHERE company_id IS NOT NULL)
		ORDER BY valid_from DESC`
	return r.list(ctx, query, nullIfEmpty(companyID), dateOnly(at))
}

func (r *RuleSetRepo) list(ctx context.Context, query string, args ...any) ([]rules.RuleSet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rule sets: %w", err)
	}
	defer rows.Close()
	var list []rules.RuleSet
	for rows.Next() {
		rs, err := scanRuleSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule set: %w", err)
		}
		list = append(list, *rs)
	}
	return list, rows.Err()
}

func scanRuleSet(row pgx.Row) (*rules.RuleSet, error) {
	var (
		rs        rules.RuleSet
		companyID *string
		payload   []byte
	)
	if err := row.Scan(&rs.ID, &companyID, &rs.Name, &rs.ValidFrom, &rs.ValidTo, &payload, &rs.CreatedAt, &rs.UpdatedAt); err != nil {
		return nil, err
	}
	rs.CompanyID = derefString(companyID)
	if err := json.Unmarshal(payload, &rs.Rules); err != nil {
		return nil, fmt.Errorf("decode rules of %s: %w", rs.ID, err)
	}
	return &rs, nil
}
