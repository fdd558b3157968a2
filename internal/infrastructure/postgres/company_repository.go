package postgres

import (
	"context"
	"fmt"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	query := `
		INSERT INTO companies (id, name, cnpj, uf, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.CNPJ, company.UF, nullIfEmpty(company.Email), company.Status,
		company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cnpj %s: %w", company.CNPJ, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return r.getOne(ctx, "get company", `WHERE id = $1`, id)
}

// GetByCNPJ obtiene una empresa por CNPJ.
func (r *CompanyRepo) GetByCNPJ(ctx context.Context, cnpj string) (*entity.Company, error) {
	return r.getOne(ctx, "get company by CNPJ", `WHERE cnpj = $1`, cnpj)
}

func (r *CompanyRepo) getOne(ctx context.Context, op, where string, args ...any) (*entity.Company, error) {
	query := `SELECT id, name, cnpj, uf, email, status, created_at, updated_at FROM companies ` + where
	var (
		c     entity.Company
		email *string
	)
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.Name, &c.CNPJ, &c.UF, &email, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.Email = derefString(email)
	return &c, nil
}
