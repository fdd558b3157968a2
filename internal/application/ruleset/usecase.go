package ruleset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// UseCase administra los conjuntos de reglas del régimen nuevo.
type UseCase struct {
	repo repository.RuleSetRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.RuleSetRepository, log *logger.Logger) *UseCase {
	return &UseCase{repo: repo, log: log, now: time.Now}
}

// Create valida el conjunto y lo guarda en el ámbito de companyID ("" = global).
// Un conjunto cuya vigencia se solapa con otro del mismo ámbito devuelve domain.ErrConflict:
// la selección por fecha exige un único conjunto vigente.
func (uc *UseCase) Create(ctx context.Context, companyID string, rs rules.RuleSet) (*rules.RuleSet, error) {
	rs.CompanyID = companyID
	if err := rules.ValidateRuleSet(rs); err != nil {
		return nil, err
	}
	existing, err := uc.repo.List(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listar conjuntos: %w", err)
	}
	for _, other := range existing {
		if other.CompanyID != companyID {
			continue
		}
		if rs.ID != "" && other.ID == rs.ID {
			return nil, fmt.Errorf("%w: conjunto %s ya existe", domain.ErrDuplicate, rs.ID)
		}
		if rs.Overlaps(other) {
			return nil, fmt.Errorf("%w: la vigencia se solapa con %q (%s)", domain.ErrConflict, other.Name, other.ID)
		}
	}

	now := uc.now()
	rs.CreatedAt, rs.UpdatedAt = now, now
	if err := uc.repo.Create(ctx, &rs); err != nil {
		return nil, fmt.Errorf("guardar conjunto: %w", err)
	}
	uc.log.Info().
		Str("rule_set_id", rs.ID).
		Str("company_id", companyID).
		Int("rules", len(rs.Rules)).
		Msg("conjunto de reglas creado")
	return &rs, nil
}

// List conjuntos visibles para la empresa (propios + globales).
func (uc *UseCase) List(ctx context.Context, companyID string) ([]rules.RuleSet, error) {
	list, err := uc.repo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []rules.RuleSet{}
	}
	return list, nil
}

// Get devuelve un conjunto visible para la empresa.
func (uc *UseCase) Get(ctx context.Context, companyID, id string) (*rules.RuleSet, error) {
	rs, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rs == nil || (rs.CompanyID != "" && rs.CompanyID != companyID) {
		return nil, domain.ErrNotFound
	}
	return rs, nil
}

// ActiveAt resuelve el único conjunto vigente en la fecha.
// Ninguno = domain.ErrMissingConfiguration; más de uno = domain.ErrConflict.
func (uc *UseCase) ActiveAt(ctx context.Context, companyID string, at time.Time) (*rules.RuleSet, error) {
	return ResolveActive(ctx, uc.repo, companyID, at)
}

// ResolveActive selección compartida con el caso de uso de cálculo.
func ResolveActive(ctx context.Context, repo repository.RuleSetRepository, companyID string, at time.Time) (*rules.RuleSet, error) {
	sets, err := repo.ListActiveAt(ctx, companyID, at)
	if err != nil {
		return nil, fmt.Errorf("conjuntos vigentes: %w", err)
	}
	rs, err := rules.SelectActive(sets, at)
	switch {
	case errors.Is(err, rules.ErrNoActiveRuleSet):
		return nil, fmt.Errorf("%w: %v (%s)", domain.ErrMissingConfiguration, err, at.Format(time.DateOnly))
	case errors.Is(err, rules.ErrAmbiguousActiveRuleSet):
		return nil, fmt.Errorf("%w: %v (%s)", domain.ErrConflict, err, at.Format(time.DateOnly))
	case err != nil:
		return nil, err
	}
	return rs, nil
}
