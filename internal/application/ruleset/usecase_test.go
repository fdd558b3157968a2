package ruleset_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/ruleset"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/memory"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

func day(y, m, dd int) time.Time { return time.Date(y, time.Month(m), dd, 0, 0, 0, 0, time.UTC) }

func conjunto(id, name string, from time.Time, to *time.Time) rules.RuleSet {
	rate := decimal.RequireFromString("0.17")
	return rules.RuleSet{
		ID: id, Name: name, ValidFrom: from, ValidTo: to,
		Rules: []rules.Rule{{ID: "padrao", Priority: 1, Condition: rules.Always(), Effect: rules.Effect{IBSRate: &rate}}},
	}
}

func newUseCase() (*ruleset.UseCase, *memory.RuleSetRepo) {
	repo := memory.NewRuleSetRepo()
	return ruleset.NewUseCase(repo, logger.Nop()), repo
}

// ── Create ──

func TestCreate_Valido(t *testing.T) {
	uc, _ := newUseCase()
	fin := day(2032, 12, 31)
	rs, err := uc.Create(context.Background(), "", conjunto("rs-1", "transição", day(2029, 1, 1), &fin))
	require.NoError(t, err)
	assert.Equal(t, "rs-1", rs.ID)
	assert.Empty(t, rs.CompanyID)
	assert.False(t, rs.CreatedAt.IsZero())
}

func TestCreate_AsignaIDSiFalta(t *testing.T) {
	uc, _ := newUseCase()
	rs, err := uc.Create(context.Background(), "empresa-1", conjunto("", "propio", day(2029, 1, 1), nil))
	require.NoError(t, err)
	assert.NotEmpty(t, rs.ID)
	assert.Equal(t, "empresa-1", rs.CompanyID)
}

func TestCreate_Invalido(t *testing.T) {
	uc, _ := newUseCase()
	rs := conjunto("rs-1", "", time.Time{}, nil)
	_, err := uc.Create(context.Background(), "", rs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Len(t, domain.FieldErrors(err), 2)
}

func TestCreate_SolapamientoMismoAmbito(t *testing.T) {
	uc, _ := newUseCase()
	fin := day(2030, 12, 31)
	_, err := uc.Create(context.Background(), "", conjunto("a", "a", day(2029, 1, 1), &fin))
	require.NoError(t, err)

	_, err = uc.Create(context.Background(), "", conjunto("b", "b", day(2030, 6, 1), nil))
	assert.True(t, errors.Is(err, domain.ErrConflict), err)

	// Contiguo no se solapa.
	_, err = uc.Create(context.Background(), "", conjunto("c", "c", day(2031, 1, 1), nil))
	assert.NoError(t, err)

	// Otro ámbito no compite con el global.
	_, err = uc.Create(context.Background(), "empresa-1", conjunto("d", "d", day(2030, 6, 1), nil))
	assert.NoError(t, err)
}

func TestCreate_IDDuplicado(t *testing.T) {
	uc, _ := newUseCase()
	fin := day(2029, 12, 31)
	_, err := uc.Create(context.Background(), "", conjunto("a", "a", day(2029, 1, 1), &fin))
	require.NoError(t, err)
	_, err = uc.Create(context.Background(), "", conjunto("a", "a", day(2035, 1, 1), nil))
	assert.True(t, errors.Is(err, domain.ErrDuplicate), err)
}

// ── Get / List ──

func TestGet_Visibilidad(t *testing.T) {
	uc, _ := newUseCase()
	_, err := uc.Create(context.Background(), "", conjunto("global", "g", day(2029, 1, 1), nil))
	require.NoError(t, err)
	_, err = uc.Create(context.Background(), "empresa-1", conjunto("propio", "p", day(2029, 1, 1), nil))
	require.NoError(t, err)

	_, err = uc.Get(context.Background(), "empresa-2", "global")
	assert.NoError(t, err)
	_, err = uc.Get(context.Background(), "empresa-2", "propio")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = uc.Get(context.Background(), "empresa-1", "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	list, err := uc.List(context.Background(), "empresa-2")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	otro, _ := newUseCase()
	empty, err := otro.List(context.Background(), "x")
	require.NoError(t, err)
	assert.NotNil(t, empty, "lista vacía, no nil")
}

// ── ActiveAt ──

func TestActiveAt(t *testing.T) {
	uc, _ := newUseCase()
	fin := day(2032, 12, 31)
	_, err := uc.Create(context.Background(), "", conjunto("t", "transição", day(2029, 1, 1), &fin))
	require.NoError(t, err)
	_, err = uc.Create(context.Background(), "", conjunto("p", "pleno", day(2033, 1, 1), nil))
	require.NoError(t, err)

	rs, err := uc.ActiveAt(context.Background(), "empresa-1", day(2032, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, "t", rs.ID)

	rs, err = uc.ActiveAt(context.Background(), "empresa-1", day(2033, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "p", rs.ID)

	_, err = uc.ActiveAt(context.Background(), "empresa-1", day(2028, 12, 31))
	assert.True(t, errors.Is(err, domain.ErrMissingConfiguration))
}

func TestResolveActive_Ambiguo(t *testing.T) {
	_, repo := newUseCase()
	a := conjunto("a", "a", day(2029, 1, 1), nil)
	b := conjunto("b", "b", day(2030, 1, 1), nil)
	require.NoError(t, repo.Create(context.Background(), &a))
	require.NoError(t, repo.Create(context.Background(), &b))

	_, err := ruleset.ResolveActive(context.Background(), repo, "", day(2031, 1, 1))
	assert.True(t, errors.Is(err, domain.ErrConflict))
}
