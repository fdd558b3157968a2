package calculation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/calculation"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/transition"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/memory"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

const company = "empresa-1"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func bp(b bool) *bool { return &b }

func day(y, m, dd int) time.Time { return time.Date(y, time.Month(m), dd, 0, 0, 0, 0, time.UTC) }

// fakeRecorder registra lo que el caso de uso reporta a métricas.
type fakeRecorder struct {
	mu       sync.Mutex
	observed []string
	failed   []string
}

func (f *fakeRecorder) ObserveCalculation(kind string, _ time.Duration, _ transition.TransitionCalcOutput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed = append(f.observed, kind)
}

func (f *fakeRecorder) CalculationFailed(kind, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, kind+":"+reason)
}

type fixture struct {
	uc        *calculation.UseCase
	docs      *memory.DocumentRepo
	ruleSets  *memory.RuleSetRepo
	legacyCfg *memory.LegacyConfigRepo
	calcs     *memory.CalculationRepo
	rec       *fakeRecorder
}

func setup(t *testing.T, cfg calculation.Config) *fixture {
	t.Helper()
	f := &fixture{
		docs:      memory.NewDocumentRepo(),
		ruleSets:  memory.NewRuleSetRepo(),
		legacyCfg: memory.NewLegacyConfigRepo(),
		calcs:     memory.NewCalculationRepo(),
		rec:       &fakeRecorder{},
	}
	ctx := context.Background()
	require.NoError(t, f.ruleSets.Create(ctx, &rules.RuleSet{
		ID: "rs-global", Name: "padrão", ValidFrom: day(2026, 1, 1),
		Rules: []rules.Rule{{
			ID: "padrao", Priority: 100, Condition: rules.Always(),
			Effect: rules.Effect{IBSRate: dp("0.17"), CBSRate: dp("0.09"), CreditEligible: bp(true)},
		}},
	}))
	require.NoError(t, f.legacyCfg.UpsertUfConfig(ctx, &entity.LegacyUfConfig{
		ID: "sp-pr", EmitterUF: "SP", RecipientUF: "PR",
		InternalRate: d("0.18"), InterstateRate: d("0.12"), DifalEnabled: true,
		ValidFrom: day(2020, 1, 1),
	}))
	f.uc = calculation.NewUseCase(f.docs, f.ruleSets, f.legacyCfg, f.calcs, f.rec, logger.Nop(), cfg)
	return f
}

func (f *fixture) documento(t *testing.T, year int, emitter, recipient string) string {
	t.Helper()
	return f.documentoCFOP(t, year, emitter, recipient, "6102")
}

func (f *fixture) documentoCFOP(t *testing.T, year int, emitter, recipient, cfop string) string {
	t.Helper()
	doc := &entity.Document{
		CompanyID: company, Number: "1001", IssueDate: day(year, 6, 1),
		EmitterUF: emitter, RecipientUF: recipient, OperationType: entity.OperationSale,
		TotalValue: d("1000"),
		Items: []entity.DocumentItem{
			{LineNumber: 1, NCM: "22030000", CFOP: cfop, Quantity: d("1"), UnitValue: d("1000"), TotalValue: d("1000")},
		},
	}
	require.NoError(t, f.docs.Create(context.Background(), doc))
	return doc.ID
}

// ── Calculate ──

func TestCalculate_PersisteYDevuelveTotales(t *testing.T) {
	f := setup(t, calculation.Config{})
	docID := f.documento(t, 2030, "SP", "PR")

	resp, err := f.uc.Calculate(context.Background(), company, "usuario-1", docID)
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, docID, resp.DocumentID)
	assert.Equal(t, "rs-global", resp.RuleSetID)
	assert.Equal(t, "sp-pr", resp.UfConfigID)
	assert.Equal(t, 2030, resp.IssueYear)
	assert.True(t, resp.TotalTax.Equal(d("196")), resp.TotalTax.String())
	assert.True(t, resp.EffectiveRate.Equal(d("0.196")))
	assert.True(t, resp.LegacyTotal.Equal(d("180")))
	require.NotNil(t, resp.Summary)
	require.Len(t, resp.Items, 1)

	stored, err := f.calcs.GetByID(context.Background(), company, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "usuario-1", stored.CreatedBy)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].TotalTax.Equal(d("196")))

	assert.Equal(t, []string{calculation.KindCalculation}, f.rec.observed)
	assert.Empty(t, f.rec.failed)
}

func TestCalculate_DocumentoInexistente(t *testing.T) {
	f := setup(t, calculation.Config{})
	_, err := f.uc.Calculate(context.Background(), company, "u", "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, []string{"calculation:not_found"}, f.rec.failed)
}

func TestCalculate_DocumentoDeOtraEmpresa(t *testing.T) {
	f := setup(t, calculation.Config{})
	docID := f.documento(t, 2030, "SP", "PR")
	_, err := f.uc.Calculate(context.Background(), "otra-empresa", "u", docID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCalculate_SinConjuntoVigente(t *testing.T) {
	f := setup(t, calculation.Config{})
	docID := f.documento(t, 2025, "SP", "PR")
	_, err := f.uc.Calculate(context.Background(), company, "u", docID)
	assert.True(t, errors.Is(err, domain.ErrMissingConfiguration), err)
	assert.Equal(t, []string{"calculation:missing_configuration"}, f.rec.failed)
}

func TestCalculate_ConjuntosAmbiguos(t *testing.T) {
	f := setup(t, calculation.Config{})
	require.NoError(t, f.ruleSets.Create(context.Background(), &rules.RuleSet{
		ID: "rs-otro", Name: "duplicado", ValidFrom: day(2029, 1, 1),
		Rules: []rules.Rule{{ID: "x", Condition: rules.Always(), Effect: rules.Effect{IBSRate: dp("0.1")}}},
	}))
	docID := f.documento(t, 2030, "SP", "PR")
	_, err := f.uc.Calculate(context.Background(), company, "u", docID)
	assert.True(t, errors.Is(err, domain.ErrConflict), err)
}

func TestCalculate_ConjuntoPropioOcultaGlobal(t *testing.T) {
	f := setup(t, calculation.Config{})
	require.NoError(t, f.ruleSets.Create(context.Background(), &rules.RuleSet{
		ID: "rs-propio", CompanyID: company, Name: "propio", ValidFrom: day(2029, 1, 1),
		Rules: []rules.Rule{{ID: "p", Condition: rules.Always(), Effect: rules.Effect{IBSRate: dp("0.1"), CBSRate: dp("0.05")}}},
	}))
	docID := f.documento(t, 2030, "SP", "PR")
	resp, err := f.uc.Calculate(context.Background(), company, "u", docID)
	require.NoError(t, err)
	assert.Equal(t, "rs-propio", resp.RuleSetID)
}

func TestCalculate_InterestadualSinConfiguracionUFSeRechaza(t *testing.T) {
	f := setup(t, calculation.Config{})
	docID := f.documento(t, 2030, "SP", "BA")
	_, err := f.uc.Calculate(context.Background(), company, "u", docID)
	assert.True(t, errors.Is(err, domain.ErrMissingConfiguration), err)
	assert.ErrorContains(t, err, "DIFAL")
	assert.Equal(t, []string{"calculation:missing_configuration"}, f.rec.failed)

	// Con AllowMissingUfConfig el cálculo sigue, con cobertura incompleta.
	permisivo := setup(t, calculation.Config{AllowMissingUfConfig: true})
	docID = permisivo.documento(t, 2030, "SP", "BA")
	resp, err := permisivo.uc.Calculate(context.Background(), company, "u", docID)
	require.NoError(t, err)
	assert.Empty(t, resp.UfConfigID)
}

func TestCalculate_SustitucionInternaSinConfiguracionUFSeRechaza(t *testing.T) {
	f := setup(t, calculation.Config{})
	docID := f.documentoCFOP(t, 2030, "SP", "SP", "5405")
	_, err := f.uc.Calculate(context.Background(), company, "u", docID)
	assert.True(t, errors.Is(err, domain.ErrMissingConfiguration), err)
	assert.ErrorContains(t, err, "CFOP 5405")

	_, err = f.uc.Simulate(context.Background(), company, docID, dto.ScenarioRequest{})
	assert.True(t, errors.Is(err, domain.ErrMissingConfiguration), err)
}

func TestCalculate_OperacionInternaSinSTNoExigeConfiguracion(t *testing.T) {
	f := setup(t, calculation.Config{})
	docID := f.documentoCFOP(t, 2030, "SP", "SP", "5102")
	_, err := f.uc.Calculate(context.Background(), company, "u", docID)
	assert.NoError(t, err)
}

// ── Simulate ──

func TestSimulate_NoPersisteYAplicaEscenario(t *testing.T) {
	f := setup(t, calculation.Config{DefaultPassThrough: dp("50")})
	docID := f.documento(t, 2030, "SP", "PR")

	out, err := f.uc.Simulate(context.Background(), company, docID, dto.ScenarioRequest{
		OverrideRates: dto.OverrideRatesRequest{IBSRate: dp("0.2")},
	})
	require.NoError(t, err)
	assert.True(t, out.Summary.IBS.TotalTax.Equal(d("290")), out.Summary.IBS.TotalTax.String())
	assert.True(t, out.Summary.Transition.TotalTax.Equal(d("202")), out.Summary.Transition.TotalTax.String())
	assert.True(t, out.Scenario.PricePassThroughPercent.Equal(d("50")))
	assert.True(t, out.Summary.IBS.SimulatedTotal.Equal(d("1145")), out.Summary.IBS.SimulatedTotal.String())

	list, err := f.calcs.ListByDocument(context.Background(), company, docID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, []string{calculation.KindSimulation}, f.rec.observed)
}

func TestSimulate_EscenarioInvalido(t *testing.T) {
	f := setup(t, calculation.Config{})
	docID := f.documento(t, 2030, "SP", "PR")
	_, err := f.uc.Simulate(context.Background(), company, docID, dto.ScenarioRequest{
		PricePassThroughPercent: dp("150"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, []string{"simulation:invalid_input"}, f.rec.failed)
}

// ── Get / ListByDocument ──

func TestGet_DecodificaComponentes(t *testing.T) {
	f := setup(t, calculation.Config{})
	docID := f.documento(t, 2031, "SP", "PR")
	created, err := f.uc.Calculate(context.Background(), company, "u", docID)
	require.NoError(t, err)

	got, err := f.uc.Get(context.Background(), company, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 2031, got.Summary.Weights.Year)
	assert.True(t, got.Summary.Transition.TotalTax.Equal(created.TotalTax))
	require.Len(t, got.Items, 1)
	assert.Equal(t, created.Items[0].ItemID, got.Items[0].ItemID)

	_, err = f.uc.Get(context.Background(), "otra-empresa", created.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListByDocument(t *testing.T) {
	f := setup(t, calculation.Config{})
	docID := f.documento(t, 2030, "SP", "PR")
	for i := 0; i < 2; i++ {
		_, err := f.uc.Calculate(context.Background(), company, "u", docID)
		require.NoError(t, err)
	}
	list, err := f.uc.ListByDocument(context.Background(), company, docID)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Nil(t, list.Items[0].Summary)

	_, err = f.uc.ListByDocument(context.Background(), company, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ── FailureReason ──

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.JoinInvalid([]error{domain.Invalid("x", "y")}), "invalid_input"},
		{domain.ErrMissingConfiguration, "missing_configuration"},
		{domain.ErrConflict, "conflict"},
		{domain.ErrNotFound, "not_found"},
		{transition.ErrCompositionIntegrity, "integrity"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculation.FailureReason(tt.err))
	}
}
