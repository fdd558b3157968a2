package report_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/calculation"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/report"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/memory"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// captureGenerator guarda los datos recibidos y devuelve un PDF ficticio.
type captureGenerator struct {
	got report.ReportData
	err error
}

func (g *captureGenerator) GenerateCalculationPDF(_ context.Context, data report.ReportData) ([]byte, error) {
	g.got = data
	if g.err != nil {
		return nil, g.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

type fixture struct {
	uc      *report.UseCase
	gen     *captureGenerator
	company string
	calcID  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	companies := memory.NewCompanyRepo()
	docs := memory.NewDocumentRepo()
	ruleSets := memory.NewRuleSetRepo()
	calcs := memory.NewCalculationRepo()

	company := &entity.Company{Name: "Acme", CNPJ: "11222333000181", UF: "SP"}
	require.NoError(t, companies.Create(ctx, company))

	rate := decimal.RequireFromString("0.26")
	require.NoError(t, ruleSets.Create(ctx, &rules.RuleSet{
		ID: "rs", Name: "padrão", ValidFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Rules: []rules.Rule{{ID: "p", Condition: rules.Always(), Effect: rules.Effect{IBSRate: &rate}}},
	}))
	doc := &entity.Document{
		CompanyID: company.ID, Number: "77", IssueDate: time.Date(2033, 2, 1, 0, 0, 0, 0, time.UTC),
		EmitterUF: "SP", RecipientUF: "SP", OperationType: entity.OperationSale,
		Items: []entity.DocumentItem{{LineNumber: 1, NCM: "22030000", Quantity: decimal.NewFromInt(1),
			UnitValue: decimal.NewFromInt(100), TotalValue: decimal.NewFromInt(100)}},
	}
	require.NoError(t, docs.Create(ctx, doc))

	calcUC := calculation.NewUseCase(docs, ruleSets, memory.NewLegacyConfigRepo(), calcs, nil, logger.Nop(), calculation.Config{})
	calc, err := calcUC.Calculate(ctx, company.ID, "u", doc.ID)
	require.NoError(t, err)

	gen := &captureGenerator{}
	return &fixture{
		uc:      report.NewUseCase(companies, docs, calcs, gen),
		gen:     gen,
		company: company.ID,
		calcID:  calc.ID,
	}
}

// ── Download ──

func TestDownload_ArmaDatosYNombre(t *testing.T) {
	f := setup(t)
	pdf, filename, err := f.uc.Download(context.Background(), f.company, f.calcID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.True(t, strings.HasPrefix(filename, "calculo_77_"), filename)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))

	assert.Equal(t, "Acme", f.gen.got.Company.Name)
	assert.Equal(t, "77", f.gen.got.Document.Number)
	assert.Equal(t, 2033, f.gen.got.Summary.Weights.Year)
	require.Len(t, f.gen.got.Items, 1)
	assert.True(t, f.gen.got.Summary.Transition.TotalTax.Equal(decimal.NewFromInt(26)))
}

func TestDownload_OtraEmpresa(t *testing.T) {
	f := setup(t)
	_, _, err := f.uc.Download(context.Background(), "otra-empresa", f.calcID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDownload_ErrorDelGenerador(t *testing.T) {
	f := setup(t)
	f.gen.err = errors.New("sin fuentes")
	_, _, err := f.uc.Download(context.Background(), f.company, f.calcID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sin fuentes")
}
