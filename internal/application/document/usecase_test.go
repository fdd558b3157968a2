package document_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/document"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/memory"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

const company = "empresa-1"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var chave = strings.Repeat("3", 44)

// stubParser devuelve siempre el mismo documento (o error).
type stubParser struct {
	doc *entity.Document
	err error
}

func (p stubParser) Parse([]byte) (*entity.Document, error) {
	if p.err != nil {
		return nil, p.err
	}
	cp := *p.doc
	cp.Items = append([]entity.DocumentItem(nil), p.doc.Items...)
	return &cp, nil
}

func request() dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		Number: " 1001 ", Series: "1", IssueDate: "2030-03-15",
		EmitterUF: "sp", RecipientUF: "pr", OperationType: "venda",
		TotalValue: d("1500"),
		Items: []dto.DocumentItemRequest{
			{Description: "Cerveja", NCM: "2203.00.00", CFOP: "6.102", Quantity: d("10"), UnitValue: d("100")},
			{LineNumber: 7, Description: "Arroz", NCM: "10063021", Quantity: d("1"), UnitValue: d("500"), TotalValue: d("500")},
		},
	}
}

func newUseCase(p document.XMLParser) (*document.UseCase, *memory.DocumentRepo) {
	repo := memory.NewDocumentRepo()
	return document.NewUseCase(repo, p, logger.Nop()), repo
}

// ── Create ──

func TestCreate_NormalizaYPersiste(t *testing.T) {
	uc, repo := newUseCase(nil)
	resp, err := uc.Create(context.Background(), company, request())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "1001", resp.Number)
	assert.Equal(t, "SP", resp.EmitterUF)
	assert.Equal(t, "PR", resp.RecipientUF)
	assert.Equal(t, entity.OperationSale, resp.OperationType)
	assert.Equal(t, "2030-03-15", resp.IssueDate)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Items[0].LineNumber)
	assert.Equal(t, "22030000", resp.Items[0].NCM)
	assert.Equal(t, "6102", resp.Items[0].CFOP)
	assert.True(t, resp.Items[0].TotalValue.Equal(d("1000")), "quantity × unitValue")
	assert.Equal(t, 7, resp.Items[1].LineNumber)
	assert.NotEqual(t, resp.Items[0].ID, resp.Items[1].ID)

	stored, err := repo.GetByID(context.Background(), company, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Items, 2)
}

func TestCreate_OperacionPorDefecto(t *testing.T) {
	uc, _ := newUseCase(nil)
	req := request()
	req.OperationType = ""
	resp, err := uc.Create(context.Background(), company, req)
	require.NoError(t, err)
	assert.Equal(t, entity.OperationSale, resp.OperationType)
}

func TestCreate_ErroresPorCampo(t *testing.T) {
	uc, _ := newUseCase(nil)
	req := request()
	req.Number = ""
	req.EmitterUF = "XX"
	req.OperationType = "PERMUTA"
	req.AccessKey = "123"
	req.Items[1].NCM = "1006"
	req.Items[0].CFOP = "9999"

	_, err := uc.Create(context.Background(), company, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	fields := map[string]bool{}
	for _, fe := range domain.FieldErrors(err) {
		fields[fe.Field] = true
	}
	for _, f := range []string{
		"document.number", "document.emitterUf", "document.operationType",
		"document.accessKey", "document.items[1].ncm", "document.items[0].cfop",
	} {
		assert.True(t, fields[f], "falta %s en %v", f, fields)
	}
}

func TestCreate_SinItems(t *testing.T) {
	uc, _ := newUseCase(nil)
	req := request()
	req.Items = nil
	_, err := uc.Create(context.Background(), company, req)
	require.Error(t, err)
	require.Len(t, domain.FieldErrors(err), 1)
	assert.Equal(t, "document.items", domain.FieldErrors(err)[0].Field)
}

func TestCreate_FechaInvalida(t *testing.T) {
	uc, _ := newUseCase(nil)
	req := request()
	req.IssueDate = "15/03/2030"
	_, err := uc.Create(context.Background(), company, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, "document.issueDate", domain.FieldErrors(err)[0].Field)
}

func TestCreate_ChaveDuplicada(t *testing.T) {
	uc, _ := newUseCase(nil)
	req := request()
	req.AccessKey = chave
	_, err := uc.Create(context.Background(), company, req)
	require.NoError(t, err)

	_, err = uc.Create(context.Background(), company, req)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	// La misma chave en otra empresa no colisiona.
	_, err = uc.Create(context.Background(), "empresa-2", req)
	assert.NoError(t, err)
}

// ── Import ──

func TestImport_UsaParser(t *testing.T) {
	parsed := &entity.Document{
		Number: "55", AccessKey: chave, IssueDate: time.Date(2031, 1, 2, 0, 0, 0, 0, time.UTC),
		EmitterUF: "SP", RecipientUF: "SP", OperationType: entity.OperationSale,
		Items: []entity.DocumentItem{{LineNumber: 1, NCM: "22030000", CFOP: "5102", Quantity: d("1"), UnitValue: d("10"), TotalValue: d("10")}},
	}
	uc, _ := newUseCase(stubParser{doc: parsed})
	resp, err := uc.Import(context.Background(), company, []byte("<nfeProc/>"))
	require.NoError(t, err)
	assert.Equal(t, chave, resp.AccessKey)
	require.Len(t, resp.Items, 1)
	assert.NotEmpty(t, resp.Items[0].ID)
}

func TestImport_ErrorDelParser(t *testing.T) {
	perr := fmt.Errorf("%w: xml mal formado", domain.ErrInvalidInput)
	uc, _ := newUseCase(stubParser{err: perr})
	_, err := uc.Import(context.Background(), company, []byte("x"))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestImport_SinParser(t *testing.T) {
	uc, _ := newUseCase(nil)
	_, err := uc.Import(context.Background(), company, []byte("x"))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ── Get / List ──

func TestGetYList(t *testing.T) {
	uc, _ := newUseCase(nil)
	created, err := uc.Create(context.Background(), company, request())
	require.NoError(t, err)

	got, err := uc.Get(context.Background(), company, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	_, err = uc.Get(context.Background(), "empresa-2", created.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	list, err := uc.List(context.Background(), company, dto.PageRequest{Limit: 500})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Empty(t, list.Items[0].Items)
	assert.Equal(t, 100, list.Page.Limit)
}
