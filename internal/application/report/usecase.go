// Package report genera el informe de auditoría (PDF) de un cálculo persistido.
package report

import (
	"context"
	"fmt"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/calculation"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/transition"
)

// ReportData todo lo necesario para renderizar el informe.
type ReportData struct {
	Company     *entity.Company
	Document    *entity.Document
	Calculation *entity.Calculation
	Summary     transition.PersistedSummaryComponents
	Items       []transition.PersistedItemComponents
}

// CalculationPDFGenerator puerto de salida implementado por infrastructure/pdf.
type CalculationPDFGenerator interface {
	GenerateCalculationPDF(ctx context.Context, data ReportData) ([]byte, error)
}

// UseCase arma el informe a partir del cálculo, su documento y la empresa.
type UseCase struct {
	companyRepo repository.CompanyRepository
	docRepo     repository.DocumentRepository
	calcRepo    repository.CalculationRepository
	generator   CalculationPDFGenerator
}

// NewUseCase construye el caso de uso inyectando sus dependencias.
func NewUseCase(
	companyRepo repository.CompanyRepository,
	docRepo repository.DocumentRepository,
	calcRepo repository.CalculationRepository,
	generator CalculationPDFGenerator,
) *UseCase {
	return &UseCase{
		companyRepo: companyRepo,
		docRepo:     docRepo,
		calcRepo:    calcRepo,
		generator:   generator,
	}
}

// Download devuelve los bytes del PDF y el nombre de archivo sugerido.
//
// Retorna:
//   - domain.ErrNotFound si el cálculo, su documento o la empresa no existen para ese tenant.
func (uc *UseCase) Download(ctx context.Context, companyID, calculationID string) (pdfBytes []byte, filename string, err error) {
	// ── 1. Cálculo ────────────────────────────────────────────────────────────
	calc, err := uc.calcRepo.GetByID(ctx, companyID, calculationID)
	if err != nil {
		return nil, "", fmt.Errorf("informe: obtener cálculo: %w", err)
	}
	if calc == nil {
		return nil, "", domain.ErrNotFound
	}

	// ── 2. Documento y empresa ────────────────────────────────────────────────
	doc, err := uc.docRepo.GetByID(ctx, companyID, calc.DocumentID)
	if err != nil {
		return nil, "", fmt.Errorf("informe: obtener documento: %w", err)
	}
	if doc == nil {
		return nil, "", domain.ErrNotFound
	}
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("informe: obtener empresa: %w", err)
	}
	if company == nil {
		return nil, "", domain.ErrNotFound
	}

	// ── 3. Componentes ────────────────────────────────────────────────────────
	summary, items, err := calculation.DecodeComponents(calc)
	if err != nil {
		return nil, "", err
	}

	pdfBytes, err = uc.generator.GenerateCalculationPDF(ctx, ReportData{
		Company:     company,
		Document:    doc,
		Calculation: calc,
		Summary:     summary,
		Items:       items,
	})
	if err != nil {
		return nil, "", fmt.Errorf("informe: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("calculo_%s_%s.pdf", doc.Number, shortID(calc.ID))
	return pdfBytes, filename, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
