package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/calculation"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/report"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// CalculationHandler cálculos, simulaciones e informe PDF (protegido).
type CalculationHandler struct {
	uc     *calculation.UseCase
	report *report.UseCase
	log    *logger.Logger
}

// NewCalculationHandler construye el handler. reportUC puede ser nil (sin informe PDF).
func NewCalculationHandler(uc *calculation.UseCase, reportUC *report.UseCase, log *logger.Logger) *CalculationHandler {
	return &CalculationHandler{uc: uc, report: reportUC, log: log}
}

// Calculate ejecuta y persiste el cálculo del documento.
// POST /api/documents/:id/calculations
func (h *CalculationHandler) Calculate(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Calculate(c.UserContext(), companyID, userID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Simulate ejecuta el cálculo con parámetros de escenario; no persiste. Cuerpo vacío = sin escenario.
// POST /api/documents/:id/simulations
func (h *CalculationHandler) Simulate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.ScenarioRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.uc.Simulate(c.UserContext(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListByDocument cálculos del documento, más recientes primero.
// GET /api/documents/:id/calculations
func (h *CalculationHandler) ListByDocument(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.ListByDocument(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID cálculo persistido con sus componentes.
// GET /api/calculations/:id
func (h *CalculationHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Report descarga el informe de auditoría.
// GET /api/calculations/:id/report.pdf
func (h *CalculationHandler) Report(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if h.report == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "informe no configurado"})
	}
	pdf, filename, err := h.report.Download(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(pdf)
}
