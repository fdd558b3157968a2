package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/ruleset"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// RuleSetHandler conjuntos de reglas del régimen nuevo (protegido).
type RuleSetHandler struct {
	uc  *ruleset.UseCase
	log *logger.Logger
}

// NewRuleSetHandler construye el handler.
func NewRuleSetHandler(uc *ruleset.UseCase, log *logger.Logger) *RuleSetHandler {
	return &RuleSetHandler{uc: uc, log: log}
}

// Create crea un conjunto propio de la empresa; con ?scope=global queda visible para todas.
// POST /api/rule-sets
func (h *RuleSetHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in rules.RuleSet
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: err.Error()})
	}
	scope := companyID
	if c.Query("scope") == "global" {
		scope = ""
	}
	out, err := h.uc.Create(c.UserContext(), scope, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List conjuntos visibles para la empresa.
// GET /api/rule-sets
func (h *RuleSetHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.List(c.UserContext(), companyID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.RuleSetListResponse{Items: list})
}

// GetByID conjunto por id.
// GET /api/rule-sets/:id
func (h *RuleSetHandler) GetByID(c *fiber.Ctx) error {
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

// Active conjunto vigente en la fecha (?date=YYYY-MM-DD, por defecto hoy).
// GET /api/rule-sets/active
func (h *RuleSetHandler) Active(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	at := time.Now().UTC()
	if s := c.Query("date"); s != "" {
		t, err := rules.ParseDate(s)
		if err != nil {
			return respondError(c, h.log, domain.JoinInvalid([]error{domain.Invalid("date", err.Error())}))
		}
		at = t
	}
	out, err := h.uc.ActiveAt(c.UserContext(), companyID, at)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
