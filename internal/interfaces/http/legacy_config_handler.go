package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/legacyconfig"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// LegacyConfigHandler configuración ICMS del régimen vigente (protegido).
type LegacyConfigHandler struct {
	uc  *legacyconfig.UseCase
	log *logger.Logger
}

// NewLegacyConfigHandler construye el handler.
func NewLegacyConfigHandler(uc *legacyconfig.UseCase, log *logger.Logger) *LegacyConfigHandler {
	return &LegacyConfigHandler{uc: uc, log: log}
}

// PutUfConfig crea o reemplaza la configuración de un par de UF.
// PUT /api/legacy/uf-configs
func (h *LegacyConfigHandler) PutUfConfig(c *fiber.Ctx) error {
	var in dto.UfConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.UpsertUfConfig(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListUfConfigs GET /api/legacy/uf-configs
func (h *LegacyConfigHandler) ListUfConfigs(c *fiber.Ctx) error {
	out, err := h.uc.ListUfConfigs(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"items": out})
}

// PutIcmsRate crea o reemplaza una entrada de la tabla de alícuotas.
// PUT /api/legacy/icms-rates
func (h *LegacyConfigHandler) PutIcmsRate(c *fiber.Ctx) error {
	var in dto.IcmsRateRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.UpsertIcmsRate(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListIcmsRates GET /api/legacy/icms-rates?uf=SP
func (h *LegacyConfigHandler) ListIcmsRates(c *fiber.Ctx) error {
	out, err := h.uc.ListIcmsRates(c.UserContext(), c.Query("uf"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"items": out})
}
