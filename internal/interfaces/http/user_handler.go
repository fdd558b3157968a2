package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/usecase"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// UserHandler consulta del usuario autenticado.
type UserHandler struct {
	uc  *usecase.UserUseCase
	log *logger.Logger
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *usecase.UserUseCase, log *logger.Logger) *UserHandler {
	return &UserHandler{uc: uc, log: log}
}

// Me GET /api/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetByID(c.UserContext(), companyID, userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
