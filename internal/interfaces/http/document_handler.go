package http

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/document"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// maxXMLSize tope del XML importado.
const maxXMLSize = 5 << 20

// DocumentHandler registro y consulta de documentos fiscales (protegido).
type DocumentHandler struct {
	uc  *document.UseCase
	log *logger.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *document.UseCase, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

// Create registra un documento enviado como JSON.
// POST /api/documents
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Import registra una NF-e a partir de su XML: cuerpo crudo o campo multipart "file".
// POST /api/documents/import
func (h *DocumentHandler) Import(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	data, err := readXML(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: err.Error()})
	}
	out, err := h.uc.Import(c.UserContext(), companyID, data)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID documento con sus ítems.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
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

// List documentos de la empresa.
// GET /api/documents?limit=&offset=
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.List(c.UserContext(), companyID, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

func readXML(c *fiber.Ctx) ([]byte, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "campo multipart 'file' requerido")
		}
		if fh.Size > maxXMLSize {
			return nil, fiber.NewError(fiber.StatusBadRequest, "XML demasiado grande")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	body := c.Body()
	if len(body) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "cuerpo XML vacío")
	}
	if len(body) > maxXMLSize {
		return nil, fiber.NewError(fiber.StatusBadRequest, "XML demasiado grande")
	}
	return append([]byte(nil), body...), nil
}
