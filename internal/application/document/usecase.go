package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/fiscal"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/money"
)

// XMLParser convierte el XML de una NF-e en un documento (puerto hacia infrastructure/nfe).
type XMLParser interface {
	Parse(data []byte) (*entity.Document, error)
}

// UseCase registra y consulta documentos fiscales.
type UseCase struct {
	repo   repository.DocumentRepository
	parser XMLParser
	log    *logger.Logger
	now    func() time.Time
}

// NewUseCase construye el caso de uso. parser puede ser nil si no se importa XML.
func NewUseCase(repo repository.DocumentRepository, parser XMLParser, log *logger.Logger) *UseCase {
	return &UseCase{repo: repo, parser: parser, log: log, now: time.Now}
}

// Create registra un documento a partir de JSON.
func (uc *UseCase) Create(ctx context.Context, companyID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	doc, err := FromRequest(in)
	if err != nil {
		return nil, err
	}
	return uc.store(ctx, companyID, doc, "json")
}

// Import registra un documento a partir del XML de una NF-e.
func (uc *UseCase) Import(ctx context.Context, companyID string, xml []byte) (*dto.DocumentResponse, error) {
	if uc.parser == nil {
		return nil, fmt.Errorf("%w: importación XML no configurada", domain.ErrInvalidInput)
	}
	doc, err := uc.parser.Parse(xml)
	if err != nil {
		return nil, err
	}
	return uc.store(ctx, companyID, doc, "nfe-xml")
}

func (uc *UseCase) store(ctx context.Context, companyID string, doc *entity.Document, source string) (*dto.DocumentResponse, error) {
	now := uc.now()
	doc.ID = uuid.New().String()
	doc.CompanyID = companyID
	doc.CreatedAt, doc.UpdatedAt = now, now
	for i := range doc.Items {
		doc.Items[i].ID = uuid.New().String()
		doc.Items[i].DocumentID = doc.ID
	}

	if err := domain.JoinInvalid(Validate(doc)); err != nil {
		return nil, err
	}
	if doc.AccessKey != "" {
		existing, err := uc.repo.GetByAccessKey(ctx, companyID, doc.AccessKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: documento con chave %s ya registrado (%s)", domain.ErrDuplicate, doc.AccessKey, existing.ID)
		}
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("document_id", doc.ID).
		Str("company_id", companyID).
		Str("source", source).
		Int("items", len(doc.Items)).
		Msg("documento registrado")
	return ToResponse(doc, true), nil
}

// Get devuelve el documento con sus ítems.
func (uc *UseCase) Get(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return ToResponse(doc, true), nil
}

// List documentos de la empresa, paginados.
func (uc *UseCase) List(ctx context.Context, companyID string, page dto.PageRequest) (*dto.DocumentListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.DocumentResponse, 0, len(list))
	for _, d := range list {
		items = append(items, *ToResponse(d, false))
	}
	return &dto.DocumentListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Validate reglas de forma del documento más los catálogos fiscales (NCM, CFOP, tipo de operación).
func Validate(doc *entity.Document) []error {
	errs := doc.Validate()
	if doc.Number == "" {
		errs = append(errs, domain.Invalid("document.number", "requerido"))
	}
	if doc.EmitterUF != "" && !fiscal.IsValidUF(doc.EmitterUF) {
		errs = append(errs, domain.Invalid("document.emitterUf", fmt.Sprintf("UF desconocida %q", doc.EmitterUF)))
	}
	if doc.RecipientUF != "" && !fiscal.IsValidUF(doc.RecipientUF) {
		errs = append(errs, domain.Invalid("document.recipientUf", fmt.Sprintf("UF desconocida %q", doc.RecipientUF)))
	}
	switch doc.OperationType {
	case entity.OperationSale, entity.OperationTransfer, entity.OperationReturn, entity.OperationService:
	default:
		errs = append(errs, domain.Invalid("document.operationType", fmt.Sprintf("tipo desconocido %q", doc.OperationType)))
	}
	if doc.AccessKey != "" && len(doc.AccessKey) != 44 {
		errs = append(errs, domain.Invalid("document.accessKey", "debe tener 44 dígitos"))
	}
	if len(doc.Items) == 0 {
		errs = append(errs, domain.Invalid("document.items", "al menos un ítem"))
	}
	for i, it := range doc.Items {
		path := fmt.Sprintf("document.items[%d]", i)
		if !fiscal.IsValidNCM(it.NCM) {
			errs = append(errs, domain.Invalid(path+".ncm", "debe tener 8 dígitos"))
		}
		if it.CFOP != "" && !fiscal.IsValidCFOP(it.CFOP) {
			errs = append(errs, domain.Invalid(path+".cfop", "CFOP inválido"))
		}
	}
	return errs
}

// FromRequest convierte la entrada JSON a entidad normalizando UF, NCM, CFOP y valores.
func FromRequest(in dto.CreateDocumentRequest) (*entity.Document, error) {
	issue, err := rules.ParseDate(in.IssueDate)
	if err != nil {
		return nil, domain.JoinInvalid([]error{domain.Invalid("document.issueDate", err.Error())})
	}
	doc := &entity.Document{
		Number:        strings.TrimSpace(in.Number),
		Series:        strings.TrimSpace(in.Series),
		AccessKey:     strings.TrimSpace(in.AccessKey),
		IssueDate:     issue,
		EmitterUF:     fiscal.NormalizeUF(in.EmitterUF),
		RecipientUF:   fiscal.NormalizeUF(in.RecipientUF),
		OperationType: strings.ToUpper(strings.TrimSpace(in.OperationType)),
		TotalValue:    money.Round2(in.TotalValue),
	}
	if doc.OperationType == "" {
		doc.OperationType = entity.OperationSale
	}
	for i, it := range in.Items {
		line := it.LineNumber
		if line <= 0 {
			line = i + 1
		}
		total := it.TotalValue
		if total.IsZero() {
			total = money.Mul(it.Quantity, it.UnitValue)
		}
		doc.Items = append(doc.Items, entity.DocumentItem{
			LineNumber:  line,
			Description: strings.TrimSpace(it.Description),
			NCM:         fiscal.NormalizeNCM(it.NCM),
			CFOP:        fiscal.NormalizeCFOP(it.CFOP),
			Quantity:    it.Quantity,
			UnitValue:   it.UnitValue,
			TotalValue:  total,
			Category:    strings.TrimSpace(it.Category),
		})
	}
	return doc, nil
}

// ToResponse convierte la entidad a DTO. withItems=false omite los ítems (listados).
func ToResponse(d *entity.Document, withItems bool) *dto.DocumentResponse {
	out := &dto.DocumentResponse{
		ID:            d.ID,
		CompanyID:     d.CompanyID,
		Number:        d.Number,
		Series:        d.Series,
		AccessKey:     d.AccessKey,
		IssueDate:     d.IssueDate.Format(time.DateOnly),
		EmitterUF:     d.EmitterUF,
		RecipientUF:   d.RecipientUF,
		OperationType: d.OperationType,
		TotalValue:    d.TotalValue,
		CreatedAt:     d.CreatedAt,
	}
	if !withItems {
		return out
	}
	for _, it := range d.Items {
		out.Items = append(out.Items, dto.DocumentItemResponse{
			ID:          it.ID,
			LineNumber:  it.LineNumber,
			Description: it.Description,
			NCM:         it.NCM,
			CFOP:        it.CFOP,
			Quantity:    it.Quantity,
			UnitValue:   it.UnitValue,
			TotalValue:  it.TotalValue,
			Category:    it.Category,
		})
	}
	return out
}
