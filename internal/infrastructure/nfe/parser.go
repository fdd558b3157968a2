// Package nfe importa el XML de una NF-e (modelo 55, layout 4.00) a un entity.Document.
// Solo lee los campos que usan los motores de cálculo; no valida firma ni esquema.
package nfe

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/fiscal"
)

// Parser convierte NF-e XML en documentos.
type Parser struct{}

// NewParser construye el parser.
func NewParser() *Parser { return &Parser{} }

// Parse lee el XML (nfeProc o NFe suelta). Errores de contenido envuelven domain.ErrInvalidInput.
func (p *Parser) Parse(data []byte) (*entity.Document, error) {
	doc := etree.NewDocument()
	// Algunos emisores todavía declaran ISO-8859-1.
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "iso-8859-1", "latin1", "latin-1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "", "utf-8", "utf8":
			return input, nil
		}
		return nil, fmt.Errorf("charset no soportado: %s", charset)
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: xml ilegible: %v", domain.ErrInvalidInput, err)
	}

	inf := doc.FindElement("//infNFe")
	if inf == nil {
		return nil, fmt.Errorf("%w: infNFe no encontrado", domain.ErrInvalidInput)
	}

	var errs []error
	out := &entity.Document{
		Number:      childText(inf, "ide/nNF"),
		Series:      childText(inf, "ide/serie"),
		AccessKey:   accessKey(doc, inf),
		EmitterUF:   fiscal.NormalizeUF(childText(inf, "emit/enderEmit/UF")),
		RecipientUF: fiscal.NormalizeUF(childText(inf, "dest/enderDest/UF")),
	}
	if out.Number == "" {
		errs = append(errs, domain.Invalid("ide.nNF", "requerido"))
	}

	issue, err := parseIssueDate(childText(inf, "ide/dhEmi"), childText(inf, "ide/dEmi"))
	if err != nil {
		errs = append(errs, domain.Invalid("ide.dhEmi", err.Error()))
	}
	out.IssueDate = issue
	out.OperationType = operationType(childText(inf, "ide/finNFe"), childText(inf, "ide/natOp"))

	if v := childText(inf, "total/ICMSTot/vNF"); v != "" {
		total, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, domain.Invalid("total.ICMSTot.vNF", "valor inválido"))
		}
		out.TotalValue = total
	}

	for i, det := range inf.SelectElements("det") {
		item, itemErrs := parseItem(det, i)
		errs = append(errs, itemErrs...)
		out.Items = append(out.Items, item)
	}
	if len(out.Items) == 0 {
		errs = append(errs, domain.Invalid("det", "la NF-e no tiene ítems"))
	}

	if err := domain.JoinInvalid(errs); err != nil {
		return nil, err
	}
	return out, nil
}

func parseItem(det *etree.Element, idx int) (entity.DocumentItem, []error) {
	path := fmt.Sprintf("det[%d]", idx)
	line, err := strconv.Atoi(det.SelectAttrValue("nItem", ""))
	if err != nil || line <= 0 {
		line = idx + 1
	}
	item := entity.DocumentItem{
		LineNumber:  line,
		Description: childText(det, "prod/xProd"),
		NCM:         fiscal.NormalizeNCM(childText(det, "prod/NCM")),
		CFOP:        fiscal.NormalizeCFOP(childText(det, "prod/CFOP")),
	}

	var errs []error
	dec := func(field string, dst *decimal.Decimal) {
		raw := childText(det, "prod/"+field)
		if raw == "" {
			return
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			errs = append(errs, domain.Invalid(path+".prod."+field, "valor inválido"))
			return
		}
		*dst = v
	}
	dec("qCom", &item.Quantity)
	dec("vUnCom", &item.UnitValue)
	dec("vProd", &item.TotalValue)

	// vDesc reduce el valor de la operación.
	var discount decimal.Decimal
	dec("vDesc", &discount)
	item.TotalValue = item.TotalValue.Sub(discount)

	if !fiscal.IsValidNCM(item.NCM) {
		errs = append(errs, domain.Invalid(path+".prod.NCM", "NCM inválido"))
	}
	return item, errs
}

func childText(e *etree.Element, path string) string {
	if c := e.FindElement(path); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

// accessKey toma la chave del atributo Id (NFe + 44 dígitos) o del protocolo.
func accessKey(doc *etree.Document, inf *etree.Element) string {
	if id := strings.TrimPrefix(inf.SelectAttrValue("Id", ""), "NFe"); len(id) == 44 {
		return id
	}
	if ch := doc.FindElement("//protNFe/infProt/chNFe"); ch != nil {
		return strings.TrimSpace(ch.Text())
	}
	return ""
}

// parseIssueDate acepta dhEmi (RFC3339, layout 3.10+) o dEmi (YYYY-MM-DD, layout 2.00).
// Se conserva la fecha civil del emisor, no la UTC.
func parseIssueDate(dhEmi, dEmi string) (time.Time, error) {
	if dhEmi != "" {
		t, err := time.Parse(time.RFC3339, dhEmi)
		if err != nil {
			return time.Time{}, fmt.Errorf("fecha inválida %q", dhEmi)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if dEmi != "" {
		t, err := time.Parse(time.DateOnly, dEmi)
		if err != nil {
			return time.Time{}, fmt.Errorf("fecha inválida %q", dEmi)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("requerido")
}

func operationType(finNFe, natOp string) string {
	if finNFe == "4" {
		return entity.OperationReturn
	}
	nat := strings.ToUpper(natOp)
	switch {
	case strings.Contains(nat, "TRANSF"):
		return entity.OperationTransfer
	case strings.Contains(nat, "DEVOL"):
		return entity.OperationReturn
	case strings.Contains(nat, "SERVI"):
		return entity.OperationService
	}
	return entity.OperationSale
}
