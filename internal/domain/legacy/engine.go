// Package legacy estima el régimen vigente (ICMS, DIFAL, ST e ISS) por ítem a partir
// de la configuración por par de UF y de la tabla de alícuotas ICMS. Los ítems cuyo
// cálculo queda estructuralmente incompleto se marcan como no soportados con el motivo.
package legacy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/fiscal"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/money"
)

// Motivos de cobertura incompleta.
const (
	ReasonUfConfigNotFound  = "UF_CONFIG_NAO_ENCONTRADA"
	ReasonIcmsRateNotFound  = "ICMS_ALIQUOTA_NAO_ENCONTRADA"
	ReasonDifalNotSupported = "DIFAL_POTENCIAL_NAO_IMPLEMENTADO"
	ReasonStMvaNotSupported = "ICMS_ST_MVA_NAO_IMPLEMENTADO"
)

// Notas fijas del resumen.
const (
	NoteISSPlaceholder = "ISS no calculado en esta versión: valor 0 explícito"
	NoteSTPartial      = "Cobertura ST/MVA parcial: solo CFOP 5.4xx/6.4xx con ST habilitado en la configuración de UF"
)

// LegacyCalcInput documento y configuración del régimen vigente.
// El llamador entrega las configuraciones; el motor filtra por vigencia en la fecha de emisión.
type LegacyCalcInput struct {
	Document  entity.Document
	UfConfigs []entity.LegacyUfConfig
	IcmsRates []entity.LegacyIcmsRate
}

// ItemResult resultado del régimen vigente para un ítem.
type ItemResult struct {
	ItemID             string          `json:"itemId"`
	LineNumber         int             `json:"lineNumber"`
	NCM                string          `json:"ncm"`
	CFOP               string          `json:"cfop,omitempty"`
	Category           string          `json:"category"`
	TaxBase            decimal.Decimal `json:"taxBase"`
	ICMSRate           decimal.Decimal `json:"icmsRate"`
	ICMSRateSource     RateSource      `json:"icmsRateSource"`
	ICMSValue          decimal.Decimal `json:"icmsValue"`
	DifalRate          decimal.Decimal `json:"difalRate"`
	DifalValue         decimal.Decimal `json:"difalValue"`
	STBase             decimal.Decimal `json:"stBase"`
	STValue            decimal.Decimal `json:"stValue"`
	ISSValue           decimal.Decimal `json:"issValue"`
	TotalTax           decimal.Decimal `json:"totalTax"`
	Unsupported        bool            `json:"unsupported"`
	UnsupportedReasons []string        `json:"unsupportedReasons"`
	Notes              []string        `json:"notes"`
}

// Summary totales del documento en el régimen vigente.
type Summary struct {
	ItemCount        int             `json:"itemCount"`
	TaxBase          decimal.Decimal `json:"taxBase"`
	ICMSTotal        decimal.Decimal `json:"icmsTotal"`
	DifalTotal       decimal.Decimal `json:"difalTotal"`
	STTotal          decimal.Decimal `json:"stTotal"`
	ISSTotal         decimal.Decimal `json:"issTotal"`
	TotalTax         decimal.Decimal `json:"totalTax"`
	EffectiveRate    decimal.Decimal `json:"effectiveRate"`
	UnsupportedItems int             `json:"unsupportedItems"`
	Notes            []string        `json:"notes"`
}

// LegacyCalcOutput resultado del motor: un ItemResult por ítem, en el orden del documento.
type LegacyCalcOutput struct {
	UfConfigID string       `json:"ufConfigId,omitempty"`
	Interstate bool         `json:"interstate"`
	Items      []ItemResult `json:"items"`
	Summary    Summary      `json:"summary"`
}

// Calculate estima ICMS/DIFAL/ST/ISS para cada ítem del documento.
// Configuración ausente no es error: degrada el ítem con el motivo correspondiente.
func Calculate(in LegacyCalcInput) (LegacyCalcOutput, error) {
	if err := Validate(in); err != nil {
		return LegacyCalcOutput{}, err
	}
	doc := in.Document
	cfg := ResolveUfConfig(in.UfConfigs, doc.EmitterUF, doc.RecipientUF, doc.IssueDate)
	rates := activeRates(in.IcmsRates, doc.EmitterUF, doc)

	out := LegacyCalcOutput{
		Interstate: doc.IsInterstate(),
		Items:      make([]ItemResult, 0, len(doc.Items)),
	}
	if cfg != nil {
		out.UfConfigID = cfg.ID
	}
	for _, item := range doc.Items {
		out.Items = append(out.Items, calculateItem(doc, item, cfg, rates))
	}
	out.Summary = summarize(doc, out.Items)
	return out, nil
}

func calculateItem(doc entity.Document, item entity.DocumentItem, cfg *entity.LegacyUfConfig, rates []entity.LegacyIcmsRate) ItemResult {
	res := ItemResult{
		ItemID:     item.ID,
		LineNumber: item.LineNumber,
		NCM:        item.NCM,
		CFOP:       item.CFOP,
		Category:   item.CategoryOrDefault(),
		TaxBase:    money.Round2(item.TotalValue),
		DifalRate:  money.Zero,
		DifalValue: money.Zero,
		STBase:     money.Zero,
		STValue:    money.Zero,
		ISSValue:   money.Zero,
	}
	flags := newReasons()
	interstate := doc.IsInterstate()

	if cfg == nil {
		flags.add(ReasonUfConfigNotFound)
		res.Notes = append(res.Notes, fmt.Sprintf("sin configuración ICMS vigente para %s→%s", doc.EmitterUF, doc.RecipientUF))
	}

	sel := SelectRate(cfg, rates, item, interstate)
	res.ICMSRate, res.ICMSRateSource = sel.Rate, sel.Source
	if sel.Source == SourceNone {
		flags.add(ReasonIcmsRateNotFound)
	}
	res.ICMSValue = money.Mul(res.TaxBase, res.ICMSRate)

	if interstate {
		if cfg != nil && cfg.DifalEnabled {
			res.DifalRate = money.Round6(cfg.InternalRate.Sub(cfg.InterstateRate))
			res.DifalValue = money.Mul(res.TaxBase, res.DifalRate)
		} else {
			flags.add(ReasonDifalNotSupported)
		}
	}

	if fiscal.IsSTRelevantCFOP(item.CFOP) {
		if cfg != nil && cfg.STEnabled {
			res.STBase = money.Mul(res.TaxBase, money.One.Add(cfg.STMva))
			// El ICMS propio se descuenta del ST; el resultado puede ser negativo.
			res.STValue = money.Round2(res.STBase.Mul(cfg.STRate).Sub(res.ICMSValue))
		} else {
			flags.add(ReasonStMvaNotSupported)
		}
	}

	res.Notes = append(res.Notes, NoteISSPlaceholder)
	res.TotalTax = money.Sum(res.ICMSValue, res.DifalValue, res.STValue, res.ISSValue)
	res.UnsupportedReasons = flags.list
	res.Unsupported = len(flags.list) > 0
	return res
}

func summarize(doc entity.Document, items []ItemResult) Summary {
	s := Summary{ItemCount: len(items), Notes: []string{NoteISSPlaceholder, NoteSTPartial}}
	var bases, icms, difal, st, iss []decimal.Decimal
	for _, it := range items {
		bases = append(bases, it.TaxBase)
		icms = append(icms, it.ICMSValue)
		difal = append(difal, it.DifalValue)
		st = append(st, it.STValue)
		iss = append(iss, it.ISSValue)
		if it.Unsupported {
			s.UnsupportedItems++
		}
	}
	s.TaxBase = money.Sum(bases...)
	s.ICMSTotal = money.Sum(icms...)
	s.DifalTotal = money.Sum(difal...)
	s.STTotal = money.Sum(st...)
	s.ISSTotal = money.Sum(iss...)
	s.TotalTax = money.Sum(s.ICMSTotal, s.DifalTotal, s.STTotal, s.ISSTotal)

	base := doc.TotalValue
	if !base.IsPositive() {
		base = s.TaxBase
	}
	s.EffectiveRate = money.Ratio(s.TotalTax, base)
	return s
}

// reasons lista de motivos sin duplicados, en orden de aparición.
type reasons struct {
	seen map[string]bool
	list []string
}

func newReasons() *reasons {
	return &reasons{seen: map[string]bool{}, list: []string{}}
}

func (r *reasons) add(reason string) {
	if r.seen[reason] {
		return
	}
	r.seen[reason] = true
	r.list = append(r.list, reason)
}

// Validate rechaza entradas mal formadas: documento, configuraciones de UF y tabla de alícuotas.
func Validate(in LegacyCalcInput) error {
	errs := in.Document.Validate()
	for i, c := range in.UfConfigs {
		errs = append(errs, ValidateUfConfig(c, fmt.Sprintf("ufConfigs[%d]", i))...)
	}
	for i, r := range in.IcmsRates {
		errs = append(errs, ValidateIcmsRate(r, fmt.Sprintf("icmsRates[%d]", i))...)
	}
	return domain.JoinInvalid(errs)
}

// ValidateUfConfig verifica UF conocidas, alícuotas en [0,1] y ventana ordenada.
func ValidateUfConfig(c entity.LegacyUfConfig, path string) []error {
	var errs []error
	if !fiscal.IsValidUF(c.EmitterUF) {
		errs = append(errs, domain.Invalid(path+".emitterUf", fmt.Sprintf("UF desconocida %q", c.EmitterUF)))
	}
	if !fiscal.IsValidUF(c.RecipientUF) {
		errs = append(errs, domain.Invalid(path+".recipientUf", fmt.Sprintf("UF desconocida %q", c.RecipientUF)))
	}
	rates := []struct {
		name string
		v    decimal.Decimal
	}{
		{"internalRate", c.InternalRate},
		{"interstateRate", c.InterstateRate},
		{"stRate", c.STRate},
	}
	for _, r := range rates {
		if !money.IsRate(r.v) {
			errs = append(errs, domain.Invalid(path+"."+r.name, "debe estar entre 0 y 1"))
		}
	}
	if c.STMva.IsNegative() {
		errs = append(errs, domain.Invalid(path+".stMva", "no puede ser negativo"))
	}
	errs = append(errs, validateWindow(c.ValidFrom.IsZero(), c.ValidTo != nil && c.ValidTo.Before(c.ValidFrom), path)...)
	return errs
}

// ValidateIcmsRate verifica una entrada de la tabla de alícuotas.
func ValidateIcmsRate(r entity.LegacyIcmsRate, path string) []error {
	var errs []error
	if !fiscal.IsValidUF(r.UF) {
		errs = append(errs, domain.Invalid(path+".uf", fmt.Sprintf("UF desconocida %q", r.UF)))
	}
	if r.NCM != "" && !fiscal.IsValidNCM(r.NCM) {
		errs = append(errs, domain.Invalid(path+".ncm", "debe tener 8 dígitos"))
	}
	if !money.IsRate(r.Rate) {
		errs = append(errs, domain.Invalid(path+".rate", "debe estar entre 0 y 1"))
	}
	errs = append(errs, validateWindow(r.ValidFrom.IsZero(), r.ValidTo != nil && r.ValidTo.Before(r.ValidFrom), path)...)
	return errs
}

func validateWindow(missingFrom, reversed bool, path string) []error {
	var errs []error
	if missingFrom {
		errs = append(errs, domain.Invalid(path+".validFrom", "requerida"))
	}
	if reversed {
		errs = append(errs, domain.Invalid(path+".validTo", "anterior a validFrom"))
	}
	return errs
}
