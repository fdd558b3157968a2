// Package pdf implementa el informe de auditoría de un cálculo de transición.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + CNPJ      │  Documento + Fecha           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  OPERACIÓN: UF origen/destino, tipo, año y pesos            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Línea | NCM | Base | Vigente | Nuevo | Transición   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: régimen vigente / régimen nuevo / TOTAL           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: chave de acesso (código de barras) + trazabilidad  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/report"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/transition"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWarn    = &props.Color{Red: 170, Green: 90, Blue: 0}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa report.CalculationPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

var _ report.CalculationPDFGenerator = (*MarotoPDFGenerator)(nil)

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateCalculationPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateCalculationPDF(_ context.Context, data report.ReportData) ([]byte, error) {
	if data.Company == nil || data.Document == nil || data.Calculation == nil {
		return nil, fmt.Errorf("pdf: datos del informe incompletos")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Estimativa IBS/CBS", true).
		WithAuthor(data.Company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(operationRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(data.Items) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Summary))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(data) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa + CNPJ (izq) y número del documento + fecha (der).
func headerRow(data report.ReportData) core.Row {
	doc := data.Document
	numero := doc.Number
	if doc.Series != "" {
		numero = doc.Series + "-" + doc.Number
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(data.Company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("CNPJ: "+formatCNPJ(data.Company.CNPJ), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("ESTIMATIVA DE TRANSIÇÃO IBS/CBS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Documento "+numero, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Emissão: "+doc.IssueDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// operationRow: UFs, tipo de operación y pesos del año.
func operationRow(data report.ReportData) core.Row {
	doc := data.Document
	w := data.Summary.Weights
	return row.New(14).Add(
		col.New(12).Add(
			text.New("OPERAÇÃO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s → %s   |   %s   |   Ano %d",
				doc.EmitterUF, doc.RecipientUF,
				nonEmpty(doc.OperationType, "-"),
				w.Year,
			), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("Peso regime vigente: %s   |   Peso regime novo: %s   |   Conjunto de regras: %s",
				formatPercent(w.Legacy),
				formatPercent(w.IBS),
				nonEmpty(data.Calculation.RuleSetID, "-"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de ítems.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Lin.", 1, align.Center),
		h("NCM / Categoria", 3, align.Left),
		h("Base", 2, align.Right),
		h("Vigente", 2, align.Right),
		h("IBS+CBS+IS", 2, align.Right),
		h("Transição", 2, align.Right),
	)
}

// tableItemRows: una fila por ítem; los ítems sin cobertura completa van resaltados.
func tableItemRows(items []transition.PersistedItemComponents) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		legacyStyle := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if it.Legacy.Unsupported {
			legacyStyle.Color = colorWarn
			legacyStyle.Style = fontstyle.Italic
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", it.LineNumber),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				it.IBS.NCM+" / "+nonEmpty(it.IBS.Category, "-"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				formatBRL(it.Transition.TaxBase),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(formatBRL(it.Legacy.TotalTax), legacyStyle)),
			col.New(2).Add(text.New(
				formatBRL(it.IBS.TotalTax),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				formatBRL(it.Transition.TotalTax),
				props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(s transition.PersistedSummaryComponents) core.Row {
	label := func(v string) core.Component {
		return text.New(v, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(v string) core.Component {
		return text.New(v, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(v string) core.Component {
		return text.New(v, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(v string) core.Component {
		return text.New(v, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(34).Add(
		col.New(2),
		col.New(5).Add(
			label("Base de cálculo:"),
			label("ICMS + DIFAL + ST (ponderado):"),
			label("IBS + CBS + IS (ponderado):"),
			label("Créditos IBS/CBS:"),
			grandLabel("TOTAL ESTIMADO:"),
		),
		col.New(3).Add(
			value(formatBRL(s.Transition.TaxBase)),
			value(formatBRL(s.Transition.WeightedLegacyTax)),
			value(formatBRL(s.Transition.WeightedIBSTax)),
			value(formatBRL(s.IBS.CreditTotal)),
			grandValue(formatBRL(s.Transition.TotalTax)),
		),
		col.New(2).Add(
			value(""),
			value(""),
			value(""),
			value(""),
			grandValue(formatPercent(s.Transition.EffectiveRate)),
		),
	)
}

// footerRows: chave de acesso en código de barras, ítems sin cobertura y notas.
func footerRows(data report.ReportData) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("RASTREABILIDADE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Cálculo %s   |   Gerado em %s",
				data.Calculation.ID,
				data.Calculation.CreatedAt.Format("02/01/2006 15:04"),
			), props.Text{Size: 7, Color: colorGray, Top: 1}),
		)),
	}

	if key := data.Document.AccessKey; key != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Chave de acesso:", props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
		)))
		rows = append(rows, row.New(14).Add(
			col.New(8).Add(code.NewBar(key, props.Barcode{Percent: 100})),
			col.New(4),
		))
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(strings.Join(splitEvery(key, 4), " "), props.Text{Size: 6.5, Color: colorGray, Top: 0.5}),
		)))
	}

	if n := data.Summary.Legacy.UnsupportedItems; n > 0 {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%d item(ns) sem cobertura completa no regime vigente.", n), props.Text{
				Style: fontstyle.Bold, Size: 7.5, Color: colorWarn, Top: 2,
			}),
		)))
	}
	for _, note := range data.Summary.Legacy.Notes {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New("• "+note, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Valores estimados a partir das regras vigentes na data de emissão. "+
				"Não substitui a apuração oficial dos tributos.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatBRL formatea un valor monetario: 1234.5 → "R$ 1.234,50".
func formatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + "R$ " + formatMoney(intPart) + "," + frac
}

// formatPercent 0.1725 → "17,25%".
func formatPercent(d decimal.Decimal) string {
	return strings.Replace(d.Shift(2).StringFixed(2), ".", ",", 1) + "%"
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}

// formatCNPJ 11222333000181 → 11.222.333/0001-81; otros largos se devuelven tal cual.
func formatCNPJ(s string) string {
	if len(s) != 14 {
		return s
	}
	return s[:2] + "." + s[2:5] + "." + s[5:8] + "/" + s[8:12] + "-" + s[12:]
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
