package legacy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/fiscal"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/money"
)

// RateSource origen de la alícuota ICMS elegida.
type RateSource string

const (
	SourceUfInternal       RateSource = "uf-config:internal"
	SourceUfInterstate     RateSource = "uf-config:interstate"
	SourceTableNCMCategory RateSource = "table:ncm+category"
	SourceTableNCM         RateSource = "table:ncm"
	SourceTableCategory    RateSource = "table:category"
	SourceTableUFDefault   RateSource = "table:uf-default"
	SourceNone             RateSource = "no rate available"
)

// RateSelection alícuota elegida y su origen.
type RateSelection struct {
	Rate   decimal.Decimal
	Source RateSource
	// EntryID id de la entrada de tabla usada, vacío si la alícuota viene de la configuración de UF.
	EntryID string
}

// ResolveUfConfig devuelve la configuración vigente para el par ordenado.
// Si hay más de una vigente gana la de validFrom más reciente.
func ResolveUfConfig(configs []entity.LegacyUfConfig, emitterUF, recipientUF string, at time.Time) *entity.LegacyUfConfig {
	emitterUF, recipientUF = fiscal.NormalizeUF(emitterUF), fiscal.NormalizeUF(recipientUF)
	var found *entity.LegacyUfConfig
	for i := range configs {
		c := &configs[i]
		if fiscal.NormalizeUF(c.EmitterUF) != emitterUF || fiscal.NormalizeUF(c.RecipientUF) != recipientUF {
			continue
		}
		if !c.ActiveAt(at) {
			continue
		}
		if found == nil || c.ValidFrom.After(found.ValidFrom) {
			found = c
		}
	}
	return found
}

// activeRates filtra la tabla a las entradas de la UF vigentes en la fecha del documento.
func activeRates(all []entity.LegacyIcmsRate, uf string, doc entity.Document) []entity.LegacyIcmsRate {
	uf = fiscal.NormalizeUF(uf)
	out := make([]entity.LegacyIcmsRate, 0, len(all))
	for _, r := range all {
		if fiscal.NormalizeUF(r.UF) == uf && r.ActiveAt(doc.IssueDate) {
			out = append(out, r)
		}
	}
	return out
}

// specificity rango de la entrada para el ítem; 0 = no aplica.
//
//	4 NCM+categoría, 3 solo NCM, 2 solo categoría, 1 default de la UF.
func specificity(r entity.LegacyIcmsRate, ncm, category string) int {
	rNCM := fiscal.NormalizeNCM(r.NCM)
	switch {
	case rNCM != "" && r.Category != "":
		if rNCM == ncm && r.Category == category {
			return 4
		}
	case rNCM != "":
		if rNCM == ncm {
			return 3
		}
	case r.Category != "":
		if r.Category == category {
			return 2
		}
	default:
		return 1
	}
	return 0
}

// SelectRate elige la alícuota ICMS del ítem. Parte de la configuración de UF
// (interna u interestatal) y la refina con la entrada más específica de la tabla.
// En operaciones interestatales con configuración, el default de la UF de la tabla no
// reemplaza la alícuota interestatal del par; las entradas por NCM o categoría sí.
func SelectRate(cfg *entity.LegacyUfConfig, rates []entity.LegacyIcmsRate, item entity.DocumentItem, interstate bool) RateSelection {
	sel := RateSelection{Rate: money.Zero, Source: SourceNone}
	if cfg != nil {
		if interstate {
			sel.Rate, sel.Source = cfg.InterstateRate, SourceUfInterstate
		} else {
			sel.Rate, sel.Source = cfg.InternalRate, SourceUfInternal
		}
	}

	ncm := fiscal.NormalizeNCM(item.NCM)
	category := item.CategoryOrDefault()
	var best *entity.LegacyIcmsRate
	bestRank := 0
	for i := range rates {
		r := &rates[i]
		rank := specificity(*r, ncm, category)
		if rank == 0 {
			continue
		}
		if rank == 1 && interstate && cfg != nil {
			continue
		}
		if rank > bestRank || (rank == bestRank && r.ValidFrom.After(best.ValidFrom)) {
			best, bestRank = r, rank
		}
	}
	if best == nil {
		return sel
	}
	return RateSelection{Rate: best.Rate, Source: sourceForRank(bestRank), EntryID: best.ID}
}

func sourceForRank(rank int) RateSource {
	switch rank {
	case 4:
		return SourceTableNCMCategory
	case 3:
		return SourceTableNCM
	case 2:
		return SourceTableCategory
	default:
		return SourceTableUFDefault
	}
}
