package transition

import "github.com/shopspring/decimal"

// Años límite del calendario de transición.
const (
	FirstTransitionYear = 2029
	FullNewRegimeYear   = 2033
)

// legacyShare participación del régimen vigente por año intermedio.
var legacyShare = map[int]decimal.Decimal{
	2029: decimal.RequireFromString("0.9"),
	2030: decimal.RequireFromString("0.8"),
	2031: decimal.RequireFromString("0.7"),
	2032: decimal.RequireFromString("0.6"),
}

// Weights pesos de cada régimen para un año; Legacy + IBS == 1.
type Weights struct {
	Year   int             `json:"year"`
	Legacy decimal.Decimal `json:"legacy"`
	IBS    decimal.Decimal `json:"ibs"`
}

// WeightsForYear devuelve los pesos del año de emisión.
// Hasta 2028 todo es régimen vigente; desde 2033 todo es régimen nuevo.
func WeightsForYear(year int) Weights {
	var l decimal.Decimal
	switch {
	case year < FirstTransitionYear:
		l = decimal.NewFromInt(1)
	case year >= FullNewRegimeYear:
		l = decimal.Zero
	default:
		l = legacyShare[year]
	}
	return Weights{Year: year, Legacy: l, IBS: decimal.NewFromInt(1).Sub(l)}
}

// Schedule pesos de cada año entre from y to, inclusive.
func Schedule(from, to int) []Weights {
	if to < from {
		return nil
	}
	out := make([]Weights, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, WeightsForYear(y))
	}
	return out
}
