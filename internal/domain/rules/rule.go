package rules

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Errores de selección del conjunto de reglas vigente.
var (
	ErrNoActiveRuleSet        = errors.New("ningún conjunto de reglas vigente para la fecha")
	ErrAmbiguousActiveRuleSet = errors.New("más de un conjunto de reglas vigente para la fecha")
)

// Effect sobrescrituras opcionales que aplica una regla. Campo nil = sin cambio.
type Effect struct {
	IBSRate           *decimal.Decimal `json:"ibsRate,omitempty"`
	CBSRate           *decimal.Decimal `json:"cbsRate,omitempty"`
	ISRate            *decimal.Decimal `json:"isRate,omitempty"`
	TaxBaseMultiplier *decimal.Decimal `json:"taxBaseMultiplier,omitempty"`
	TaxBaseReduction  *decimal.Decimal `json:"taxBaseReduction,omitempty"`
	CreditEligible    *bool            `json:"creditEligible,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
}

// IsEmpty indica si el efecto no define ningún campo.
func (e Effect) IsEmpty() bool {
	return e.IBSRate == nil && e.CBSRate == nil && e.ISRate == nil &&
		e.TaxBaseMultiplier == nil && e.TaxBaseReduction == nil &&
		e.CreditEligible == nil && e.Notes == nil
}

// Rule regla fiscal: si Condition se cumple, Effect se fusiona sobre la decisión.
type Rule struct {
	ID          string
	Priority    int
	Description string
	Condition   Condition
	Effect      Effect
}

// RuleSet conjunto ordenado de reglas con ventana de vigencia [ValidFrom, ValidTo].
type RuleSet struct {
	ID        string
	CompanyID string // vacío = conjunto global
	Name      string
	ValidFrom time.Time
	ValidTo   *time.Time
	Rules     []Rule
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveAt indica si el conjunto está vigente en la fecha (comparación por día, inclusiva).
func (rs RuleSet) ActiveAt(t time.Time) bool {
	day := dayOf(t)
	if day.Before(dayOf(rs.ValidFrom)) {
		return false
	}
	return rs.ValidTo == nil || !day.After(dayOf(*rs.ValidTo))
}

// Overlaps indica si las ventanas de vigencia de ambos conjuntos se solapan.
func (rs RuleSet) Overlaps(other RuleSet) bool {
	startA, startB := dayOf(rs.ValidFrom), dayOf(other.ValidFrom)
	endsBefore := func(end *time.Time, start time.Time) bool {
		return end != nil && dayOf(*end).Before(start)
	}
	return !endsBefore(rs.ValidTo, startB) && !endsBefore(other.ValidTo, startA)
}

// Sorted devuelve una copia de las reglas ordenadas por prioridad descendente.
// Empates conservan el orden de declaración.
func (rs RuleSet) Sorted() []Rule {
	out := make([]Rule, len(rs.Rules))
	copy(out, rs.Rules)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// SelectActive devuelve el único conjunto vigente en la fecha.
func SelectActive(sets []RuleSet, at time.Time) (*RuleSet, error) {
	var found *RuleSet
	for i := range sets {
		if !sets[i].ActiveAt(at) {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguousActiveRuleSet
		}
		found = &sets[i]
	}
	if found == nil {
		return nil, ErrNoActiveRuleSet
	}
	return found, nil
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
