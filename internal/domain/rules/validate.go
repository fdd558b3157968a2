package rules

import (
	"fmt"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/money"
)

// ValidateRuleSet valida la forma del conjunto una sola vez, al cargarlo.
// Devuelve nil o un error que envuelve domain.ErrInvalidInput con un FieldError por problema.
func ValidateRuleSet(rs RuleSet) error {
	var errs []error
	if rs.Name == "" {
		errs = append(errs, domain.Invalid("name", "requerido"))
	}
	if rs.ValidFrom.IsZero() {
		errs = append(errs, domain.Invalid("validFrom", "requerido"))
	}
	if rs.ValidTo != nil && rs.ValidTo.Before(rs.ValidFrom) {
		errs = append(errs, domain.Invalid("validTo", "anterior a validFrom"))
	}
	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		path := fmt.Sprintf("rules[%d]", i)
		if r.ID == "" {
			errs = append(errs, domain.Invalid(path+".id", "requerido"))
		} else if seen[r.ID] {
			errs = append(errs, domain.Invalid(path+".id", fmt.Sprintf("duplicado %q", r.ID)))
		}
		seen[r.ID] = true
		errs = append(errs, ValidateCondition(r.Condition, path+".condition")...)
		errs = append(errs, validateEffect(r.Effect, path+".effect")...)
	}
	return domain.JoinInvalid(errs)
}

// ValidateCondition recorre el árbol y devuelve un error por nodo mal formado.
func ValidateCondition(c Condition, path string) []error {
	switch t := c.(type) {
	case nil:
		return []error{domain.Invalid(path, "requerida")}
	case *Comparison:
		if t == nil {
			return []error{domain.Invalid(path, "requerida")}
		}
		return ValidateCondition(*t, path)
	case *Group:
		if t == nil {
			return []error{domain.Invalid(path, "requerida")}
		}
		return ValidateCondition(*t, path)
	case Comparison:
		var errs []error
		if !t.Op.IsComparison() {
			errs = append(errs, domain.Invalid(path+".op", fmt.Sprintf("operador desconocido %q", t.Op)))
		}
		if t.Field == "" {
			errs = append(errs, domain.Invalid(path+".field", "requerido en comparaciones"))
		} else if !t.Field.IsKnown() {
			errs = append(errs, domain.Invalid(path+".field", fmt.Sprintf("campo desconocido %q", t.Field)))
		}
		if t.Op == OpIn || t.Op == OpNotIn {
			if _, ok := asList(t.Value); !ok {
				errs = append(errs, domain.Invalid(path+".value", "debe ser una lista para "+string(t.Op)))
			}
		}
		return errs
	case Group:
		if !t.Op.IsCombinator() {
			return []error{domain.Invalid(path+".op", fmt.Sprintf("combinador desconocido %q", t.Op))}
		}
		if t.Conditions == nil {
			return []error{domain.Invalid(path+".conditions", "requerido en combinadores")}
		}
		var errs []error
		for i, child := range t.Conditions {
			errs = append(errs, ValidateCondition(child, fmt.Sprintf("%s.conditions[%d]", path, i))...)
		}
		return errs
	default:
		return []error{domain.Invalid(path, fmt.Sprintf("tipo desconocido %T", c))}
	}
}

func validateEffect(e Effect, path string) []error {
	var errs []error
	check := func(name string, present bool, ok bool, msg string) {
		if present && !ok {
			errs = append(errs, domain.Invalid(path+"."+name, msg))
		}
	}
	check("ibsRate", e.IBSRate != nil, e.IBSRate == nil || money.IsRate(*e.IBSRate), "debe estar entre 0 y 1")
	check("cbsRate", e.CBSRate != nil, e.CBSRate == nil || money.IsRate(*e.CBSRate), "debe estar entre 0 y 1")
	check("isRate", e.ISRate != nil, e.ISRate == nil || money.IsRate(*e.ISRate), "debe estar entre 0 y 1")
	check("taxBaseMultiplier", e.TaxBaseMultiplier != nil, e.TaxBaseMultiplier == nil || !e.TaxBaseMultiplier.IsNegative(), "no puede ser negativo")
	check("taxBaseReduction", e.TaxBaseReduction != nil, e.TaxBaseReduction == nil || !e.TaxBaseReduction.IsNegative(), "no puede ser negativo")
	return errs
}
