package entity

import (
	"fmt"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
)

// Validate verifica los datos del documento que consumen ambos motores.
// Devuelve un FieldError por problema; vacío si el documento es válido.
func (d *Document) Validate() []error {
	var errs []error
	if d.IssueDate.IsZero() {
		errs = append(errs, domain.Invalid("document.issueDate", "requerida"))
	}
	if d.EmitterUF == "" {
		errs = append(errs, domain.Invalid("document.emitterUf", "requerido"))
	}
	if d.RecipientUF == "" {
		errs = append(errs, domain.Invalid("document.recipientUf", "requerido"))
	}
	if d.TotalValue.IsNegative() {
		errs = append(errs, domain.Invalid("document.totalValue", "no puede ser negativo"))
	}
	seen := make(map[string]bool, len(d.Items))
	for i, it := range d.Items {
		path := fmt.Sprintf("document.items[%d]", i)
		switch {
		case it.ID == "":
			errs = append(errs, domain.Invalid(path+".id", "requerido"))
		case seen[it.ID]:
			errs = append(errs, domain.Invalid(path+".id", fmt.Sprintf("duplicado %q", it.ID)))
		}
		seen[it.ID] = true
		if it.TotalValue.IsNegative() {
			errs = append(errs, domain.Invalid(path+".totalValue", "no puede ser negativo"))
		}
	}
	return errs
}
