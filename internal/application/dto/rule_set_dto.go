package dto

import "github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"

// RuleSetListResponse conjuntos visibles para la empresa (propios + globales).
type RuleSetListResponse struct {
	Items []rules.RuleSet `json:"items"`
}
