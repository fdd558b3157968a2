package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ParseCondition construye el árbol a partir de un valor genérico decodificado de JSON o YAML
// (map[string]any). Solo falla si la forma no es un objeto; los errores de contenido
// (op desconocido, field ausente) los reporta ValidateCondition.
func ParseCondition(raw any) (Condition, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("condición debe ser un objeto, se recibió %T", raw)
	}
	opStr, _ := m["op"].(string)
	op := Operator(opStr)

	if op.IsCombinator() {
		g := Group{Op: op}
		rawChildren, present := m["conditions"]
		if !present || rawChildren == nil {
			return g, nil
		}
		list, ok := rawChildren.([]any)
		if !ok {
			return nil, fmt.Errorf("conditions de %q debe ser una lista", op)
		}
		g.Conditions = make([]Condition, 0, len(list))
		for i, child := range list {
			c, err := ParseCondition(child)
			if err != nil {
				return nil, fmt.Errorf("conditions[%d]: %w", i, err)
			}
			g.Conditions = append(g.Conditions, c)
		}
		return g, nil
	}

	field, _ := m["field"].(string)
	return Comparison{Op: op, Field: Field(field), Value: m["value"]}, nil
}

// ConditionToMap convierte el árbol a su forma JSON genérica.
func ConditionToMap(c Condition) map[string]any {
	switch t := c.(type) {
	case Comparison:
		return map[string]any{"op": string(t.Op), "field": string(t.Field), "value": t.Value}
	case *Comparison:
		if t == nil {
			return nil
		}
		return ConditionToMap(*t)
	case Group:
		children := make([]any, 0, len(t.Conditions))
		for _, child := range t.Conditions {
			children = append(children, ConditionToMap(child))
		}
		return map[string]any{"op": string(t.Op), "conditions": children}
	case *Group:
		if t == nil {
			return nil
		}
		return ConditionToMap(*t)
	default:
		return nil
	}
}

// DecodeCondition decodifica JSON preservando números como json.Number.
func DecodeCondition(data []byte) (Condition, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decodificar condición: %w", err)
	}
	return ParseCondition(raw)
}

// EncodeCondition serializa el árbol a JSON.
func EncodeCondition(c Condition) ([]byte, error) {
	return json.Marshal(ConditionToMap(c))
}

type ruleJSON struct {
	ID          string          `json:"id"`
	Priority    int             `json:"priority"`
	Description string          `json:"description,omitempty"`
	Condition   json.RawMessage `json:"condition"`
	Effect      Effect          `json:"effect"`
}

// MarshalJSON serializa la regla con su condición en forma genérica.
func (r Rule) MarshalJSON() ([]byte, error) {
	cond, err := EncodeCondition(r.Condition)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ruleJSON{
		ID: r.ID, Priority: r.Priority, Description: r.Description,
		Condition: cond, Effect: r.Effect,
	})
}

// UnmarshalJSON decodifica la regla y construye el árbol de condiciones.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var aux ruleJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ID, r.Priority, r.Description, r.Effect = aux.ID, aux.Priority, aux.Description, aux.Effect
	r.Condition = nil
	if len(aux.Condition) > 0 && string(aux.Condition) != "null" {
		cond, err := DecodeCondition(aux.Condition)
		if err != nil {
			return fmt.Errorf("regla %q: %w", aux.ID, err)
		}
		r.Condition = cond
	}
	return nil
}

type ruleSetJSON struct {
	ID        string `json:"id,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
	Name      string `json:"name"`
	ValidFrom string `json:"validFrom"`
	ValidTo   string `json:"validTo,omitempty"`
	Rules     []Rule `json:"rules"`
}

// MarshalJSON serializa fechas como YYYY-MM-DD.
func (rs RuleSet) MarshalJSON() ([]byte, error) {
	aux := ruleSetJSON{ID: rs.ID, CompanyID: rs.CompanyID, Name: rs.Name, Rules: rs.Rules}
	if !rs.ValidFrom.IsZero() {
		aux.ValidFrom = rs.ValidFrom.Format(time.DateOnly)
	}
	if rs.ValidTo != nil {
		aux.ValidTo = rs.ValidTo.Format(time.DateOnly)
	}
	if aux.Rules == nil {
		aux.Rules = []Rule{}
	}
	return json.Marshal(aux)
}

// UnmarshalJSON acepta fechas YYYY-MM-DD o RFC3339.
func (rs *RuleSet) UnmarshalJSON(data []byte) error {
	var aux ruleSetJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	from, err := ParseDate(aux.ValidFrom)
	if err != nil {
		return fmt.Errorf("validFrom: %w", err)
	}
	var to *time.Time
	if aux.ValidTo != "" {
		t, err := ParseDate(aux.ValidTo)
		if err != nil {
			return fmt.Errorf("validTo: %w", err)
		}
		to = &t
	}
	rs.ID, rs.CompanyID, rs.Name = aux.ID, aux.CompanyID, aux.Name
	rs.ValidFrom, rs.ValidTo, rs.Rules = from, to, aux.Rules
	return nil
}

// ParseDate acepta YYYY-MM-DD o RFC3339. String vacío = fecha cero.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida %q", s)
	}
	return t, nil
}
