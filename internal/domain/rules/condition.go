// Package rules define el árbol de condiciones de las reglas fiscales del régimen
// nuevo (IBS/CBS/IS), sus efectos y el evaluador puro que decide si una regla aplica
// a un ítem. El evaluador nunca hace panic ante datos mal formados: devuelve
// Matched=false con el motivo, que queda registrado en la auditoría.
package rules

// Field campo del contexto por ítem que una comparación puede consultar.
type Field string

const (
	FieldEmitterUF     Field = "emitterUf"
	FieldRecipientUF   Field = "recipientUf"
	FieldNCM           Field = "ncm"
	FieldCategory      Field = "category"
	FieldOperationType Field = "operationType"
	FieldIssueDate     Field = "issueDate"
	FieldItemValue     Field = "itemValue"
)

var knownFields = map[Field]bool{
	FieldEmitterUF: true, FieldRecipientUF: true, FieldNCM: true, FieldCategory: true,
	FieldOperationType: true, FieldIssueDate: true, FieldItemValue: true,
}

// IsKnown indica si el campo pertenece al conjunto fijo del contexto.
func (f Field) IsKnown() bool { return knownFields[f] }

// Operator operador de una comparación o combinador.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNe    Operator = "ne"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpIn    Operator = "in"
	OpNotIn Operator = "notIn"

	OpAnd Operator = "and"
	OpOr  Operator = "or"
)

var comparisonOps = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true, OpIn: true, OpNotIn: true,
}

// IsComparison indica si op es un operador hoja.
func (op Operator) IsComparison() bool { return comparisonOps[op] }

// IsCombinator indica si op es and/or.
func (op Operator) IsCombinator() bool { return op == OpAnd || op == OpOr }

// Condition nodo del árbol de condiciones. Las únicas variantes son Comparison y Group.
type Condition interface {
	conditionNode()
}

// Comparison hoja: compara el valor del campo del contexto con Value.
// Para in/notIn, Value debe ser una lista.
type Comparison struct {
	Op    Operator
	Field Field
	Value any
}

// Group combinador and/or. Conditions nil = combinador mal formado; vacío = and vacuo.
type Group struct {
	Op         Operator
	Conditions []Condition
}

func (Comparison) conditionNode() {}
func (Group) conditionNode()      {}

// Always condición catch-all: and vacío, siempre verdadera.
func Always() Group {
	return Group{Op: OpAnd, Conditions: []Condition{}}
}

// All combina condiciones con and.
func All(conds ...Condition) Group {
	if conds == nil {
		conds = []Condition{}
	}
	return Group{Op: OpAnd, Conditions: conds}
}

// Any combina condiciones con or.
func Any(conds ...Condition) Group {
	if conds == nil {
		conds = []Condition{}
	}
	return Group{Op: OpOr, Conditions: conds}
}

// Compare construye una comparación hoja.
func Compare(field Field, op Operator, value any) Comparison {
	return Comparison{Op: op, Field: field, Value: value}
}

// Eq atajo para field == value.
func Eq(field Field, value any) Comparison { return Compare(field, OpEq, value) }

// In atajo para field ∈ values.
func In(field Field, values ...any) Comparison { return Compare(field, OpIn, values) }
