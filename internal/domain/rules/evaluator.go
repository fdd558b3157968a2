package rules

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Evaluation resultado de evaluar una condición contra un contexto.
type Evaluation struct {
	Matched bool
	Reason  string
}

// isoDateLike detecta strings "YYYY-MM-DD" con o sin hora (ISO 8601).
var isoDateLike = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?)?$`)

// Evaluate evalúa cond contra ctx. Función pura; nunca hace panic.
func Evaluate(cond Condition, ctx Context) Evaluation {
	switch c := cond.(type) {
	case Comparison:
		return evaluateComparison(c, ctx)
	case *Comparison:
		if c == nil {
			return Evaluation{Reason: "condición ausente"}
		}
		return evaluateComparison(*c, ctx)
	case Group:
		return evaluateGroup(c, ctx)
	case *Group:
		if c == nil {
			return Evaluation{Reason: "condición ausente"}
		}
		return evaluateGroup(*c, ctx)
	case nil:
		return Evaluation{Reason: "condición ausente"}
	default:
		return Evaluation{Reason: fmt.Sprintf("tipo de condición desconocido %T", cond)}
	}
}

func evaluateGroup(g Group, ctx Context) Evaluation {
	if g.Conditions == nil {
		return Evaluation{Reason: fmt.Sprintf("combinador %q sin conditions", g.Op)}
	}
	switch g.Op {
	case OpAnd:
		if len(g.Conditions) == 0 {
			return Evaluation{Matched: true, Reason: "and vacío: regla por defecto"}
		}
		var failed, passed []string
		for _, child := range g.Conditions {
			ev := Evaluate(child, ctx)
			if ev.Matched {
				passed = append(passed, ev.Reason)
			} else {
				failed = append(failed, ev.Reason)
			}
		}
		if len(failed) > 0 {
			return Evaluation{Reason: "and falló: " + strings.Join(failed, "; ")}
		}
		return Evaluation{Matched: true, Reason: "and: " + strings.Join(passed, "; ")}
	case OpOr:
		reasons := make([]string, 0, len(g.Conditions))
		for _, child := range g.Conditions {
			ev := Evaluate(child, ctx)
			if ev.Matched {
				return Evaluation{Matched: true, Reason: "or: " + ev.Reason}
			}
			reasons = append(reasons, ev.Reason)
		}
		if len(reasons) == 0 {
			return Evaluation{Reason: "or vacío: ninguna condición"}
		}
		return Evaluation{Reason: "or sin coincidencias: " + strings.Join(reasons, "; ")}
	default:
		return Evaluation{Reason: fmt.Sprintf("combinador desconocido %q", g.Op)}
	}
}

func evaluateComparison(c Comparison, ctx Context) Evaluation {
	if c.Field == "" {
		return Evaluation{Reason: "regla mal formada: comparación sin field"}
	}
	actual, ok := ctx.Lookup(c.Field)
	if !ok {
		return Evaluation{Reason: fmt.Sprintf("campo desconocido %q", c.Field)}
	}
	left := normalize(actual)
	desc := fmt.Sprintf("%s %s %s (valor: %s)", c.Field, c.Op, describe(c.Value), describe(actual))

	switch c.Op {
	case OpEq:
		return Evaluation{Matched: equal(left, normalize(c.Value)), Reason: desc}
	case OpNe:
		return Evaluation{Matched: !equal(left, normalize(c.Value)), Reason: desc}
	case OpGt, OpGte, OpLt, OpLte:
		cmp, comparable := order(left, normalize(c.Value))
		if !comparable {
			return Evaluation{Reason: desc + ": operandos no comparables"}
		}
		var matched bool
		switch c.Op {
		case OpGt:
			matched = cmp > 0
		case OpGte:
			matched = cmp >= 0
		case OpLt:
			matched = cmp < 0
		case OpLte:
			matched = cmp <= 0
		}
		return Evaluation{Matched: matched, Reason: desc}
	case OpIn, OpNotIn:
		list, isList := asList(c.Value)
		if !isList {
			return Evaluation{Reason: desc + ": el operando de " + string(c.Op) + " debe ser una lista"}
		}
		found := false
		for _, v := range list {
			if equal(left, normalize(v)) {
				found = true
				break
			}
		}
		if c.Op == OpNotIn {
			found = !found
		}
		return Evaluation{Matched: found, Reason: desc}
	default:
		return Evaluation{Reason: fmt.Sprintf("operador desconocido %q", c.Op)}
	}
}

// normalize lleva ambos operandos a una forma comparable:
// fechas ISO -> time.Time (UTC), números -> decimal.Decimal, resto sin cambios.
func normalize(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	case decimal.Decimal:
		return t
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return *t
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
		return t.String()
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int32:
		return decimal.NewFromInt32(t)
	case int64:
		return decimal.NewFromInt(t)
	case string:
		if isoDateLike.MatchString(t) {
			if ts, ok := parseISO(t); ok {
				return ts
			}
		}
		return t
	default:
		return v
	}
}

func parseISO(s string) (time.Time, bool) {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func equal(a, b any) bool {
	switch x := a.(type) {
	case decimal.Decimal:
		if y, ok := asDecimal(b); ok {
			return x.Equal(y)
		}
		return false
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Equal(y)
		}
		return false
	case string:
		switch y := b.(type) {
		case string:
			return x == y
		case decimal.Decimal:
			if d, err := decimal.NewFromString(x); err == nil {
				return d.Equal(y)
			}
		}
		return false
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case nil:
		return b == nil
	default:
		return reflect.DeepEqual(a, b)
	}
}

// order compara a con b; comparable=false si los tipos no admiten orden.
func order(a, b any) (cmp int, comparable bool) {
	switch x := a.(type) {
	case decimal.Decimal:
		if y, ok := asDecimal(b); ok {
			return x.Cmp(y), true
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
	case string:
		switch y := b.(type) {
		case string:
			return strings.Compare(x, y), true
		case decimal.Decimal:
			if d, err := decimal.NewFromString(x); err == nil {
				return d.Cmp(y), true
			}
		}
	}
	return 0, false
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case string:
		d, err := decimal.NewFromString(t)
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

// asList acepta []any o cualquier slice tipado ([]string, []decimal.Decimal...).
func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", t)
	case time.Time:
		return t.UTC().Format("2006-01-02")
	case decimal.Decimal:
		return t.String()
	case json.Number:
		return t.String()
	}
	if list, ok := asList(v); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = describe(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}
