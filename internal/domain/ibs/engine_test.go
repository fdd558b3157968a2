package ibs_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/ibs"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func bp(b bool) *bool { return &b }

func sp(s string) *string { return &s }

func documentoSimple(category string) entity.Document {
	return entity.Document{
		ID:            "doc-1",
		IssueDate:     time.Date(2030, 5, 10, 0, 0, 0, 0, time.UTC),
		EmitterUF:     "SP",
		RecipientUF:   "SP",
		OperationType: entity.OperationSale,
		TotalValue:    d("1000"),
		Items: []entity.DocumentItem{
			{ID: "item-1", LineNumber: 1, NCM: "22030000", Quantity: d("10"), UnitValue: d("100"), TotalValue: d("1000"), Category: category},
		},
	}
}

func reglaDefault() rules.Rule {
	return rules.Rule{
		ID: "default", Priority: 100, Description: "Alícuotas de referencia",
		Condition: rules.Always(),
		Effect:    rules.Effect{IBSRate: dp("0.17"), CBSRate: dp("0.09"), CreditEligible: bp(true)},
	}
}

func reglaIsenta() rules.Rule {
	return rules.Rule{
		ID: "isenta", Priority: 10, Description: "Produtos isentos",
		Condition: rules.Eq(rules.FieldCategory, "ISENTA"),
		Effect:    rules.Effect{IBSRate: dp("0"), CBSRate: dp("0"), CreditEligible: bp(false), Notes: sp("isenção")},
	}
}

func conjunto(rs ...rules.Rule) rules.RuleSet {
	return rules.RuleSet{ID: "rs-1", Name: "teste", ValidFrom: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), Rules: rs}
}

// ── Escenarios concretos ──

func TestCalculate_ReglaDefault(t *testing.T) {
	out, err := ibs.Calculate(ibs.CalcInput{Document: documentoSimple(""), RuleSet: conjunto(reglaDefault())})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)

	it := out.Items[0]
	assert.True(t, it.IBSValue.Equal(d("170")))
	assert.True(t, it.CBSValue.Equal(d("90")))
	assert.True(t, it.ISValue.IsZero())
	assert.True(t, it.TaxBase.Equal(d("1000")))
	assert.True(t, it.CreditEligible)
	assert.Equal(t, entity.DefaultCategory, it.Category)
	assert.True(t, it.SimulatedPrice.Equal(d("1260")), it.SimulatedPrice.String())

	assert.True(t, out.Summary.EffectiveRate.Equal(d("0.26")), out.Summary.EffectiveRate.String())
	assert.True(t, out.Summary.TotalTax.Equal(d("260")))
	assert.True(t, out.Summary.CreditTotal.Equal(d("260")))
}

func TestCalculate_IsentaSobrescribeDefault(t *testing.T) {
	out, err := ibs.Calculate(ibs.CalcInput{Document: documentoSimple("ISENTA"), RuleSet: conjunto(reglaIsenta(), reglaDefault())})
	require.NoError(t, err)

	it := out.Items[0]
	assert.True(t, it.IBSValue.IsZero())
	assert.True(t, it.CBSValue.IsZero())
	assert.False(t, it.CreditEligible)
	assert.Equal(t, []string{"isenção"}, it.Notes)
	assert.True(t, out.Summary.CreditTotal.IsZero())

	require.Len(t, it.Audit, 2)
	assert.Equal(t, "default", it.Audit[0].RuleID, "mayor prioridad se evalúa primero")
	assert.Equal(t, "isenta", it.Audit[1].RuleID)
	assert.True(t, it.Audit[0].Matched)
	assert.True(t, it.Audit[1].Matched)
	require.NotNil(t, it.Audit[1].Effect)
}

func TestCalculate_EscenarioFactorYRepasse(t *testing.T) {
	sc := &entity.ScenarioParams{TransitionFactor: dp("0.5"), PricePassThroughPercent: dp("50")}
	out, err := ibs.Calculate(ibs.CalcInput{Document: documentoSimple(""), RuleSet: conjunto(reglaDefault()), Scenario: sc})
	require.NoError(t, err)

	it := out.Items[0]
	assert.True(t, it.IBSRate.Equal(d("0.085")), it.IBSRate.String())
	assert.True(t, it.CBSRate.Equal(d("0.045")), it.CBSRate.String())
	assert.True(t, it.IBSValue.Equal(d("85")))
	assert.True(t, it.CBSValue.Equal(d("45")))
	// taxBase + totalTax * 0.5
	assert.True(t, it.SimulatedPrice.Equal(d("1065")), it.SimulatedPrice.String())
}

// ── Propiedades ──

func TestCalculate_ReglaEspecificaGanaSobreCatchAll(t *testing.T) {
	especifica := rules.Rule{
		ID: "bebidas", Priority: 1,
		Condition: rules.Eq(rules.FieldNCM, "22030000"),
		Effect:    rules.Effect{ISRate: dp("0.1"), IBSRate: dp("0.2")},
	}
	out, err := ibs.Calculate(ibs.CalcInput{Document: documentoSimple(""), RuleSet: conjunto(especifica, reglaDefault())})
	require.NoError(t, err)

	it := out.Items[0]
	assert.True(t, it.IBSRate.Equal(d("0.2")))
	assert.True(t, it.CBSRate.Equal(d("0.09")), "campos no definidos por la regla específica se conservan")
	assert.True(t, it.ISRate.Equal(d("0.1")))
	assert.True(t, it.CreditEligible)
}

func TestCalculate_BaseNuncaNegativa(t *testing.T) {
	reduccion := rules.Rule{
		ID: "reducao", Priority: 1, Condition: rules.Always(),
		Effect: rules.Effect{TaxBaseReduction: dp("1500"), TaxBaseMultiplier: dp("0.6")},
	}
	out, err := ibs.Calculate(ibs.CalcInput{Document: documentoSimple(""), RuleSet: conjunto(reglaDefault(), reduccion)})
	require.NoError(t, err)
	it := out.Items[0]
	assert.True(t, it.TaxBase.IsZero())
	assert.True(t, it.IBSValue.IsZero())
	assert.True(t, it.SimulatedPrice.IsZero())
}

func TestCalculate_BaseConReduccionYMultiplicador(t *testing.T) {
	reduccion := rules.Rule{
		ID: "reducao", Priority: 1, Condition: rules.Always(),
		Effect: rules.Effect{TaxBaseReduction: dp("100.005"), TaxBaseMultiplier: dp("0.4")},
	}
	out, err := ibs.Calculate(ibs.CalcInput{Document: documentoSimple(""), RuleSet: conjunto(reglaDefault(), reduccion)})
	require.NoError(t, err)
	// (1000 - 100.005) * 0.4 = 359.998 -> 360.00
	assert.True(t, out.Items[0].TaxBase.Equal(d("360")), out.Items[0].TaxBase.String())
}

func TestCalculate_OverrideIgnoraFactor(t *testing.T) {
	sc := &entity.ScenarioParams{
		TransitionFactor: dp("0.3"),
		OverrideRates:    entity.OverrideRates{CBSRate: dp("0.1234567")},
	}
	out, err := ibs.Calculate(ibs.CalcInput{Document: documentoSimple(""), RuleSet: conjunto(reglaDefault()), Scenario: sc})
	require.NoError(t, err)
	it := out.Items[0]
	assert.Equal(t, "0.1234567", it.CBSRate.String(), "override aparece tal cual")
	assert.True(t, it.IBSRate.Equal(d("0.051")))
}

func TestCalculate_EsDeterminista(t *testing.T) {
	in := ibs.CalcInput{Document: documentoSimple("ISENTA"), RuleSet: conjunto(reglaIsenta(), reglaDefault())}
	a, err := ibs.Calculate(in)
	require.NoError(t, err)
	b, err := ibs.Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalculate_BaseDocumentoCeroUsaSumaDeItems(t *testing.T) {
	doc := documentoSimple("")
	doc.TotalValue = decimal.Zero
	out, err := ibs.Calculate(ibs.CalcInput{Document: doc, RuleSet: conjunto(reglaDefault())})
	require.NoError(t, err)
	assert.True(t, out.Summary.EffectiveRate.Equal(d("0.26")))
}

func TestCalculate_SinItemsTasaCero(t *testing.T) {
	doc := documentoSimple("")
	doc.TotalValue = decimal.Zero
	doc.Items = nil
	out, err := ibs.Calculate(ibs.CalcInput{Document: doc, RuleSet: conjunto(reglaDefault())})
	require.NoError(t, err)
	assert.True(t, out.Summary.EffectiveRate.IsZero())
	assert.Empty(t, out.Items)
}

// ── Validación ──

func TestCalculate_EntradaInvalida(t *testing.T) {
	doc := documentoSimple("")
	doc.Items = append(doc.Items, entity.DocumentItem{ID: "item-1", TotalValue: d("-1")})
	sc := &entity.ScenarioParams{TransitionFactor: dp("1.5"), PricePassThroughPercent: dp("120")}
	rs := conjunto(rules.Rule{ID: "x", Condition: rules.Comparison{Op: rules.OpEq, Value: "SP"}})

	_, err := ibs.Calculate(ibs.CalcInput{Document: doc, RuleSet: rs, Scenario: sc})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	fields := map[string]bool{}
	for _, fe := range domain.FieldErrors(err) {
		fields[fe.Field] = true
	}
	assert.True(t, fields["document.items[1].id"])
	assert.True(t, fields["document.items[1].totalValue"])
	assert.True(t, fields["scenario.transitionFactor"])
	assert.True(t, fields["scenario.pricePassThroughPercent"])
	assert.True(t, fields["ruleSet.rules[0].condition.field"])
}
