package rules_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestValidateRuleSet_Valido(t *testing.T) {
	rs := rules.RuleSet{
		Name:      "ok",
		ValidFrom: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		Rules: []rules.Rule{
			{ID: "default", Priority: 100, Condition: rules.Always(), Effect: rules.Effect{IBSRate: dec("0.17")}},
		},
	}
	assert.NoError(t, rules.ValidateRuleSet(rs))
}

func TestValidateRuleSet_ReportaCadaProblema(t *testing.T) {
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rs := rules.RuleSet{
		ValidFrom: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:   &to,
		Rules: []rules.Rule{
			{ID: "a", Condition: rules.Comparison{Op: rules.OpEq, Value: "SP"}},
			{ID: "a", Condition: rules.Group{Op: rules.OpOr}},
			{ID: "", Condition: nil, Effect: rules.Effect{IBSRate: dec("1.5"), TaxBaseReduction: dec("-1")}},
			{ID: "c", Condition: rules.Compare(rules.FieldNCM, rules.OpIn, "22030000")},
		},
	}
	err := rules.ValidateRuleSet(rs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	fields := map[string]bool{}
	for _, fe := range domain.FieldErrors(err) {
		fields[fe.Field] = true
	}
	for _, want := range []string{
		"name", "validTo",
		"rules[0].condition.field",
		"rules[1].id", "rules[1].condition.conditions",
		"rules[2].id", "rules[2].condition", "rules[2].effect.ibsRate", "rules[2].effect.taxBaseReduction",
		"rules[3].condition.value",
	} {
		assert.True(t, fields[want], "falta error para %s", want)
	}
}
