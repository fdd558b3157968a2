package rules_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRuleSet_SortedPrioridadDescendenteEstable(t *testing.T) {
	rs := rules.RuleSet{Rules: []rules.Rule{
		{ID: "b", Priority: 10},
		{ID: "a", Priority: 100},
		{ID: "c", Priority: 10},
		{ID: "d", Priority: 50},
	}}
	sorted := rs.Sorted()
	ids := make([]string, len(sorted))
	for i, r := range sorted {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids)
	assert.Equal(t, "b", rs.Rules[0].ID, "Sorted no debe modificar el conjunto original")
}

func TestRuleSet_ActiveAt(t *testing.T) {
	to := date(2030, 12, 31)
	rs := rules.RuleSet{ValidFrom: date(2030, 1, 1), ValidTo: &to}
	assert.True(t, rs.ActiveAt(date(2030, 1, 1)))
	assert.True(t, rs.ActiveAt(time.Date(2030, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, rs.ActiveAt(date(2029, 12, 31)))
	assert.False(t, rs.ActiveAt(date(2031, 1, 1)))

	open := rules.RuleSet{ValidFrom: date(2030, 1, 1)}
	assert.True(t, open.ActiveAt(date(2040, 1, 1)))
}

func TestSelectActive(t *testing.T) {
	end2029 := date(2029, 12, 31)
	sets := []rules.RuleSet{
		{ID: "2029", ValidFrom: date(2029, 1, 1), ValidTo: &end2029},
		{ID: "2030+", ValidFrom: date(2030, 1, 1)},
	}
	rs, err := rules.SelectActive(sets, date(2031, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, "2030+", rs.ID)

	_, err = rules.SelectActive(sets, date(2020, 1, 1))
	assert.True(t, errors.Is(err, rules.ErrNoActiveRuleSet))

	sets = append(sets, rules.RuleSet{ID: "dup", ValidFrom: date(2031, 1, 1)})
	_, err = rules.SelectActive(sets, date(2031, 6, 1))
	assert.True(t, errors.Is(err, rules.ErrAmbiguousActiveRuleSet))
}

func TestRuleSet_Overlaps(t *testing.T) {
	end := date(2029, 12, 31)
	a := rules.RuleSet{ValidFrom: date(2029, 1, 1), ValidTo: &end}
	b := rules.RuleSet{ValidFrom: date(2030, 1, 1)}
	c := rules.RuleSet{ValidFrom: date(2029, 6, 1)}
	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.True(t, b.Overlaps(c))
}
