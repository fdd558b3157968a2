package yaml_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/yaml"
)

func TestParseRulePack_ConjuntoSuelto(t *testing.T) {
	data := []byte(`
name: prueba
validFrom: 2030-01-01
validTo: 2030-12-31
rules:
  - id: padrao
    priority: 0
    condition: {op: and, conditions: []}
    effect: {ibsRate: 0.17, cbsRate: 0.09}
  - id: bebidas
    priority: 10
    condition: {op: in, field: ncm, value: ["22030000", "22084000"]}
    effect: {isRate: 0.1}
`)
	pack, err := yaml.ParseRulePack(data)
	require.NoError(t, err)
	require.Len(t, pack.RuleSets, 1)

	rs := pack.RuleSets[0]
	assert.Equal(t, "prueba", rs.Name)
	assert.Equal(t, "2030-01-01", rs.ValidFrom.Format("2006-01-02"))
	require.NotNil(t, rs.ValidTo)
	require.Len(t, rs.Rules, 2)
	require.NoError(t, rules.ValidateRuleSet(rs))

	assert.True(t, rs.Rules[0].Effect.IBSRate.Equal(decimal.RequireFromString("0.17")))
	cmp, ok := rs.Rules[1].Condition.(rules.Comparison)
	require.True(t, ok)
	assert.Equal(t, rules.OpIn, cmp.Op)
	assert.Equal(t, rules.Field("ncm"), cmp.Field)
}

func TestParseRulePack_Invalido(t *testing.T) {
	_, err := yaml.ParseRulePack([]byte("name: [sin cerrar"))
	require.Error(t, err)

	_, err = yaml.ParseRulePack([]byte("name: x\nvalidFrom: ayer\nrules: []"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validFrom")
}

func TestLoadRulePack_ArchivoDelRepositorio(t *testing.T) {
	pack, err := yaml.LoadRulePack("../../../configs/rules.yaml")
	require.NoError(t, err)
	require.Len(t, pack.RuleSets, 2)
	for _, rs := range pack.RuleSets {
		assert.NoError(t, rules.ValidateRuleSet(rs), rs.Name)
	}
	assert.False(t, pack.RuleSets[0].Overlaps(pack.RuleSets[1]))
}

func TestLoadLegacyPack_ArchivoDelRepositorio(t *testing.T) {
	pack, err := yaml.LoadLegacyPack("../../../configs/legacy.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, pack.UfConfigs)
	require.NotEmpty(t, pack.IcmsRates)

	sp := pack.UfConfigs[1]
	assert.Equal(t, "SP", sp.EmitterUF)
	assert.Equal(t, "PR", sp.RecipientUF)
	assert.True(t, sp.InterstateRate.Equal(decimal.RequireFromString("0.12")))
	assert.True(t, sp.DifalEnabled)
	assert.Equal(t, "2024-01-01", sp.ValidFrom)
	assert.Equal(t, "22030000", pack.IcmsRates[1].NCM)
}

func TestLoadLegacyPack_ArchivoInexistente(t *testing.T) {
	_, err := yaml.LoadLegacyPack("no-existe.yaml")
	require.Error(t, err)
}
