package seed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/seed"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/memory"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/yaml"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

func runner() (*memory.TxRunner, *memory.RuleSetRepo, *memory.LegacyConfigRepo) {
	rs := memory.NewRuleSetRepo()
	cfg := memory.NewLegacyConfigRepo()
	return &memory.TxRunner{RuleSets: rs, LegacyCfg: cfg}, rs, cfg
}

func TestApply_ArchivosDelRepositorio(t *testing.T) {
	rulePack, err := yaml.LoadRulePack("../../../configs/rules.yaml")
	require.NoError(t, err)
	legacyPack, err := yaml.LoadLegacyPack("../../../configs/legacy.yaml")
	require.NoError(t, err)

	tx, ruleSets, legacyCfg := runner()
	s := seed.NewSeeder(tx, logger.Nop())
	pack := seed.Pack{RuleSets: rulePack.RuleSets, UfConfigs: legacyPack.UfConfigs, IcmsRates: legacyPack.IcmsRates}

	res, err := s.Apply(context.Background(), pack)
	require.NoError(t, err)
	assert.Equal(t, len(rulePack.RuleSets), res.RuleSetsCreated)
	assert.Equal(t, len(legacyPack.UfConfigs), res.UfConfigs)

	// Idempotente.
	again, err := s.Apply(context.Background(), pack)
	require.NoError(t, err)
	assert.Zero(t, again.RuleSetsCreated)
	assert.Equal(t, len(rulePack.RuleSets), again.RuleSetsSkipped)

	list, err := ruleSets.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, list, len(rulePack.RuleSets))
	cfgs, err := legacyCfg.ListUfConfigs(context.Background())
	require.NoError(t, err)
	assert.Len(t, cfgs, len(legacyPack.UfConfigs))

	active, err := ruleSets.ListActiveAt(context.Background(), "", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestApply_ErrorIndicaPosicion(t *testing.T) {
	tx, _, _ := runner()
	_, err := seed.NewSeeder(tx, logger.Nop()).Apply(context.Background(), seed.Pack{
		RuleSets: []rules.RuleSet{{ID: "x", Name: "sin vigencia"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "ruleSets[0]")

	_, err = seed.NewSeeder(tx, logger.Nop()).Apply(context.Background(), seed.Pack{
		UfConfigs: []dto.UfConfigRequest{{EmitterUF: "SP", RecipientUF: "PR", InternalRate: decimal.NewFromInt(2), ValidFrom: "2026-01-01"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ufConfigs[0]")
}
