package legacyconfig_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/legacyconfig"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/memory"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newUseCase() *legacyconfig.UseCase {
	return legacyconfig.NewUseCase(memory.NewLegacyConfigRepo(), logger.Nop())
}

// ── UF configs ──

func TestUpsertUfConfig_NormalizaYActualiza(t *testing.T) {
	uc := newUseCase()
	req := dto.UfConfigRequest{
		EmitterUF: "sp", RecipientUF: " pr ", InternalRate: d("0.18"), InterstateRate: d("0.12"),
		DifalEnabled: true, ValidFrom: "2026-01-01",
	}
	first, err := uc.UpsertUfConfig(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "SP", first.EmitterUF)
	assert.Equal(t, "PR", first.RecipientUF)
	assert.Equal(t, "2026-01-01", first.ValidFrom)
	assert.Empty(t, first.ValidTo)

	req.InternalRate = d("0.195")
	second, err := uc.UpsertUfConfig(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "misma clave actualiza")

	list, err := uc.ListUfConfigs(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].InternalRate.Equal(d("0.195")))
}

func TestUpsertUfConfig_Invalida(t *testing.T) {
	uc := newUseCase()
	_, err := uc.UpsertUfConfig(context.Background(), dto.UfConfigRequest{
		EmitterUF: "XX", RecipientUF: "PR", InternalRate: d("1.5"), ValidFrom: "2026-01-01", ValidTo: "2025-01-01",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	fields := map[string]bool{}
	for _, fe := range domain.FieldErrors(err) {
		fields[fe.Field] = true
	}
	assert.True(t, fields["ufConfig.emitterUf"], fields)
	assert.True(t, fields["ufConfig.internalRate"], fields)
}

func TestUpsertUfConfig_FechaIlegible(t *testing.T) {
	uc := newUseCase()
	_, err := uc.UpsertUfConfig(context.Background(), dto.UfConfigRequest{
		EmitterUF: "SP", RecipientUF: "PR", ValidFrom: "01/01/2026",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	require.NotEmpty(t, domain.FieldErrors(err))
	assert.Equal(t, "validFrom", domain.FieldErrors(err)[0].Field)
}

// ── Alícuotas ──

func TestUpsertIcmsRate_YFiltroPorUF(t *testing.T) {
	uc := newUseCase()
	_, err := uc.UpsertIcmsRate(context.Background(), dto.IcmsRateRequest{UF: "SP", NCM: "2203.00.00", Rate: d("0.25"), ValidFrom: "2026-01-01"})
	require.NoError(t, err)
	_, err = uc.UpsertIcmsRate(context.Background(), dto.IcmsRateRequest{UF: "PR", Rate: d("0.195"), ValidFrom: "2026-01-01"})
	require.NoError(t, err)

	sp, err := uc.ListIcmsRates(context.Background(), "sp")
	require.NoError(t, err)
	require.Len(t, sp, 1)
	assert.Equal(t, "22030000", sp[0].NCM)

	all, err := uc.ListIcmsRates(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpsertIcmsRate_Invalida(t *testing.T) {
	uc := newUseCase()
	_, err := uc.UpsertIcmsRate(context.Background(), dto.IcmsRateRequest{UF: "SP", NCM: "123", Rate: d("-0.1"), ValidFrom: "2026-01-01"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Len(t, domain.FieldErrors(err), 2)
}
