package repository

import (
	"context"
	"time"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
)

// LegacyConfigRepository persistencia de la configuración ICMS del régimen vigente.
type LegacyConfigRepository interface {
	// UpsertUfConfig crea o reemplaza la configuración del par para el mismo validFrom.
	UpsertUfConfig(ctx context.Context, cfg *entity.LegacyUfConfig) error
	ListUfConfigs(ctx context.Context) ([]entity.LegacyUfConfig, error)
	// UfConfigsActiveAt configuraciones del par ordenado vigentes en la fecha.
	UfConfigsActiveAt(ctx context.Context, emitterUF, recipientUF string, at time.Time) ([]entity.LegacyUfConfig, error)

	UpsertIcmsRate(ctx context.Context, rate *entity.LegacyIcmsRate) error
	// ListIcmsRates filtra por UF; uf vacío = todas.
	ListIcmsRates(ctx context.Context, uf string) ([]entity.LegacyIcmsRate, error)
	IcmsRatesActiveAt(ctx context.Context, uf string, at time.Time) ([]entity.LegacyIcmsRate, error)
}
