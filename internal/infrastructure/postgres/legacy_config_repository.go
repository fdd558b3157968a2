package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
)

var _ repository.LegacyConfigRepository = (*LegacyConfigRepo)(nil)

const ufConfigColumns = `id, emitter_uf, recipient_uf, internal_rate, interstate_rate, st_rate, st_mva,
	difal_enabled, st_enabled, valid_from, valid_to, created_at, updated_at`

const icmsRateColumns = `id, uf, ncm, category, rate, valid_from, valid_to, created_at, updated_at`

// LegacyConfigRepo configuración ICMS por par de UF y tabla de alícuotas.
type LegacyConfigRepo struct {
	q Querier
}

// NewLegacyConfigRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLegacyConfigRepository(q Querier) *LegacyConfigRepo {
	return &LegacyConfigRepo{q: q}
}

// UpsertUfConfig inserta o reemplaza por (emitter_uf, recipient_uf, valid_from).
// En conflicto conserva el ID existente y lo devuelve en cfg.ID.
func (r *LegacyConfigRepo) UpsertUfConfig(ctx context.Context, cfg *entity.LegacyUfConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	query := `
		INSERT INTO legacy_uf_configs (` + ufConfigColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (emitter_uf, recipient_uf, valid_from) DO UPDATE SET
			internal_rate = EXCLUDED.internal_rate,
			interstate_rate = EXCLUDED.interstate_rate,
			st_rate = EXCLUDED.st_rate,
			st_mva = EXCLUDED.st_mva,
			difal_enabled = EXCLUDED.difal_enabled,
			st_enabled = EXCLUDED.st_enabled,
			valid_to = EXCLUDED.valid_to,
			updated_at = EXCLUDED.updated_at
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		cfg.ID, cfg.EmitterUF, cfg.RecipientUF, cfg.InternalRate, cfg.InterstateRate, cfg.STRate, cfg.STMva,
		cfg.DifalEnabled, cfg.STEnabled, dateOnly(cfg.ValidFrom), dateOnlyPtr(cfg.ValidTo), cfg.CreatedAt, cfg.UpdatedAt,
	).Scan(&cfg.ID)
	if err != nil {
		return fmt.Errorf("upsert uf config: %w", err)
	}
	return nil
}

// ListUfConfigs todas las configuraciones, por par y vigencia.
func (r *LegacyConfigRepo) ListUfConfigs(ctx context.Context) ([]entity.LegacyUfConfig, error) {
	query := `SELECT ` + ufConfigColumns + ` FROM legacy_uf_configs
		ORDER BY emitter_uf, recipient_uf, valid_from DESC`
	return r.listUfConfigs(ctx, query)
}

// UfConfigsActiveAt configuraciones del par vigentes en la fecha.
func (r *LegacyConfigRepo) UfConfigsActiveAt(ctx context.Context, emitterUF, recipientUF string, at time.Time) ([]entity.LegacyUfConfig, error) {
	query := `SELECT ` + ufConfigColumns + ` FROM legacy_uf_configs
		WHERE emitter_uf = $1 AND recipient_uf = $2
		  AND valid_from <= $3 AND (valid_to IS NULL OR valid_to >= $3)
		ORDER BY valid_from DESC`
	return r.listUfConfigs(ctx, query, emitterUF, recipientUF, dateOnly(at))
}

func (r *LegacyConfigRepo) listUfConfigs(ctx context.Context, query string, args ...any) ([]entity.LegacyUfConfig, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list uf configs: %w", err)
	}
	defer rows.Close()
	var list []entity.LegacyUfConfig
	for rows.Next() {
		var c entity.LegacyUfConfig
		if err := rows.Scan(&c.ID, &c.EmitterUF, &c.RecipientUF, &c.InternalRate, &c.InterstateRate,
			&c.STRate, &c.STMva, &c.DifalEnabled, &c.STEnabled, &c.ValidFrom, &c.ValidTo,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan uf config: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// UpsertIcmsRate inserta o reemplaza por (uf, ncm, category, valid_from).
// NCM y categoría vacíos se guardan como '' para que participen del índice único.
func (r *LegacyConfigRepo) UpsertIcmsRate(ctx context.Context, rate *entity.LegacyIcmsRate) error {
	if rate.ID == "" {
		rate.ID = uuid.New().String()
	}
	query := `
		INSERT INTO legacy_icms_rates (` + icmsRateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (uf, ncm, category, valid_from) DO UPDATE SET
			rate = EXCLUDED.rate,
			valid_to = EXCLUDED.valid_to,
			updated_at = EXCLUDED.updated_at
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		rate.ID, rate.UF, rate.NCM, rate.Category, rate.Rate,
		dateOnly(rate.ValidFrom), dateOnlyPtr(rate.ValidTo), rate.CreatedAt, rate.UpdatedAt,
	).Scan(&rate.ID)
	if err != nil {
		return fmt.Errorf("upsert icms rate: %w", err)
	}
	return nil
}

// ListIcmsRates filtra por UF; uf vacío = todas.
func (r *LegacyConfigRepo) ListIcmsRates(ctx context.Context, uf string) ([]entity.LegacyIcmsRate, error) {
	query := `SELECT ` + icmsRateColumns + ` FROM legacy_icms_rates
		WHERE ($1 = '' OR uf = $1)
		ORDER BY uf, ncm, category, valid_from DESC`
	return r.listIcmsRates(ctx, query, uf)
}

// IcmsRatesActiveAt alícuotas de la UF vigentes en la fecha.
func (r *LegacyConfigRepo) IcmsRatesActiveAt(ctx context.Context, uf string, at time.Time) ([]entity.LegacyIcmsRate, error) {
	query := `SELECT ` + icmsRateColumns + ` FROM legacy_icms_rates
		WHERE uf = $1 AND valid_from <= $2 AND (valid_to IS NULL OR valid_to >= $2)
		ORDER BY valid_from DESC`
	return r.listIcmsRates(ctx, query, uf, dateOnly(at))
}

func (r *LegacyConfigRepo) listIcmsRates(ctx context.Context, query string, args ...any) ([]entity.LegacyIcmsRate, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list icms rates: %w", err)
	}
	defer rows.Close()
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.LegacyIcmsRate, error) {
		var e entity.LegacyIcmsRate
		err := row.Scan(&e.ID, &e.UF, &e.NCM, &e.Category, &e.Rate, &e.ValidFrom, &e.ValidTo, &e.CreatedAt, &e.UpdatedAt)
		return e, err
	})
}
