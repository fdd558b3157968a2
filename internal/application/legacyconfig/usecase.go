package legacyconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/entity"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/legacy"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/fiscal"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// UseCase administra la configuración ICMS del régimen vigente (pares de UF y alícuotas).
type UseCase struct {
	repo repository.LegacyConfigRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.LegacyConfigRepository, log *logger.Logger) *UseCase {
	return &UseCase{repo: repo, log: log, now: time.Now}
}

// UpsertUfConfig valida y guarda la configuración del par (reemplaza la del mismo validFrom).
func (uc *UseCase) UpsertUfConfig(ctx context.Context, in dto.UfConfigRequest) (*dto.UfConfigResponse, error) {
	cfg, err := ToUfConfig(in)
	if err != nil {
		return nil, err
	}
	if err := domain.JoinInvalid(legacy.ValidateUfConfig(cfg, "ufConfig")); err != nil {
		return nil, err
	}
	now := uc.now()
	cfg.CreatedAt, cfg.UpdatedAt = now, now
	if err := uc.repo.UpsertUfConfig(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("guardar configuración %s->%s: %w", cfg.EmitterUF, cfg.RecipientUF, err)
	}
	uc.log.Info().
		Str("uf_config_id", cfg.ID).
		Str("emitter_uf", cfg.EmitterUF).
		Str("recipient_uf", cfg.RecipientUF).
		Msg("configuración ICMS actualizada")
	return toUfConfigResponse(cfg), nil
}

// ListUfConfigs todas las configuraciones de pares.
func (uc *UseCase) ListUfConfigs(ctx context.Context) ([]dto.UfConfigResponse, error) {
	list, err := uc.repo.ListUfConfigs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UfConfigResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toUfConfigResponse(c))
	}
	return out, nil
}

// UpsertIcmsRate valida y guarda una entrada de la tabla de alícuotas.
func (uc *UseCase) UpsertIcmsRate(ctx context.Context, in dto.IcmsRateRequest) (*dto.IcmsRateResponse, error) {
	rate, err := ToIcmsRate(in)
	if err != nil {
		return nil, err
	}
	if err := domain.JoinInvalid(legacy.ValidateIcmsRate(rate, "icmsRate")); err != nil {
		return nil, err
	}
	now := uc.now()
	rate.CreatedAt, rate.UpdatedAt = now, now
	if err := uc.repo.UpsertIcmsRate(ctx, &rate); err != nil {
		return nil, fmt.Errorf("guardar alícuota %s: %w", rate.UF, err)
	}
	return toIcmsRateResponse(rate), nil
}

// ListIcmsRates alícuotas filtradas por UF (vacío = todas).
func (uc *UseCase) ListIcmsRates(ctx context.Context, uf string) ([]dto.IcmsRateResponse, error) {
	if uf != "" {
		uf = fiscal.NormalizeUF(uf)
		if !fiscal.IsValidUF(uf) {
			return nil, domain.JoinInvalid([]error{domain.Invalid("uf", "UF desconocida")})
		}
	}
	list, err := uc.repo.ListIcmsRates(ctx, uf)
	if err != nil {
		return nil, err
	}
	out := make([]dto.IcmsRateResponse, 0, len(list))
	for _, r := range list {
		out = append(out, *toIcmsRateResponse(r))
	}
	return out, nil
}

// ToUfConfig convierte la entrada a entidad normalizando UFs y fechas.
func ToUfConfig(in dto.UfConfigRequest) (entity.LegacyUfConfig, error) {
	from, to, err := parseWindow(in.ValidFrom, in.ValidTo)
	if err != nil {
		return entity.LegacyUfConfig{}, err
	}
	return entity.LegacyUfConfig{
		EmitterUF:      fiscal.NormalizeUF(in.EmitterUF),
		RecipientUF:    fiscal.NormalizeUF(in.RecipientUF),
		InternalRate:   in.InternalRate,
		InterstateRate: in.InterstateRate,
		STRate:         in.STRate,
		STMva:          in.STMva,
		DifalEnabled:   in.DifalEnabled,
		STEnabled:      in.STEnabled,
		ValidFrom:      from,
		ValidTo:        to,
	}, nil
}

// ToIcmsRate convierte la entrada a entidad normalizando UF, NCM y fechas.
func ToIcmsRate(in dto.IcmsRateRequest) (entity.LegacyIcmsRate, error) {
	from, to, err := parseWindow(in.ValidFrom, in.ValidTo)
	if err != nil {
		return entity.LegacyIcmsRate{}, err
	}
	return entity.LegacyIcmsRate{
		UF:        fiscal.NormalizeUF(in.UF),
		NCM:       fiscal.NormalizeNCM(in.NCM),
		Category:  in.Category,
		Rate:      in.Rate,
		ValidFrom: from,
		ValidTo:   to,
	}, nil
}

func parseWindow(fromStr, toStr string) (time.Time, *time.Time, error) {
	var errs []error
	from, err := rules.ParseDate(fromStr)
	if err != nil {
		errs = append(errs, domain.Invalid("validFrom", err.Error()))
	}
	var to *time.Time
	if toStr != "" {
		t, err := rules.ParseDate(toStr)
		if err != nil {
			errs = append(errs, domain.Invalid("validTo", err.Error()))
		} else {
			to = &t
		}
	}
	if err := domain.JoinInvalid(errs); err != nil {
		return time.Time{}, nil, err
	}
	return from, to, nil
}

func toUfConfigResponse(c entity.LegacyUfConfig) *dto.UfConfigResponse {
	return &dto.UfConfigResponse{
		ID:             c.ID,
		EmitterUF:      c.EmitterUF,
		RecipientUF:    c.RecipientUF,
		InternalRate:   c.InternalRate,
		InterstateRate: c.InterstateRate,
		STRate:         c.STRate,
		STMva:          c.STMva,
		DifalEnabled:   c.DifalEnabled,
		STEnabled:      c.STEnabled,
		ValidFrom:      c.ValidFrom.Format(time.DateOnly),
		ValidTo:        formatDatePtr(c.ValidTo),
		UpdatedAt:      c.UpdatedAt,
	}
}

func toIcmsRateResponse(r entity.LegacyIcmsRate) *dto.IcmsRateResponse {
	return &dto.IcmsRateResponse{
		ID:        r.ID,
		UF:        r.UF,
		NCM:       r.NCM,
		Category:  r.Category,
		Rate:      r.Rate,
		ValidFrom: r.ValidFrom.Format(time.DateOnly),
		ValidTo:   formatDatePtr(r.ValidTo),
		UpdatedAt: r.UpdatedAt,
	}
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
