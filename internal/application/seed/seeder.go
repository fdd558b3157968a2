// Package seed carga la configuración fiscal inicial (conjuntos de reglas y configuración ICMS)
// en una sola transacción.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/legacyconfig"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/ruleset"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/pkg/logger"
)

// TxRunner ejecuta fn con repos de configuración atados a una transacción.
// Implementado por postgres.TxRunner y memory.TxRunner.
type TxRunner interface {
	RunConfig(ctx context.Context, fn func(
		ruleSets repository.RuleSetRepository,
		legacyCfg repository.LegacyConfigRepository,
	) error) error
}

// Pack contenido a cargar. Los conjuntos se guardan como globales.
type Pack struct {
	RuleSets  []rules.RuleSet
	UfConfigs []dto.UfConfigRequest
	IcmsRates []dto.IcmsRateRequest
}

// Result conteo de lo aplicado.
type Result struct {
	RuleSetsCreated int
	RuleSetsSkipped int // ya existían con el mismo id
	UfConfigs       int
	IcmsRates       int
}

// Seeder aplica un Pack de forma atómica: cualquier error revierte todo.
type Seeder struct {
	tx  TxRunner
	log *logger.Logger
}

// NewSeeder construye el seeder.
func NewSeeder(tx TxRunner, log *logger.Logger) *Seeder {
	return &Seeder{tx: tx, log: log}
}

// Apply carga el pack. Volver a aplicar el mismo pack no duplica nada.
func (s *Seeder) Apply(ctx context.Context, pack Pack) (Result, error) {
	var res Result
	err := s.tx.RunConfig(ctx, func(ruleSets repository.RuleSetRepository, legacyCfg repository.LegacyConfigRepository) error {
		res = Result{}
		rsUC := ruleset.NewUseCase(ruleSets, s.log)
		for i, rs := range pack.RuleSets {
			_, err := rsUC.Create(ctx, "", rs)
			switch {
			case errors.Is(err, domain.ErrDuplicate):
				res.RuleSetsSkipped++
				s.log.Debug().Str("rule_set_id", rs.ID).Msg("conjunto ya cargado")
			case err != nil:
				return fmt.Errorf("ruleSets[%d] (%s): %w", i, rs.Name, err)
			default:
				res.RuleSetsCreated++
			}
		}

		cfgUC := legacyconfig.NewUseCase(legacyCfg, s.log)
		for i, c := range pack.UfConfigs {
			if _, err := cfgUC.UpsertUfConfig(ctx, c); err != nil {
				return fmt.Errorf("ufConfigs[%d] (%s->%s): %w", i, c.EmitterUF, c.RecipientUF, err)
			}
			res.UfConfigs++
		}
		for i, r := range pack.IcmsRates {
			if _, err := cfgUC.UpsertIcmsRate(ctx, r); err != nil {
				return fmt.Errorf("icmsRates[%d] (%s): %w", i, r.UF, err)
			}
			res.IcmsRates++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.log.Info().
		Int("rule_sets_created", res.RuleSetsCreated).
		Int("rule_sets_skipped", res.RuleSetsSkipped).
		Int("uf_configs", res.UfConfigs).
		Int("icms_rates", res.IcmsRates).
		Msg("semillas aplicadas")
	return res, nil
}
