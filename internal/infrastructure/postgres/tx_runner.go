package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/repository"
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunConfig inicia una transacción, ejecuta fn con los repos de configuración fiscal
// atados a la tx y hace Commit o Rollback. Lo usa la carga de semillas.
func (r *TxRunner) RunConfig(ctx context.Context, fn func(
	ruleSets repository.RuleSetRepository,
	legacyCfg repository.LegacyConfigRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRuleSetRepository(tx), NewLegacyConfigRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
