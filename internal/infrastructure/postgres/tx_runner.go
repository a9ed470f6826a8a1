package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/retaguarda-api/internal/application/ports"
	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txRepos{q: tx}); err != nil {
		return lockConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return lockConflict(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// lockConflict traduce la espera de bloqueos abortada por PostgreSQL a un conflicto reintentable.
func lockConflict(err error) error {
	if isLockConflict(err) {
		return domain.ErrConflict.WithMessage("operación concurrente sobre los mismos registros, reintente")
	}
	return err
}

// txRepos repositorios atados a la misma pgx.Tx.
type txRepos struct {
	q Querier
}

func (t *txRepos) Products() repository.ProductRepository { return NewProductRepository(t.q) }
func (t *txRepos) StockMovements() repository.StockMovementRepository {
	return NewStockMovementRepository(t.q)
}
func (t *txRepos) Sessions() repository.CashSessionRepository { return NewCashSessionRepository(t.q) }
func (t *txRepos) Movements() repository.MovementRepository   { return NewMovementRepository(t.q) }
func (t *txRepos) Obligations() repository.ObligationRepository {
	return NewObligationRepository(t.q)
}
func (t *txRepos) Sequences() repository.SequenceRepository { return NewSequenceRepository(t.q) }
func (t *txRepos) Documents(kind entity.DocumentKind) repository.DocumentRepository {
	return NewDocumentRepository(t.q, kind)
}
