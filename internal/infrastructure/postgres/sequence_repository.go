package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contadores por (tenant, serie). El UPSERT bloquea la fila del contador
// hasta el fin de la transacción, así dos unidades de trabajo nunca reciben el mismo número.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el repositorio.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Increment suma n y devuelve el valor resultante.
func (r *SequenceRepo) Increment(ctx context.Context, tenant entity.Tenant, series string, n int) (int64, error) {
	query := `
		INSERT INTO sequences (store_id, company_id, series, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (store_id, company_id, series) DO UPDATE SET value = sequences.value + EXCLUDED.value
		RETURNING value`
	var value int64
	if err := r.q.QueryRow(ctx, query, tenant.StoreID, tenant.CompanyID, series, n).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", series, err)
	}
	return value, nil
}
