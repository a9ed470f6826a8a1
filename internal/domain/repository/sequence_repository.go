package repository

import (
	"context"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// SequenceRepository contador por (tenant, serie) con incremento atómico.
type SequenceRepository interface {
	// Increment suma n al contador y devuelve el nuevo valor; un contador nuevo parte de 0.
	Increment(ctx context.Context, tenant entity.Tenant, series string, n int) (int64, error)
}
