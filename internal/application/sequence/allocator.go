// Package sequence numeración monótona por (tenant, serie).
package sequence

import (
	"context"
	"fmt"

	"github.com/jhoicas/retaguarda-api/internal/domain"
	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

// Next reserva el siguiente número de la serie dentro de la tx del documento que numera.
func Next(ctx context.Context, tx repository.Tx, tenant entity.Tenant, series string) (int64, error) {
	return NextN(ctx, tx, tenant, series, 1)
}

// NextN reserva n números consecutivos y devuelve el primero. Un contador nuevo empieza en 1.
// El incremento es atómico en el almacenamiento y se descarta con el rollback de la tx.
func NextN(ctx context.Context, tx repository.Tx, tenant entity.Tenant, series string, n int) (int64, error) {
	if n < 1 {
		return 0, domain.ErrInvalidInput.WithMessage("cantidad de números inválida: %d", n)
	}
	last, err := tx.Sequences().Increment(ctx, tenant, series, n)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", series, err)
	}
	return last - int64(n) + 1, nil
}
