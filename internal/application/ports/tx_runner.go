package ports

import (
	"context"

	"github.com/jhoicas/retaguarda-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn retorna error se descarta todo lo escrito; si no, se confirma en bloque.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx repository.Tx) error) error
}
