package repository

import (
	"context"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para productos.
// Las implementaciones devuelven (nil, nil) cuando el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByCode(ctx context.Context, tenant entity.Tenant, code string) (*entity.Product, error)
	// GetByCodeForUpdate bloquea la fila del producto hasta el fin de la transacción.
	GetByCodeForUpdate(ctx context.Context, tenant entity.Tenant, code string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
}

// StockMovementRepository auditoría de deltas de stock.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByProduct(ctx context.Context, tenant entity.Tenant, productCode string, limit, offset int) ([]*entity.StockMovement, error)
}
