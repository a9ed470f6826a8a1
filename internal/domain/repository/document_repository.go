package repository

import (
	"context"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// DocumentRepository persistencia de ventas u órdenes de servicio (una instancia por tipo).
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Update(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, tenant entity.Tenant, id string) (*entity.Document, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, tenant entity.Tenant, id string) (*entity.Document, error)
}
