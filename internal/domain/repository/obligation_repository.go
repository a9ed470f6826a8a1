package repository

import (
	"context"

	"github.com/jhoicas/retaguarda-api/internal/domain/entity"
)

// ObligationFilter filtros de listado de cuentas por cobrar/pagar.
type ObligationFilter struct {
	Kind    entity.ObligationKind
	PartyID string
	Status  entity.ObligationStatus
	Limit   int
	Offset  int
}

// ObligationRepository define el puerto de persistencia para obligaciones (con sus liquidaciones).
type ObligationRepository interface {
	Create(ctx context.Context, obligation *entity.Obligation) error
	Update(ctx context.Context, obligation *entity.Obligation) error
	GetByID(ctx context.Context, tenant entity.Tenant, id string) (*entity.Obligation, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, tenant entity.Tenant, id string) (*entity.Obligation, error)
	ListBySource(ctx context.Context, tenant entity.Tenant, kind entity.SourceKind, documentID string) ([]*entity.Obligation, error)
	List(ctx context.Context, tenant entity.Tenant, filter ObligationFilter) ([]*entity.Obligation, error)
}
